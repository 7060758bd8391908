// Copyright © 2024 The ELPS authors

// Package tbtest holds traceback fixtures shared by the package tests.
package tbtest

import (
	"fmt"
	"strings"

	"github.com/luthersystems/prettytb/traceback"
)

// WorkDir is the working directory the fixtures were captured in.
const WorkDir = "/home/user/foss/myproject"

// UnixPaths is a sys.path of a virtualenv based unix setup.
var UnixPaths = []string{
	"/home/user/project",
	"/home/user/foss/myproject",
	"/home/user/src/project-common",
	"/home/user/venv/lib/python2.7",
	"/home/user/envs/py38/lib/python3.8",
	"/home/user/venv/lib/python2.7/site-packages",
	"/home/user/.local/lib/python3.8/site-packages",
	"/home/user/venvs/py38/lib/python3.8/site-packages",
	"/home/user/venvs/py38",
	"/home/user/foss/myproject/src/myproject",
}

// WindowsPaths is a sys.path of a windows installation.
var WindowsPaths = []string{
	`C:\Python38\python38.zip`,
	`C:\Python38\DLLs`,
	`C:\Python38\lib`,
	`C:\Python38`,
	`C:\Python38\lib\site-packages`,
	`c:\users\user\venv38`,
	`c:\users\user\venv38\lib\site-packages`,
	`c:\users\user\venv38\lib\site-packages\IPython\extensions`,
	`C:\Users\user\.ipython`,
}

// AllPaths combines WindowsPaths and UnixPaths.
func AllPaths() []string {
	paths := make([]string, 0, len(WindowsPaths)+len(UnixPaths))
	paths = append(paths, WindowsPaths...)
	return append(paths, UnixPaths...)
}

// BasicTraceback is a single traceback in the standard python format.
const BasicTraceback = `Traceback (most recent call last):
  File "/home/user/venvs/py38/bin/myproject", line 12, in <module>
    sys.exit(cli())
  File "/home/user/venvs/py38/lib/python3.8/site-packages/click/core.py", line 829, in __call__
    return self.main(*args, **kwargs)
  File "/home/user/venvs/py38/lib/python3.8/site-packages/click/core.py", line 782, in main
    rv = self.invoke(ctx)
  File "/home/user/venvs/py38/lib/python3.8/site-packages/click/core.py", line 1259, in invoke
    return _process_result(sub_ctx.command.invoke(sub_ctx))
  File "/home/user/venvs/py38/lib/python3.8/site-packages/click/core.py", line 1066, in invoke
    return ctx.invoke(self.callback, **ctx.params)
  File "/home/user/venvs/py38/lib/python3.8/site-packages/click/core.py", line 610, in invoke
    return callback(*args, **kwargs)
  File "/home/user/foss/myproject/src/myproject/cli.py", line 148, in build
    lp_gen_docs.gen_html(built_ctx, html_dir)
  File "/home/user/foss/myproject/src/myproject/gen_docs.py", line 295, in gen_html
    wrapped_html = wrap_content_html(content_html, 'screen', meta, toc)
  File "/home/user/foss/myproject/src/myproject/gen_docs.py", line 238, in wrap_content_html
    result = tmpl.render(**ctx)
  File "/home/user/venvs/py38/lib/python3.8/site-packages/jinja2/environment.py", line 1090, in render
    self.environment.handle_exception()
  File "/home/user/venvs/py38/lib/python3.8/site-packages/jinja2/environment.py", line 832, in handle_exception
    reraise(*rewrite_traceback_stack(source=source))
  File "/home/user/venvs/py38/lib/python3.8/site-packages/jinja2/_compat.py", line 28, in reraise
    raise value.with_traceback(tb)
  File "<template>", line 56, in top-level template code
TypeError: no loader for this environment specified
`

// BasicFrames are the frames of BasicTraceback.
var BasicFrames = []traceback.Frame{
	{Module: "/home/user/venvs/py38/bin/myproject", Call: "<module>", Lineno: "12", SrcCtx: "sys.exit(cli())"},
	{Module: "/home/user/venvs/py38/lib/python3.8/site-packages/click/core.py", Call: "__call__", Lineno: "829", SrcCtx: "return self.main(*args, **kwargs)"},
	{Module: "/home/user/venvs/py38/lib/python3.8/site-packages/click/core.py", Call: "main", Lineno: "782", SrcCtx: "rv = self.invoke(ctx)"},
	{Module: "/home/user/venvs/py38/lib/python3.8/site-packages/click/core.py", Call: "invoke", Lineno: "1259", SrcCtx: "return _process_result(sub_ctx.command.invoke(sub_ctx))"},
	{Module: "/home/user/venvs/py38/lib/python3.8/site-packages/click/core.py", Call: "invoke", Lineno: "1066", SrcCtx: "return ctx.invoke(self.callback, **ctx.params)"},
	{Module: "/home/user/venvs/py38/lib/python3.8/site-packages/click/core.py", Call: "invoke", Lineno: "610", SrcCtx: "return callback(*args, **kwargs)"},
	{Module: "/home/user/foss/myproject/src/myproject/cli.py", Call: "build", Lineno: "148", SrcCtx: "lp_gen_docs.gen_html(built_ctx, html_dir)"},
	{Module: "/home/user/foss/myproject/src/myproject/gen_docs.py", Call: "gen_html", Lineno: "295", SrcCtx: "wrapped_html = wrap_content_html(content_html, 'screen', meta, toc)"},
	{Module: "/home/user/foss/myproject/src/myproject/gen_docs.py", Call: "wrap_content_html", Lineno: "238", SrcCtx: "result = tmpl.render(**ctx)"},
	{Module: "/home/user/venvs/py38/lib/python3.8/site-packages/jinja2/environment.py", Call: "render", Lineno: "1090", SrcCtx: "self.environment.handle_exception()"},
	{Module: "/home/user/venvs/py38/lib/python3.8/site-packages/jinja2/environment.py", Call: "handle_exception", Lineno: "832", SrcCtx: "reraise(*rewrite_traceback_stack(source=source))"},
	{Module: "/home/user/venvs/py38/lib/python3.8/site-packages/jinja2/_compat.py", Call: "reraise", Lineno: "28", SrcCtx: "raise value.with_traceback(tb)"},
	{Module: "<template>", Call: "top-level template code", Lineno: "56", SrcCtx: ""},
}

// BasicChain is the parsed form of BasicTraceback.
func BasicChain() traceback.Chain {
	return traceback.Chain{{
		Name:    "TypeError",
		Message: "no loader for this environment specified",
		Frames:  append([]traceback.Frame(nil), BasicFrames...),
	}}
}

// ChainedTraceback is a three level chain: a FileNotFoundError, an
// AttributeError raised while handling it and a KeyError raised from the
// AttributeError.
const ChainedTraceback = `Traceback (most recent call last):
  File "/home/user/foss/myproject/test/test_formatting.py", line 99, in _ping
    sp.check_output(["command_that", "doesnt", "exist"])
  File "/usr/lib/python3.8/subprocess.py", line 411, in check_output
    return run(*popenargs, stdout=PIPE, timeout=timeout, check=True,
  File "/usr/lib/python3.8/subprocess.py", line 489, in run
    with Popen(*popenargs, **kwargs) as process:
FileNotFoundError: [Errno 2] No such file or directory: 'command_that'

During handling of the above exception, another exception occurred:

Traceback (most recent call last):
  File "/home/user/foss/myproject/test/test_formatting.py", line 102, in _ping
    raise AttributeError()
AttributeError

The above exception was the direct cause of the following exception:

Traceback (most recent call last):
  File "/home/user/foss/myproject/test/test_formatting.py", line 125, in test_pingpong
    run_pingpong()
  File "/usr/lib/python3.8/sched.py", line 151, in run
    action(*argument, **kwargs)
  File "/home/user/foss/myproject/test/test_formatting.py", line 113, in _ping
    raise new_ex
KeyError: 'Wrapping KeyError'
`

// ChainedChain is the parsed form of ChainedTraceback.
func ChainedChain() traceback.Chain {
	return traceback.Chain{
		{
			Name:    "FileNotFoundError",
			Message: "[Errno 2] No such file or directory: 'command_that'",
			Frames: []traceback.Frame{
				{Module: "/home/user/foss/myproject/test/test_formatting.py", Call: "_ping", Lineno: "99", SrcCtx: `sp.check_output(["command_that", "doesnt", "exist"])`},
				{Module: "/usr/lib/python3.8/subprocess.py", Call: "check_output", Lineno: "411", SrcCtx: "return run(*popenargs, stdout=PIPE, timeout=timeout, check=True,"},
				{Module: "/usr/lib/python3.8/subprocess.py", Call: "run", Lineno: "489", SrcCtx: "with Popen(*popenargs, **kwargs) as process:"},
			},
		},
		{
			Name:    "AttributeError",
			Context: true,
			Frames: []traceback.Frame{
				{Module: "/home/user/foss/myproject/test/test_formatting.py", Call: "_ping", Lineno: "102", SrcCtx: "raise AttributeError()"},
			},
		},
		{
			Name:    "KeyError",
			Message: "'Wrapping KeyError'",
			Caused:  true,
			Frames: []traceback.Frame{
				{Module: "/home/user/foss/myproject/test/test_formatting.py", Call: "test_pingpong", Lineno: "125", SrcCtx: "run_pingpong()"},
				{Module: "/usr/lib/python3.8/sched.py", Call: "run", Lineno: "151", SrcCtx: "action(*argument, **kwargs)"},
				{Module: "/home/user/foss/myproject/test/test_formatting.py", Call: "_ping", Lineno: "113", SrcCtx: "raise new_ex"},
			},
		},
	}
}

// RecursionChain returns a RecursionError record with lead distinct frames
// followed by depth identical recursive frames and one closing frame.
func RecursionChain(lead, depth int) traceback.Chain {
	var frames []traceback.Frame
	for i := 0; i < lead; i++ {
		frames = append(frames, traceback.Frame{
			Module: fmt.Sprintf("/home/user/foss/myproject/src/myproject/step%d.py", i),
			Call:   fmt.Sprintf("step%d", i),
			Lineno: fmt.Sprint(10 + i),
			SrcCtx: fmt.Sprintf("step%d()", i+1),
		})
	}
	for i := 0; i < depth; i++ {
		frames = append(frames, traceback.Frame{
			Module: "/home/user/foss/myproject/src/myproject/recurse.py",
			Call:   "recurse",
			Lineno: "7",
			SrcCtx: "return recurse(n + 1)",
		})
	}
	frames = append(frames, traceback.Frame{
		Module: "/home/user/foss/myproject/src/myproject/recurse.py",
		Call:   "guard",
		Lineno: "3",
		SrcCtx: "if isinstance(n, int):",
	})
	return traceback.Chain{{
		Name:    "RecursionError",
		Message: "maximum recursion depth exceeded while calling a Python object",
		Frames:  frames,
	}}
}

// StandardFormat renders a chain in the interpreter's own traceback format.
func StandardFormat(c traceback.Chain) string {
	var b strings.Builder
	for i := range c {
		r := &c[i]
		if r.Caused {
			b.WriteString(traceback.CauseHead + "\n\n")
		} else if r.Context {
			b.WriteString(traceback.ContextHead + "\n\n")
		}
		b.WriteString(traceback.TracebackHead + "\n")
		for _, f := range r.Frames {
			fmt.Fprintf(&b, "  File \"%s\", line %s, in %s\n", f.Module, f.Lineno, f.Call)
			if f.SrcCtx != "" {
				b.WriteString("    " + f.SrcCtx + "\n")
			}
		}
		b.WriteString(r.ErrorLine() + "\n")
		if i < len(c)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
