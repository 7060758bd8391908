// Copyright © 2024 The ELPS authors

package parse

import (
	"fmt"
	"os"
	"testing"

	"github.com/luthersystems/prettytb/alias"
	"github.com/luthersystems/prettytb/layout"
	"github.com/luthersystems/prettytb/render"
	"github.com/luthersystems/prettytb/tbtest"
	"github.com/luthersystems/prettytb/traceback"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStandard(t *testing.T) {
	c, err := Parse(tbtest.BasicTraceback)
	require.NoError(t, err)
	assert.Equal(t, tbtest.BasicChain(), c)
}

func TestParseStandardChain(t *testing.T) {
	for _, want := range []traceback.Chain{tbtest.BasicChain(), tbtest.ChainedChain()} {
		c, err := Parse(tbtest.StandardFormat(want))
		require.NoError(t, err)
		assert.Equal(t, want, c)
	}
}

func TestParseCarets(t *testing.T) {
	text := `Traceback (most recent call last):
  File "/srv/app/main.py", line 3, in <module>
    run()
    ~~~^^
  File "/srv/app/lib/util.py", line 12, in run
    return 1 / 0
           ~~^~~
ZeroDivisionError: division by zero
`
	c, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, c, 1)
	assert.Equal(t, []traceback.Frame{
		{Module: "/srv/app/main.py", Call: "<module>", Lineno: "3", SrcCtx: "run()"},
		{Module: "/srv/app/lib/util.py", Call: "run", Lineno: "12", SrcCtx: "return 1 / 0"},
	}, c[0].Frames)
	assert.Equal(t, "ZeroDivisionError", c[0].Name)
	assert.Equal(t, "division by zero", c[0].Message)
}

func TestParseRepeatedLine(t *testing.T) {
	text := `Traceback (most recent call last):
  File "/srv/app/rec.py", line 2, in f
    return f()
  File "/srv/app/rec.py", line 2, in f
    return f()
  [Previous line repeated 996 more times]
RecursionError: maximum recursion depth exceeded
`
	c, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, c, 1)
	assert.Len(t, c[0].Frames, 2)
	assert.Equal(t, "RecursionError", c[0].Name)
}

func TestParseNoSourceLine(t *testing.T) {
	text := "Traceback (most recent call last):\n" +
		"  File \"<stdin>\", line 1, in <module>\n" +
		"NameError: name 'x' is not defined\n"
	c, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, c, 1)
	assert.Equal(t, []traceback.Frame{{Module: "<stdin>", Call: "<module>", Lineno: "1"}}, c[0].Frames)
	assert.Equal(t, "name 'x' is not defined", c[0].Message)
}

func TestParseSurroundingText(t *testing.T) {
	text := "starting up\nINFO: loaded 3 plugins\n" + tbtest.BasicTraceback + "shutting down\n"
	c, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, tbtest.BasicChain(), c)
}

func TestParseStrayHeader(t *testing.T) {
	text := traceback.CauseHead + "\nsomething else\n" + tbtest.BasicTraceback
	c, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, c, 1)
	assert.False(t, c[0].Caused)
}

func TestParseNoTraceback(t *testing.T) {
	_, err := Parse("hello\nworld\n")
	assert.ErrorIs(t, err, ErrNoTraceback)
	_, err = Parse("")
	assert.ErrorIs(t, err, ErrNoTraceback)
}

func noFiles(string) (os.FileInfo, error) {
	return nil, os.ErrNotExist
}

func TestParseRendered(t *testing.T) {
	chains := map[string]traceback.Chain{
		"basic":   tbtest.BasicChain(),
		"chained": tbtest.ChainedChain(),
	}
	for name, want := range chains {
		for _, width := range []int{-1, 20, 80, 1000} {
			for _, style := range []layout.Style{layout.StyleColumns, layout.StyleCompact} {
				for _, color := range []render.ColorMode{render.ColorNever, render.ColorAlways} {
					r := &render.Renderer{
						Color: color,
						Style: style,
						Width: width,
						Roots: alias.Roots{Paths: tbtest.AllPaths(), WorkDir: tbtest.WorkDir},
						Stat:  noFiles,
					}
					t.Run(fmt.Sprintf("%s/%d/%s/%d", name, width, style, color), func(t *testing.T) {
						text := r.Format(want)
						c, err := Parse(text)
						require.NoError(t, err, text)
						assert.Equal(t, want, c, text)
					})
				}
			}
		}
	}
}

func TestParseRenderedEmptyCall(t *testing.T) {
	want := traceback.Chain{{
		Name:    "SyntaxError",
		Message: "invalid syntax",
		Frames: []traceback.Frame{
			{Module: "/srv/app/main.py", Call: "<module>", Lineno: "3", SrcCtx: "import a"},
			{Module: "/srv/app/a.py", Call: "", Lineno: "1", SrcCtx: "a = 1"},
		},
	}}
	for _, width := range []int{-1, 20, 1000} {
		for _, style := range []layout.Style{layout.StyleColumns, layout.StyleCompact} {
			r := &render.Renderer{
				Color: render.ColorNever,
				Style: style,
				Width: width,
				Roots: alias.Roots{Paths: []string{"/srv/app"}},
				Stat:  noFiles,
			}
			text := r.Format(want)
			c, err := Parse(text)
			require.NoError(t, err, text)
			assert.Equal(t, want, c, text)
		}
	}
}

func TestParseRenderedWindows(t *testing.T) {
	want := traceback.Chain{{
		Name:    "ImportError",
		Message: "DLL load failed",
		Frames: []traceback.Frame{
			{Module: `c:\users\user\venv38\lib\site-packages\numpy\__init__.py`, Call: "<module>", Lineno: "140", SrcCtx: "from . import core"},
			{Module: `C:\Python38\lib\importlib\__init__.py`, Call: "import_module", Lineno: "127", SrcCtx: "return _bootstrap._gcd_import(name[level:], package, level)"},
		},
	}}
	for _, style := range []layout.Style{layout.StyleColumns, layout.StyleCompact} {
		r := &render.Renderer{
			Color: render.ColorNever,
			Style: style,
			Width: 20,
			Roots: alias.Roots{Paths: tbtest.WindowsPaths},
			Stat:  noFiles,
		}
		text := r.Format(want)
		require.Contains(t, text, traceback.AliasesHead)
		c, err := Parse(text)
		require.NoError(t, err, text)
		assert.Equal(t, want, c, text)
	}
}

func TestParseOmittedMarker(t *testing.T) {
	r := &render.Renderer{Color: render.ColorNever, Width: -1, Stat: noFiles}
	c, err := Parse(r.Format(tbtest.RecursionChain(3, 150)))
	require.NoError(t, err)
	require.Len(t, c, 1)
	// lead frames, two recursive frames and the closing frame
	assert.Len(t, c[0].Frames, 6)
	assert.Equal(t, "guard", c[0].Frames[5].Call)
}

func TestExpandLongestAliasFirst(t *testing.T) {
	p := parser{legend: []alias.Alias{
		{Name: "<p1>", Prefix: "/one/"},
		{Name: "<p10>", Prefix: "/ten/"},
	}}
	assert.Equal(t, "/ten/x.py", p.expand("<p10>x.py"))
	assert.Equal(t, "/one/x.py", p.expand("<p1>x.py"))
	assert.Equal(t, "<template>", p.expand("<template>"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		line string
		want Kind
	}{
		{"", Blank},
		{"   ", Blank},
		{traceback.TracebackHead, TracebackHead},
		{traceback.TracebackHead + "\r", TracebackHead},
		{traceback.AliasesHead, AliasesHead},
		{traceback.CauseHead, CauseHead},
		{traceback.ContextHead, ContextHead},
		{"\x1b[1m" + traceback.TracebackHead + "\x1b[0m", TracebackHead},
		{"  File \"x.py\", line 1, in f", Indented},
		{"\tx", Indented},
		{"KeyError: 'a'", Text},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, Classify(test.line), "%q", test.line)
	}
	assert.True(t, CauseHead.IsHeader())
	assert.False(t, Indented.IsHeader())
}

func TestStripANSI(t *testing.T) {
	assert.Equal(t, "KeyError: 'a'", StripANSI("\x1b[1;31mKeyError\x1b[0m: \x1b[1m'a'\x1b[0m"))
	assert.Equal(t, "plain", StripANSI("plain"))
}
