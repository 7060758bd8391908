// Copyright © 2024 The ELPS authors

package render

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/luthersystems/prettytb/alias"
	"github.com/luthersystems/prettytb/layout"
	"github.com/luthersystems/prettytb/tbtest"
	"github.com/luthersystems/prettytb/traceback"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func noFiles(string) (os.FileInfo, error) {
	return nil, os.ErrNotExist
}

// testRenderer returns a Renderer with colors disabled, a fixed width and
// the fixture search roots.
func testRenderer(width int) *Renderer {
	return &Renderer{
		Color: ColorNever,
		Width: width,
		Roots: alias.Roots{Paths: tbtest.AllPaths(), WorkDir: tbtest.WorkDir},
		Stat:  noFiles,
	}
}

var smallChain = traceback.Chain{{
	Name:    "ValueError",
	Message: "x",
	Frames: []traceback.Frame{
		{Module: "/srv/app/main.py", Call: "main", Lineno: "3", SrcCtx: "run()"},
		{Module: "/srv/app/lib/util.py", Call: "helper", Lineno: "12", SrcCtx: "raise ValueError(x)"},
	},
}}

func smallRenderer(width int, style layout.Style) *Renderer {
	return &Renderer{
		Color: ColorNever,
		Style: style,
		Width: width,
		Roots: alias.Roots{Paths: []string{"/srv/app"}},
		Stat:  noFiles,
	}
}

// frameLines returns the lines between the traceback header and the error
// line of a single rendered block.
func frameLines(t *testing.T, block string) []string {
	t.Helper()
	parts := strings.SplitN(block, traceback.TracebackHead+"\n", 2)
	require.Len(t, parts, 2, block)
	lines := strings.Split(strings.TrimRight(parts[1], "\n"), "\n")
	return lines[:len(lines)-1]
}

func TestFormatWide(t *testing.T) {
	got := smallRenderer(100, layout.StyleColumns).Format(smallChain)
	assert.Equal(t, traceback.TracebackHead+"\n"+
		"    /srv/app/main.py      main     3: run()\n"+
		"    /srv/app/lib/util.py  helper  12: raise ValueError(x)\n"+
		"ValueError: x\n", got)
}

func TestFormatNarrow(t *testing.T) {
	got := smallRenderer(30, layout.StyleColumns).Format(smallChain)
	assert.Equal(t, traceback.AliasesHead+"\n"+
		"    <p0>: /srv/app/\n"+
		traceback.TracebackHead+"\n"+
		"    <p0>main.py      main     3: run()\n"+
		"    <p0>lib/util.py  helper  12: raise ValueError(x)\n"+
		"ValueError: x\n", got)
}

func TestFormatCompactStyle(t *testing.T) {
	got := smallRenderer(30, layout.StyleCompact).Format(smallChain)
	assert.Contains(t, got, "    <p0> main.py:3       main    run()\n")
	assert.Contains(t, got, "    <p0> lib/util.py:12  helper  raise ValueError(x)\n")
}

func TestFormatCompactUnknownCall(t *testing.T) {
	c := traceback.Chain{{
		Name:   "SyntaxError",
		Frames: []traceback.Frame{{Module: "/srv/app/a.py", Lineno: "1", SrcCtx: "a = 1"}},
	}}
	got := smallRenderer(-1, layout.StyleCompact).Format(c)
	assert.Contains(t, got, "    /srv/app/a.py:1  ?  a = 1\n")
	assert.Empty(t, c[0].Frames[0].Call, "frames are not modified")

	got = smallRenderer(-1, layout.StyleColumns).Format(c)
	assert.Contains(t, got, "    /srv/app/a.py    1: a = 1\n")
}

func TestFormatUnpadded(t *testing.T) {
	got := smallRenderer(-1, layout.StyleColumns).Format(smallChain)
	assert.NotContains(t, got, traceback.AliasesHead)
	assert.Contains(t, got, "    /srv/app/main.py  main  3: run()\n")
	assert.Contains(t, got, "    /srv/app/lib/util.py  helper  12: raise ValueError(x)\n")
}

func TestFormatFramesPreserved(t *testing.T) {
	for _, width := range []int{-1, 20, 80, 1000} {
		for _, style := range []layout.Style{layout.StyleColumns, layout.StyleCompact} {
			r := testRenderer(width)
			r.Style = style
			for _, c := range []traceback.Chain{tbtest.BasicChain(), tbtest.ChainedChain()} {
				for i := range c {
					rec := &c[i]
					block := r.FormatRecord(rec)
					lines := frameLines(t, block)
					require.Len(t, lines, len(rec.Frames), block)
					for j, f := range rec.Frames {
						assert.Contains(t, lines[j], f.Lineno)
						assert.Contains(t, lines[j], f.Call)
						assert.Contains(t, lines[j], f.SrcCtx)
						assert.True(t, strings.HasPrefix(lines[j], "    "), lines[j])
					}
					assert.True(t, strings.HasSuffix(block, rec.ErrorLine()+"\n"))
				}
			}
		}
	}
}

func TestFormatNarrowAlignment(t *testing.T) {
	r := testRenderer(20)
	rec := &tbtest.BasicChain()[0]
	block := r.FormatRecord(rec)
	tbtest.NewLogger(t).Write([]byte(block))
	require.Contains(t, block, traceback.AliasesHead)

	tab := layout.NewTable(rec.Frames, r.Roots, r.Stat)
	w := tab.Widths
	end := len(indent) + w.Short + 2 + w.Call + 2 + w.Lineno
	for _, line := range frameLines(t, block) {
		require.Greater(t, len(line), end+1, line)
		assert.Equal(t, ": ", line[end:end+2], line)
		assert.True(t, line[end-1] >= '0' && line[end-1] <= '9', line)
	}
}

func TestFormatWideAlignment(t *testing.T) {
	r := testRenderer(1000)
	rec := &tbtest.BasicChain()[0]
	block := r.FormatRecord(rec)
	assert.NotContains(t, block, traceback.AliasesHead)
	tab := layout.NewTable(rec.Frames, r.Roots, r.Stat)
	end := len(indent) + tab.Widths.Full + 2 + tab.Widths.Call + 2 + tab.Widths.Lineno
	for _, line := range frameLines(t, block) {
		assert.Equal(t, ": ", line[end:end+2], line)
	}
}

func TestFormatLegend(t *testing.T) {
	block := testRenderer(20).FormatRecord(&tbtest.BasicChain()[0])
	assert.Contains(t, block, "    <site>: /home/user/venvs/py38/lib/python3.8/site-packages/\n")
	assert.Contains(t, block, "    <p0>  : /home/user/foss/myproject/src/myproject/\n")
	assert.Contains(t, block, "    <p1>  : /home/user/venvs/py38/\n")
	assert.Less(t, strings.Index(block, traceback.AliasesHead), strings.Index(block, traceback.TracebackHead))
}

func TestFormatUnaliasedPath(t *testing.T) {
	c := traceback.Chain{{
		Name: "NameError",
		Frames: []traceback.Frame{
			{Module: "/opt/elsewhere/tool.py", Call: "run", Lineno: "8", SrcCtx: "undefined_name"},
			{Module: "/home/user/venvs/py38/lib/python3.8/site-packages/click/core.py", Call: "main", Lineno: "782", SrcCtx: "rv = self.invoke(ctx)"},
		},
	}}
	got := testRenderer(20).Format(c)
	assert.Contains(t, got, "    /opt/elsewhere/tool.py")
	assert.NotContains(t, got, "/opt/elsewhere/:")
	assert.Equal(t, 1, strings.Count(got, ": /"), "only the site-packages alias is listed")
}

func TestFormatChainOrder(t *testing.T) {
	got := testRenderer(1000).Format(tbtest.ChainedChain())
	tbtest.NewLogger(t).Write([]byte(got))

	notFound := strings.Index(got, "FileNotFoundError: ")
	during := strings.Index(got, traceback.ContextHead)
	attrErr := strings.Index(got, "\nAttributeError\n")
	cause := strings.Index(got, traceback.CauseHead)
	keyErr := strings.Index(got, "KeyError: 'Wrapping KeyError'")
	for _, i := range []int{notFound, during, attrErr, cause, keyErr} {
		require.GreaterOrEqual(t, i, 0, got)
	}
	assert.Less(t, notFound, during)
	assert.Less(t, during, attrErr)
	assert.Less(t, attrErr, cause)
	assert.Less(t, cause, keyErr)
	assert.Equal(t, 3, strings.Count(got, traceback.TracebackHead))
	assert.Contains(t, got, "\n\n"+traceback.CauseHead+"\n\n"+traceback.TracebackHead)
	assert.Contains(t, got, "\n\n"+traceback.ContextHead+"\n\n"+traceback.TracebackHead)
}

func TestFormatEmptyMessage(t *testing.T) {
	got := testRenderer(80).Format(traceback.Chain{{Name: "AttributeError"}})
	assert.Equal(t, traceback.TracebackHead+"\nAttributeError\n", got)
}

func TestFormatEmptyChain(t *testing.T) {
	assert.Equal(t, "", testRenderer(80).Format(nil))
}

func TestFormatRecursionCompaction(t *testing.T) {
	c := tbtest.RecursionChain(3, 150)
	got := testRenderer(-1).Format(c)
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	tbtest.NewLogger(t).Write([]byte(got))

	// header, 3 lead frames, 2 recursive frames, marker, closing frame, error
	require.Len(t, lines, 9)
	assert.Equal(t, traceback.TracebackHead, lines[0])
	assert.Contains(t, lines[4], "recurse")
	assert.Contains(t, lines[5], "recurse")
	assert.Equal(t, "    ... 148 omitted lines", lines[6])
	assert.Contains(t, lines[7], "guard")
	assert.Equal(t, c[0].ErrorLine(), lines[8])
}

func TestFormatRecursionNarrow(t *testing.T) {
	c := tbtest.RecursionChain(2, 150)
	got := testRenderer(20).Format(c)
	assert.Contains(t, got, "omitted lines")
	assert.True(t, strings.HasSuffix(got, c[0].ErrorLine()+"\n"))
}

func TestFormatNoCompactionForOtherErrors(t *testing.T) {
	c := tbtest.RecursionChain(3, 150)
	c[0].Name = "ValueError"
	got := testRenderer(-1).Format(c)
	assert.NotContains(t, got, "omitted lines")
	assert.Len(t, frameLines(t, got), 154)
}

func TestCompactShortInput(t *testing.T) {
	lines := []string{"a", "a", "a", "a"}
	assert.Equal(t, lines, Compact(lines))
}

func TestCompactNoRepeat(t *testing.T) {
	var lines []string
	for i := 0; i < 150; i++ {
		lines = append(lines, strings.Repeat("x", i+1))
	}
	assert.Equal(t, lines, Compact(lines))
}

func TestFormatColor(t *testing.T) {
	r := smallRenderer(100, layout.StyleColumns)
	r.Color = ColorAlways
	got := r.Format(smallChain)
	assert.Contains(t, got, ansiPalette.module+"/srv/app/main.py    "+ansiPalette.reset)
	assert.Contains(t, got, ansiPalette.call+"main  "+ansiPalette.reset)
	assert.Contains(t, got, ansiPalette.lineno+" 3"+ansiPalette.reset)
	assert.Contains(t, got, ansiPalette.name+"ValueError"+ansiPalette.reset+": "+ansiPalette.msg+"x"+ansiPalette.reset)
	assert.Equal(t, "\x1b[36m", ansiPalette.module)
	assert.Equal(t, "\x1b[0m", ansiPalette.reset)
}

func TestFormatColorWorkDirRows(t *testing.T) {
	r := testRenderer(20)
	r.Color = ColorAlways
	got := r.Format(traceback.Chain{tbtest.ChainedChain()[1]})
	assert.Contains(t, got, ansiPalette.here+"test/test_formatting.py"+ansiPalette.reset)
}

func TestColorAutoWithoutTerminal(t *testing.T) {
	r := smallRenderer(100, layout.StyleColumns)
	r.Color = ColorAuto
	var buf bytes.Buffer
	require.NoError(t, r.Write(context.Background(), &buf, smallChain))
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestWriteSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	t.Cleanup(func() {
		err := tp.Shutdown(context.Background())
		assert.NoError(t, err, "TracerProvider shutdown")
	})

	r := testRenderer(1000)
	r.Tracer = tp.Tracer("test")
	var buf bytes.Buffer
	require.NoError(t, r.Write(context.Background(), &buf, tbtest.ChainedChain()))
	assert.Equal(t, r.Format(tbtest.ChainedChain()), buf.String())

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "prettytb.render", spans[0].Name)
	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range spans[0].Attributes {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, int64(3), attrs["prettytb.records"].AsInt64())
	assert.Equal(t, []string{"wide", "wide", "wide"}, attrs["prettytb.modes"].AsStringSlice())
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteError(t *testing.T) {
	err := testRenderer(80).Write(context.Background(), failWriter{}, tbtest.BasicChain())
	assert.EqualError(t, err, "disk full")
}

func TestParseColorMode(t *testing.T) {
	m, err := ParseColorMode("always")
	require.NoError(t, err)
	assert.Equal(t, ColorAlways, m)
	m, err = ParseColorMode("")
	require.NoError(t, err)
	assert.Equal(t, ColorAuto, m)
	_, err = ParseColorMode("sometimes")
	assert.Error(t, err)
}

func TestFormatLegendOnly(t *testing.T) {
	r := testRenderer(80)
	assert.Equal(t, "", r.FormatLegend(nil))
	got := r.FormatLegend([]alias.Alias{
		{Name: "<site>", Prefix: "/x/site-packages/"},
		{Name: "<p0>", Prefix: "/srv/app/"},
	})
	assert.Equal(t, traceback.AliasesHead+"\n"+
		"    <site>: /x/site-packages/\n"+
		"    <p0>  : /srv/app/\n", got)
}
