// Copyright © 2024 The ELPS authors

// Package render formats traceback chains as aligned, optionally colored
// text.
package render

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/luthersystems/prettytb/alias"
	"github.com/luthersystems/prettytb/layout"
	"github.com/luthersystems/prettytb/termsize"
	"github.com/luthersystems/prettytb/traceback"
	"github.com/mattn/go-runewidth"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const indent = "    "

// TracerName names the tracer used when Renderer.Tracer is nil.
const TracerName = "github.com/luthersystems/prettytb/render"

// Renderer formats traceback chains. The zero value renders in the
// columns style, detects the terminal width and uses no aliases.
type Renderer struct {
	// Color controls ANSI color output. Default is ColorAuto.
	Color ColorMode

	// Style selects the row layout.
	Style layout.Style

	// Width is the terminal width in columns. Zero detects the width once
	// per call; a negative width disables padding.
	Width int

	// Roots are the search roots aliases are derived from.
	Roots alias.Roots

	// Stat checks frame paths for existence. If nil, os.Stat is used.
	Stat layout.StatFunc

	// Tracer records a span per Write call. If nil, the global tracer
	// provider is used.
	Tracer trace.Tracer
}

// Format renders c. Colors are only used with ColorAlways since there is
// no output file to inspect.
func (r *Renderer) Format(c traceback.Chain) string {
	p := choosePalette(r.Color, nil)
	blocks, _ := r.blocks(c, r.width(), p)
	return joinBlocks(blocks)
}

// FormatRecord renders a single traceback block.
func (r *Renderer) FormatRecord(rec *traceback.Record) string {
	p := choosePalette(r.Color, nil)
	lines, _ := r.recordLines(rec, r.width(), p)
	return strings.Join(lines, "\n") + "\n"
}

// FormatLegend renders the alias legend for aliases, or nothing when there
// are none.
func (r *Renderer) FormatLegend(aliases []alias.Alias) string {
	if len(aliases) == 0 {
		return ""
	}
	p := choosePalette(r.Color, nil)
	lines := append([]string{traceback.AliasesHead}, legendLines(aliases, p)...)
	return strings.Join(lines, "\n") + "\n"
}

// Write renders c to w.
func (r *Renderer) Write(ctx context.Context, w io.Writer, c traceback.Chain) (err error) {
	tracer := r.Tracer
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}
	width := r.width()
	_, span := tracer.Start(ctx, "prettytb.render",
		trace.WithAttributes(
			attribute.Int("prettytb.records", len(c)),
			attribute.Int("prettytb.width", width),
			attribute.String("prettytb.style", r.Style.String()),
		))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	p := choosePalette(r.Color, fileFromWriter(w))
	blocks, modes := r.blocks(c, width, p)
	names := make([]string, len(modes))
	for i, m := range modes {
		names[i] = m.String()
	}
	span.SetAttributes(attribute.StringSlice("prettytb.modes", names))

	bw := bufio.NewWriter(w)
	ew := &errWriter{w: bw}
	ew.print(joinBlocks(blocks))
	if ew.err != nil {
		return ew.err
	}
	return bw.Flush()
}

func (r *Renderer) width() int {
	if r.Width != 0 {
		return r.Width
	}
	return termsize.Width()
}

// block is the rendered text of one record, including the link header
// printed before it.
type block struct {
	head  string
	lines []string
}

func (r *Renderer) blocks(c traceback.Chain, width int, p palette) ([]block, []layout.Mode) {
	blocks := make([]block, 0, len(c))
	modes := make([]layout.Mode, 0, len(c))
	for i := range c {
		rec := &c[i]
		var b block
		if i > 0 {
			switch {
			case rec.Caused:
				b.head = traceback.CauseHead
			case rec.Context:
				b.head = traceback.ContextHead
			}
		}
		var mode layout.Mode
		b.lines, mode = r.recordLines(rec, width, p)
		blocks = append(blocks, b)
		modes = append(modes, mode)
	}
	return blocks, modes
}

// joinBlocks separates blocks and link headers with blank lines.
func joinBlocks(blocks []block) string {
	var sb strings.Builder
	for i, b := range blocks {
		if i > 0 {
			sb.WriteString("\n")
		}
		if b.head != "" {
			sb.WriteString(b.head)
			sb.WriteString("\n\n")
		}
		for _, line := range b.lines {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func (r *Renderer) recordLines(rec *traceback.Record, width int, p palette) ([]string, layout.Mode) {
	frames := rec.Frames
	if r.Style == layout.StyleCompact {
		frames = markUnknownCalls(frames)
	}
	tab := layout.NewTable(frames, r.Roots, r.Stat)
	mode := layout.Choose(tab.Widths, width)

	var lines []string
	if layout.ShowLegend(tab, mode) {
		lines = append(lines, traceback.AliasesHead)
		lines = append(lines, legendLines(tab.Aliases, p)...)
	}
	lines = append(lines, traceback.TracebackHead)
	for _, row := range layout.Pad(tab, mode, r.Style) {
		lines = append(lines, r.rowLine(row, p))
	}
	lines = append(lines, errorLine(rec, p))
	if isRecursionError(rec.Name) {
		lines = Compact(lines)
	}
	return lines, mode
}

// markUnknownCalls returns frames with empty calls replaced by
// traceback.UnknownCall. frames is not modified.
func markUnknownCalls(frames []traceback.Frame) []traceback.Frame {
	var out []traceback.Frame
	for i, f := range frames {
		if f.Call != "" {
			continue
		}
		if out == nil {
			out = append([]traceback.Frame(nil), frames...)
		}
		out[i].Call = traceback.UnknownCall
	}
	if out == nil {
		return frames
	}
	return out
}

func legendLines(aliases []alias.Alias, p palette) []string {
	widest := 0
	for _, a := range aliases {
		widest = max(widest, len(a.Name))
	}
	lines := make([]string, 0, len(aliases))
	for _, a := range aliases {
		name := a.Name + strings.Repeat(" ", widest-len(a.Name))
		lines = append(lines, indent+name+": "+p.wrap(p.module, a.Prefix))
	}
	return lines
}

func (r *Renderer) rowLine(row layout.PaddedRow, p palette) string {
	moduleColor := p.module
	if row.Alias == alias.Here {
		moduleColor = p.here
	}
	var sb strings.Builder
	sb.WriteString(indent)
	sb.WriteString(row.Alias)
	if r.Style == layout.StyleCompact {
		// "module:lineno" followed by the padding of both columns.
		module := strings.TrimRight(row.Module, " ")
		lineno := strings.TrimSpace(row.Lineno)
		fill := runewidth.StringWidth(row.Module) - runewidth.StringWidth(module) +
			len(row.Lineno) - len(lineno)
		sb.WriteString(" ")
		sb.WriteString(p.wrap(moduleColor, module))
		sb.WriteString(":")
		sb.WriteString(p.wrap(p.lineno, lineno))
		sb.WriteString(strings.Repeat(" ", fill))
		sb.WriteString("  ")
		sb.WriteString(p.wrap(p.call, row.Call))
		sb.WriteString("  ")
		sb.WriteString(row.Context)
		return sb.String()
	}
	sb.WriteString(p.wrap(moduleColor, row.Module))
	sb.WriteString("  ")
	sb.WriteString(p.wrap(p.call, row.Call))
	sb.WriteString("  ")
	sb.WriteString(p.wrap(p.lineno, row.Lineno))
	sb.WriteString(": ")
	sb.WriteString(row.Context)
	return sb.String()
}

func errorLine(rec *traceback.Record, p palette) string {
	line := p.wrap(p.name, rec.Name)
	if rec.Message != "" {
		line += ": " + p.wrap(p.msg, rec.Message)
	}
	return line
}

// errWriter wraps a writer and captures the first error, short-circuiting
// subsequent writes. This avoids checking every fmt.Fprintf return value.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) print(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = io.WriteString(ew.w, s)
}
