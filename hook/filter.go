// Copyright © 2024 The ELPS authors

package hook

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/luthersystems/prettytb/parse"
	"github.com/luthersystems/prettytb/render"
	"github.com/luthersystems/prettytb/traceback"
)

// MaxBlockLines bounds the number of lines held while a traceback is being
// captured. Longer blocks are written through unchanged.
const MaxBlockLines = 100000

type filterState int

const (
	passing   filterState = iota
	capturing             // inside a block, before its error line
	linking               // after an error line, a link header may follow
)

// Filter is an io.Writer that copies its input to an underlying writer,
// replacing each traceback chain by its rendered form. Lines that are not
// part of a traceback pass through as soon as they are complete. Close
// must be called to flush a chain at the end of the stream.
//
// A Filter is not safe for concurrent use.
type Filter struct {
	w       io.Writer
	r       *render.Renderer
	state   filterState
	partial []byte
	midLine bool // part of the current line was already written
	block   []string
	held    []string // blank lines seen in the linking state
	err     error
}

var _ io.WriteCloser = (*Filter)(nil)

// NewFilter returns a Filter writing to w and rendering with r.
func NewFilter(w io.Writer, r *render.Renderer) *Filter {
	return &Filter{w: w, r: r}
}

// Write implements io.Writer.
func (f *Filter) Write(b []byte) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.partial = append(f.partial, b...)
	for {
		i := bytes.IndexByte(f.partial, '\n')
		if i < 0 {
			break
		}
		line := string(f.partial[:i])
		f.partial = f.partial[i+1:]
		if f.midLine {
			f.midLine = false
			f.emit(line)
			continue
		}
		f.line(line)
	}
	if f.state == passing && len(f.partial) > 0 && !maybeHeader(f.partial) {
		f.write(string(f.partial))
		f.partial = f.partial[:0]
		f.midLine = true
	}
	return len(b), f.err
}

// Flush renders any pending block and writes the incomplete last line.
func (f *Filter) Flush() error {
	f.flushBlock()
	if len(f.partial) > 0 {
		f.write(string(f.partial))
		f.partial = nil
	}
	return f.err
}

// Close flushes the filter. The underlying writer is not closed.
func (f *Filter) Close() error {
	return f.Flush()
}

func (f *Filter) line(line string) {
	kind := parse.Classify(line)
	switch f.state {
	case passing:
		if kind.IsHeader() {
			f.state = capturing
			f.block = append(f.block, line)
			return
		}
		f.emit(line)
	case capturing:
		f.block = append(f.block, line)
		if kind == parse.Text {
			f.state = linking
		} else if len(f.block) > MaxBlockLines {
			f.writeRaw()
		}
	case linking:
		switch {
		case kind == parse.Blank:
			f.held = append(f.held, line)
		case kind.IsHeader():
			f.block = append(f.block, f.held...)
			f.block = append(f.block, line)
			f.held = nil
			f.state = capturing
		default:
			f.flushBlock()
			f.line(line)
		}
	}
}

// flushBlock renders the captured block. Text that does not parse is
// written through unchanged.
func (f *Filter) flushBlock() {
	if len(f.block) == 0 {
		f.flushHeld()
		f.state = passing
		return
	}
	c, err := parse.Parse(strings.Join(f.block, "\n"))
	if err != nil || len(c) == 0 || !complete(c) {
		f.writeRaw()
		return
	}
	if f.err == nil {
		f.err = f.r.Write(context.Background(), f.w, c)
	}
	f.block = f.block[:0]
	f.state = passing
	f.flushHeld()
}

// complete reports whether every record of c ended with an error line.
func complete(c traceback.Chain) bool {
	for i := range c {
		if c[i].Name == "" {
			return false
		}
	}
	return true
}

func (f *Filter) writeRaw() {
	for _, line := range f.block {
		f.emit(line)
	}
	f.block = f.block[:0]
	f.state = passing
	f.flushHeld()
}

func (f *Filter) flushHeld() {
	for _, line := range f.held {
		f.emit(line)
	}
	f.held = nil
}

func (f *Filter) emit(line string) {
	f.write(line + "\n")
}

func (f *Filter) write(s string) {
	if f.err != nil {
		return
	}
	_, f.err = io.WriteString(f.w, s)
}

var headers = []string{
	traceback.AliasesHead,
	traceback.TracebackHead,
	traceback.CauseHead,
	traceback.ContextHead,
}

// maybeHeader reports whether the incomplete line b could still turn into
// a header line.
func maybeHeader(b []byte) bool {
	if bytes.IndexByte(b, 0x1b) >= 0 {
		return true
	}
	s := strings.TrimRight(string(b), "\r")
	for _, h := range headers {
		if strings.HasPrefix(h, s) || strings.HasPrefix(s, h) {
			return true
		}
	}
	return false
}
