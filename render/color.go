// Copyright © 2024 The ELPS authors

package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// ColorMode controls when ANSI color codes are used.
type ColorMode int

const (
	ColorAuto   ColorMode = iota // detect based on terminal and NO_COLOR
	ColorAlways                  // always use colors
	ColorNever                   // never use colors
)

// ParseColorMode maps the --color flag values to a ColorMode.
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	default:
		return ColorAuto, fmt.Errorf("unknown color mode: %q", s)
	}
}

// palette holds the escape sequences wrapped around each colored segment.
type palette struct {
	module string
	here   string // module of rows under the working directory
	call   string
	lineno string
	name   string
	msg    string
	reset  string
}

func sgr(seqs ...string) string {
	return termenv.CSI + strings.Join(seqs, ";") + "m"
}

var ansiPalette = palette{
	module: sgr(termenv.ANSICyan.Sequence(false)),
	here:   sgr(termenv.BoldSeq, termenv.ANSICyan.Sequence(false)),
	call:   sgr(termenv.ANSIYellow.Sequence(false)),
	lineno: sgr(termenv.ANSIMagenta.Sequence(false)),
	name:   sgr(termenv.BoldSeq, termenv.ANSIRed.Sequence(false)),
	msg:    sgr(termenv.BoldSeq),
	reset:  sgr(termenv.ResetSeq),
}

var noPalette = palette{}

// choosePalette selects the palette for mode and the file output goes to.
func choosePalette(mode ColorMode, f *os.File) palette {
	switch mode {
	case ColorAlways:
		return ansiPalette
	case ColorNever:
		return noPalette
	default: // ColorAuto
		if os.Getenv("NO_COLOR") != "" {
			return noPalette
		}
		if !IsTerminal(f) {
			return noPalette
		}
		return ansiPalette
	}
}

// wrap surrounds s with start and the reset sequence. Nothing is added for
// the colorless palette.
func (p palette) wrap(start, s string) string {
	if start == "" {
		return s
	}
	return start + s + p.reset
}

// IsTerminal reports whether f is connected to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// fileFromWriter attempts to extract an *os.File from a writer for terminal
// detection. Returns nil if the writer is not backed by a file.
func fileFromWriter(w io.Writer) *os.File {
	if f, ok := w.(*os.File); ok {
		return f
	}
	return nil
}
