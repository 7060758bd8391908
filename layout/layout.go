// Copyright © 2024 The ELPS authors

package layout

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/padding"
)

// Overhead is the width taken by the row indent and the three column
// separators.
const Overhead = 10

// Mode is the column layout strategy of a block.
type Mode int

const (
	// Narrow shows aliased, shortened paths and an alias legend.
	Narrow Mode = iota
	// Wide shows full paths and no legend.
	Wide
	// Unpadded shows full paths without any column padding. It is used
	// when the terminal width is unknown or too small to matter.
	Unpadded
)

func (m Mode) String() string {
	switch m {
	case Narrow:
		return "narrow"
	case Wide:
		return "wide"
	case Unpadded:
		return "unpadded"
	default:
		return "unknown"
	}
}

// Style selects how module and line number are laid out in a row.
type Style int

const (
	// StyleColumns prints module, call and a right justified line number
	// in separate columns.
	StyleColumns Style = iota
	// StyleCompact prints "module:line" so that editors can jump to the
	// location; line numbers are left justified.
	StyleCompact
)

func (s Style) String() string {
	if s == StyleCompact {
		return "compact"
	}
	return "columns"
}

// ParseStyle returns the Style named s.
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(s) {
	case "", "columns":
		return StyleColumns, nil
	case "compact":
		return StyleCompact, nil
	default:
		return StyleColumns, fmt.Errorf("unknown layout style: %q", s)
	}
}

// Choose selects the layout mode for a terminal termWidth columns wide.
// Wide mode is used when the unshortened rows fit the available width.
func Choose(w Widths, termWidth int) Mode {
	avail := termWidth - Overhead
	if avail <= 0 {
		return Unpadded
	}
	if w.Full+w.Lineno+w.Call+w.Context < avail {
		return Wide
	}
	return Narrow
}

// ShowLegend reports whether a block in mode m starts with the alias legend.
func ShowLegend(t Table, m Mode) bool {
	return m == Narrow && len(t.Aliases) > 0
}

// PaddedRow is a row with every column padded to its final width. Alias
// is empty unless the row was laid out in Narrow mode.
type PaddedRow struct {
	Alias   string
	Module  string
	Call    string
	Lineno  string
	Context string
}

// Pad lays out the rows of t. Rows are not modified; new values are
// returned.
func Pad(t Table, mode Mode, style Style) []PaddedRow {
	out := make([]PaddedRow, 0, len(t.Rows))
	w := t.Widths
	for _, r := range t.Rows {
		var p PaddedRow
		switch mode {
		case Unpadded:
			out = append(out, PaddedRow{
				Module:  r.FullModule,
				Call:    r.Call,
				Lineno:  r.Lineno,
				Context: r.Context,
			})
			continue
		case Wide:
			p.Module = padRight(r.FullModule, w.Full)
		default:
			p.Alias = r.Alias
			p.Module = padRight(r.ShortModule, w.Short-width(r.Alias))
		}
		p.Call = padRight(r.Call, w.Call)
		if style == StyleCompact {
			p.Lineno = padRight(r.Lineno, w.Lineno)
		} else {
			p.Lineno = padLeft(r.Lineno, w.Lineno)
		}
		p.Context = r.Context
		out = append(out, p)
	}
	return out
}

func padRight(s string, n int) string {
	if n <= 0 {
		return s
	}
	if s == "" {
		// padding.String only pads lines that have content
		return strings.Repeat(" ", n)
	}
	return padding.String(s, uint(n))
}

func padLeft(s string, n int) string {
	fill := n - width(s)
	if fill <= 0 {
		return s
	}
	return strings.Repeat(" ", fill) + s
}
