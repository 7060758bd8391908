// Copyright © 2024 The ELPS authors

// Package layout turns traceback frames into aligned table rows. Build
// shortens frame paths with the alias table and measures every column,
// Choose picks the layout mode for a terminal width and Pad produces the
// padded rows the renderer prints.
package layout

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/luthersystems/prettytb/alias"
	"github.com/luthersystems/prettytb/traceback"
	"github.com/mattn/go-runewidth"
)

// Row is one frame with its module path in both shortened and full form.
type Row struct {
	Alias       string
	ShortModule string
	FullModule  string
	Call        string
	Lineno      string
	Context     string
}

// Widths are the column maxima over all rows of a table, in terminal cells.
// Short is the combined width of alias and shortened module.
type Widths struct {
	Short   int
	Full    int
	Call    int
	Lineno  int
	Context int
}

// Table is the row set of a single traceback block.
type Table struct {
	Rows    []Row
	Aliases []alias.Alias
	Widths  Widths
}

// StatFunc reports file information for a path. os.Stat is used when nil.
type StatFunc func(name string) (os.FileInfo, error)

// ResolvePaths returns the path each frame is displayed and aliased under.
// A frame module is replaced by its absolute form only if that differs
// from the module and names an existing file, so pseudo modules like
// "<string>" pass through unchanged. Any error keeps the module as is.
func ResolvePaths(frames []traceback.Frame, stat StatFunc) []string {
	if stat == nil {
		stat = os.Stat
	}
	paths := make([]string, len(frames))
	for i, f := range frames {
		paths[i] = f.Module
		abs, err := filepath.Abs(f.Module)
		if err != nil || abs == f.Module {
			continue
		}
		if _, err := stat(abs); err != nil {
			continue
		}
		paths[i] = abs
	}
	return paths
}

// NewTable resolves the frame paths, derives the aliases for them and
// builds the table.
func NewTable(frames []traceback.Frame, roots alias.Roots, stat StatFunc) Table {
	paths := ResolvePaths(frames, stat)
	return Build(frames, paths, alias.Resolve(paths, roots))
}

// Build creates the rows for frames. paths holds the resolved path of
// each frame (see ResolvePaths) and aliases is ordered longest prefix
// first. Each row uses the alias giving the shortest combined width of
// alias and remaining path; a later alias must be strictly shorter to win.
// Rows without a matching alias keep the full path.
func Build(frames []traceback.Frame, paths []string, aliases []alias.Alias) Table {
	t := Table{
		Rows:    make([]Row, 0, len(frames)),
		Aliases: aliases,
	}
	for i, f := range frames {
		full := f.Module
		if i < len(paths) {
			full = paths[i]
		}
		row := Row{
			ShortModule: full,
			FullModule:  full,
			Call:        f.Call,
			Lineno:      f.Lineno,
			Context:     f.SrcCtx,
		}
		for _, a := range aliases {
			rest, ok := strings.CutPrefix(full, a.Prefix)
			if !ok {
				continue
			}
			if width(a.Name)+width(rest) < width(row.Alias)+width(row.ShortModule) {
				row.Alias = a.Name
				row.ShortModule = rest
			}
		}
		t.Rows = append(t.Rows, row)
	}
	t.Widths = measure(t.Rows)
	return t
}

func measure(rows []Row) Widths {
	var w Widths
	for _, r := range rows {
		w.Short = max(w.Short, width(r.Alias)+width(r.ShortModule))
		w.Full = max(w.Full, width(r.FullModule))
		w.Call = max(w.Call, width(r.Call))
		w.Lineno = max(w.Lineno, width(r.Lineno))
		w.Context = max(w.Context, width(r.Context))
	}
	return w
}

func width(s string) int {
	return runewidth.StringWidth(s)
}
