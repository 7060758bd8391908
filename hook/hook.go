// Copyright © 2024 The ELPS authors

// Package hook rewrites tracebacks found in an output stream.
package hook

import (
	"io"
	"os"

	"github.com/luthersystems/prettytb/render"
)

// Options control Install.
type Options struct {
	// EnvVar names an environment variable that must be set, to any value
	// other than "0", for the filter to be installed. Empty means the
	// filter is always installed.
	EnvVar string

	// Color enables colored output. It is ignored when the destination
	// is not a terminal.
	Color bool

	// OnlyTTY only installs the filter when the destination is a terminal.
	OnlyTTY bool

	// OnlyIfDefault refuses to wrap a writer that already is a Filter.
	OnlyIfDefault bool

	// Renderer is the template used for rewritten tracebacks. Its Color
	// field is replaced according to Color.
	Renderer render.Renderer
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Color:         true,
		OnlyTTY:       true,
		OnlyIfDefault: true,
	}
}

// Install wraps w in a Filter unless the options rule it out. The second
// result reports whether a filter was installed; when it is false w is
// returned unchanged.
func Install(w io.Writer, opts Options, isTTY bool) (io.Writer, bool) {
	if opts.EnvVar != "" {
		if v, ok := os.LookupEnv(opts.EnvVar); !ok || v == "0" {
			return w, false
		}
	}
	if opts.OnlyTTY && !isTTY {
		return w, false
	}
	if _, ok := w.(*Filter); ok && opts.OnlyIfDefault {
		return w, false
	}
	r := opts.Renderer
	r.Color = render.ColorNever
	if opts.Color && isTTY {
		r.Color = render.ColorAlways
	}
	return NewFilter(w, &r), true
}

// IsTerminal reports whether w writes to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && render.IsTerminal(f)
}
