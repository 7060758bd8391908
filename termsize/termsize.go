// Copyright © 2024 The ELPS authors

// Package termsize detects the width of the terminal traceback output is
// written to. Every probe is best effort: failures are silent and fall
// through to the next probe.
package termsize

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/ts"
	"golang.org/x/term"
)

// SttyTimeout bounds the "stty size" probe.
const SttyTimeout = 500 * time.Millisecond

var errNoSize = errors.New("terminal size unavailable")

// Probe returns a terminal width or an error.
type Probe func() (int, error)

// Detector runs probes in order and returns the first positive width.
type Detector struct {
	// Getenv reads environment variables. os.Getenv is used when nil.
	Getenv func(string) string
	// Probes are consulted after the COLUMNS variable. DefaultProbes is
	// used when nil.
	Probes []Probe
}

// Width detects the terminal width with the default detector. It returns 0
// when no probe succeeds.
func Width() int {
	return (&Detector{}).Width()
}

// Width returns the value of COLUMNS when set, otherwise the first width
// reported by a probe, otherwise 0.
func (d *Detector) Width() int {
	getenv := d.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if cols, err := strconv.Atoi(strings.TrimSpace(getenv("COLUMNS"))); err == nil && cols > 0 {
		return cols
	}
	probes := d.Probes
	if probes == nil {
		probes = DefaultProbes()
	}
	for _, probe := range probes {
		if cols, err := probe(); err == nil && cols > 0 {
			return cols
		}
	}
	return 0
}

// DefaultProbes queries the terminal on stdin and stderr, then the
// controlling terminal through ts, then "stty size".
func DefaultProbes() []Probe {
	return []Probe{
		FileProbe(os.Stdin),
		FileProbe(os.Stderr),
		tsProbe,
		sttyProbe,
	}
}

// FileProbe returns a probe querying the terminal f refers to.
func FileProbe(f *os.File) Probe {
	return func() (int, error) {
		if f == nil {
			return 0, errNoSize
		}
		cols, _, err := term.GetSize(int(f.Fd()))
		return cols, err
	}
}

func tsProbe() (int, error) {
	size, err := ts.GetSize()
	if err != nil {
		return 0, err
	}
	return size.Col(), nil
}

func sttyProbe() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), SttyTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, "stty", "size")
	cmd.Stdin = os.Stdin
	out, err := cmd.Output()
	if err != nil {
		return 0, err
	}
	return parseSttySize(string(out))
}

// parseSttySize parses the "rows cols" output of stty size.
func parseSttySize(s string) (int, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return 0, errNoSize
	}
	return strconv.Atoi(fields[1])
}
