// Copyright © 2024 The ELPS authors

package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/luthersystems/prettytb/hook"
	"github.com/rs/zerolog"
)

// exitError carries the process exit code of a failed command. A nil err
// means the failure was already reported.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

// usageError marks err as a bad invocation.
func usageError(err error) error {
	return &exitError{code: 2, err: err}
}

func exitCode(err error) int {
	var e *exitError
	if errors.As(err, &e) {
		return e.code
	}
	return 1
}

func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    !hook.IsTerminal(w),
		TimeFormat: time.Kitchen,
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
