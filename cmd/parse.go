// Copyright © 2024 The ELPS authors

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/luthersystems/prettytb/hook"
	"github.com/luthersystems/prettytb/parse"
	"github.com/luthersystems/prettytb/render"
	"github.com/luthersystems/prettytb/traceback"
	"github.com/nwidger/jsoncolor"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// ParseCommand returns the command that converts traceback text, in the
// standard or the aligned format, to JSON records.
func ParseCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)
	var leaf bool
	cmd := &cobra.Command{
		Use:   "parse [flags] [file]",
		Short: "Print the tracebacks of a file as JSON",
		Long: `Read traceback text from a file or stdin and print the records of the
chain as a JSON array, oldest exception first.

Both the interpreter's standard format and the aligned format written by
prettytb are understood. Colors and alias legends are resolved. With
--leaf only the most recently raised exception is printed, as an object.

Exit codes:
  0  At least one traceback was found
  1  No traceback was found
  2  Bad invocation (unreadable file)`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cfg.settings()
			if err != nil {
				return err
			}
			src, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return usageError(err)
			}
			c, err := parse.Parse(string(src))
			if errors.Is(err, parse.ErrNoTraceback) {
				return &exitError{code: 1, err: err}
			}
			if err != nil {
				return err
			}
			if err := c.Validate(); err != nil {
				zerolog.Ctx(cmd.Context()).Warn().Err(err).Msg("inconsistent chain")
			}
			mode, _ := render.ParseColorMode(s.Color)
			if leaf {
				return writeJSON(cmd.OutOrStdout(), c.Leaf(), mode)
			}
			if c == nil {
				c = traceback.Chain{}
			}
			return writeJSON(cmd.OutOrStdout(), c, mode)
		},
	}
	cmd.Flags().BoolVar(&leaf, "leaf", false,
		"Print only the most recently raised exception.")
	return cmd
}

// readInput reads the file named by args, or in when there is none.
func readInput(in io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(in)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return b, nil
	}
	b, err := os.ReadFile(args[0]) //nolint:gosec // CLI tool reads user-specified files
	if err != nil {
		return nil, fmt.Errorf("%s: %w", args[0], err)
	}
	return b, nil
}

// writeJSON prints v indented, colored when mode allows it for w.
func writeJSON(w io.Writer, v any, mode render.ColorMode) error {
	colored := mode == render.ColorAlways ||
		mode == render.ColorAuto && os.Getenv("NO_COLOR") == "" && hook.IsTerminal(w)
	var (
		b   []byte
		err error
	)
	if colored {
		b, err = jsoncolor.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}
