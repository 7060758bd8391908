// Copyright © 2024 The ELPS authors

package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/luthersystems/prettytb/hook"
	"github.com/luthersystems/prettytb/render"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// FormatCommand returns the command that rewrites tracebacks embedded in
// text files.
func FormatCommand(opts ...Option) *cobra.Command {
	var (
		write    bool
		list     bool
		excludes []string
	)
	cfg := newCmdConfig(opts)
	cmd := &cobra.Command{
		Use:   "format [flags] [files...]",
		Short: "Rewrite tracebacks found in text",
		Long: `Rewrite every python traceback found in the input into the aligned
layout. All other lines are copied unchanged.

With no files, reads from stdin and writes to stdout.
With files, prints the rewritten text to stdout unless -w is given.

Modes:
  (default)   Print rewritten text to stdout
  -w          Write result back to source file
  -l          List files containing tracebacks

Examples:
  prettytb format app.log                  Print rewritten output
  prettytb format -w app.log               Rewrite in place
  prettytb format -l ./...                 List log files holding tracebacks
  prettytb format --exclude=archive ./...  Skip a directory
  cat app.log | prettytb format            Rewrite stdin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cfg.settings()
			if err != nil {
				return err
			}
			r := cfg.newRenderer(cmd.Context(), s)
			if len(args) == 0 {
				return formatStream(cmd.OutOrStdout(), cmd.InOrStdin(), r)
			}

			expanded, err := collectFiles(args, excludes)
			if err != nil {
				return usageError(err)
			}
			log := zerolog.Ctx(cmd.Context())
			exitCode := 0
			for _, path := range expanded {
				changed, err := formatFile(cmd.OutOrStdout(), path, r, write, list)
				if err != nil {
					log.Error().Err(err).Str("file", path).Msg("format failed")
					exitCode = 1
				} else if list && changed {
					exitCode = 1
				}
			}
			if exitCode != 0 {
				return &exitError{code: exitCode}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false,
		"Write result to (source) file instead of stdout.")
	cmd.Flags().BoolVarP(&list, "list", "l", false,
		"List files containing tracebacks.")
	cmd.Flags().StringArrayVar(&excludes, "exclude", nil,
		"Glob pattern for files to exclude (may be repeated).")
	return cmd
}

func formatStream(w io.Writer, in io.Reader, r *render.Renderer) error {
	f := hook.NewFilter(w, r)
	if _, err := io.Copy(f, in); err != nil {
		return err
	}
	return f.Close()
}

func formatFile(stdout io.Writer, path string, r *render.Renderer, write, list bool) (bool, error) {
	src, err := os.ReadFile(path) //nolint:gosec // CLI tool reads user-specified files
	if err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}
	if !write && !list {
		return false, formatStream(stdout, bytes.NewReader(src), r)
	}

	var out bytes.Buffer
	if err := formatStream(&out, bytes.NewReader(src), r); err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}
	changed := !bytes.Equal(src, out.Bytes())

	if list {
		if changed {
			fmt.Fprintln(stdout, path)
		}
		return changed, nil
	}

	if !changed {
		return false, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}
	return true, os.WriteFile(path, out.Bytes(), info.Mode().Perm())
}
