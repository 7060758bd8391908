// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/luthersystems/prettytb/layout"
	"github.com/luthersystems/prettytb/parse"
	"github.com/luthersystems/prettytb/traceback"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/padding"
	"github.com/spf13/cobra"
)

// AliasesCommand returns the command that shows how paths are shortened.
func AliasesCommand(opts ...Option) *cobra.Command {
	var fromFile string
	cfg := newCmdConfig(opts)
	cmd := &cobra.Command{
		Use:   "aliases [flags] [paths...]",
		Short: "Show the aliases chosen for file paths",
		Long: `Show the alias legend and the shortened form of each path, as the
aligned layout would print them. Paths are taken from the arguments, or
from the frames of a traceback read with --from ("-" for stdin).

Examples:
  prettytb aliases /usr/lib/python3.11/json/decoder.py
  prettytb aliases --from app.log
  prettytb aliases --python python3 "$PWD/app.py"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cfg.settings()
			if err != nil {
				return err
			}
			frames, err := aliasFrames(cmd.InOrStdin(), args, fromFile)
			if err != nil {
				return err
			}
			r := cfg.newRenderer(cmd.Context(), s)
			tab := layout.NewTable(frames, r.Roots, r.Stat)
			return writeAliases(cmd.OutOrStdout(), r.FormatLegend(tab.Aliases), tab)
		},
	}
	cmd.Flags().StringVar(&fromFile, "from", "",
		`Read frame paths from a traceback file ("-" for stdin).`)
	return cmd
}

func aliasFrames(in io.Reader, args []string, fromFile string) ([]traceback.Frame, error) {
	var frames []traceback.Frame
	for _, path := range args {
		frames = append(frames, traceback.Frame{Module: path})
	}
	if fromFile == "" {
		if len(frames) == 0 {
			return nil, usageError(fmt.Errorf("no paths given"))
		}
		return frames, nil
	}
	src, err := readInput(in, []string{fromFile})
	if err != nil {
		return nil, usageError(err)
	}
	c, err := parse.Parse(string(src))
	if err != nil {
		return nil, &exitError{code: 1, err: err}
	}
	for i := range c {
		frames = append(frames, c[i].Frames...)
	}
	return frames, nil
}

// writeAliases prints the legend followed by one "path  short form" line
// per distinct path.
func writeAliases(w io.Writer, legend string, tab layout.Table) error {
	seen := make(map[string]bool)
	var rows []layout.Row
	widest := 0
	for _, row := range tab.Rows {
		if seen[row.FullModule] {
			continue
		}
		seen[row.FullModule] = true
		rows = append(rows, row)
		widest = max(widest, runewidth.StringWidth(row.FullModule))
	}
	var sb strings.Builder
	sb.WriteString(legend)
	if legend != "" {
		sb.WriteString("\n")
	}
	for _, row := range rows {
		sb.WriteString(padding.String(row.FullModule, uint(widest)))
		sb.WriteString("  ")
		sb.WriteString(row.Alias + row.ShortModule)
		sb.WriteString("\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
