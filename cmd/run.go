// Copyright © 2018 The ELPS authors

package cmd

import (
	"errors"
	"os/exec"

	"github.com/luthersystems/prettytb/hook"
	"github.com/luthersystems/prettytb/render"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// RunCommand returns the command that runs a program and rewrites the
// tracebacks it prints to stderr.
func RunCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)
	cmd := &cobra.Command{
		Use:   "run [flags] -- program [args...]",
		Short: "Run a program, rewriting the tracebacks it prints",
		Long: `Run a program with its standard error passed through the traceback
filter. Standard input and output are connected directly. The exit code
of the program is returned.

The filter is skipped when the "envvar" setting names a variable that is
unset or "0", or when "only_tty" is set and stderr is not a terminal.

Examples:
  prettytb run -- python app.py
  PRETTYTB_ONLY_TTY=true prettytb run -- pytest -x`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cfg.settings()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			log := zerolog.Ctx(ctx)
			stderr := cmd.ErrOrStderr()
			r := cfg.newRenderer(ctx, s)
			hopts := hook.DefaultOptions()
			hopts.EnvVar = s.EnvVar
			hopts.Color = r.Color != render.ColorNever
			hopts.OnlyTTY = s.OnlyTTY
			hopts.Renderer = *r
			w, installed := hook.Install(stderr, hopts, hook.IsTerminal(stderr))
			log.Debug().Bool("filter", installed).Strs("argv", args).Msg("starting program")

			child := exec.CommandContext(ctx, args[0], args[1:]...)
			child.Stdin = cmd.InOrStdin()
			child.Stdout = cmd.OutOrStdout()
			child.Stderr = w
			runErr := child.Run()
			if f, ok := w.(*hook.Filter); ok && installed {
				if err := f.Close(); err != nil && runErr == nil {
					runErr = err
				}
			}

			var exit *exec.ExitError
			if errors.As(runErr, &exit) {
				log.Debug().Int("code", exit.ExitCode()).Msg("program failed")
				return &exitError{code: exit.ExitCode()}
			}
			return runErr
		},
	}
	return cmd
}
