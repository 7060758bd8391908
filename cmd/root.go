// Copyright © 2018 The ELPS authors

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "prettytb",
	Short: "Aligned, readable python tracebacks",
	Long: `prettytb rewrites python tracebacks into an aligned layout where long
file paths are shortened through aliases for the entries of sys.path.

Getting started:
  prettytb run -- python app.py     Run a program, rewriting its tracebacks
  prettytb format app.log           Rewrite tracebacks found in a log file
  cat app.log | prettytb format     Rewrite tracebacks read from stdin
  prettytb parse app.log            Print the tracebacks of a file as JSON
  prettytb render capture.json      Render a JSON exception capture
  prettytb aliases PATH...          Show the aliases chosen for paths

Configuration is read from $HOME/.prettytb.yaml (or --config) and from
PRETTYTB_* environment variables. Recognized keys:
  color         auto, always or never
  style         columns or compact
  width         terminal width, 0 to detect, negative to disable padding
  search_paths  extra search roots aliases are derived from
  workdir       directory shown as <pwd> (default: current directory)
  python        interpreter queried for sys.path (default: python3)
  envvar        variable that must be set for "run" to rewrite output
  only_tty      only rewrite when stderr is a terminal`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(viper.GetViper())
		if err != nil {
			return usageError(err)
		}
		logger := newLogger(cmd.ErrOrStderr(), s.Verbose)
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug().Str("file", used).Msg("using config file")
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cmd.SetContext(logger.WithContext(ctx))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	var exit *exitError
	if !errors.As(err, &exit) || exit.err != nil {
		color.New(color.FgRed, color.Bold).Fprint(os.Stderr, "prettytb: ")
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(exitCode(err))
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.prettytb.yaml)")
	flags.String("color", "auto",
		`Control colored output: "auto", "always", or "never".`)
	flags.String("style", "columns",
		`Frame row style: "columns" or "compact".`)
	flags.Int("width", 0,
		"Terminal width (0 detects it, a negative width disables padding).")
	flags.StringSlice("search-path", nil,
		"Additional search root to derive aliases from (may be repeated).")
	flags.String("python", "python3",
		"Python interpreter queried for sys.path.")
	flags.BoolP("verbose", "v", false, "Log debug messages to stderr.")

	bindFlags(viper.GetViper(), flags)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	rootCmd.AddCommand(
		FormatCommand(),
		ParseCommand(),
		RenderCommand(),
		RunCommand(),
		AliasesCommand(),
	)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	v := viper.GetViper()
	if cfgFile != "" {
		// Use config file from the flag.
		v.SetConfigFile(cfgFile)
	} else {
		// Search config in home directory with name ".prettytb" (without
		// extension). Without a home directory only the environment is
		// used.
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
			v.SetConfigName(".prettytb")
		}
	}
	setDefaults(v)

	// A missing config file is not an error; the path is logged once the
	// logger exists.
	_ = v.ReadInConfig()
}
