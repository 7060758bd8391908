// Copyright © 2024 The ELPS authors

package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/luthersystems/prettytb/alias"
	"github.com/luthersystems/prettytb/layout"
	"github.com/luthersystems/prettytb/render"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// settings is the decoded configuration shared by all commands.
type settings struct {
	Color       string   `mapstructure:"color"`
	Style       string   `mapstructure:"style"`
	Width       int      `mapstructure:"width"`
	SearchPaths []string `mapstructure:"search_paths"`
	WorkDir     string   `mapstructure:"workdir"`
	Python      string   `mapstructure:"python"`
	EnvVar      string   `mapstructure:"envvar"`
	OnlyTTY     bool     `mapstructure:"only_tty"`
	Verbose     bool     `mapstructure:"verbose"`
}

// setDefaults registers every configuration key so that environment
// variables are picked up by Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetEnvPrefix("PRETTYTB")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("color", "auto")
	v.SetDefault("style", "columns")
	v.SetDefault("width", 0)
	v.SetDefault("search_paths", []string{})
	v.SetDefault("workdir", "")
	v.SetDefault("python", "python3")
	v.SetDefault("envvar", "")
	v.SetDefault("only_tty", false)
	v.SetDefault("verbose", false)
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	for key, flag := range map[string]string{
		"color":        "color",
		"style":        "style",
		"width":        "width",
		"search_paths": "search-path",
		"python":       "python",
		"verbose":      "verbose",
	} {
		if f := flags.Lookup(flag); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}

func loadSettings(v *viper.Viper) (settings, error) {
	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return s, fmt.Errorf("reading configuration: %w", err)
	}
	if _, err := render.ParseColorMode(s.Color); err != nil {
		return s, err
	}
	if _, err := layout.ParseStyle(s.Style); err != nil {
		return s, err
	}
	return s, nil
}

// newRenderer builds the renderer described by s. Settings are validated
// by loadSettings.
func (c *cmdConfig) newRenderer(ctx context.Context, s settings) *render.Renderer {
	mode, _ := render.ParseColorMode(s.Color)
	style, _ := layout.ParseStyle(s.Style)
	return &render.Renderer{
		Color: mode,
		Style: style,
		Width: s.Width,
		Roots: c.roots(ctx, s),
		Stat:  c.stat,
	}
}

// roots collects the configured search roots, PYTHONPATH and the
// sys.path of the configured interpreter. Discovery is best effort:
// failures are logged and otherwise ignored.
func (c *cmdConfig) roots(ctx context.Context, s settings) alias.Roots {
	log := zerolog.Ctx(ctx)
	paths := append([]string(nil), s.SearchPaths...)
	paths = append(paths, alias.FromEnv()...)
	found, err := c.discover(ctx, s.Python)
	if err != nil {
		log.Warn().Err(err).Str("python", s.Python).Msg("sys.path discovery failed")
	} else {
		paths = append(paths, found...)
	}
	workDir := s.WorkDir
	if workDir == "" {
		if wd, err := os.Getwd(); err == nil {
			workDir = wd
		}
	}
	log.Debug().Strs("search_paths", paths).Str("workdir", workDir).Msg("alias roots")
	return alias.Roots{Paths: paths, WorkDir: workDir}
}
