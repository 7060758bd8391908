// Copyright © 2024 The ELPS authors

package cmd

import (
	"context"

	"github.com/luthersystems/prettytb/alias"
	"github.com/luthersystems/prettytb/layout"
	"github.com/spf13/viper"
)

// Option configures an exported command factory (FormatCommand,
// RenderCommand, ...).
type Option func(*cmdConfig)

type cmdConfig struct {
	viper    *viper.Viper
	stat     layout.StatFunc
	discover func(ctx context.Context, python string) ([]string, error)
}

func newCmdConfig(opts []Option) *cmdConfig {
	c := &cmdConfig{
		viper:    viper.GetViper(),
		discover: alias.Discover,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithViper reads settings from v instead of the global viper instance.
func WithViper(v *viper.Viper) Option {
	return func(c *cmdConfig) { c.viper = v }
}

// WithStat replaces the file existence check used when resolving frame
// paths.
func WithStat(stat layout.StatFunc) Option {
	return func(c *cmdConfig) { c.stat = stat }
}

// WithDiscover replaces the sys.path query made when an interpreter is
// configured.
func WithDiscover(fn func(ctx context.Context, python string) ([]string, error)) Option {
	return func(c *cmdConfig) { c.discover = fn }
}

func (c *cmdConfig) settings() (settings, error) {
	s, err := loadSettings(c.viper)
	if err != nil {
		return s, usageError(err)
	}
	return s, nil
}
