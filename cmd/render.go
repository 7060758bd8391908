// Copyright © 2024 The ELPS authors

package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/luthersystems/prettytb/chain"
	"github.com/luthersystems/prettytb/traceback"
	"github.com/spf13/cobra"
)

// RenderCommand returns the command that renders a JSON exception capture.
func RenderCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)
	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a JSON exception capture",
		Long: `Render an exception read as JSON from a file or stdin.

Two shapes are accepted. An array holds the records of a chain, oldest
first, as printed by "prettytb parse". An object is a captured exception
whose "cause" and "context" members hold the exceptions it was linked to:

  {
    "name": "KeyError",
    "message": "'id'",
    "frames": [{"module": "/srv/app/main.py", "call": "main", "lineno": "3", "src_ctx": "run()"}],
    "cause": {"name": "ValueError", "message": "bad id", "frames": []},
    "suppress_context": false
  }`,
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
			c, err := decodeChain(src)
			if err != nil {
				return err
			}
			r := cfg.newRenderer(cmd.Context(), s)
			return r.Write(cmd.Context(), cmd.OutOrStdout(), c)
		},
	}
	return cmd
}

// decodeChain reads either a record array or a linked exception capture.
func decodeChain(src []byte) (traceback.Chain, error) {
	src = bytes.TrimSpace(src)
	if len(src) > 0 && src[0] == '[' {
		var c traceback.Chain
		if err := json.Unmarshal(src, &c); err != nil {
			return nil, fmt.Errorf("decoding records: %w", err)
		}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return c, nil
	}
	n, err := chain.DecodeNode(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	return chain.Assemble(n)
}
