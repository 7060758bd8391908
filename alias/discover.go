// Copyright © 2024 The ELPS authors

package alias

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// DiscoverTimeout bounds the interpreter query made by Discover.
const DiscoverTimeout = 2 * time.Second

const sysPathScript = "import json, sys; print(json.dumps(sys.path))"

// Discover asks the python interpreter for its module search path. Empty
// entries, which stand for the script directory, are dropped.
func Discover(ctx context.Context, python string) ([]string, error) {
	if python == "" {
		python = "python3"
	}
	ctx, cancel := context.WithTimeout(ctx, DiscoverTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, python, "-c", sysPathScript).Output()
	if err != nil {
		return nil, fmt.Errorf("querying %s sys.path: %w", python, err)
	}
	var paths []string
	if err := json.Unmarshal(out, &paths); err != nil {
		return nil, fmt.Errorf("decoding %s sys.path: %w", python, err)
	}
	return dropEmpty(paths), nil
}

// FromEnv returns the entries of the PYTHONPATH environment variable.
func FromEnv() []string {
	return dropEmpty(filepath.SplitList(os.Getenv("PYTHONPATH")))
}

func dropEmpty(paths []string) []string {
	out := paths[:0]
	for _, p := range paths {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
