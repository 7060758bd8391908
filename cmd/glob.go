// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
)

// logSuffixes are the extensions collected when a directory is walked.
var logSuffixes = []string{".log", ".txt", ".err", ".out"}

// fileSet accumulates the files named on the format command line, in
// order and without repeats.
type fileSet struct {
	exclude []string
	seen    map[string]bool
	files   []string
}

// collectFiles resolves the format command's arguments. An argument
// ending in "/..." names every log file below that directory; any other
// argument is taken as a file name. A path is dropped when an exclude
// pattern matches it or one of its elements, and excluded directories are
// not descended into.
func collectFiles(args, exclude []string) ([]string, error) {
	set := &fileSet{exclude: exclude, seen: make(map[string]bool)}
	for _, arg := range args {
		root, recursive := strings.CutSuffix(arg, "/...")
		if !recursive {
			set.add(arg)
			continue
		}
		if root == "" {
			root = "."
		}
		if err := set.walk(root); err != nil {
			return nil, fmt.Errorf("expanding %s: %w", arg, err)
		}
	}
	return set.files, nil
}

func (s *fileSet) add(path string) {
	if s.seen[path] || s.excluded(path) {
		return
	}
	s.seen[path] = true
	s.files = append(s.files, path)
}

func (s *fileSet) walk(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return err
		case d.IsDir() && s.excluded(path):
			return filepath.SkipDir
		case !d.IsDir() && slices.Contains(logSuffixes, filepath.Ext(path)):
			s.add(path)
		}
		return nil
	})
}

// excluded reports whether a pattern matches path as a whole or any one
// of its slash separated elements.
func (s *fileSet) excluded(path string) bool {
	if len(s.exclude) == 0 {
		return false
	}
	clean := filepath.ToSlash(filepath.Clean(path))
	candidates := append([]string{clean}, strings.Split(clean, "/")...)
	for _, pattern := range s.exclude {
		for _, c := range candidates {
			if c == "" || c == "." {
				continue
			}
			if ok, _ := filepath.Match(pattern, c); ok {
				return true
			}
		}
	}
	return false
}
