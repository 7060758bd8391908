// Copyright © 2024 The ELPS authors

// Package alias derives short symbolic names for the path prefixes shared
// by the frames of a traceback.
package alias

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Fixed alias tokens.
const (
	Site    = "<site>" // a site-packages install directory
	Dist    = "<dist>" // a dist-packages install directory
	Runtime = "<py>"   // the interpreter's standard library
	Here    = "<pwd>"  // the working directory
)

var (
	stdlibUnixRE    = regexp.MustCompile(`lib/python\d\.\d+$`)
	stdlibWindowsRE = regexp.MustCompile(`(?i)\\python\d+\\lib$`)
)

// Alias maps a short name to the path prefix it stands for. Prefix always
// ends with a path separator so that shortened paths never look absolute.
type Alias struct {
	Name   string `json:"name"`
	Prefix string `json:"prefix"`
}

// Roots are the directories the interpreter searches for importable code
// together with the working directory. Roots are passed explicitly to
// Resolve so that concurrent callers can use different sets.
type Roots struct {
	Paths   []string
	WorkDir string
}

// Resolve computes the alias table for the given frame paths. Candidate
// roots are processed from longest to shortest and each path is claimed by
// the first root it falls under, so nested roots are never shadowed by the
// roots that contain them. Roots claiming no path produce no alias. The
// result is ordered longest prefix first.
func Resolve(paths []string, roots Roots) []Alias {
	pending := make(map[string]bool, len(paths))
	for _, p := range paths {
		pending[p] = true
	}
	workDir := trimSep(roots.WorkDir)

	var aliases []Alias
	generic := 0
	for _, root := range candidates(roots) {
		prefix := withSep(root)
		used := false
		for p := range pending {
			if strings.HasPrefix(p, prefix) {
				used = true
				delete(pending, p)
			}
		}
		if !used {
			continue
		}
		aliases = append(aliases, Alias{
			Name:   aliasName(root, workDir, &generic),
			Prefix: prefix,
		})
	}
	return aliases
}

// Lookup returns the alias whose name is name.
func Lookup(aliases []Alias, name string) (Alias, bool) {
	for _, a := range aliases {
		if a.Name == name {
			return a, true
		}
	}
	return Alias{}, false
}

func aliasName(root, workDir string, generic *int) string {
	switch {
	case strings.HasSuffix(root, "site-packages"):
		return Site
	case strings.HasSuffix(root, "dist-packages"):
		return Dist
	case stdlibUnixRE.MatchString(root), stdlibWindowsRE.MatchString(root):
		return Runtime
	case workDir != "" && root == workDir:
		return Here
	}
	name := "<p" + strconv.Itoa(*generic) + ">"
	*generic++
	return name
}

// candidates returns the distinct, non-empty roots sorted by descending
// length. Ties keep their configured order.
func candidates(roots Roots) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		p = trimSep(p)
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		out = append(out, p)
	}
	for _, p := range roots.Paths {
		add(p)
	}
	add(roots.WorkDir)
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i]) > len(out[j])
	})
	return out
}

func trimSep(p string) string {
	trimmed := strings.TrimRight(p, `/\`)
	if trimmed == "" && p != "" {
		// the filesystem root
		return p[:1]
	}
	return trimmed
}

func withSep(root string) string {
	if strings.HasSuffix(root, "/") || strings.HasSuffix(root, `\`) {
		return root
	}
	if strings.Contains(root, `\`) && !strings.Contains(root, "/") {
		return root + `\`
	}
	return root + "/"
}
