// Package glob matches names against shell-like patterns and expands patterns
// to the matching paths of the local filesystem.
package glob

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

type Glob interface {
	Match(name string) bool
	Prefix() string
}

type globber struct {
	pattern string
	glob    glob.Glob
}

func Compile(pattern string, separators ...rune) (Glob, error) {
	g, err := glob.Compile(pattern, separators...)
	if err != nil {
		return nil, err
	}

	return &globber{pattern: pattern, glob: g}, nil
}

func (g *globber) Match(name string) bool {
	return g.glob.Match(name)
}

func (g *globber) Prefix() string {
	return Prefix(g.pattern)
}

// Prefix returns the part of the pattern before the first wildcard.
func Prefix(pattern string) string {
	index := strings.IndexAny(pattern, "*?[{")
	if index == -1 {
		return pattern
	}

	return strings.Clone(pattern[:index])
}

func IsPattern(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// Match returns whether the name matches the glob pattern, also considering
// one or several optionnal separator. An error is only returned if the pattern
// is invalid.
func Match(pattern, name string, separators ...rune) (bool, error) {
	g, err := Compile(pattern, separators...)
	if err != nil {
		return false, err
	}

	return g.Match(name), nil
}

// Expand returns the paths in the local filesystem that match the pattern,
// in lexical order. A single '*' doesn't cross directory boundaries, '**'
// does. The contents of a matching directory are not matched on their own.
// A path that isn't a pattern is returned as is if it exists. If it doesn't,
// fs.ErrNotExist is returned.
func Expand(pattern string) ([]string, error) {
	pattern = filepath.Clean(pattern)

	if !IsPattern(pattern) {
		if _, err := os.Stat(pattern); err != nil {
			return nil, err
		}

		return []string{pattern}, nil
	}

	g, err := Compile(pattern, filepath.Separator)
	if err != nil {
		return nil, err
	}

	root := filepath.Dir(g.Prefix() + "x")

	matches := []string{}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root && errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipAll
			}

			return err
		}

		if path == root {
			return nil
		}

		if !g.Match(path) {
			return nil
		}

		matches = append(matches, path)

		if d.IsDir() {
			return filepath.SkipDir
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(matches)

	return matches, nil
}
