// Package resolve expands source patterns into concrete, absolute file lists.
package resolve

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/spritegen/internal/foundation/errors"
)

// Input is either a set of glob patterns or an already-known list of paths.
// Paths are returned without globbing so a watch-triggered rebuild can reuse
// the list it maintains.
type Input struct {
	Patterns []string
	Paths    []string
}

// PatternInput wraps glob patterns.
func PatternInput(patterns ...string) Input { return Input{Patterns: patterns} }

// PathInput wraps a literal path list.
func PathInput(paths ...string) Input { return Input{Paths: paths} }

// Resolver expands an Input against a base directory.
type Resolver interface {
	Resolve(ctx context.Context, in Input, baseDir string) ([]string, error)
}

// GlobResolver is the doublestar-backed Resolver.
type GlobResolver struct{}

// NewGlobResolver returns the default resolver.
func NewGlobResolver() *GlobResolver { return &GlobResolver{} }

// Resolve returns a deduplicated list of absolute, regular-file paths.
// No ordering is promised beyond what the glob engine produces.
func (r *GlobResolver) Resolve(ctx context.Context, in Input, baseDir string) ([]string, error) {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(in.Paths))
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	for _, p := range in.Paths {
		add(Absolute(p, baseDir))
	}

	for _, pattern := range in.Patterns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		abs := Absolute(pattern, baseDir)
		matches, err := doublestar.FilepathGlob(abs, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
		if err != nil {
			msg := "failed to expand pattern"
			if stderrors.Is(err, doublestar.ErrBadPattern) {
				msg = "invalid glob pattern"
			}
			return nil, errors.WrapError(err, errors.CategoryResolution, msg).
				WithContext("pattern", pattern).Build()
		}
		for _, m := range matches {
			add(filepath.Clean(m))
		}
	}
	return out, nil
}

// Absolute joins p onto baseDir unless p is already absolute.
func Absolute(p, baseDir string) string {
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(baseDir, p)
}

// IsPattern reports whether s contains glob metacharacters.
func IsPattern(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

// IsLiteral reports whether every entry is a plain path.
func IsLiteral(entries []string) bool {
	if len(entries) == 0 {
		return false
	}
	for _, e := range entries {
		if IsPattern(e) {
			return false
		}
	}
	return true
}

// Validate checks pattern syntax without touching the filesystem.
func Validate(pattern string) error {
	if !doublestar.ValidatePathPattern(filepath.FromSlash(pattern)) {
		return errors.ResolutionError("invalid glob pattern").
			WithContext("pattern", pattern).Build()
	}
	return nil
}

// Match reports whether the absolute path matches the absolute pattern.
func Match(pattern, path string) bool {
	ok, err := doublestar.PathMatch(filepath.FromSlash(pattern), path)
	return err == nil && ok
}

// BaseDir returns the static directory prefix of an absolute pattern, i.e.
// the deepest directory that contains no metacharacters.
func BaseDir(pattern string) string {
	base, _ := doublestar.SplitPattern(filepath.ToSlash(pattern))
	return filepath.FromSlash(base)
}

// Recursive reports whether the pattern descends into subdirectories.
func Recursive(pattern string) bool {
	return strings.Contains(pattern, "**")
}

// Dirs returns the sorted, distinct parent directories of paths.
func Dirs(paths []string) []string {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[filepath.Dir(p)] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
