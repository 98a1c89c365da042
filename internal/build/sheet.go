package build

import (
	"path/filepath"
	"slices"
	"sync"

	"git.home.luguber.info/inful/spritegen/internal/assets"
	"git.home.luguber.info/inful/spritegen/internal/config"
	"git.home.luguber.info/inful/spritegen/internal/foundation/errors"
	"git.home.luguber.info/inful/spritegen/internal/resolve"
)

// SheetInfo is a point-in-time copy of a sheet's sources.
type SheetInfo struct {
	Name string
	// Patterns are absolute glob patterns; empty for literal sheets.
	Patterns []string
	// Literal sheets list their files explicitly and are edited in place on
	// watch events instead of being globbed again.
	Literal bool
	// Files are the sources resolved by the last build, or the live list of a
	// literal sheet.
	Files []string
	// Configured is the literal source list as configured, before any watch
	// event edited it.
	Configured []string
	// Dirs are the directories whose membership changes affect the sheet.
	// Literal sheets keep their configured directories even after every file
	// listed there was removed.
	Dirs []string
	// Outputs are the files the sheet writes; they are never sources.
	Outputs []string
}

// Generates reports whether path is one of the sheet's outputs.
func (s SheetInfo) Generates(path string) bool {
	return IsOutput(s.Outputs, path)
}

// Owns reports whether path belongs to the sheet's source set: a pattern
// match for pattern sheets, a directory match for literal ones.
func (s SheetInfo) Owns(path string) bool {
	if s.Literal {
		return slices.Contains(s.Dirs, filepath.Dir(path))
	}
	for _, p := range s.Patterns {
		if resolve.Match(p, path) {
			return true
		}
	}
	return false
}

type sheetState struct {
	name     string
	patterns []string
	literal  bool
	outputs  []string

	// sem serializes builds of this sheet.
	sem chan struct{}

	mu         sync.RWMutex
	paths      []string // literal source list
	configured []string // literal source list as configured
	files      []string // last resolved sources
}

// planSheets turns the configured src into sheets, in configuration order.
func planSheets(cfg *config.Config) ([]*sheetState, error) {
	var sheets []*sheetState
	add := func(name string, entries []string) {
		st := &sheetState{name: name, outputs: outputPaths(cfg, name), sem: make(chan struct{}, 1)}
		abs := make([]string, len(entries))
		for i, e := range entries {
			abs[i] = resolve.Absolute(e, cfg.Cwd)
		}
		if resolve.IsLiteral(entries) {
			st.literal = true
			st.paths = abs
			st.configured = slices.Clone(abs)
			st.files = slices.Clone(abs)
		} else {
			st.patterns = abs
		}
		sheets = append(sheets, st)
	}

	switch cfg.Src.Shape {
	case config.ShapeMap:
		for _, named := range cfg.Src.Named {
			add(named.Name, named.Entries)
		}
	default:
		for _, p := range cfg.Src.Patterns {
			add(assets.SheetName(p), []string{p})
		}
	}

	seen := make(map[string]struct{}, len(sheets))
	for _, st := range sheets {
		if _, dup := seen[st.name]; dup {
			return nil, errors.ConfigError("duplicate sheet name").
				ForSheet(st.name).
				WithContext("hint", "use the map form of src to name sheets explicitly").Build()
		}
		seen[st.name] = struct{}{}
		for _, p := range st.patterns {
			if err := resolve.Validate(p); err != nil {
				return nil, err
			}
		}
	}
	return sheets, nil
}

func (s *sheetState) input() resolve.Input {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.literal {
		return resolve.PathInput(slices.Clone(s.paths)...)
	}
	return resolve.PatternInput(s.patterns...)
}

func (s *sheetState) setResolved(files []string) {
	s.mu.Lock()
	s.files = slices.Clone(files)
	s.mu.Unlock()
}

func (s *sheetState) info() SheetInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info := SheetInfo{
		Name:     s.name,
		Patterns: slices.Clone(s.patterns),
		Literal:  s.literal,
		Files:    slices.Clone(s.files),
		Outputs:  slices.Clone(s.outputs),
	}
	dirs := resolve.Dirs(s.files)
	if s.literal {
		info.Files = slices.Clone(s.paths)
		info.Configured = slices.Clone(s.configured)
		dirs = resolve.Dirs(append(slices.Clone(s.paths), s.configured...))
	}
	for _, p := range s.patterns {
		if base := resolve.BaseDir(p); !slices.Contains(dirs, base) {
			dirs = append(dirs, base)
		}
	}
	slices.Sort(dirs)
	info.Dirs = dirs
	return info
}

func (s *sheetState) addPath(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.literal || slices.Contains(s.paths, path) {
		return false
	}
	s.paths = append(s.paths, path)
	return true
}

func (s *sheetState) removePath(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.literal {
		return false
	}
	i := slices.Index(s.paths, path)
	if i < 0 {
		return false
	}
	s.paths = slices.Delete(s.paths, i, i+1)
	return true
}
