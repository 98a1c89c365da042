package watch

import (
	"path/filepath"
	"slices"
	"strings"

	"git.home.luguber.info/inful/spritegen/internal/build"
	"git.home.luguber.info/inful/spritegen/internal/resolve"
)

// dirEntry records which sheets care about a directory and, per sheet, the
// file extensions listed there.
type dirEntry struct {
	sheets []string
	exts   map[string]map[string]struct{}
}

// State maps watched directories to their owning sheets. It is rebuilt from
// sheet snapshots and only touched by the coordinator's event loop.
type State struct {
	sheets map[string]build.SheetInfo
	order  []string
	dirs   map[string]*dirEntry
}

// NewState indexes the given sheets.
func NewState(sheets []build.SheetInfo) *State {
	s := &State{}
	s.Reset(sheets)
	return s
}

// Reset replaces the index with fresh sheet snapshots.
func (s *State) Reset(sheets []build.SheetInfo) {
	s.sheets = make(map[string]build.SheetInfo, len(sheets))
	s.order = s.order[:0]
	s.dirs = make(map[string]*dirEntry)
	for _, info := range sheets {
		s.sheets[info.Name] = info
		s.order = append(s.order, info.Name)
		for _, d := range info.Dirs {
			s.entry(d).addSheet(info.Name)
		}
		for _, f := range info.Files {
			s.entry(filepath.Dir(f)).addExt(info.Name, ext(f))
		}
		for _, f := range info.Configured {
			s.entry(filepath.Dir(f)).addExt(info.Name, ext(f))
		}
	}
}

// Generated reports whether path is an output of any sheet.
func (s *State) Generated(path string) bool {
	for _, name := range s.order {
		if s.sheets[name].Generates(path) {
			return true
		}
	}
	return false
}

// Dirs lists every watched directory, sorted.
func (s *State) Dirs() []string {
	out := make([]string, 0, len(s.dirs))
	for d := range s.dirs {
		out = append(out, d)
	}
	slices.Sort(out)
	return out
}

// Recursive lists the base directories of recursive patterns.
func (s *State) Recursive() []string {
	var out []string
	for _, name := range s.order {
		for _, p := range s.sheets[name].Patterns {
			if resolve.Recursive(p) {
				if base := resolve.BaseDir(p); !slices.Contains(out, base) {
					out = append(out, base)
				}
			}
		}
	}
	return out
}

// Sheet returns the snapshot for name.
func (s *State) Sheet(name string) (build.SheetInfo, bool) {
	info, ok := s.sheets[name]
	return info, ok
}

// Owners returns the sheets affected by a membership change of path, in
// configuration order. Pattern sheets own paths their patterns match.
// Literal sheets own added paths in their directories when the sheet lists,
// or was configured with, a file of the same extension there; a removal only
// concerns sheets that list the path.
func (s *State) Owners(op Op, path string) []string {
	var out []string
	e := s.dirs[filepath.Dir(path)]
	for _, name := range s.order {
		info := s.sheets[name]
		switch {
		case op == OpChange:
			if slices.Contains(info.Files, path) {
				out = append(out, name)
			}
		case !info.Literal:
			if info.Owns(path) {
				out = append(out, name)
			}
		case op == OpUnlink:
			if slices.Contains(info.Files, path) {
				out = append(out, name)
			}
		default:
			if e != nil && e.accepts(name, ext(path)) && !slices.Contains(info.Files, path) {
				out = append(out, name)
			}
		}
	}
	return out
}

// Extensions lists the file extensions seen in dir, sorted.
func (s *State) Extensions(dir string) []string {
	e, ok := s.dirs[dir]
	if !ok {
		return nil
	}
	var out []string
	for _, exts := range e.exts {
		for x := range exts {
			if !slices.Contains(out, x) {
				out = append(out, x)
			}
		}
	}
	slices.Sort(out)
	return out
}

func (s *State) entry(dir string) *dirEntry {
	e, ok := s.dirs[dir]
	if !ok {
		e = &dirEntry{exts: make(map[string]map[string]struct{})}
		s.dirs[dir] = e
	}
	return e
}

func (e *dirEntry) addSheet(name string) {
	if !slices.Contains(e.sheets, name) {
		e.sheets = append(e.sheets, name)
	}
}

func (e *dirEntry) addExt(sheet, x string) {
	e.addSheet(sheet)
	if e.exts[sheet] == nil {
		e.exts[sheet] = make(map[string]struct{})
	}
	e.exts[sheet][x] = struct{}{}
}

func (e *dirEntry) accepts(sheet, x string) bool {
	if !slices.Contains(e.sheets, sheet) {
		return false
	}
	_, ok := e.exts[sheet][x]
	return ok
}

func ext(p string) string {
	return strings.ToLower(filepath.Ext(p))
}
