package watch

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"sync"

	"git.home.luguber.info/inful/spritegen/internal/build"
)

type fakeWatcher struct {
	mu     sync.Mutex
	dirs   []string
	events chan Event
	errs   chan error
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{events: make(chan Event, 16), errs: make(chan error, 4)}
}

func (f *fakeWatcher) Add(dir string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dirs = append(f.dirs, dir)
	return nil
}

func (f *fakeWatcher) Events() <-chan Event { return f.events }
func (f *fakeWatcher) Errors() <-chan error { return f.errs }
func (f *fakeWatcher) Close() error         { return nil }

func (f *fakeWatcher) added() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.dirs)
}

// fakeTarget records rebuilds and keeps literal lists like the orchestrator.
type fakeTarget struct {
	mu       sync.Mutex
	sheets   []build.SheetInfo
	rebuilds []string
	fail     map[string]bool
	gate     chan struct{}
}

func (f *fakeTarget) Sheets() []build.SheetInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]build.SheetInfo, len(f.sheets))
	for i, s := range f.sheets {
		s.Files = slices.Clone(s.Files)
		if s.Literal {
			s.Dirs = dirsOf(append(slices.Clone(s.Files), s.Configured...))
		}
		out[i] = s
	}
	return out
}

func (f *fakeTarget) RebuildSheet(_ context.Context, name, _ string) (*build.SheetResult, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rebuilds = append(f.rebuilds, name)
	if f.fail[name] {
		return nil, errors.New("boom")
	}
	return &build.SheetResult{Sheet: name}, nil
}

func (f *fakeTarget) RebuildAll(ctx context.Context, trigger string) (*build.RunResult, error) {
	run := &build.RunResult{Trigger: trigger}
	for _, s := range f.Sheets() {
		res, _ := f.RebuildSheet(ctx, s.Name, trigger)
		if res == nil {
			res = &build.SheetResult{Sheet: s.Name, Err: errors.New("boom")}
		}
		run.Sheets = append(run.Sheets, res)
	}
	return run, nil
}

func (f *fakeTarget) AddPath(sheet, path string) bool {
	return f.edit(sheet, func(files []string) []string {
		if slices.Contains(files, path) {
			return files
		}
		return append(files, path)
	})
}

func (f *fakeTarget) RemovePath(sheet, path string) bool {
	return f.edit(sheet, func(files []string) []string {
		return slices.DeleteFunc(files, func(p string) bool { return p == path })
	})
}

func (f *fakeTarget) edit(sheet string, fn func([]string) []string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.sheets {
		if f.sheets[i].Name == sheet && f.sheets[i].Literal {
			f.sheets[i].Files = fn(f.sheets[i].Files)
			return true
		}
	}
	return false
}

func (f *fakeTarget) rebuilt() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.rebuilds)
}

func (f *fakeTarget) files(sheet string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sheets {
		if s.Name == sheet {
			return slices.Clone(s.Files)
		}
	}
	return nil
}

func dirsOf(files []string) []string {
	var out []string
	for _, f := range files {
		if d := filepath.Dir(f); !slices.Contains(out, d) {
			out = append(out, d)
		}
	}
	slices.Sort(out)
	return out
}

func patternSheet(name, dir, glob string, files ...string) build.SheetInfo {
	return build.SheetInfo{
		Name:     name,
		Patterns: []string{filepath.Join(dir, glob)},
		Files:    files,
		Dirs:     []string{dir},
	}
}

func literalSheet(name string, files ...string) build.SheetInfo {
	return build.SheetInfo{Name: name, Literal: true, Files: files, Configured: slices.Clone(files), Dirs: dirsOf(files)}
}
