package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/spritegen/internal/foundation/errors"
	"git.home.luguber.info/inful/spritegen/internal/logfields"
)

// Op is the kind of change a Watcher reports.
type Op int

const (
	// OpAdd is a file appearing in a watched directory.
	OpAdd Op = iota
	// OpUnlink is a file leaving a watched directory (removed or renamed away).
	OpUnlink
	// OpChange is a content write to an existing file.
	OpChange
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpUnlink:
		return "unlink"
	case OpChange:
		return "change"
	default:
		return "unknown"
	}
}

// Event is one filesystem notification.
type Event struct {
	Op   Op
	Path string
}

// Watcher produces add, unlink and change events for the directories it was
// asked to watch.
type Watcher interface {
	Add(dir string) error
	Events() <-chan Event
	Errors() <-chan error
	Close() error
}

// FSWatcher adapts fsnotify to Watcher. Directories created below a
// recursive root are watched as they appear.
type FSWatcher struct {
	w      *fsnotify.Watcher
	events chan Event
	errs   chan error

	mu        sync.Mutex
	recursive []string
	closed    bool
	done      chan struct{}
}

// NewFSWatcher starts an fsnotify watcher. The translation loop runs until
// ctx is canceled or Close is called.
func NewFSWatcher(ctx context.Context) (*FSWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WatchError("failed to create file watcher").WithCause(err).Build()
	}
	fw := &FSWatcher{
		w:      w,
		events: make(chan Event, 64),
		errs:   make(chan error, 8),
		done:   make(chan struct{}),
	}
	go fw.loop(ctx)
	return fw, nil
}

// Add watches a single directory.
func (f *FSWatcher) Add(dir string) error {
	if err := f.w.Add(dir); err != nil {
		return errors.WatchError("failed to watch directory").
			WithCause(err).
			WithContext("directory", dir).Build()
	}
	return nil
}

// AddRecursive watches root and every directory below it, including ones
// created later.
func (f *FSWatcher) AddRecursive(root string) error {
	f.mu.Lock()
	f.recursive = append(f.recursive, root)
	f.mu.Unlock()
	return f.addTree(root)
}

func (f *FSWatcher) Events() <-chan Event { return f.events }
func (f *FSWatcher) Errors() <-chan error { return f.errs }

// Close stops the loop and releases the fsnotify watcher.
func (f *FSWatcher) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	f.mu.Unlock()
	err := f.w.Close()
	<-f.done
	return err
}

func (f *FSWatcher) loop(ctx context.Context) {
	defer close(f.done)
	defer close(f.events)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-f.w.Events:
			if !ok {
				return
			}
			out, ok := f.translate(ev)
			if !ok {
				continue
			}
			select {
			case f.events <- out:
			case <-ctx.Done():
				return
			}
		case err, ok := <-f.w.Errors:
			if !ok {
				return
			}
			select {
			case f.errs <- err:
			default:
				slog.Warn("Dropping watcher error", logfields.Error(err))
			}
		}
	}
}

// translate maps an fsnotify event to an Event. Directory creation is
// consumed here: a new directory below a recursive root is watched and
// produces no event of its own.
func (f *FSWatcher) translate(ev fsnotify.Event) (Event, bool) {
	if shouldIgnore(ev.Name) {
		return Event{}, false
	}
	switch {
	case ev.Has(fsnotify.Create):
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			if f.underRecursiveRoot(ev.Name) {
				if err := f.addTree(ev.Name); err != nil {
					slog.Warn("Failed to watch new directory", logfields.Directory(ev.Name), logfields.Error(err))
				}
			}
			return Event{}, false
		}
		return Event{Op: OpAdd, Path: ev.Name}, true
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		return Event{Op: OpUnlink, Path: ev.Name}, true
	case ev.Has(fsnotify.Write):
		return Event{Op: OpChange, Path: ev.Name}, true
	default:
		return Event{}, false
	}
}

func (f *FSWatcher) underRecursiveRoot(dir string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, root := range f.recursive {
		if rel, err := filepath.Rel(root, dir); err == nil && !strings.HasPrefix(rel, "..") {
			return true
		}
	}
	return false
}

func (f *FSWatcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := f.w.Add(p); err != nil {
			slog.Warn("Watch add failed", logfields.Directory(p), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnore filters editor swap files, hidden files and temp files left
// behind by atomic writes.
func shouldIgnore(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	for _, suffix := range []string{"~", ".swp", ".swx", ".tmp"} {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	return false
}
