package watch

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"git.home.luguber.info/inful/spritegen/internal/build"
	"git.home.luguber.info/inful/spritegen/internal/events"
	"git.home.luguber.info/inful/spritegen/internal/foundation/errors"
	"git.home.luguber.info/inful/spritegen/internal/logfields"
	"git.home.luguber.info/inful/spritegen/internal/metrics"
	"git.home.luguber.info/inful/spritegen/internal/observability"
)

// Target is the part of the build service the coordinator drives.
type Target interface {
	Sheets() []build.SheetInfo
	RebuildSheet(ctx context.Context, name, trigger string) (*build.SheetResult, error)
	AddPath(sheet, path string) bool
	RemovePath(sheet, path string) bool
}

// Options tune the coordinator.
type Options struct {
	// OnChange rebuilds on content writes to tracked files too.
	OnChange bool
	// Workers bounds how many sheets rebuild at once.
	Workers int
}

// Coordinator routes watcher events to scoped sheet rebuilds.
type Coordinator struct {
	target   Target
	watcher  Watcher
	bus      *events.Bus
	recorder metrics.Recorder
	opts     Options
	queue    *Queue

	mu      sync.Mutex
	state   *State
	watched map[string]struct{}
}

// NewCoordinator wires a coordinator. A nil bus drops RebuildTriggered events.
func NewCoordinator(target Target, watcher Watcher, bus *events.Bus, recorder metrics.Recorder, opts Options) *Coordinator {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	c := &Coordinator{
		target:   target,
		watcher:  watcher,
		bus:      bus,
		recorder: recorder,
		opts:     opts,
		watched:  make(map[string]struct{}),
	}
	c.queue = NewQueue(opts.Workers, c.rebuild)
	return c
}

// Queue exposes the rebuild queue.
func (c *Coordinator) Queue() *Queue { return c.queue }

// Attach indexes the sheets and subscribes the watcher to their directories.
// Directories that cannot be watched are logged and skipped.
func (c *Coordinator) Attach(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = NewState(c.target.Sheets())
	if rw, ok := c.watcher.(interface{ AddRecursive(string) error }); ok {
		for _, root := range c.state.Recursive() {
			if err := rw.AddRecursive(root); err != nil {
				observability.WarnContext(ctx, "Failed to watch directory tree", logfields.Directory(root), logfields.Error(err))
				continue
			}
			c.watched[root] = struct{}{}
		}
	}
	c.watchNewDirs(ctx)
	if len(c.watched) == 0 {
		return errors.WatchError("no source directory could be watched").Build()
	}
	for _, d := range c.state.Dirs() {
		if _, ok := c.watched[d]; !ok && !c.coveredByTree(d) {
			continue
		}
		observability.InfoContext(ctx, "Watching directory",
			logfields.Directory(d),
			logfields.Format(strings.Join(c.state.Extensions(d), ",")))
	}
	return nil
}

// Run attaches (when needed) and processes events one at a time until ctx is
// canceled or the watcher closes. Rebuild failures never stop the loop.
func (c *Coordinator) Run(ctx context.Context) error {
	c.mu.Lock()
	attached := c.state != nil
	c.mu.Unlock()
	if !attached {
		if err := c.Attach(ctx); err != nil {
			return err
		}
	}

	c.queue.Start(ctx)
	defer c.queue.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-c.watcher.Events():
			if !ok {
				return nil
			}
			c.Handle(ctx, ev)
		case err, ok := <-c.watcher.Errors():
			if !ok {
				return nil
			}
			observability.WarnContext(ctx, "Watcher error", logfields.Error(err))
		}
	}
}

// Handle applies one event: it updates literal source lists and enqueues a
// rebuild for each owning sheet. Events for files the sheets generate are
// dropped so a build never triggers itself.
func (c *Coordinator) Handle(ctx context.Context, ev Event) {
	if ev.Op == OpChange && !c.opts.OnChange {
		return
	}

	c.mu.Lock()
	if c.state.Generated(ev.Path) {
		c.mu.Unlock()
		observability.DebugContext(ctx, "Ignoring change to generated file",
			logfields.Path(ev.Path), logfields.Event(ev.Op.String()))
		return
	}
	owners := c.state.Owners(ev.Op, ev.Path)
	var literal []string
	for _, name := range owners {
		if info, ok := c.state.Sheet(name); ok && info.Literal {
			literal = append(literal, name)
		}
	}
	c.mu.Unlock()

	if len(owners) == 0 {
		observability.DebugContext(ctx, "Ignoring change outside every sheet",
			logfields.Path(ev.Path), logfields.Event(ev.Op.String()))
		return
	}

	for _, name := range literal {
		switch ev.Op {
		case OpAdd:
			c.target.AddPath(name, ev.Path)
		case OpUnlink:
			c.target.RemovePath(name, ev.Path)
		}
	}
	if len(literal) > 0 {
		c.refresh(ctx)
	}

	for _, name := range owners {
		sctx := observability.WithSheet(ctx, name)
		observability.InfoContext(sctx, "Source change detected",
			logfields.Path(ev.Path), logfields.Event(ev.Op.String()))
		if err := c.bus.Publish(ctx, events.RebuildTriggered{Sheet: name, Reason: ev.Op.String(), Path: ev.Path}); err != nil {
			observability.DebugContext(sctx, "Failed to publish rebuild event", logfields.Error(err))
		}
		if _, err := c.queue.Enqueue(name, ev.Op.String(), ev.Path); err != nil {
			observability.Failure(sctx, "Failed to schedule rebuild", err)
		}
	}
}

func (c *Coordinator) rebuild(ctx context.Context, sheet string) error {
	_, err := c.target.RebuildSheet(ctx, sheet, build.TriggerWatch)
	if err != nil {
		observability.Failure(observability.WithSheet(ctx, sheet), "Watch rebuild failed", err)
	}
	c.refresh(ctx)
	return err
}

// refresh reindexes from the service and watches directories that appeared.
func (c *Coordinator) refresh(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Reset(c.target.Sheets())
	c.watchNewDirs(ctx)
}

// watchNewDirs must be called with mu held.
func (c *Coordinator) watchNewDirs(ctx context.Context) {
	for _, d := range c.state.Dirs() {
		if _, ok := c.watched[d]; ok || c.coveredByTree(d) {
			continue
		}
		if err := c.watcher.Add(d); err != nil {
			observability.WarnContext(ctx, "Failed to watch directory", logfields.Directory(d), logfields.Error(err))
			continue
		}
		c.watched[d] = struct{}{}
	}
	c.recorder.SetWatchedDirectories(len(c.watched))
}

func (c *Coordinator) coveredByTree(dir string) bool {
	for _, root := range c.state.Recursive() {
		if _, ok := c.watched[root]; ok && (dir == root || strings.HasPrefix(dir, root+string(filepath.Separator))) {
			return true
		}
	}
	return false
}

// Watched returns the directories the watcher was subscribed to.
func (c *Coordinator) Watched() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.watched))
	for d := range c.watched {
		out = append(out, d)
	}
	slices.Sort(out)
	return out
}
