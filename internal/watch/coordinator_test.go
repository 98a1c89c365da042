package watch

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/spritegen/internal/build"
	"git.home.luguber.info/inful/spritegen/internal/events"
)

func startCoordinator(t *testing.T, target *fakeTarget, opts Options) (*Coordinator, *fakeWatcher) {
	t.Helper()
	w := newFakeWatcher()
	c := NewCoordinator(target, w, nil, nil, opts)
	require.NoError(t, c.Attach(context.Background()))
	return c, w
}

func TestCoordinator_AttachWatchesSheetDirectories(t *testing.T) {
	root := t.TempDir()
	icons := filepath.Join(root, "icons")
	flags := filepath.Join(root, "flags")
	target := &fakeTarget{sheets: []build.SheetInfo{
		patternSheet("icons", icons, "*.png", filepath.Join(icons, "a.png")),
		literalSheet("flags", filepath.Join(flags, "se.png"), filepath.Join(flags, "no.png")),
	}}

	c, w := startCoordinator(t, target, Options{})

	assert.ElementsMatch(t, []string{icons, flags}, w.added())
	assert.Equal(t, []string{flags, icons}, c.Watched())
}

func TestCoordinator_MembershipOnly(t *testing.T) {
	root := t.TempDir()
	icons := filepath.Join(root, "icons")
	other := filepath.Join(root, "other")
	tracked := filepath.Join(icons, "a.png")
	target := &fakeTarget{sheets: []build.SheetInfo{
		patternSheet("icons", icons, "*.png", tracked),
		patternSheet("other", other, "*.png", filepath.Join(other, "x.png")),
	}}
	c, _ := startCoordinator(t, target, Options{})
	ctx := context.Background()
	c.Queue().Start(ctx)

	c.Handle(ctx, Event{Op: OpChange, Path: tracked})
	c.Queue().Wait()
	assert.Empty(t, target.rebuilt(), "content edits must not rebuild")

	c.Handle(ctx, Event{Op: OpAdd, Path: filepath.Join(icons, "b.png")})
	c.Queue().Wait()
	assert.Equal(t, []string{"icons"}, target.rebuilt())
}

func TestCoordinator_IgnoresNonMatchingFiles(t *testing.T) {
	root := t.TempDir()
	icons := filepath.Join(root, "icons")
	target := &fakeTarget{sheets: []build.SheetInfo{
		patternSheet("icons", icons, "*.png", filepath.Join(icons, "a.png")),
	}}
	c, _ := startCoordinator(t, target, Options{})
	ctx := context.Background()
	c.Queue().Start(ctx)

	c.Handle(ctx, Event{Op: OpAdd, Path: filepath.Join(icons, "notes.txt")})
	c.Handle(ctx, Event{Op: OpAdd, Path: filepath.Join(root, "elsewhere", "a.png")})
	c.Queue().Wait()

	assert.Empty(t, target.rebuilt())
}

func TestCoordinator_OnChangeOptIn(t *testing.T) {
	root := t.TempDir()
	icons := filepath.Join(root, "icons")
	tracked := filepath.Join(icons, "a.png")
	target := &fakeTarget{sheets: []build.SheetInfo{
		patternSheet("icons", icons, "*.png", tracked),
	}}
	c, _ := startCoordinator(t, target, Options{OnChange: true})
	ctx := context.Background()
	c.Queue().Start(ctx)

	c.Handle(ctx, Event{Op: OpChange, Path: tracked})
	c.Queue().Wait()

	assert.Equal(t, []string{"icons"}, target.rebuilt())
}

func TestCoordinator_LiteralListIsEditedInPlace(t *testing.T) {
	root := t.TempDir()
	se := filepath.Join(root, "se.png")
	no := filepath.Join(root, "no.png")
	dk := filepath.Join(root, "dk.png")
	target := &fakeTarget{sheets: []build.SheetInfo{literalSheet("flags", se, no)}}
	c, _ := startCoordinator(t, target, Options{})
	ctx := context.Background()
	c.Queue().Start(ctx)

	c.Handle(ctx, Event{Op: OpAdd, Path: dk})
	c.Queue().Wait()
	assert.Equal(t, []string{se, no, dk}, target.files("flags"))

	c.Handle(ctx, Event{Op: OpUnlink, Path: se})
	c.Queue().Wait()
	assert.Equal(t, []string{no, dk}, target.files("flags"))

	// A file type the sheet never used is not adopted.
	c.Handle(ctx, Event{Op: OpAdd, Path: filepath.Join(root, "readme.md")})
	c.Queue().Wait()
	assert.Equal(t, []string{no, dk}, target.files("flags"))

	assert.Equal(t, []string{"flags", "flags"}, target.rebuilt())
}

func TestCoordinator_ReaddsToEmptiedLiteralDirectory(t *testing.T) {
	root := t.TempDir()
	icons := filepath.Join(root, "icons")
	a := filepath.Join(icons, "a.png")
	target := &fakeTarget{sheets: []build.SheetInfo{literalSheet("lit", a)}}
	c, _ := startCoordinator(t, target, Options{})
	ctx := context.Background()
	c.Queue().Start(ctx)

	c.Handle(ctx, Event{Op: OpUnlink, Path: a})
	c.Queue().Wait()
	assert.Empty(t, target.files("lit"))

	c.Handle(ctx, Event{Op: OpAdd, Path: a})
	c.Queue().Wait()
	assert.Equal(t, []string{a}, target.files("lit"))
	assert.Equal(t, []string{"lit", "lit"}, target.rebuilt())
}

func TestCoordinator_IgnoresGeneratedFiles(t *testing.T) {
	root := t.TempDir()
	img := filepath.Join(root, "img")
	atlas := filepath.Join(img, "img-sprite.png")
	sheet := patternSheet("img", img, "*.png", filepath.Join(img, "a.png"))
	sheet.Outputs = []string{atlas}
	target := &fakeTarget{sheets: []build.SheetInfo{sheet}}
	c, _ := startCoordinator(t, target, Options{OnChange: true})
	ctx := context.Background()
	c.Queue().Start(ctx)

	c.Handle(ctx, Event{Op: OpAdd, Path: atlas})
	c.Handle(ctx, Event{Op: OpChange, Path: atlas})
	c.Queue().Wait()
	assert.Empty(t, target.rebuilt())

	c.Handle(ctx, Event{Op: OpAdd, Path: filepath.Join(img, "b.png")})
	c.Queue().Wait()
	assert.Equal(t, []string{"img"}, target.rebuilt())
}

func TestCoordinator_FailedRebuildKeepsWatching(t *testing.T) {
	root := t.TempDir()
	icons := filepath.Join(root, "icons")
	target := &fakeTarget{
		sheets: []build.SheetInfo{patternSheet("icons", icons, "*.png", filepath.Join(icons, "a.png"))},
		fail:   map[string]bool{"icons": true},
	}
	w := newFakeWatcher()
	c := NewCoordinator(target, w, nil, nil, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	w.events <- Event{Op: OpAdd, Path: filepath.Join(icons, "b.png")}
	require.Eventually(t, func() bool { return len(target.rebuilt()) == 1 }, 2*time.Second, 10*time.Millisecond)

	w.events <- Event{Op: OpAdd, Path: filepath.Join(icons, "c.png")}
	require.Eventually(t, func() bool { return len(target.rebuilt()) == 2 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	history := c.Queue().History()
	require.Len(t, history, 2)
	assert.Equal(t, JobFailed, history[0].Status)
	assert.Equal(t, "boom", history[0].Error)
}

func TestCoordinator_PublishesRebuildTriggered(t *testing.T) {
	root := t.TempDir()
	icons := filepath.Join(root, "icons")
	target := &fakeTarget{sheets: []build.SheetInfo{
		patternSheet("icons", icons, "*.png", filepath.Join(icons, "a.png")),
	}}
	bus := events.NewBus()
	defer bus.Close()
	ch, unsubscribe := events.Subscribe[events.RebuildTriggered](bus, 4)
	defer unsubscribe()

	c := NewCoordinator(target, newFakeWatcher(), bus, nil, Options{})
	require.NoError(t, c.Attach(context.Background()))
	ctx := context.Background()
	c.Queue().Start(ctx)

	added := filepath.Join(icons, "b.png")
	c.Handle(ctx, Event{Op: OpAdd, Path: added})
	c.Queue().Wait()

	select {
	case evt := <-ch:
		assert.Equal(t, events.RebuildTriggered{Sheet: "icons", Reason: "add", Path: added}, evt)
	case <-time.After(time.Second):
		t.Fatal("no RebuildTriggered event")
	}
}
