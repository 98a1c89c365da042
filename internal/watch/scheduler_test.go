package watch

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/spritegen/internal/build"
)

func TestScheduler_PeriodicRebuild(t *testing.T) {
	root := t.TempDir()
	target := &fakeTarget{sheets: []build.SheetInfo{
		patternSheet("icons", root, "*.png", filepath.Join(root, "a.png")),
	}}
	s, err := NewScheduler(target)
	require.NoError(t, err)

	id, err := s.SchedulePeriodicRebuild(context.Background(), 50*time.Millisecond)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	s.Start()
	require.Eventually(t, func() bool { return len(target.rebuilt()) >= 1 }, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, s.Stop())
}

func TestScheduler_RejectsNonPositiveInterval(t *testing.T) {
	s, err := NewScheduler(&fakeTarget{})
	require.NoError(t, err)
	_, err = s.SchedulePeriodicRebuild(context.Background(), 0)
	require.Error(t, err)
}
