package watch

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/spritegen/internal/build"
	"git.home.luguber.info/inful/spritegen/internal/foundation/errors"
	"git.home.luguber.info/inful/spritegen/internal/logfields"
	"git.home.luguber.info/inful/spritegen/internal/observability"
)

// RebuildAller runs every sheet again.
type RebuildAller interface {
	RebuildAll(ctx context.Context, trigger string) (*build.RunResult, error)
}

// Scheduler wraps gocron to rebuild every sheet on a fixed interval.
type Scheduler struct {
	scheduler gocron.Scheduler
	target    RebuildAller
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(target RebuildAller) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.WatchError("failed to create scheduler").WithCause(err).Build()
	}
	return &Scheduler{scheduler: s, target: target}, nil
}

// SchedulePeriodicRebuild registers the interval job and returns its ID.
// Overlapping runs are skipped.
func (s *Scheduler) SchedulePeriodicRebuild(ctx context.Context, interval time.Duration) (string, error) {
	if interval <= 0 {
		return "", errors.ValidationError("rebuild interval must be > 0").Build()
	}
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.rebuildAll, ctx),
		gocron.WithName("periodic-rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", errors.WatchError("failed to create periodic rebuild job").WithCause(err).Build()
	}
	observability.InfoContext(ctx, "Scheduled periodic rebuild", logfields.DurationMS(float64(interval.Milliseconds())))
	return job.ID().String(), nil
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() { s.scheduler.Start() }

// Stop shuts the scheduler down, waiting for a running job.
func (s *Scheduler) Stop() error { return s.scheduler.Shutdown() }

func (s *Scheduler) rebuildAll(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	run, err := s.target.RebuildAll(ctx, build.TriggerInterval)
	if err != nil {
		observability.Failure(ctx, "Periodic rebuild failed", err)
		return
	}
	if failed := run.Failed(); len(failed) > 0 {
		observability.WarnContext(ctx, "Periodic rebuild finished with failures", logfields.Count(len(failed)))
	}
}
