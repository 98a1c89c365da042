package build

import (
	stderrors "errors"
	"time"

	"git.home.luguber.info/inful/spritegen/internal/config"
	"git.home.luguber.info/inful/spritegen/internal/iconfont"
	"git.home.luguber.info/inful/spritegen/internal/metrics"
	"git.home.luguber.info/inful/spritegen/internal/sink"
	"git.home.luguber.info/inful/spritegen/internal/sprite"
)

// Phase is the orchestrator's run state.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseResolving
	PhaseBuilding
	PhaseComplete
	PhasePartialFailure
	PhaseWatching
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseResolving:
		return "resolving"
	case PhaseBuilding:
		return "building"
	case PhaseComplete:
		return "complete"
	case PhasePartialFailure:
		return "partial_failure"
	case PhaseWatching:
		return "watching"
	default:
		return "unknown"
	}
}

// Triggers recorded on lifecycle events and metrics.
const (
	TriggerInitial  = "initial"
	TriggerWatch    = "watch"
	TriggerInterval = "interval"
	TriggerManual   = "manual"
)

// SheetResult is the outcome of one sheet build. A failed sub-build leaves
// its result nil and sets the matching error.
type SheetResult struct {
	Sheet   string
	BuildID string
	Trigger string
	// Sources is the number of resolved files.
	Sources  int
	Sprite   *sprite.Result
	Font     *iconfont.Result
	Err      error
	Duration time.Duration

	SpriteErr error
	FontErr   error
}

// OK reports whether every attempted sub-build succeeded.
func (r *SheetResult) OK() bool { return r != nil && r.Err == nil }

// Files lists the written paths (filesystem mode) or stream names.
func (r *SheetResult) Files() []string {
	if r == nil {
		return nil
	}
	var out []string
	if r.Sprite != nil {
		out = append(out, delivered(r.Sprite.Delivery)...)
	}
	if r.Font != nil {
		out = append(out, delivered(r.Font.Delivery)...)
	}
	return out
}

func delivered(res *sink.Result) []string {
	if res == nil {
		return nil
	}
	if res.Stream == nil {
		return res.Written
	}
	var out []string
	if res.Stream.ImgFilename != "" {
		out = append(out, res.Stream.ImgFilename)
	}
	if res.Stream.CSSFilename != "" {
		out = append(out, res.Stream.CSSFilename)
	}
	return out
}

// RunResult aggregates one pass over every configured sheet. Sheets keep
// configuration order, which is the input order for list sources and the
// key order for map sources.
type RunResult struct {
	ID       string
	Shape    config.SourceShape
	Trigger  string
	Sheets   []*SheetResult
	Duration time.Duration
}

// Single returns the only sheet of a scalar source.
func (r *RunResult) Single() *SheetResult {
	if r == nil || len(r.Sheets) == 0 {
		return nil
	}
	return r.Sheets[0]
}

// Sheet returns the result for a named sheet.
func (r *RunResult) Sheet(name string) (*SheetResult, bool) {
	if r == nil {
		return nil, false
	}
	for _, s := range r.Sheets {
		if s.Sheet == name {
			return s, true
		}
	}
	return nil, false
}

// Failed returns the sheets that did not build cleanly.
func (r *RunResult) Failed() []*SheetResult {
	var out []*SheetResult
	for _, s := range r.Sheets {
		if !s.OK() {
			out = append(out, s)
		}
	}
	return out
}

// Err joins the per-sheet errors; nil when everything built.
func (r *RunResult) Err() error {
	var errs []error
	for _, s := range r.Failed() {
		errs = append(errs, s.Err)
	}
	return stderrors.Join(errs...)
}

// Outcome classifies the run for metrics.
func (r *RunResult) Outcome() metrics.OutcomeLabel {
	failed := len(r.Failed())
	switch {
	case failed == 0:
		return metrics.OutcomeComplete
	case failed == len(r.Sheets):
		return metrics.OutcomeFailed
	default:
		return metrics.OutcomePartialFailure
	}
}
