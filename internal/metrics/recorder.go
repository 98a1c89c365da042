package metrics

import "time"

// ResultLabel enumerates sub-build results for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultTimeout  ResultLabel = "timeout"
	ResultCanceled ResultLabel = "canceled"
)

// OutcomeLabel is the final state of a run.
type OutcomeLabel string

const (
	OutcomeComplete       OutcomeLabel = "complete"
	OutcomePartialFailure OutcomeLabel = "partial_failure"
	OutcomeFailed         OutcomeLabel = "failed"
)

// Recorder defines observability hooks for runs and sheet builds.
// kind is "sprite" or "font"; trigger is what started a rebuild
// (initial, watch, interval, manual).
type Recorder interface {
	ObserveSheetDuration(kind string, d time.Duration)
	IncSheetResult(kind string, result ResultLabel)
	AddArtifactBytes(kind string, n int)
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(outcome OutcomeLabel)
	IncRebuild(trigger string)
	SetWatchedDirectories(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveSheetDuration(string, time.Duration) {}
func (NoopRecorder) IncSheetResult(string, ResultLabel)         {}
func (NoopRecorder) AddArtifactBytes(string, int)               {}
func (NoopRecorder) ObserveRunDuration(time.Duration)           {}
func (NoopRecorder) IncRunOutcome(OutcomeLabel)                 {}
func (NoopRecorder) IncRebuild(string)                          {}
func (NoopRecorder) SetWatchedDirectories(int)                  {}
