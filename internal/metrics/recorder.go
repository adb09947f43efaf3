package metrics

import "time"

// ResultLabel enumerates hook step result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// BuildOutcomeLabel is the final status of a build.
type BuildOutcomeLabel string

const (
	BuildOutcomeSuccess  BuildOutcomeLabel = "success"
	BuildOutcomeFailed   BuildOutcomeLabel = "failed"
	BuildOutcomeCanceled BuildOutcomeLabel = "canceled"
)

// Recorder defines observability hooks for builds, lifecycle hook steps, placeholder
// substitution and collections.
type Recorder interface {
	ObserveStepDuration(phase, step string, d time.Duration)
	IncStepResult(phase, step string, result ResultLabel)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome BuildOutcomeLabel)
	AddPlaceholders(prefix string, resolved, missing int)
	SetCollectionSize(collection string, n int)
	SetPagesWritten(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStepDuration(string, string, time.Duration) {}
func (NoopRecorder) IncStepResult(string, string, ResultLabel)         {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)                {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)                 {}
func (NoopRecorder) AddPlaceholders(string, int, int)                  {}
func (NoopRecorder) SetCollectionSize(string, int)                     {}
func (NoopRecorder) SetPagesWritten(int)                               {}
