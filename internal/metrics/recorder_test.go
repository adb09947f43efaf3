package metrics

import (
	"testing"
	"time"
)

// NoopRecorder must satisfy Recorder and accept any input.
func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStepDuration("before", "x", time.Second)
	r.IncStepResult("before", "x", ResultFailed)
	r.ObserveBuildDuration(time.Second)
	r.IncBuildOutcome(BuildOutcomeCanceled)
	r.AddPlaceholders("tk", 0, 0)
	r.SetCollectionSize("all", 0)
	r.SetPagesWritten(0)
}
