package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
)

// StepError names the step that stopped a phase.
type StepError struct {
	Phase Phase
	Step  string
	Cause error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s hook %q failed: %v", e.Phase, e.Step, e.Cause)
}

func (e *StepError) Unwrap() error { return e.Cause }

// Observer receives callbacks around step execution.
type Observer interface {
	OnStepStart(phase Phase, step string)
	OnStepComplete(phase Phase, step string, d time.Duration, err error)
}

// NoopObserver ignores all callbacks.
type NoopObserver struct{}

func (NoopObserver) OnStepStart(Phase, string)                          {}
func (NoopObserver) OnStepComplete(Phase, string, time.Duration, error) {}

// Executor runs the steps of a phase sequentially.
type Executor struct {
	recorder metrics.Recorder
	observer Observer
}

// NewExecutor creates an executor with no-op metrics and observer.
func NewExecutor() *Executor {
	return &Executor{recorder: metrics.NoopRecorder{}, observer: NoopObserver{}}
}

// WithRecorder sets the metrics recorder.
func (e *Executor) WithRecorder(r metrics.Recorder) *Executor {
	if r != nil {
		e.recorder = r
	}
	return e
}

// WithObserver sets the step observer.
func (e *Executor) WithObserver(o Observer) *Executor {
	if o != nil {
		e.observer = o
	}
	return e
}

// Run executes steps in order and stops at the first failure. The returned error is
// a hook-category ClassifiedError wrapping a *StepError; use errors.As to get the
// failed step. Steps are not retried and have no timeout. A canceled context stops
// the phase before the next step starts.
func (e *Executor) Run(ctx context.Context, phase Phase, steps []Step) error {
	for _, st := range steps {
		if err := ctx.Err(); err != nil {
			e.recorder.IncStepResult(string(phase), st.Name(), metrics.ResultCanceled)
			return e.fail(phase, st.Name(), err)
		}

		e.observer.OnStepStart(phase, st.Name())
		slog.Info("Running hook", logfields.Phase(string(phase)), logfields.Step(st.Name()))

		t0 := time.Now()
		err := st.Run(ctx)
		dur := time.Since(t0)

		e.recorder.ObserveStepDuration(string(phase), st.Name(), dur)
		e.observer.OnStepComplete(phase, st.Name(), dur, err)

		if err != nil {
			e.recorder.IncStepResult(string(phase), st.Name(), metrics.ResultFailed)
			slog.Error("Hook failed",
				logfields.Phase(string(phase)),
				logfields.Step(st.Name()),
				logfields.Duration(dur),
				logfields.Error(err))
			return e.fail(phase, st.Name(), err)
		}
		e.recorder.IncStepResult(string(phase), st.Name(), metrics.ResultSuccess)
		slog.Debug("Hook completed", logfields.Phase(string(phase)), logfields.Step(st.Name()), logfields.Duration(dur))
	}
	return nil
}

func (e *Executor) fail(phase Phase, step string, cause error) error {
	se := &StepError{Phase: phase, Step: step, Cause: cause}
	return errors.HookError("lifecycle hook failed").
		WithCause(se).
		WithContext("phase", string(phase)).
		WithContext("step", step).
		Build()
}
