package site

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/eventstore"
	"git.home.luguber.info/inful/sitebuilder/internal/hooks"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// buildObserver records hook steps into the report and the build history, then
// forwards to an optional caller-supplied observer.
type buildObserver struct {
	ctx    context.Context
	g      *Generator
	report *Report
	next   hooks.Observer
}

func (o *buildObserver) OnStepStart(phase hooks.Phase, step string) {
	if o.next != nil {
		o.next.OnStepStart(phase, step)
	}
}

func (o *buildObserver) OnStepComplete(phase hooks.Phase, step string, d time.Duration, err error) {
	o.report.StepDurations[string(phase)+"/"+step] = d
	var msg string
	if err != nil {
		msg = err.Error()
	}
	o.g.emit(o.ctx, o.report.BuildID, func() (eventstore.Event, error) {
		return eventstore.NewHookCompleted(o.report.BuildID, string(phase), step, d, msg)
	})
	if o.next != nil {
		o.next.OnStepComplete(phase, step, d, err)
	}
}

// emit appends a history event. History is best effort: failures are logged.
func (g *Generator) emit(ctx context.Context, buildID string, build func() (eventstore.Event, error)) {
	if g.events == nil {
		return
	}
	e, err := build()
	if err == nil {
		err = eventstore.Emit(ctx, g.events, e)
	}
	if err != nil {
		slog.Warn("Failed to record build event", logfields.BuildID(buildID), logfields.Error(err))
		return
	}
	if g.projection != nil {
		g.projection.Apply(e)
	}
}
