package daemon

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/site"
)

// Builder runs one site build.
type Builder interface {
	BuildWithTrigger(ctx context.Context, trigger string) (*site.Report, error)
}

// Runner serializes builds: watcher and scheduler share one runner so at most one
// build runs at a time.
type Runner struct {
	builder Builder

	mu      sync.Mutex
	running atomic.Bool

	statusMu   sync.RWMutex
	lastReport *site.Report
	lastErr    error
	builds     atomic.Int64
	failures   atomic.Int64
}

// NewRunner creates a runner around builder.
func NewRunner(builder Builder) *Runner {
	return &Runner{builder: builder}
}

// Run builds the site, waiting for any build in progress to finish first.
func (r *Runner) Run(ctx context.Context, trigger string) (*site.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.running.Store(true)
	defer r.running.Store(false)

	report, err := r.builder.BuildWithTrigger(ctx, trigger)
	r.builds.Add(1)
	if err != nil {
		r.failures.Add(1)
		slog.Warn("Rebuild failed", slog.String("trigger", trigger), logfields.Error(err))
	}

	r.statusMu.Lock()
	r.lastReport, r.lastErr = report, err
	r.statusMu.Unlock()
	return report, err
}

// IsRunning reports whether a build is in progress.
func (r *Runner) IsRunning() bool { return r.running.Load() }

// Status is a snapshot of the runner's state.
type Status struct {
	Running    bool         `json:"running"`
	Builds     int64        `json:"builds"`
	Failures   int64        `json:"failures"`
	LastReport *site.Report `json:"-"`
	LastError  string       `json:"last_error,omitempty"`
	LastBuild  string       `json:"last_build_id,omitempty"`
	Outcome    string       `json:"last_outcome,omitempty"`
}

// Status returns the current state.
func (r *Runner) Status() Status {
	r.statusMu.RLock()
	defer r.statusMu.RUnlock()
	st := Status{
		Running:    r.running.Load(),
		Builds:     r.builds.Load(),
		Failures:   r.failures.Load(),
		LastReport: r.lastReport,
	}
	if r.lastErr != nil {
		st.LastError = r.lastErr.Error()
	}
	if r.lastReport != nil {
		st.LastBuild = r.lastReport.BuildID
		st.Outcome = string(r.lastReport.Outcome)
	}
	return st
}
