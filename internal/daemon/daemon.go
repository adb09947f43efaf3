package daemon

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/daemon/events"
	"git.home.luguber.info/inful/sitebuilder/internal/eventstore"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/site"
)

const (
	defaultQuietWindow = 300 * time.Millisecond
	defaultMaxDelay    = 5 * time.Second
	shutdownTimeout    = 5 * time.Second
)

// Options selects the daemon's features.
type Options struct {
	// BaseDir is the project root relative config paths resolve against.
	BaseDir string
	// Watch rebuilds on changes below the input directory and the watch targets.
	Watch bool
	// Schedule rebuilds on daemon.rebuild_cron or every daemon.rebuild_interval.
	Schedule bool
	// Serve serves the output directory on daemon.addr.
	Serve bool
	// LiveReload reloads open pages after each successful build. Requires Serve.
	LiveReload bool

	Registry   *prom.Registry
	Projection *eventstore.BuildHistoryProjection

	QuietWindow time.Duration
	MaxDelay    time.Duration
}

// Daemon keeps a site up to date: one initial build, then rebuilds requested by
// the file watcher and the scheduler, serialized through a single Runner.
type Daemon struct {
	cfg    *config.Config
	opts   Options
	runner *Runner
}

// New creates a daemon around builder.
func New(cfg *config.Config, builder Builder, opts Options) *Daemon {
	if opts.QuietWindow <= 0 {
		opts.QuietWindow = defaultQuietWindow
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = defaultMaxDelay
	}
	return &Daemon{cfg: cfg, opts: opts, runner: NewRunner(builder)}
}

// Runner returns the daemon's build runner.
func (d *Daemon) Runner() *Runner { return d.runner }

func (d *Daemon) path(p string) string {
	if filepath.IsAbs(p) || d.opts.BaseDir == "" {
		return p
	}
	return filepath.Join(d.opts.BaseDir, p)
}

// Run blocks until ctx is done. A failing initial build is logged, not returned,
// so the daemon can recover on the next change.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	bus := events.NewBus()
	defer bus.Close()

	workers := NewWorkerGroup(ctx)
	defer func() {
		if err := workers.Stop(shutdownTimeout); err != nil {
			slog.Warn("Daemon workers did not stop in time", logfields.Error(err))
		}
	}()

	debouncer, err := NewBuildDebouncer(bus, BuildDebouncerConfig{
		QuietWindow:  d.opts.QuietWindow,
		MaxDelay:     d.opts.MaxDelay,
		BuildRunning: d.runner.IsRunning,
	})
	if err != nil {
		return err
	}
	buildNow, unsubscribe := bus.Builds.Subscribe(1)
	defer unsubscribe()

	workers.Go("debouncer", debouncer.Run)
	select {
	case <-debouncer.Ready():
	case <-ctx.Done():
		return nil
	}

	var hub *LiveReloadHub
	if d.opts.Serve && d.opts.LiveReload {
		hub = NewLiveReloadHub()
		defer hub.Shutdown()
	}
	build := func(trigger string) {
		report, err := d.runner.Run(ctx, trigger)
		if err == nil && report != nil && hub != nil {
			hub.Broadcast(report.BuildID)
		}
	}

	build(site.TriggerStartup)

	if d.opts.Serve {
		srv := NewHTTPServer(d.cfg.Daemon.Addr, d.path(d.cfg.Output), d.runner, d.opts.Registry, d.opts.Projection)
		if hub != nil {
			srv.EnableLiveReload(hub)
		}
		if err := srv.Start(ctx); err != nil {
			return err
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer stopCancel()
			if err := srv.Stop(stopCtx); err != nil {
				slog.Warn("HTTP server shutdown error", logfields.Error(err))
			}
		}()
	}

	if d.opts.Watch {
		roots := []string{d.path(d.cfg.Input)}
		for _, t := range d.cfg.WatchTargets {
			roots = append(roots, d.path(t))
		}
		w, err := NewWatcher(bus, roots, []string{d.path(d.cfg.Output)})
		if err != nil {
			return err
		}
		w.suppress = d.runner.IsRunning
		defer func() { _ = w.Close() }()
		workers.Go("watcher", w.Run)
		slog.Info("Watching for changes", slog.Any("roots", roots))
	}

	if d.opts.Schedule {
		sched, err := d.startScheduler(ctx, bus)
		if err != nil {
			return err
		}
		defer func() { _ = sched.Stop() }()
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("Daemon stopping")
			return nil
		case ev, ok := <-buildNow:
			if !ok {
				return nil
			}
			trigger := site.TriggerWatch
			if ev.Trigger == events.SourceSchedule {
				trigger = site.TriggerSchedule
			}
			attrs := []any{
				slog.String("trigger", trigger),
				slog.Int("requests", ev.Requests),
				slog.String("cause", string(ev.Cause)),
			}
			if len(ev.Paths) > 0 {
				attrs = append(attrs, slog.Int("changed", len(ev.Paths)), logfields.Path(ev.Paths[0]))
			}
			slog.Info("Rebuilding", attrs...)
			build(trigger)
		}
	}
}

func (d *Daemon) startScheduler(ctx context.Context, bus *events.Bus) (*Scheduler, error) {
	sched, err := NewScheduler()
	if err != nil {
		return nil, err
	}
	request := func() {
		req := events.BuildRequested{Source: events.SourceSchedule, Immediate: true, At: time.Now()}
		if err := bus.Requests.Publish(ctx, req); err != nil && ctx.Err() == nil {
			slog.Error("Failed to request scheduled rebuild", logfields.Error(err))
		}
	}
	if d.cfg.Daemon.RebuildCron != "" {
		_, err = sched.ScheduleCron("scheduled-rebuild", d.cfg.Daemon.RebuildCron, request)
	} else {
		_, err = sched.ScheduleEvery("scheduled-rebuild", d.cfg.Daemon.RebuildInterval, request)
	}
	if err != nil {
		_ = sched.Stop()
		return nil, err
	}
	sched.Start()
	return sched, nil
}
