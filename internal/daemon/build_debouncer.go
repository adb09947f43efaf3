package daemon

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/daemon/events"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

const defaultPollInterval = 250 * time.Millisecond

type BuildDebouncerConfig struct {
	QuietWindow time.Duration
	MaxDelay    time.Duration

	// BuildRunning reports whether a build is in progress. Requests released
	// while it returns true are held back and built once as a follow-up.
	BuildRunning func() bool
	// PollInterval is how often a held follow-up checks BuildRunning.
	PollInterval time.Duration
}

// BuildDebouncer coalesces bursts of BuildRequested into a single BuildNow.
// A build is released once requests stop for QuietWindow, MaxDelay after the
// first request at the latest, or at once for immediate requests.
type BuildDebouncer struct {
	bus *events.Bus
	cfg BuildDebouncerConfig

	readyOnce sync.Once
	ready     chan struct{}
}

func NewBuildDebouncer(bus *events.Bus, cfg BuildDebouncerConfig) (*BuildDebouncer, error) {
	if bus == nil {
		return nil, ferrors.ValidationError("bus is required").Build()
	}
	if cfg.QuietWindow <= 0 {
		return nil, ferrors.ValidationError("quiet window must be > 0").Build()
	}
	if cfg.MaxDelay <= 0 {
		return nil, ferrors.ValidationError("max delay must be > 0").Build()
	}
	if cfg.BuildRunning == nil {
		cfg.BuildRunning = func() bool { return false }
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	return &BuildDebouncer{bus: bus, cfg: cfg, ready: make(chan struct{})}, nil
}

// Ready is closed once Run has subscribed to requests.
func (d *BuildDebouncer) Ready() <-chan struct{} {
	return d.ready
}

// Run consumes requests until ctx is done or the bus is closed.
func (d *BuildDebouncer) Run(ctx context.Context) error {
	reqs, unsubscribe := d.bus.Requests.Subscribe(64)
	defer unsubscribe()
	d.readyOnce.Do(func() { close(d.ready) })

	var (
		pending              pendingBuild
		quiet, maxWait, poll debounceTimer
		// held is set while a released build waits for the running one.
		held bool
	)
	defer quiet.stop()
	defer maxWait.stop()
	defer poll.stop()

	release := func(cause events.Cause) {
		quiet.stop()
		maxWait.stop()
		if d.cfg.BuildRunning() {
			held = true
			poll.start(d.cfg.PollInterval)
			return
		}
		held = false
		poll.stop()
		ev := pending.release(cause)
		if err := d.bus.Builds.Publish(ctx, ev); err != nil && ctx.Err() == nil {
			slog.Warn("Failed to release build", logfields.Error(err))
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case req, ok := <-reqs:
			if !ok {
				return nil
			}
			first := pending.empty()
			pending.add(req)
			switch {
			case held:
			case req.Immediate:
				release(events.CauseImmediate)
			default:
				quiet.start(d.cfg.QuietWindow)
				if first {
					maxWait.start(d.cfg.MaxDelay)
				}
			}
		case <-quiet.C:
			release(events.CauseQuiet)
		case <-maxWait.C:
			release(events.CauseMaxDelay)
		case <-poll.C:
			if d.cfg.BuildRunning() {
				poll.start(d.cfg.PollInterval)
				continue
			}
			release(events.CauseAfterRunning)
		}
	}
}

// pendingBuild accumulates the requests coalesced into the next build.
type pendingBuild struct {
	first     time.Time
	last      time.Time
	requests  int
	paths     map[string]struct{}
	scheduled bool
}

func (p *pendingBuild) empty() bool { return p.requests == 0 }

func (p *pendingBuild) add(req events.BuildRequested) {
	at := req.At
	if at.IsZero() {
		at = time.Now()
	}
	if p.requests == 0 {
		p.first = at
	}
	p.last = at
	p.requests++

	if req.Source == events.SourceSchedule {
		p.scheduled = true
	}
	if req.Path != "" {
		if p.paths == nil {
			p.paths = make(map[string]struct{})
		}
		p.paths[req.Path] = struct{}{}
	}
}

// release returns the BuildNow for the accumulated requests and resets p.
func (p *pendingBuild) release(cause events.Cause) events.BuildNow {
	ev := events.BuildNow{
		Trigger:  events.SourceWatch,
		Paths:    slices.Sorted(maps.Keys(p.paths)),
		Requests: p.requests,
		Cause:    cause,
		First:    p.first,
		Last:     p.last,
	}
	if p.scheduled && len(p.paths) == 0 {
		ev.Trigger = events.SourceSchedule
	}
	*p = pendingBuild{}
	return ev
}

// debounceTimer is a one-shot timer whose C is nil while it is not armed.
type debounceTimer struct {
	t *time.Timer
	C <-chan time.Time
}

func (dt *debounceTimer) start(after time.Duration) {
	if dt.t == nil {
		dt.t = time.NewTimer(after)
	} else {
		dt.t.Reset(after)
	}
	dt.C = dt.t.C
}

func (dt *debounceTimer) stop() {
	if dt.t != nil {
		dt.t.Stop()
	}
	dt.C = nil
}
