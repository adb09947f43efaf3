package daemon

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// WorkerGroup runs the daemon's background loops under one context and waits
// for them on shutdown.
type WorkerGroup struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	wg       sync.WaitGroup
	running  map[string]int
	stopping bool
}

// NewWorkerGroup creates a group whose workers stop when parent is done or
// Stop is called.
func NewWorkerGroup(parent context.Context) *WorkerGroup {
	ctx, cancel := context.WithCancel(parent)
	return &WorkerGroup{ctx: ctx, cancel: cancel, running: make(map[string]int)}
}

// Go starts fn under name unless the group is stopping. A returned error other
// than cancellation is logged.
func (g *WorkerGroup) Go(name string, fn func(ctx context.Context) error) bool {
	if fn == nil {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stopping {
		return false
	}
	g.running[name]++
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer g.done(name)
		if err := fn(g.ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Daemon worker failed", slog.String("worker", name), logfields.Error(err))
		}
	}()
	return true
}

func (g *WorkerGroup) done(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running[name]--; g.running[name] <= 0 {
		delete(g.running, name)
	}
}

// Running lists the workers that have not returned yet.
func (g *WorkerGroup) Running() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Sorted(func(yield func(string) bool) {
		for name := range g.running {
			if !yield(name) {
				return
			}
		}
	})
}

// Stop cancels the workers and waits up to timeout for them to return. The
// error names the workers still running.
func (g *WorkerGroup) Stop(timeout time.Duration) error {
	g.mu.Lock()
	g.stopping = true
	g.mu.Unlock()
	g.cancel()

	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return ferrors.RuntimeError("daemon workers did not stop").
			WithContext("workers", strings.Join(g.Running(), ",")).
			WithContext("timeout", timeout.String()).
			Build()
	}
}
