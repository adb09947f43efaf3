package daemon

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sitebuilder/internal/daemon/events"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// Watcher turns file system changes below its roots into BuildRequested events.
// Changes below an excluded directory, such as the output directory, are ignored.
type Watcher struct {
	watcher  *fsnotify.Watcher
	bus      *events.Bus
	excludes []string
	// suppress drops events while it returns true. Before hooks rewrite sources
	// during a build and must not trigger another one.
	suppress func() bool
}

// NewWatcher watches every directory below roots. Missing roots are skipped.
func NewWatcher(bus *events.Bus, roots, excludes []string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.RuntimeError("failed to create file watcher").WithCause(err).Build()
	}
	w := &Watcher{watcher: fw, bus: bus}
	for _, ex := range excludes {
		if abs, err := filepath.Abs(ex); err == nil {
			w.excludes = append(w.excludes, abs)
		}
	}
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		if st, err := os.Stat(abs); err != nil || !st.IsDir() {
			slog.Warn("Watch target missing", logfields.Path(abs))
			continue
		}
		w.addDirsRecursive(abs)
	}
	return w, nil
}

// Run forwards events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error { return w.watcher.Close() }

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	if shouldIgnoreEvent(ev.Name) || w.excluded(ev.Name) {
		return
	}
	if w.suppress != nil && w.suppress() {
		slog.Debug("Ignoring change during build", logfields.Path(ev.Name))
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			w.addDirsRecursive(ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	req := events.BuildRequested{Source: events.SourceWatch, Path: ev.Name, At: time.Now()}
	if err := w.bus.Requests.Publish(ctx, req); err != nil && ctx.Err() == nil {
		slog.Warn("Failed to request rebuild", logfields.Error(err))
	}
}

func (w *Watcher) excluded(p string) bool {
	abs, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	for _, ex := range w.excludes {
		if abs == ex || strings.HasPrefix(abs, ex+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) addDirsRecursive(root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (strings.HasPrefix(d.Name(), ".") || d.Name() == "node_modules" || w.excluded(path)) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnoreEvent reports whether path is a hidden, editor swap or OS metadata file.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db"
}
