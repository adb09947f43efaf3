package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/daemon/events"
)

func TestShouldIgnoreEvent(t *testing.T) {
	for path, want := range map[string]bool{
		"src/index.md":       false,
		"src/.index.md.swp":  true,
		"src/index.md~":      true,
		"src/#index.md#":     true,
		"src/images/a.png":   false,
		"src/.DS_Store":      true,
		"src/Thumbs.db":      true,
		"src/posts/2024.swx": true,
	} {
		assert.Equal(t, want, shouldIgnoreEvent(path), path)
	}
}

func TestWatcher_PublishesChanges(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	out := filepath.Join(src, "dist")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "posts"), 0o755))
	require.NoError(t, os.MkdirAll(out, 0o755))

	bus := events.NewBus()
	defer bus.Close()
	reqs, unsub := bus.Requests.Subscribe(16)
	defer unsub()

	w, err := NewWatcher(bus, []string{src, filepath.Join(root, "missing")}, []string{out})
	require.NoError(t, err)
	defer func() { _ = w.Close() }()
	go func() { _ = w.Run(t.Context()) }()

	require.NoError(t, os.WriteFile(filepath.Join(out, "index.html"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(src, "posts", "new.md"), []byte("# new"), 0o600))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case req := <-reqs:
			assert.NotContains(t, req.Path, "dist", "output changes must be ignored")
			if filepath.Base(req.Path) == "new.md" {
				assert.Equal(t, events.SourceWatch, req.Source)
				assert.False(t, req.At.IsZero())
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for BuildRequested")
		}
	}
}

func TestWatcher_SuppressedWhileBuilding(t *testing.T) {
	src := t.TempDir()
	bus := events.NewBus()
	defer bus.Close()
	reqs, unsub := bus.Requests.Subscribe(16)
	defer unsub()

	w, err := NewWatcher(bus, []string{src}, nil)
	require.NoError(t, err)
	w.suppress = func() bool { return true }
	defer func() { _ = w.Close() }()
	go func() { _ = w.Run(t.Context()) }()

	require.NoError(t, os.WriteFile(filepath.Join(src, "a.md"), []byte("a"), 0o600))

	select {
	case req := <-reqs:
		t.Fatalf("unexpected request for %s", req.Path)
	case <-time.After(200 * time.Millisecond):
	}
}
