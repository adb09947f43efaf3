package daemon

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// connectSSE opens the stream and returns a channel of received lines.
func connectSSE(t *testing.T, url string) <-chan string {
	t.Helper()
	ctx, cancel := context.WithTimeout(t.Context(), 3*time.Second)
	t.Cleanup(cancel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 16)
	go func() {
		defer close(lines)
		reader := bufio.NewReader(resp.Body)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			lines <- line
		}
	}()
	return lines
}

func waitForLine(lines <-chan string, substr string, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return false
			}
			if strings.Contains(line, substr) {
				return true
			}
		case <-deadline:
			return false
		}
	}
}

func TestLiveReload_InitialConnectReceivesBaseline(t *testing.T) {
	hub := NewLiveReloadHub()
	defer hub.Shutdown()
	hub.Broadcast("build-1")

	server := httptest.NewServer(hub)
	defer server.Close()

	lines := connectSSE(t, server.URL)
	assert.True(t, waitForLine(lines, `"build":"build-1"`, time.Second))
}

func TestLiveReload_BroadcastSendsEvent(t *testing.T) {
	hub := NewLiveReloadHub()
	defer hub.Shutdown()
	server := httptest.NewServer(hub)
	defer server.Close()

	lines := connectSSE(t, server.URL)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	hub.Broadcast("build-2")
	assert.True(t, waitForLine(lines, `"build":"build-2"`, time.Second))
}

func TestLiveReload_DuplicateBroadcastIgnored(t *testing.T) {
	hub := NewLiveReloadHub()
	defer hub.Shutdown()
	server := httptest.NewServer(hub)
	defer server.Close()

	lines := connectSSE(t, server.URL)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	hub.Broadcast("build-3")
	require.True(t, waitForLine(lines, "build-3", time.Second))
	hub.Broadcast("build-3")
	assert.False(t, waitForLine(lines, "build-3", 150*time.Millisecond))
}

func TestLiveReload_ShutdownClosesClients(t *testing.T) {
	hub := NewLiveReloadHub()
	server := httptest.NewServer(hub)
	defer server.Close()

	connectSSE(t, server.URL)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	hub.Shutdown()
	assert.Zero(t, hub.Clients())

	rec := httptest.NewRecorder()
	hub.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, liveReloadPath, nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestInjectLiveReload(t *testing.T) {
	pages := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<html><body><h1>Home</h1></body></html>"))
		case "/plain/":
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("</body>"))
		default:
			_, _ = w.Write([]byte("body{}"))
		}
	})
	h := injectLiveReload(pages)

	code, body := get(t, h, "/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `<h1>Home</h1><script async src="/livereload.js"></script></body>`)

	_, body = get(t, h, "/plain/")
	assert.Equal(t, "</body>", body)

	_, body = get(t, h, "/css/site.css")
	assert.Equal(t, "body{}", body)
}
