package daemon

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitebuilder/internal/eventstore"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
)

// HTTPServer serves the generated site together with health, status, history
// and metrics endpoints.
type HTTPServer struct {
	addr       string
	outputDir  string
	runner     *Runner
	registry   *prom.Registry
	projection *eventstore.BuildHistoryProjection
	liveReload *LiveReloadHub
	requests   *requestLogger
	server     *http.Server
	startTime  time.Time
}

// NewHTTPServer creates a server for outputDir. registry and projection may be
// nil, which disables /metrics and /api/history.
func NewHTTPServer(addr, outputDir string, runner *Runner, registry *prom.Registry, projection *eventstore.BuildHistoryProjection) *HTTPServer {
	return &HTTPServer{
		addr:       addr,
		outputDir:  outputDir,
		runner:     runner,
		registry:   registry,
		projection: projection,
		requests:   newRequestLogger(registry),
		startTime:  time.Now(),
	}
}

// EnableLiveReload injects the reload script into served pages and exposes the
// hub's event stream.
func (s *HTTPServer) EnableLiveReload(hub *LiveReloadHub) { s.liveReload = hub }

// Handler returns the routing mux.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	var files http.Handler = http.FileServer(http.Dir(s.outputDir))
	if s.liveReload != nil {
		files = injectLiveReload(files)
		mux.Handle(liveReloadPath, s.liveReload)
		mux.HandleFunc(liveReloadScriptPath, serveLiveReloadScript)
	}
	mux.Handle("/", files)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("/api/status", s.handleStatus)
	if s.projection != nil {
		mux.HandleFunc("/api/history", s.handleHistory)
		mux.HandleFunc("/api/history/{id}", s.handleBuild)
	}
	if s.registry != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(s.registry))
	}
	return s.requests.Handler(mux)
}

func (s *HTTPServer) handleStatus(w http.ResponseWriter, _ *http.Request) {
	type statusResponse struct {
		Status
		Uptime string `json:"uptime"`
		// Filled from build history when it is enabled.
		ActiveBuild     *eventstore.BuildSummary `json:"active_build,omitempty"`
		LastCompleted   *eventstore.BuildSummary `json:"last_completed,omitempty"`
		HistorySyncedAt *time.Time               `json:"history_synced_at,omitempty"`
	}
	resp := statusResponse{Status: s.runner.Status(), Uptime: time.Since(s.startTime).Truncate(time.Second).String()}
	if s.projection != nil {
		resp.ActiveBuild = s.projection.GetActiveBuild()
		resp.LastCompleted = s.projection.GetLastCompletedBuild()
		if synced := s.projection.LastSyncTime(); !synced.IsZero() {
			resp.HistorySyncedAt = &synced
		}
	}
	writeJSON(w, resp)
}

func (s *HTTPServer) handleHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.projection.GetHistory())
}

func (s *HTTPServer) handleBuild(w http.ResponseWriter, r *http.Request) {
	summary, ok := s.projection.GetBuild(r.PathValue("id"))
	if !ok {
		http.Error(w, "build not found", http.StatusNotFound)
		return
	}
	writeJSON(w, summary)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", logfields.Error(err))
	}
}

// Start binds the address and serves in the background.
func (s *HTTPServer) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("http startup failed: %w", err)
	}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if s.liveReload != nil {
		// Event streams stay open for the lifetime of the page.
		s.server.WriteTimeout = 0
	}
	go func() {
		if err := s.server.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server failed", logfields.Error(err))
		}
	}()
	slog.Info("HTTP server listening", slog.String("addr", ln.Addr().String()), logfields.Path(s.outputDir))
	return nil
}

// Stop gracefully shuts the server down.
func (s *HTTPServer) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
