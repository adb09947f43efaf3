package commands

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/eventstore"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/notify"
	"git.home.luguber.info/inful/sitebuilder/internal/site"
)

const (
	historySize     = 50
	metricsTextfile = "metrics.prom"
)

// services holds the optional build integrations the configuration enables.
type services struct {
	baseDir    string
	reportDir  string
	registry   *prom.Registry
	store      *eventstore.SQLiteStore
	projection *eventstore.BuildHistoryProjection
	publisher  *notify.NATSPublisher
}

// openServices wires metrics, history and notifications. A registry is always
// created when withRegistry is set so /metrics has something to serve.
func openServices(ctx context.Context, cfg *config.Config, baseDir string, withRegistry bool) (*services, error) {
	resolved := cfg.Resolve(baseDir)
	s := &services{
		baseDir:   baseDir,
		reportDir: filepath.Dir(resolved.History.Path),
	}

	if cfg.Metrics.Enabled || withRegistry {
		s.registry = prom.NewRegistry()
	}

	if cfg.History.Enabled {
		if err := os.MkdirAll(s.reportDir, 0o750); err != nil {
			return nil, errors.FileSystemError("failed to create history directory").
				WithCause(err).
				WithContext("path", s.reportDir).
				Build()
		}
		store, err := eventstore.NewSQLiteStore(resolved.History.Path)
		if err != nil {
			return nil, err
		}
		s.store = store
		s.projection = eventstore.NewBuildHistoryProjection(store, historySize)
		if err := s.projection.Rebuild(ctx); err != nil {
			slog.Warn("Failed to load build history", logfields.Path(resolved.History.Path), logfields.Error(err))
		}
	}

	if cfg.Notify.Enabled() {
		pub, err := notify.NewNATSPublisher(cfg.Notify)
		if err != nil {
			slog.Warn("Build notifications disabled", logfields.URL(cfg.Notify.NATSURL), logfields.Error(err))
		} else {
			s.publisher = pub
		}
	}
	return s, nil
}

func (s *services) generatorOptions() []site.Option {
	opts := []site.Option{
		site.WithBaseDir(s.baseDir),
		site.WithReportDir(s.reportDir),
	}
	if s.registry != nil {
		opts = append(opts, site.WithRecorder(metrics.NewPrometheusRecorder(s.registry)))
	}
	if s.store != nil {
		opts = append(opts, site.WithEventStore(s.store), site.WithProjection(s.projection))
	}
	if s.publisher != nil {
		opts = append(opts, site.WithNotifier(s.publisher))
	}
	return opts
}

// writeMetrics leaves a node_exporter textfile next to the build report after
// one-shot builds.
func (s *services) writeMetrics() {
	if s.registry == nil {
		return
	}
	path := filepath.Join(s.reportDir, metricsTextfile)
	if err := os.MkdirAll(s.reportDir, 0o750); err != nil {
		slog.Warn("Failed to write metrics", logfields.Path(path), logfields.Error(err))
		return
	}
	if err := prom.WriteToTextfile(path, s.registry); err != nil {
		slog.Warn("Failed to write metrics", logfields.Path(path), logfields.Error(err))
	}
}

func (s *services) Close() {
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			slog.Debug("Closing NATS connection failed", logfields.Error(err))
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			slog.Debug("Closing history store failed", logfields.Error(err))
		}
	}
}
