package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "sitebuilder"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stepDuration   *prom.HistogramVec
	stepResults    *prom.CounterVec
	buildDuration  prom.Histogram
	buildOutcome   *prom.CounterVec
	placeholders   *prom.CounterVec
	collectionSize *prom.GaugeVec
	pagesWritten   prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them with reg.
// A nil registry gets a private one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stepDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "hook_step_duration_seconds",
			Help:      "Duration of individual lifecycle hook steps",
			Buckets:   prom.DefBuckets,
		}, []string{"phase", "step"}),
		stepResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "hook_step_results_total",
			Help:      "Lifecycle hook step results by outcome",
		}, []string{"phase", "step", "result"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		placeholders: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "placeholders_total",
			Help:      "Placeholder substitutions by prefix and result",
		}, []string{"prefix", "result"}),
		collectionSize: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "collection_items",
			Help:      "Number of items in each collection at the last build",
		}, []string{"collection"}),
		pagesWritten: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "pages_written",
			Help:      "Pages written by the last build",
		}),
	}
	reg.MustRegister(pr.stepDuration, pr.stepResults, pr.buildDuration, pr.buildOutcome,
		pr.placeholders, pr.collectionSize, pr.pagesWritten)
	return pr
}

func (p *PrometheusRecorder) ObserveStepDuration(phase, step string, d time.Duration) {
	if p == nil {
		return
	}
	p.stepDuration.WithLabelValues(phase, step).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStepResult(phase, step string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stepResults.WithLabelValues(phase, step, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) AddPlaceholders(prefix string, resolved, missing int) {
	if p == nil {
		return
	}
	if resolved > 0 {
		p.placeholders.WithLabelValues(prefix, "resolved").Add(float64(resolved))
	}
	if missing > 0 {
		p.placeholders.WithLabelValues(prefix, "missing").Add(float64(missing))
	}
}

func (p *PrometheusRecorder) SetCollectionSize(collection string, n int) {
	if p == nil {
		return
	}
	p.collectionSize.WithLabelValues(collection).Set(float64(n))
}

func (p *PrometheusRecorder) SetPagesWritten(n int) {
	if p == nil {
		return
	}
	p.pagesWritten.Set(float64(n))
}
