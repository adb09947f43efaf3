// Package metrics records build observability data for sitebuilder.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed at call sites:
//
//	gen := site.NewGenerator(cfg, site.WithRecorder(metrics.NoopRecorder{}))
//
// When metrics are enabled in the configuration the CLI swaps in a
// PrometheusRecorder and exposes it through HTTPHandler on the daemon's /metrics
// endpoint.
package metrics
