// Package metrics provides the observability hooks for docpublish runs.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection never needs nil checks:
//
//	p := pipeline.New(cfg, pipeline.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// PrometheusRecorder registers its collectors on the supplied registry; the daemon
// serves that registry through HTTPHandler on /metrics.
package metrics
