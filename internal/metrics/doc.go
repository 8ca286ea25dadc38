// Package metrics records render and stage metrics.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection never requires nil checks:
//
//	opts := render.Options{Recorder: metrics.NoopRecorder{}}
//
// The CLI swaps in a PrometheusRecorder when --metrics-addr is set and serves
// the registry through NewServeMux.
package metrics
