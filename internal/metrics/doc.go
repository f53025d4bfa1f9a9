// Package metrics provides the observability hooks for tutorial generation runs.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so nothing needs nil checks:
//
//	orch := tutorial.NewOrchestrator(gen, tutorial.WithRecorder(metrics.NoopRecorder{}))
//
// When a metrics textfile is requested, the CLI swaps in a PrometheusRecorder
// backed by its own registry and writes the registry with WriteTextfile after
// the run, for pickup by the node exporter textfile collector.
package metrics
