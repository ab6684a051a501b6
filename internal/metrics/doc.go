// Package metrics records doxyhook run and step metrics.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics never need nil checks at call sites:
//
//	orch := orchestrator.New(cfg, runner).WithRecorder(metrics.NewPrometheusRecorder(reg))
//
// A one-shot CLI has nothing to scrape, so the Prometheus registry is written
// to a node-exporter textfile (WriteTextfile) when the run finishes.
package metrics
