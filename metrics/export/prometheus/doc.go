// Package prometheus exposes authflow client metrics as a Prometheus
// collector.
//
// [NewPrometheusExporter] wraps an [authflow.Client]. The exporter is a
// prometheus.Collector that builds constant metrics from
// [authflow.Client.MetricsSnapshot] at scrape time; [PrometheusExporter.Handler]
// serves it from a private registry. Counter names are authflow_*_total and
// the latency histogram is authflow_request_latency_seconds.
//
// # What this package must NOT do
//
//   - Register in the global Prometheus registry. Callers register the
//     collector or mount the Handler.
//   - Mutate client state.
package prometheus
