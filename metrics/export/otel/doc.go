// Package otel publishes authflow client metrics through OpenTelemetry.
//
// [NewOTelExporter] registers an Int64ObservableCounter per client counter
// and an Int64ObservableGauge per latency bucket. Sources that also report
// audit sink failures or session state get an
// authflow_audit_sink_failures_total counter and an
// authflow_session_authenticated gauge. One callback reads the source on
// each collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate client state.
package otel
