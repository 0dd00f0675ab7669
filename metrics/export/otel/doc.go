// Package otel provides OpenTelemetry metric exporter bindings for mintauth
// counters.
//
// [New] registers an Int64ObservableCounter per engine metric. A single
// callback reads [mintauth.Engine.MetricsSnapshot] on each collection cycle,
// so the engine's hot paths stay on plain atomics with no OTel instrument in
// the request path.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider — callers supply the Meter.
//   - Mutate engine state.
package otel
