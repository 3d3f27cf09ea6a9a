// Package otel binds authbridge engine counters to OpenTelemetry
// observable instruments.
//
// Each counter becomes an Int64ObservableCounter. The session start
// histogram becomes one cumulative gauge with an "le" attribute per bucket.
// A single callback reads the engine snapshot on each collection.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate engine state.
package otel
