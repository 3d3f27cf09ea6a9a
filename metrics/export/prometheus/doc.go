// Package prometheus renders authbridge engine counters in the Prometheus
// text exposition format.
//
// Counters are named authbridge_*_total. The only histogram is
// authbridge_session_start_latency_seconds. Two gauges report backend
// health: authbridge_item_store_up and authbridge_session_store_up.
//
// # What this package must NOT do
//
//   - Register anything in a global registry. Callers mount Handler.
//   - Mutate engine state.
package prometheus
