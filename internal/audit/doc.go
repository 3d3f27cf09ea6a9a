// Package audit dispatches session and sign-in events to sinks
// asynchronously.
//
// # Components
//
//   - [Sink] is the interface for event consumers: channel, JSON writer, zap
//     logger or no-op.
//   - [Dispatcher] is a buffered relay that either drops or blocks when full.
//   - [Event] is one audit record.
//
// # Architecture boundaries
//
// This package owns buffering and delivery. The Engine decides which events
// to emit.
//
// # What this package must NOT do
//
//   - Filter events based on business logic.
//   - Import authbridge or any sibling internal package.
package audit
