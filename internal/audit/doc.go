// Package audit dispatches authentication audit events asynchronously.
//
// # Components
//
//   - [Sink]: event consumer (channel, JSON lines writer, no-op).
//   - [Dispatcher]: buffered relay with drop-if-full or block-if-full delivery.
//   - [Event]: one record with a unique ID, event type, flow, username and code.
//
// # Architecture boundaries
//
// This package owns buffering and delivery. The client decides which events
// to emit and what goes into them.
//
// # What this package must NOT do
//
//   - Filter events based on their content.
//   - Import authflow or a sibling internal package.
//   - Perform I/O beyond what a caller-supplied Sink does.
package audit
