// Package audit relays admission rejections and store faults to a pluggable sink.
//
// # Components
//
//   - [Sink] is the consumer interface (channel, JSON lines, no-op).
//   - [Dispatcher] is a buffered relay with drop-if-full or block-if-full delivery.
//   - [Event] is one rejected or faulted decision, keyed by a generated id.
//
// # Architecture boundaries
//
// This package owns buffering and sink delivery. It does NOT decide which
// decisions are audited; the root Engine does that.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on admission outcomes.
//   - Import the root package or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
