// Package sink implements the shared log-event ingestion point.
//
// # Overview
//
// The sink is the single point of truth for "has this event been seen", for
// bounded-memory retention, and for notifying interested parties. Multiple
// producer goroutines write concurrently; each viewer subscribes once and
// receives events on background goroutines.
//
// # Data Flow
//
//	producer goroutines ──> Write()
//	                          ├─ dedupe by event identity
//	                          ├─ append to FIFO backlog
//	                          ├─ trim oldest on overflow (amortized)
//	                          └─ async fan-out to subscribers
//
// # Retention
//
// The backlog is FIFO with a configurable maximum (default 10000). When a
// write pushes the backlog past the maximum, the trim pass removes the
// overflow plus a tenth of the maximum from the head, so trimming does not
// fire on every subsequent write. The bound is best-effort: concurrent writers
// can briefly push the backlog past the maximum, which is preferred over
// serializing producers.
//
// # Dedupe
//
// Events are deduplicated by identity (UUID), not content: the same instance
// written through two paths is recorded once, while two events with identical
// text are both kept. Identities of trimmed events are forgotten along with
// the events, so dedupe state never outgrows the backlog.
//
// # Failure Semantics
//
// Write never panics and never returns an error; a nil event is silently
// dropped. A panicking subscriber is contained, reported through the
// diagnostic logger, and does not affect other subscribers or producers.
package sink
