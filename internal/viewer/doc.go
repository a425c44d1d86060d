// Package viewer implements the interactive terminal log viewer.
//
// # Architecture Overview
//
// The viewer is a Bubble Tea program. Its single Model owns everything the
// screen shows: the deduplicated Entries collection, the filter, the pause
// buffer, the theme, and the viewport. Sink subscribers never touch that
// state directly; they post an eventMsg into the program mailbox and the
// Update loop applies it on the program goroutine. That mailbox is the only
// bridge between producer goroutines and UI state.
//
// # Package Structure
//
//   - viewer.go: Model, Update loop, key dispatch, re-scan, and the Run function
//   - entries.go: ordered, identity-deduplicated collection with change notifications
//   - pause.go: pause state and the side buffer drained on resume
//   - format.go: per-line rendering and color resolution
//   - theme.go: color themes and derived lipgloss styles
//   - keys.go: key bindings
//
// # Event Flow
//
//  1. A producer writes to the sink; the subscriber posts eventMsg.
//  2. Update runs the event through the filter, then the pause buffer.
//  3. Surviving events land in Entries; overflow trims the oldest tenth extra.
//  4. Filter or level changes trigger a background re-scan of the sink
//     backlog; only the newest generation's result is applied.
//
// # Display Retention
//
// The collection is capped independently of the sink. Crossing the cap
// removes the overflow plus a tenth of the cap in one pass, oldest first, so
// steady input does not trim on every single event. Events buffered while
// paused are flushed as one bulk append followed by a single trim.
package viewer
