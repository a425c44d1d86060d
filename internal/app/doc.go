// Package app provides the orchestration layer for the Loupe application.
//
// # Overview
//
// This package wires together configuration, the event sink, the slog bridge,
// and the viewer to create the complete Loupe experience. It serves as the
// composition root where all dependencies are initialized and connected.
//
// # Architecture
//
// The app package follows a simple initialization pattern:
//
//  1. Load configuration from ~/.config/loupe/config.toml
//  2. Load user preferences (theme, follow mode) with graceful fallback
//  3. Size the shared sink from the configured queue cap
//  4. Install the slog bridge as the process default logger
//  5. Optionally launch synthetic demo producers
//  6. Start the viewer and block until the user exits or the context cancels
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()     Read viewer config
//	       ├─────> prefs.Load()      Theme and follow preferences
//	       ├─────> sink.Default()    Shared bounded event queue
//	       ├─────> slogbridge.New()  slog handler feeding the sink
//	       ├─────> StartDemo()       Optional synthetic producers
//	       ├─────> ingest.Follow()   Optional external file tails
//	       └─────> viewer.Run()      Start the TUI (blocks)
//
// # Error Handling
//
// Only configuration load failures abort startup. Preference files degrade to
// defaults, and anything that goes wrong inside a log producer stays isolated
// by the sink's fan-out; the viewer keeps running.
package app
