// Package ingest feeds external log files into the event sink.
//
// Follow tails a plain-text file by polling for growth: trailing lines are
// backfilled on start, appended lines become events as they arrive, and a
// shrinking file is treated as an in-place rotation. Severity is guessed from
// keywords since foreign files carry no structure.
package ingest
