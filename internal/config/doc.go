// Package config handles loading and parsing loupe configuration files.
//
// # Configuration Discovery
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/loupe/config.toml
//  3. If the file doesn't exist, fall back to built-in defaults
//  4. Fields missing from the file keep their defaults
//
// # TOML Format
//
//	max_queue_size = 10000        # backlog retention bound
//	min_level = "trace"           # lowest level forwarded to the sink
//	time_format = "2006-01-02 15:04:05"
//	utc = false                   # render timestamps in UTC
//	strip_namespace = true        # shorten category names for display
//	template = "{timestamp} {loglevel} {handle} {message}"
//	delimiter = " "               # joins fields of the default template
//
//	[colors]                      # per-category display colors
//	"app.core" = "cyan"
//	network = "magenta"
//
// Category color lookup is case-insensitive; unmapped categories render in
// the default color. A malformed file or an unknown level name fails Load
// outright, while a missing file degrades to defaults: a broken config is a
// user mistake worth surfacing, an absent one is the normal first run.
package config
