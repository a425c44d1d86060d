package event

import (
	"strconv"
	"strings"
	"time"
)

// Template tokens recognized by Render.
const (
	TokenTimestamp = "{timestamp}"
	TokenLevel     = "{loglevel}"
	TokenThread    = "{threadid}"
	TokenHandle    = "{handle}"
	TokenMessage   = "{message}"
)

// DefaultTimeFormat is used when a render call passes an empty format string.
const DefaultTimeFormat = "2006-01-02 15:04:05"

// DefaultTemplate joins all five tokens with the given delimiter. An empty
// delimiter falls back to a single space.
func DefaultTemplate(delimiter string) string {
	if delimiter == "" {
		delimiter = " "
	}
	return strings.Join([]string{
		TokenTimestamp, TokenLevel, TokenThread, TokenHandle, TokenMessage,
	}, delimiter)
}

// Render expands the placeholder tokens in tpl against the event. Unknown
// text passes through untouched, so templates can carry literal separators.
func Render(tpl string, e *Event, timeFormat string, utc bool) string {
	if e == nil {
		return ""
	}
	if timeFormat == "" {
		timeFormat = DefaultTimeFormat
	}
	ts := e.Timestamp
	if utc {
		ts = ts.UTC()
	} else {
		ts = ts.In(time.Local)
	}
	r := strings.NewReplacer(
		TokenTimestamp, ts.Format(timeFormat),
		TokenLevel, e.Level.Label(),
		TokenThread, strconv.FormatUint(e.Goroutine, 10),
		TokenHandle, e.Handle,
		TokenMessage, e.Message,
	)
	return r.Replace(tpl)
}
