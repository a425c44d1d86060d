package event

import (
	"bytes"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Level is the severity of a log event, ordered from least to most severe.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
)

// String returns the canonical lower-case name for the level.
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelCritical:
		return "critical"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Label returns the upper-case display label for the level.
func (l Level) Label() string {
	return strings.ToUpper(l.String())
}

// ParseLevel parses a level name, accepting common aliases.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace", "verbose":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info", "information":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "critical", "fatal":
		return LevelCritical, nil
	default:
		return LevelTrace, fmt.Errorf("unknown level %q", s)
	}
}

// FromSlog maps a slog level onto the loupe level scale.
func FromSlog(l slog.Level) Level {
	switch {
	case l < slog.LevelDebug:
		return LevelTrace
	case l < slog.LevelInfo:
		return LevelDebug
	case l < slog.LevelWarn:
		return LevelInfo
	case l < slog.LevelError:
		return LevelWarn
	case l < slog.LevelError+4:
		return LevelError
	default:
		return LevelCritical
	}
}

// Slog maps the level back onto the slog scale.
func (l Level) Slog() slog.Level {
	switch l {
	case LevelTrace:
		return slog.LevelDebug - 4
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelError + 4
	}
}

// Event is one immutable captured log record. Identity is the ID alone: two
// events with identical content but different IDs are distinct, which is what
// lets the sink deduplicate exact instances arriving via multiple paths.
type Event struct {
	ID        uuid.UUID
	Level     Level
	Handle    string
	Message   string
	Color     string
	Timestamp time.Time
	Goroutine uint64
}

// New constructs an event, assigning its identity and origin goroutine. A zero
// timestamp is replaced with the current time.
func New(level Level, handle, message, color string, ts time.Time) *Event {
	if ts.IsZero() {
		ts = time.Now()
	}
	return &Event{
		ID:        uuid.New(),
		Level:     level,
		Handle:    handle,
		Message:   message,
		Color:     color,
		Timestamp: ts,
		Goroutine: goroutineID(),
	}
}

// Equal reports whether both events carry the same identity.
func (e *Event) Equal(other *Event) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.ID == other.ID
}

// goroutineID extracts the numeric id of the calling goroutine from its stack
// header ("goroutine 123 [running]:"). It stands in for a thread id, which Go
// does not expose.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return 0
	}
	id, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
