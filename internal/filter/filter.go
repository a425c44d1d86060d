package filter

import (
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/loupedev/loupe/internal/event"
)

// Mode selects how the level predicate compares against the threshold.
type Mode int32

const (
	// Threshold matches events at or above the configured level.
	Threshold Mode = iota
	// Exact matches events at the configured level only.
	Exact
)

// compiled is one immutable snapshot of the handle pattern. Readers load it
// atomically, so a match never observes a pattern mid-recompilation.
type compiled struct {
	re         *regexp.Regexp // nil matches everything
	pattern    string
	ignoreCase bool
}

// Filter decides whether an event is visible under the current handle pattern
// and level policy. Visible is safe to call from any goroutine concurrently
// with setter calls; setters serialize among themselves.
//
// Patterns compile through Go's regexp package, which runs in time linear in
// the input, so a hostile pattern cannot stall matching.
type Filter struct {
	mu      sync.Mutex
	current atomic.Pointer[compiled]
	level   atomic.Int32
	mode    atomic.Int32
}

// New returns a filter that matches every event at every level.
func New() *Filter {
	f := &Filter{}
	f.current.Store(&compiled{})
	f.level.Store(int32(event.LevelTrace))
	return f
}

// SetPattern recompiles the handle pattern. A blank pattern matches every
// handle. An invalid pattern leaves the previous filter active and returns
// false; this path is driven by live user input and must not throw.
func (f *Filter) SetPattern(pattern string, ignoreCase bool) bool {
	return f.compile(pattern, pattern, ignoreCase)
}

// SetWildcard is SetPattern for shell-style patterns: * matches any run, ?
// one character, and | separates alternatives. The pattern is anchored, so
// "*Foo*" is needed to match handles merely containing "Foo".
func (f *Filter) SetWildcard(pattern string, ignoreCase bool) bool {
	trimmed := strings.TrimSpace(pattern)
	return f.compile(pattern, TranslateWildcard(trimmed), ignoreCase)
}

func (f *Filter) compile(display, expr string, ignoreCase bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if strings.TrimSpace(expr) == "" {
		f.current.Store(&compiled{ignoreCase: ignoreCase})
		return true
	}
	if ignoreCase {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return false
	}
	f.current.Store(&compiled{re: re, pattern: display, ignoreCase: ignoreCase})
	return true
}

// TranslateWildcard converts a shell-style pattern into an anchored regex.
// Every alternative between | separators is quoted, then the wildcard escapes
// are re-expanded.
func TranslateWildcard(pattern string) string {
	if strings.TrimSpace(pattern) == "" {
		return ""
	}
	alts := strings.Split(pattern, "|")
	for i, alt := range alts {
		quoted := regexp.QuoteMeta(alt)
		quoted = strings.ReplaceAll(quoted, `\*`, ".*")
		quoted = strings.ReplaceAll(quoted, `\?`, ".")
		alts[i] = quoted
	}
	return "^(?:" + strings.Join(alts, "|") + ")$"
}

// Pattern returns the pattern text as last successfully set.
func (f *Filter) Pattern() string {
	return f.current.Load().pattern
}

// IgnoreCase reports whether the current pattern is case-insensitive.
func (f *Filter) IgnoreCase() bool {
	return f.current.Load().ignoreCase
}

// SetLevel sets the threshold level.
func (f *Filter) SetLevel(l event.Level) {
	f.level.Store(int32(l))
}

// Level returns the threshold level.
func (f *Filter) Level() event.Level {
	return event.Level(f.level.Load())
}

// SetMode switches between threshold and exact level matching.
func (f *Filter) SetMode(m Mode) {
	f.mode.Store(int32(m))
}

// LevelMode returns the current level predicate mode.
func (f *Filter) LevelMode() Mode {
	return Mode(f.mode.Load())
}

// Visible reports whether the event passes both the handle pattern and the
// level predicate. An empty handle never matches a non-trivial pattern.
func (f *Filter) Visible(e *event.Event) bool {
	if e == nil {
		return false
	}
	return f.handleMatches(e.Handle) && f.levelMatches(e.Level)
}

func (f *Filter) handleMatches(handle string) bool {
	c := f.current.Load()
	if c.re == nil {
		return true
	}
	if handle == "" {
		return false
	}
	return c.re.MatchString(handle)
}

func (f *Filter) levelMatches(l event.Level) bool {
	threshold := event.Level(f.level.Load())
	if Mode(f.mode.Load()) == Exact {
		return l == threshold
	}
	return l >= threshold
}
