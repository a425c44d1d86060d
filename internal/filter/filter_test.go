package filter

import (
	"testing"
	"time"

	"github.com/loupedev/loupe/internal/event"
)

func ev(level event.Level, handle string) *event.Event {
	return event.New(level, handle, "msg", "", time.Time{})
}

func TestEmptyPatternMatchesEverything(t *testing.T) {
	f := New()
	if !f.Visible(ev(event.LevelTrace, "anything")) {
		t.Fatal("fresh filter should match everything")
	}
	if !f.SetPattern("   ", false) {
		t.Fatal("whitespace pattern should normalize to match-all")
	}
	if !f.Visible(ev(event.LevelTrace, "")) {
		t.Fatal("match-all should accept empty handles")
	}
}

func TestEmptyHandleFailsClosed(t *testing.T) {
	f := New()
	if !f.SetPattern("core", false) {
		t.Fatal("SetPattern failed")
	}
	if f.Visible(ev(event.LevelInfo, "")) {
		t.Fatal("empty handle must not match a non-trivial pattern")
	}
}

func TestInvalidPatternKeepsPrevious(t *testing.T) {
	f := New()
	if !f.SetPattern("Error", false) {
		t.Fatal("SetPattern failed")
	}
	if f.SetPattern("(unclosed", false) {
		t.Fatal("invalid pattern should report failure")
	}
	if f.Pattern() != "Error" {
		t.Fatalf("Pattern() = %q, want previous pattern kept", f.Pattern())
	}
	if !f.Visible(ev(event.LevelInfo, "Error")) {
		t.Fatal("previous filter should remain active")
	}
}

func TestCaseInsensitivePattern(t *testing.T) {
	f := New()
	if !f.SetPattern("Error", true) {
		t.Fatal("SetPattern failed")
	}

	tests := []struct {
		handle string
		want   bool
	}{
		{"Error", true},
		{"error", true},
		{"Warn", false},
	}
	for _, tt := range tests {
		if got := f.Visible(ev(event.LevelInfo, tt.handle)); got != tt.want {
			t.Errorf("Visible(handle=%q) = %v, want %v", tt.handle, got, tt.want)
		}
	}
}

func TestTranslateWildcard(t *testing.T) {
	tests := []struct {
		glob string
		want string
	}{
		{"*Foo*", "^(?:.*Foo.*)$"},
		{"a?c", "^(?:a.c)$"},
		{"net.*|db.*", "^(?:net\\..*|db\\..*)$"},
		{"", ""},
		{"plain", "^(?:plain)$"},
	}
	for _, tt := range tests {
		if got := TranslateWildcard(tt.glob); got != tt.want {
			t.Errorf("TranslateWildcard(%q) = %q, want %q", tt.glob, got, tt.want)
		}
	}
}

func TestWildcardMatching(t *testing.T) {
	f := New()
	if !f.SetWildcard("*Foo*", false) {
		t.Fatal("SetWildcard failed")
	}

	tests := []struct {
		handle string
		want   bool
	}{
		{"Foo", true},
		{"app.FooService", true},
		{"foo", false}, // case-sensitive
		{"Bar", false},
	}
	for _, tt := range tests {
		if got := f.Visible(ev(event.LevelInfo, tt.handle)); got != tt.want {
			t.Errorf("Visible(handle=%q) = %v, want %v", tt.handle, got, tt.want)
		}
	}

	if !f.SetWildcard("net.?ial|db.*", true) {
		t.Fatal("SetWildcard failed")
	}
	if !f.Visible(ev(event.LevelInfo, "NET.DIAL")) {
		t.Fatal("alternation with ? should match case-insensitively")
	}
	if f.Visible(ev(event.LevelInfo, "netXdial")) {
		t.Fatal("literal dot must not act as a wildcard")
	}
}

func TestLevelThreshold(t *testing.T) {
	f := New()
	f.SetLevel(event.LevelWarn)

	for _, l := range []event.Level{event.LevelWarn, event.LevelError, event.LevelCritical} {
		if !f.Visible(ev(l, "h")) {
			t.Errorf("level %s should pass threshold warn", l)
		}
	}
	for _, l := range []event.Level{event.LevelTrace, event.LevelDebug, event.LevelInfo} {
		if f.Visible(ev(l, "h")) {
			t.Errorf("level %s should not pass threshold warn", l)
		}
	}
}

func TestLevelExact(t *testing.T) {
	f := New()
	f.SetLevel(event.LevelWarn)
	f.SetMode(Exact)

	if !f.Visible(ev(event.LevelWarn, "h")) {
		t.Fatal("exact mode should match the threshold level")
	}
	if f.Visible(ev(event.LevelError, "h")) {
		t.Fatal("exact mode should reject levels above the threshold")
	}
	if f.Visible(ev(event.LevelInfo, "h")) {
		t.Fatal("exact mode should reject levels below the threshold")
	}

	f.SetMode(Threshold)
	if !f.Visible(ev(event.LevelError, "h")) {
		t.Fatal("threshold mode should accept levels above the threshold again")
	}
}

func TestNilEventNotVisible(t *testing.T) {
	if New().Visible(nil) {
		t.Fatal("nil event must never be visible")
	}
}
