package viewer

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/loupedev/loupe/internal/config"
	"github.com/loupedev/loupe/internal/event"
	"github.com/loupedev/loupe/internal/sink"
)

func newModel(t *testing.T, maxDisplay int) Model {
	t.Helper()
	return New(Options{
		Sink:       sink.New(),
		Config:     config.Default(),
		MaxDisplay: maxDisplay,
	})
}

func TestModelHandleEventRespectsFilter(t *testing.T) {
	m := newModel(t, 100)
	m.filter.SetLevel(event.LevelWarn)

	m.handleEvent(event.New(event.LevelInfo, "app", "dropped", "", time.Time{}))
	m.handleEvent(event.New(event.LevelError, "app", "kept", "", time.Time{}))

	if got := m.entries.Len(); got != 1 {
		t.Fatalf("entries.Len() = %d, want 1", got)
	}
	e, _ := m.entries.Get(0)
	if e.Message != "kept" {
		t.Fatalf("kept message = %q, want kept", e.Message)
	}
}

func TestModelHandleEventIgnoresDuplicates(t *testing.T) {
	m := newModel(t, 100)
	e := event.New(event.LevelInfo, "app", "once", "", time.Time{})

	m.handleEvent(e)
	m.handleEvent(e)

	if got := m.entries.Len(); got != 1 {
		t.Fatalf("entries.Len() = %d, want 1", got)
	}
}

func TestModelTrimKeepsNewest(t *testing.T) {
	m := newModel(t, 10)

	base := time.Now()
	for i := 0; i < 11; i++ {
		m.handleEvent(event.New(event.LevelInfo, "app", fmt.Sprintf("msg-%d", i), "", base.Add(time.Duration(i)*time.Millisecond)))
	}

	// One overflow triggers a trim of overflow plus a tenth of the cap.
	if got := m.entries.Len(); got != 9 {
		t.Fatalf("entries.Len() = %d, want 9", got)
	}
	first, _ := m.entries.Get(0)
	if first.Message != "msg-2" {
		t.Fatalf("oldest survivor = %q, want msg-2", first.Message)
	}
	last, _ := m.entries.Get(m.entries.Len() - 1)
	if last.Message != "msg-10" {
		t.Fatalf("newest survivor = %q, want msg-10", last.Message)
	}
}

func TestModelPauseBuffersThenResumeFlushesAndTrims(t *testing.T) {
	m := newModel(t, 10)

	if !m.pause.Pause() {
		t.Fatal("Pause() should succeed")
	}

	base := time.Now()
	for i := 0; i < 15; i++ {
		m.handleEvent(event.New(event.LevelInfo, "app", fmt.Sprintf("msg-%d", i), "", base.Add(time.Duration(i)*time.Millisecond)))
	}

	if got := m.entries.Len(); got != 0 {
		t.Fatalf("entries.Len() while paused = %d, want 0", got)
	}
	if got := m.pause.Buffered(); got != 15 {
		t.Fatalf("Buffered() = %d, want 15", got)
	}

	m.flushPaused()

	// 15 flushed into a cap of 10: trim removes the 5 oldest plus one more.
	if got := m.entries.Len(); got != 9 {
		t.Fatalf("entries.Len() after resume = %d, want 9", got)
	}
	first, _ := m.entries.Get(0)
	if first.Message != "msg-6" {
		t.Fatalf("oldest survivor = %q, want msg-6", first.Message)
	}
	last, _ := m.entries.Get(m.entries.Len() - 1)
	if last.Message != "msg-14" {
		t.Fatalf("newest survivor = %q, want msg-14", last.Message)
	}
	if m.pause.Paused() {
		t.Fatal("flush should leave the model unpaused")
	}
}

func TestModelDisablePausingForcesFlush(t *testing.T) {
	m := newModel(t, 100)
	m.pause.Pause()
	m.handleEvent(event.New(event.LevelInfo, "app", "held", "", time.Time{}))

	m.SetPausingEnabled(false)

	if got := m.entries.Len(); got != 1 {
		t.Fatalf("entries.Len() = %d, want 1", got)
	}
	if m.pause.Pause() {
		t.Fatal("pausing must stay refused until re-enabled")
	}
}

func TestModelRescanReplacesAgainstBacklog(t *testing.T) {
	m := newModel(t, 100)

	base := time.Now()
	for i := 0; i < 5; i++ {
		handle := "net.dial"
		if i%2 == 1 {
			handle = "db.query"
		}
		m.sink.Write(event.New(event.LevelInfo, handle, fmt.Sprintf("msg-%d", i), "", base.Add(time.Duration(i)*time.Millisecond)))
	}

	if !m.filter.SetWildcard("net*", true) {
		t.Fatal("SetWildcard failed")
	}
	cmd := m.rescanCmd()
	msg, ok := cmd().(rescanMsg)
	if !ok {
		t.Fatalf("rescan cmd returned %T, want rescanMsg", msg)
	}

	updated, _ := m.Update(msg)
	m = updated.(Model)

	if got := m.entries.Len(); got != 3 {
		t.Fatalf("entries.Len() = %d, want 3", got)
	}
	for _, e := range m.entries.Snapshot() {
		if e.Handle != "net.dial" {
			t.Fatalf("rescan kept handle %q", e.Handle)
		}
	}
}

func TestModelRescanDiscardsStaleGeneration(t *testing.T) {
	m := newModel(t, 100)
	m.sink.Write(event.New(event.LevelInfo, "app", "msg", "", time.Time{}))

	stale := m.rescanCmd()
	fresh := m.rescanCmd()

	freshMsg := fresh().(rescanMsg)
	staleMsg := stale().(rescanMsg)

	updated, _ := m.Update(freshMsg)
	m = updated.(Model)
	if got := m.entries.Len(); got != 1 {
		t.Fatalf("entries.Len() after fresh rescan = %d, want 1", got)
	}

	m.entries.Clear()
	updated, _ = m.Update(staleMsg)
	m = updated.(Model)
	if got := m.entries.Len(); got != 0 {
		t.Fatalf("stale rescan result was applied, entries.Len() = %d", got)
	}
}

func TestModelRescanKeepsNewestWithinCap(t *testing.T) {
	m := newModel(t, 3)

	base := time.Now()
	for i := 0; i < 7; i++ {
		m.sink.Write(event.New(event.LevelInfo, "app", fmt.Sprintf("msg-%d", i), "", base.Add(time.Duration(i)*time.Millisecond)))
	}

	msg := m.rescanCmd()().(rescanMsg)
	if len(msg.events) != 3 {
		t.Fatalf("rescan returned %d events, want 3", len(msg.events))
	}
	if msg.events[0].Message != "msg-4" || msg.events[2].Message != "msg-6" {
		t.Fatalf("rescan kept %q..%q, want msg-4..msg-6", msg.events[0].Message, msg.events[2].Message)
	}
}

func TestRenderLineUsesTemplate(t *testing.T) {
	m := newModel(t, 10)
	m.cfg.Template = "{loglevel}|{message}"
	m.cfg.UTC = true

	e := event.New(event.LevelError, "app", "boom", "", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	line := m.renderLine(e)

	if !strings.Contains(line, "ERROR|boom") {
		t.Fatalf("renderLine() = %q, want it to contain ERROR|boom", line)
	}
}

func TestRenderContentEmptyState(t *testing.T) {
	m := newModel(t, 10)
	if got := m.renderContent(); !strings.Contains(got, "No log entries") {
		t.Fatalf("renderContent() = %q", got)
	}
}

func TestDisplayColor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"red", "1"},
		{" Cyan ", "6"},
		{"#ff00aa", "#ff00aa"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := displayColor(tt.in); got != tt.want {
			t.Errorf("displayColor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
