package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/loupedev/loupe/internal/event"
	"github.com/loupedev/loupe/internal/sink"
)

func TestBackfill(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var all []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		all = append(all, line)
	}
	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{name: "none requested", maxLines: 0, expected: nil},
		{name: "negative", maxLines: -1, expected: nil},
		{name: "partial (5)", maxLines: 5, expected: all[5:]},
		{name: "exactly all (10)", maxLines: 10, expected: all},
		{name: "more than exists (20)", maxLines: 20, expected: all},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Backfill(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Backfill() error = %v", err)
			}
			if len(got) == 0 && len(tt.expected) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Fatalf("Backfill() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBackfillMissingFile(t *testing.T) {
	lines, err := Backfill(filepath.Join(t.TempDir(), "absent.log"), 10)
	if err != nil {
		t.Fatalf("missing file should not error, got %v", err)
	}
	if lines != nil {
		t.Fatalf("missing file returned %v", lines)
	}
}

func TestEmitNewReadsAppendedLines(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "grow.log")
	if err := os.WriteFile(logPath, []byte("first\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s := sink.New()
	offset := emitNew(s, logPath, "grow", 0)
	if offset != int64(len("first\n")) {
		t.Fatalf("offset = %d, want %d", offset, len("first\n"))
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("open for append: %v", err)
	}
	if _, err := f.WriteString("second\nERROR boom\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	f.Close()

	emitNew(s, logPath, "grow", offset)

	snap := s.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("sink has %d events, want 3", len(snap))
	}
	if snap[1].Message != "second" {
		t.Fatalf("second line = %q", snap[1].Message)
	}
	if snap[2].Level != event.LevelError {
		t.Fatalf("ERROR line level = %v, want error", snap[2].Level)
	}
	for _, e := range snap {
		if e.Handle != "grow" {
			t.Fatalf("handle = %q, want grow", e.Handle)
		}
	}
}

func TestEmitNewTruncationResets(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "rotate.log")
	if err := os.WriteFile(logPath, []byte("old line one\nold line two\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s := sink.New()
	offset := emitNew(s, logPath, "rotate", 0)

	// Rotate in place: smaller file, fresh content.
	if err := os.WriteFile(logPath, []byte("fresh\n"), 0644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	offset = emitNew(s, logPath, "rotate", offset)
	if offset != int64(len("fresh\n")) {
		t.Fatalf("offset after truncation = %d, want %d", offset, len("fresh\n"))
	}

	snap := s.Snapshot()
	if last := snap[len(snap)-1]; last.Message != "fresh" {
		t.Fatalf("last message = %q, want fresh", last.Message)
	}
}

func TestGuessLevel(t *testing.T) {
	tests := []struct {
		line string
		want event.Level
	}{
		{"2024-05-01 ERROR something broke", event.LevelError},
		{"warning: disk almost full", event.LevelWarn},
		{"[debug] cache miss", event.LevelDebug},
		{"TRACE enter handler", event.LevelTrace},
		{"FATAL out of memory", event.LevelCritical},
		{"plain informational line", event.LevelInfo},
	}
	for _, tt := range tests {
		if got := guessLevel(tt.line); got != tt.want {
			t.Errorf("guessLevel(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestEmitLineSkipsBlank(t *testing.T) {
	s := sink.New()
	emitLine(s, "h", "   ")
	if got := s.Len(); got != 0 {
		t.Fatalf("blank line produced %d events", got)
	}
}
