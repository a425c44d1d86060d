package slogbridge

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/loupedev/loupe/internal/config"
	"github.com/loupedev/loupe/internal/event"
	"github.com/loupedev/loupe/internal/sink"
)

func newLogger(s *sink.Sink, cfg config.Config, opts ...Option) *slog.Logger {
	return slog.New(New(s, cfg, opts...))
}

func waitForLen(t *testing.T, s *sink.Sink, want int) []*event.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.Len() >= want {
			return s.Snapshot()
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("sink has %d events, want %d", s.Len(), want)
	return nil
}

func TestHandleCapturesRecord(t *testing.T) {
	s := sink.New()
	cfg := config.Default()
	if err := cfg.SetColor("worker", "cyan"); err != nil {
		t.Fatalf("SetColor: %v", err)
	}

	logger := newLogger(s, cfg)
	logger.Warn("queue is filling up", HandleKey, "worker", "depth", 42)

	snap := waitForLen(t, s, 1)
	e := snap[0]
	if e.Level != event.LevelWarn {
		t.Errorf("Level = %v, want warn", e.Level)
	}
	if e.Handle != "worker" {
		t.Errorf("Handle = %q, want worker", e.Handle)
	}
	if !strings.Contains(e.Message, "queue is filling up") || !strings.Contains(e.Message, "depth=42") {
		t.Errorf("Message = %q, want text plus flattened attrs", e.Message)
	}
	if e.Color != "cyan" {
		t.Errorf("Color = %q, want mapped category color", e.Color)
	}
}

func TestHandleDefaultsWithoutLoggerAttr(t *testing.T) {
	s := sink.New()
	logger := newLogger(s, config.Default())
	logger.Info("plain record")

	snap := waitForLen(t, s, 1)
	if snap[0].Handle != "default" {
		t.Errorf("Handle = %q, want default", snap[0].Handle)
	}
	if snap[0].Color != config.DefaultColor {
		t.Errorf("Color = %q, want %q", snap[0].Color, config.DefaultColor)
	}
}

func TestGroupBecomesHandle(t *testing.T) {
	s := sink.New()
	logger := newLogger(s, config.Default()).WithGroup("net").WithGroup("dialer")
	logger.Info("connected")

	snap := waitForLen(t, s, 1)
	if snap[0].Handle != "net.dialer" {
		t.Errorf("Handle = %q, want net.dialer", snap[0].Handle)
	}
}

func TestWithAttrsCarriesLoggerName(t *testing.T) {
	s := sink.New()
	logger := newLogger(s, config.Default()).With(HandleKey, "db")
	logger.Error("query failed")

	snap := waitForLen(t, s, 1)
	if snap[0].Handle != "db" {
		t.Errorf("Handle = %q, want db", snap[0].Handle)
	}
}

func TestMinLevelGates(t *testing.T) {
	s := sink.New()
	logger := newLogger(s, config.Default(), WithMinLevel(slog.LevelWarn))

	logger.Info("dropped")
	logger.Warn("kept")

	snap := waitForLen(t, s, 1)
	if len(snap) != 1 || snap[0].Message != "kept" {
		t.Fatalf("snapshot = %+v, want only the warn record", snap)
	}
}

func TestStripNamespace(t *testing.T) {
	s := sink.New()
	cfg := config.Default()
	cfg.StripNamespace = true

	logger := newLogger(s, cfg)
	logger.Info("ready", HandleKey, "app.core.Dialer")

	snap := waitForLen(t, s, 1)
	if snap[0].Handle != "Dialer" {
		t.Errorf("Handle = %q, want Dialer", snap[0].Handle)
	}
}

func TestTeeKeepsDownstreamOutput(t *testing.T) {
	s := sink.New()
	var buf bytes.Buffer
	next := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})

	logger := newLogger(s, config.Default(), WithTee(next))
	logger.Info("both places")

	waitForLen(t, s, 1)
	if !strings.Contains(buf.String(), "both places") {
		t.Fatalf("downstream handler missed the record: %q", buf.String())
	}
}

func TestHandleNeverErrors(t *testing.T) {
	h := New(sink.New(), config.Default())
	rec := slog.NewRecord(time.Now(), slog.LevelInfo, "msg", 0)
	if err := h.Handle(t.Context(), rec); err != nil {
		t.Fatalf("Handle() error = %v, logging must not fail the caller", err)
	}
}
