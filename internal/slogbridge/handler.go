// Package slogbridge connects the stdlib structured-logging facade to the
// loupe sink: install the Handler (typically via slog.SetDefault) and every
// record the application logs shows up in the viewer.
package slogbridge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/loupedev/loupe/internal/config"
	"github.com/loupedev/loupe/internal/event"
	"github.com/loupedev/loupe/internal/sink"
)

// HandleKey is the attribute key read as the event category. Records without
// it fall back to the handler's group path, then to "default".
const HandleKey = "logger"

const defaultHandle = "default"

// Handler is a slog.Handler that converts records into loupe events and
// writes them to a sink. It never reports an error back into the logging call
// path: logging must stay side-effect-free for the caller.
type Handler struct {
	sink *sink.Sink
	cfg  config.Config
	min  slog.Level
	next slog.Handler // optional downstream handler, e.g. the app's own output

	groups []string
	attrs  []slog.Attr
}

// Option configures a Handler.
type Option func(*Handler)

// WithMinLevel gates which records reach the sink.
func WithMinLevel(l slog.Level) Option {
	return func(h *Handler) { h.min = l }
}

// WithTee forwards every record to next after capturing it, so the
// application's normal log output keeps working alongside the viewer.
func WithTee(next slog.Handler) Option {
	return func(h *Handler) { h.next = next }
}

// New builds a Handler feeding s, using cfg for category colors, namespace
// stripping, and the minimum level default.
func New(s *sink.Sink, cfg config.Config, opts ...Option) *Handler {
	h := &Handler{
		sink: s,
		cfg:  cfg,
		min:  cfg.MinLevel.Slog(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Enabled implements slog.Handler.
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	if level >= h.min {
		return true
	}
	return h.next != nil && h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler. The record's attributes are flattened into
// the message text the way the viewer displays them; the HandleKey attribute
// (or the group path) becomes the event handle.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= h.min {
		handle := strings.Join(h.groups, ".")
		var extras []string

		appendAttr := func(a slog.Attr) {
			if a.Key == HandleKey {
				handle = a.Value.String()
				return
			}
			if a.Equal(slog.Attr{}) {
				return
			}
			extras = append(extras, a.Key+"="+fmt.Sprintf("%v", a.Value.Any()))
		}
		for _, a := range h.attrs {
			appendAttr(a)
		}
		r.Attrs(func(a slog.Attr) bool {
			appendAttr(a)
			return true
		})

		if strings.TrimSpace(handle) == "" {
			handle = defaultHandle
		}
		handle = h.cfg.StripHandle(handle)

		msg := r.Message
		if len(extras) > 0 {
			msg += " " + strings.Join(extras, " ")
		}

		h.sink.Write(event.New(
			event.FromSlog(r.Level),
			handle,
			msg,
			h.cfg.Color(handle),
			r.Time,
		))
	}

	if h.next != nil && h.next.Enabled(ctx, r.Level) {
		// A failing downstream handler must not surface into caller code
		// that expects logging to be side-effect-free.
		_ = h.next.Handle(ctx, r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	if h.next != nil {
		clone.next = h.next.WithAttrs(attrs)
	}
	return &clone
}

// WithGroup implements slog.Handler.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	if h.next != nil {
		clone.next = h.next.WithGroup(name)
	}
	return &clone
}
