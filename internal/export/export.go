package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/loupedev/loupe/internal/event"
)

// Format selects the serialization applied to an export.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatText Format = "text"
)

// ParseFormat resolves a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(s, "."))) {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "text", "txt", "log":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// Options tune the rendered output.
type Options struct {
	Template   string // text format only; empty uses the default template
	TimeFormat string
	UTC        bool
	Delimiter  string // joins the default template fields
}

// Result describes one export attempt. Err is nil on success; on failure it
// wraps the underlying cause together with the file context, so the UI can
// surface it directly.
type Result struct {
	Path   string
	Format Format
	Count  int
	Err    error
}

// Ok reports whether the export completed.
func (r Result) Ok() bool { return r.Err == nil }

// String renders a one-line human-readable summary.
func (r Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("export failed: %v", r.Err)
	}
	return fmt.Sprintf("exported %d events to %s", r.Count, r.Path)
}

// record is the wire shape shared by the JSON and CSV encoders.
type record struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	ThreadID  uint64 `json:"threadId"`
	Color     string `json:"color"`
	Handle    string `json:"handle"`
	Message   string `json:"message"`
}

func newRecord(e *event.Event, opts Options) record {
	ts := e.Timestamp
	if opts.UTC {
		ts = ts.UTC()
	} else {
		ts = ts.In(time.Local)
	}
	format := opts.TimeFormat
	if format == "" {
		format = event.DefaultTimeFormat
	}
	return record{
		Timestamp: ts.Format(format),
		Level:     e.Level.Label(),
		ThreadID:  e.Goroutine,
		Color:     e.Color,
		Handle:    e.Handle,
		Message:   e.Message,
	}
}

// WriteJSON writes the events as a JSON array. Cancellation is checked between
// records; the output is truncated but structurally abandoned, never corrupt
// collection state.
func WriteJSON(ctx context.Context, w io.Writer, events []*event.Event, opts Options) (int, error) {
	records := make([]record, 0, len(events))
	for _, e := range events {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if e == nil {
			continue
		}
		records = append(records, newRecord(e, opts))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return 0, fmt.Errorf("encode json: %w", err)
	}
	return len(records), nil
}

// WriteCSV writes a header row followed by one row per event. Embedded
// newlines in the message are escaped to the literal token \n so each record
// stays on one physical line.
func WriteCSV(ctx context.Context, w io.Writer, events []*event.Event, opts Options) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Timestamp", "LogLevel", "ThreadId", "Color", "Handle", "Message"}); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}
	count := 0
	for _, e := range events {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		if e == nil {
			continue
		}
		rec := newRecord(e, opts)
		row := []string{
			rec.Timestamp,
			rec.Level,
			strconv.FormatUint(rec.ThreadID, 10),
			rec.Color,
			rec.Handle,
			escapeNewlines(rec.Message),
		}
		if err := cw.Write(row); err != nil {
			return count, fmt.Errorf("write csv row: %w", err)
		}
		count++
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return count, fmt.Errorf("flush csv: %w", err)
	}
	return count, nil
}

func escapeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", `\n`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return strings.ReplaceAll(s, "\r", `\n`)
}

// WriteText writes one templated line per event.
func WriteText(ctx context.Context, w io.Writer, events []*event.Event, opts Options) (int, error) {
	tpl := opts.Template
	if strings.TrimSpace(tpl) == "" {
		tpl = event.DefaultTemplate(opts.Delimiter)
	}
	count := 0
	for _, e := range events {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		if e == nil {
			continue
		}
		line := event.Render(tpl, e, opts.TimeFormat, opts.UTC)
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return count, fmt.Errorf("write text: %w", err)
		}
		count++
	}
	return count, nil
}

// ToFile snapshots the given events into path. A ".gz" suffix gzips the
// output transparently. The failure, if any, lands in the Result rather than
// crashing the caller; export is always driven from the UI.
func ToFile(ctx context.Context, path string, format Format, events []*event.Event, opts Options) Result {
	res := Result{Path: path, Format: format}

	file, err := os.Create(path)
	if err != nil {
		res.Err = fmt.Errorf("create %s: %w", path, err)
		return res
	}

	var w io.Writer = file
	var gz *gzip.Writer
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz = gzip.NewWriter(file)
		w = gz
	}

	switch format {
	case FormatJSON:
		res.Count, err = WriteJSON(ctx, w, events, opts)
	case FormatCSV:
		res.Count, err = WriteCSV(ctx, w, events, opts)
	case FormatText:
		res.Count, err = WriteText(ctx, w, events, opts)
	default:
		err = fmt.Errorf("unknown export format %q", format)
	}

	if gz != nil {
		if cerr := gz.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close gzip: %w", cerr)
		}
	}
	if cerr := file.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("close %s: %w", path, cerr)
	}
	if err != nil {
		res.Err = fmt.Errorf("export %s: %w", path, err)
	}
	return res
}

// FormatForPath guesses the format from a file name, looking past a trailing
// .gz. Unknown extensions export as text.
func FormatForPath(path string) Format {
	name := strings.ToLower(path)
	name = strings.TrimSuffix(name, ".gz")
	if f, err := ParseFormat(filepath.Ext(name)); err == nil {
		return f
	}
	return FormatText
}
