package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/loupedev/loupe/internal/event"
	"github.com/loupedev/loupe/internal/sink"
)

const (
	// DefaultInterval is the poll cadence for file growth.
	DefaultInterval = 500 * time.Millisecond

	// DefaultBackfill is how many trailing lines are emitted on start.
	DefaultBackfill = 200
)

// Options tune a file tail. The zero value is usable.
type Options struct {
	Handle   string        // event category; empty uses the file's base name
	Backfill int           // trailing lines emitted at start; negative skips backfill
	Interval time.Duration // poll cadence; zero uses DefaultInterval
}

// Backfill returns at most maxLines from the end of the file at path. A
// missing file is not an error; the tail loop waits for it to appear.
func Backfill(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Follow launches a background goroutine that emits the file's trailing lines
// into the sink, then keeps polling for appended lines until the context is
// cancelled. It returns immediately. Truncation resets the read offset, so
// rotated-in-place files pick up from the top.
func Follow(ctx context.Context, s *sink.Sink, path string, opts Options) {
	handle := opts.Handle
	if handle == "" {
		handle = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	backfill := opts.Backfill
	if backfill == 0 {
		backfill = DefaultBackfill
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	go func() {
		offset := emitBackfill(s, path, handle, backfill)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			offset = emitNew(s, path, handle, offset)
		}
	}()
}

func emitBackfill(s *sink.Sink, path, handle string, maxLines int) int64 {
	lines, err := Backfill(path, maxLines)
	if err != nil {
		return 0
	}
	for _, line := range lines {
		emitLine(s, handle, line)
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// emitNew reads lines appended since offset and returns the new offset.
func emitNew(s *sink.Sink, path, handle string, offset int64) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return offset
	}
	if info.Size() < offset {
		// Truncated in place.
		offset = 0
	}
	if info.Size() == offset {
		return offset
	}

	file, err := os.Open(path)
	if err != nil {
		return offset
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	read := offset
	for scanner.Scan() {
		line := scanner.Text()
		read += int64(len(scanner.Bytes())) + 1
		emitLine(s, handle, line)
	}
	// A final line without a trailing newline makes the count run long.
	if read > info.Size() {
		read = info.Size()
	}
	return read
}

func emitLine(s *sink.Sink, handle, line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	s.Write(event.New(guessLevel(line), handle, line, "", time.Time{}))
}

// guessLevel scans the line for a severity keyword. Foreign files carry no
// structure, so a keyword hit is the best available signal; everything else
// is informational.
func guessLevel(line string) event.Level {
	upper := strings.ToUpper(line)
	switch {
	case strings.Contains(upper, "FATAL"), strings.Contains(upper, "CRITICAL"):
		return event.LevelCritical
	case strings.Contains(upper, "ERROR"):
		return event.LevelError
	case strings.Contains(upper, "WARN"):
		return event.LevelWarn
	case strings.Contains(upper, "DEBUG"):
		return event.LevelDebug
	case strings.Contains(upper, "TRACE"):
		return event.LevelTrace
	default:
		return event.LevelInfo
	}
}
