package app

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/loupedev/loupe/internal/slogbridge"
)

const defaultDemoInterval = 300 * time.Millisecond

// demoSources are the synthetic producers. Each runs on its own goroutine so
// the viewer sees genuinely concurrent writers.
var demoSources = []struct {
	handle   string
	messages []string
}{
	{"net.dialer", []string{
		"dialing upstream", "connection established", "connection reset by peer",
		"retry scheduled", "tls handshake complete",
	}},
	{"db.query", []string{
		"executing batch", "slow query detected", "transaction committed",
		"connection pool exhausted", "rows fetched",
	}},
	{"worker.pool", []string{
		"job dequeued", "job finished", "job panicked and was retried",
		"queue depth rising", "worker idle",
	}},
}

var demoLevels = []slog.Level{
	slog.LevelDebug, slog.LevelInfo, slog.LevelInfo, slog.LevelInfo,
	slog.LevelWarn, slog.LevelError,
}

// StartDemo launches one producer goroutine per synthetic source, each
// logging through the default slog logger at a jittered cadence. It returns
// immediately; producers stop when the context is cancelled.
func StartDemo(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultDemoInterval
	}
	for _, src := range demoSources {
		go func(handle string, messages []string) {
			rng := rand.New(rand.NewSource(time.Now().UnixNano()))
			logger := slog.Default().With(slogbridge.HandleKey, handle)

			ticker := time.NewTicker(interval + time.Duration(rng.Intn(100))*time.Millisecond)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
				level := demoLevels[rng.Intn(len(demoLevels))]
				logger.Log(ctx, level, messages[rng.Intn(len(messages))])
			}
		}(src.handle, src.messages)
	}
}
