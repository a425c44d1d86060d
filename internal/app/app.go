package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/loupedev/loupe/internal/config"
	"github.com/loupedev/loupe/internal/ingest"
	"github.com/loupedev/loupe/internal/prefs"
	"github.com/loupedev/loupe/internal/sink"
	"github.com/loupedev/loupe/internal/slogbridge"
	"github.com/loupedev/loupe/internal/viewer"
)

// Options configure the Loupe application.
type Options struct {
	ConfigPath string
	PrefsPath  string   // empty uses default ~/.config/loupe/prefs.toml
	MaxDisplay int      // visible entry cap; zero uses the viewer default
	Demo       bool     // start synthetic log producers
	TailPaths  []string // external log files followed into the sink
}

// Run boots the Loupe viewer until the context is cancelled. The process-wide
// slog default is rewired through the sink, so everything the host program
// logs shows up in the viewer.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	userPrefs := prefs.Load(opts.PrefsPath)

	s := sink.Default()
	s.SetMaxQueueSize(cfg.MaxQueueSize)

	slog.SetDefault(slog.New(slogbridge.New(s, cfg)))

	if opts.Demo {
		StartDemo(ctx, defaultDemoInterval)
	}
	for _, path := range opts.TailPaths {
		ingest.Follow(ctx, s, path, ingest.Options{})
	}

	return viewer.Run(viewer.Options{
		Context:    ctx,
		Sink:       s,
		Config:     cfg,
		MaxDisplay: opts.MaxDisplay,
		ThemeName:  userPrefs.Theme,
		PrefsPath:  opts.PrefsPath,
		Follow:     &userPrefs.Follow,
	})
}
