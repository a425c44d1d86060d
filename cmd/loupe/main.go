package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/loupedev/loupe/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override config path (optional)")
	prefsPath := flag.String("prefs", "", "override preferences path (optional)")
	maxDisplay := flag.Int("max-display", 0, "visible entry cap (optional, defaults to 2000)")
	demo := flag.Bool("demo", false, "start synthetic log producers")
	tail := flag.String("tail", "", "comma-separated log files to follow (optional)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		PrefsPath:  *prefsPath,
		Demo:       *demo,
	}
	if *maxDisplay > 0 {
		opts.MaxDisplay = *maxDisplay
	}
	for _, path := range strings.Split(*tail, ",") {
		if path = strings.TrimSpace(path); path != "" {
			opts.TailPaths = append(opts.TailPaths, path)
		}
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "loupe: %v\n", err)
		return 1
	}
	return 0
}
