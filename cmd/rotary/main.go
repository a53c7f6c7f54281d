package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/rotary/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override rotary config path (optional)")
	pollSeconds := flag.Int("poll", 0, "album list refresh interval in seconds (optional, defaults to 2s)")
	albumID := flag.String("album", "", "open this album on startup (optional)")
	legacy := flag.Bool("legacy", false, "use the one second per frame autoplay cadence")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		AlbumID:    *albumID,
		Legacy:     *legacy,
	}
	if poll := *pollSeconds; poll > 0 {
		opts.PollEvery = poll
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "rotary: %v\n", err)
		return 1
	}
	return 0
}
