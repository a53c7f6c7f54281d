package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/five82/rotary/internal/album"
	"github.com/five82/rotary/internal/config"
	"github.com/five82/rotary/internal/server"
)

// ServeOptions configure the album server.
type ServeOptions struct {
	ConfigPath string
	AlbumsDir  string // overrides albums_dir
	Listen     string // overrides listen
	Verbose    bool
}

// Serve runs the album HTTP API until the context is cancelled.
func Serve(ctx context.Context, opts ServeOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if dir := strings.TrimSpace(opts.AlbumsDir); dir != "" {
		resolved, err := config.ExpandPath(dir)
		if err != nil {
			return fmt.Errorf("resolve albums dir: %w", err)
		}
		cfg.AlbumsDir = resolved
	}
	if addr := strings.TrimSpace(opts.Listen); addr != "" {
		cfg.Listen = addr
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	store, err := album.NewStore(cfg.AlbumsDir, logger)
	if err != nil {
		return fmt.Errorf("open albums: %w", err)
	}

	go func() {
		if err := store.Watch(ctx); err != nil {
			logger.Warn("app: album watcher stopped", "error", err)
		}
	}()

	logger.Info("app: serving albums", "dir", store.Root(), "listen", cfg.Listen)
	return server.ListenAndServe(ctx, cfg.Listen, server.New(store, logger).Handler(), logger)
}
