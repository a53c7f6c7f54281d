package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/five82/rotary/internal/config"
	"github.com/five82/rotary/internal/gallery"
	"github.com/five82/rotary/internal/prefs"
	"github.com/five82/rotary/internal/state"
	"github.com/five82/rotary/internal/ui"
)

// Options configure the rotary viewer.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/rotary/prefs.toml
	PollEvery  int    // seconds; zero uses default
	AlbumID    string // open this album immediately
	Legacy     bool   // force the legacy one-second autoplay cadence
}

// Run boots the rotary TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		return fmt.Errorf("load prefs: %w", err)
	}
	if userPrefs.Autoplay != "" {
		cfg.Autoplay = userPrefs.Autoplay
	}
	if opts.Legacy {
		cfg.Autoplay = config.AutoplayLegacy
	}

	logger, closeLog := openLogger(cfg.LogPath)
	defer closeLog()

	client, err := gallery.NewClient(cfg.APIBind, gallery.WithImageRate(cfg.ImageRatePerSec))
	if err != nil {
		return fmt.Errorf("init gallery client: %w", err)
	}

	store := &state.Store{}

	interval := defaultPollInterval
	if opts.PollEvery > 0 {
		interval = time.Duration(opts.PollEvery) * time.Second
	}

	// Populate the store before the first frame is drawn.
	refresh(ctx, store, client, logger)
	StartPoller(ctx, store, client, interval, logger)

	logger.Info("app: starting viewer",
		"api", client.BaseURL(),
		"autoplay", cfg.Autoplay,
		"mode", cfg.Mode,
	)

	return ui.Run(ui.Options{
		Context:   ctx,
		Client:    client,
		Store:     store,
		Config:    &cfg,
		Logger:    logger,
		PollTick:  interval,
		ThemeName: userPrefs.Theme,
		Prefs:     userPrefs,
		PrefsPath: opts.PrefsPath,
		AlbumID:   opts.AlbumID,
	})
}

// openLogger writes text records to path. Stdout belongs to the terminal UI,
// so when the file cannot be opened logging is discarded.
func openLogger(path string) (*slog.Logger, func()) {
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	if path == "" {
		return discard, func() {}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return discard, func() {}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return discard, func() {}
	}
	logger := slog.New(slog.NewTextHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, func() { _ = file.Close() }
}
