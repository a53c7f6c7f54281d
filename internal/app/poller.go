package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/five82/rotary/internal/gallery"
	"github.com/five82/rotary/internal/state"
)

const (
	defaultPollInterval = 2 * time.Second
	maxBackoff          = 30 * time.Second
)

// calculateBackoff doubles base for every consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

// StartPoller launches a background goroutine that refreshes the album list.
// After failures the wait grows exponentially until a poll succeeds again.
// It returns immediately.
func StartPoller(ctx context.Context, store *state.Store, fetcher gallery.AlbumFetcher, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	go func() {
		for {
			wait := calculateBackoff(store.Snapshot().ConsecutiveFailures, interval)
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			refresh(ctx, store, fetcher, logger)
		}
	}()
}

func refresh(ctx context.Context, store *state.Store, fetcher gallery.AlbumFetcher, logger *slog.Logger) {
	albums, err := fetcher.FetchAlbums(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		store.Update(nil, err)
		logger.Warn("poller: album fetch failed",
			"error", err,
			"failures", store.Snapshot().ConsecutiveFailures,
		)
		return
	}
	store.Update(albums, nil)
	logger.Debug("poller: albums refreshed", "count", len(albums))
}
