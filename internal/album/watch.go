package album

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watch enables the metadata cache and invalidates it from file system events
// until ctx is cancelled. Album directories created while watching are picked
// up automatically.
func (s *Store) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(s.root); err != nil {
		return fmt.Errorf("watch albums dir: %w", err)
	}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return fmt.Errorf("read albums dir: %w", err)
	}
	for _, entry := range entries {
		if isAlbumDir(s.root, entry) {
			s.watchAlbum(w, entry.Name())
		}
	}

	s.mu.Lock()
	s.watching = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.watching = false
		clear(s.cache)
		s.mu.Unlock()
	}()

	s.logger.Info("album: watching", "root", s.root)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			s.handleEvent(w, event)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("album: watcher error", "error", err)
		}
	}
}

func (s *Store) watchAlbum(w *fsnotify.Watcher, id string) {
	if err := w.Add(filepath.Join(s.root, id)); err != nil {
		s.logger.Warn("album: watch album failed", "album", id, "error", err)
	}
}

func (s *Store) handleEvent(w *fsnotify.Watcher, event fsnotify.Event) {
	if !event.Has(fsnotify.Create | fsnotify.Remove | fsnotify.Rename | fsnotify.Write) {
		return
	}
	rel, err := filepath.Rel(s.root, event.Name)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return
	}
	id, _, nested := strings.Cut(rel, string(filepath.Separator))
	if !nested && event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			s.watchAlbum(w, id)
		}
	}
	s.Invalidate(id)
}
