package state

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/five82/rotary/internal/album"
)

// Snapshot represents the latest album list available to the UI.
type Snapshot struct {
	Albums              []album.Album
	HasAlbums           bool // true once a poll has succeeded
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Album returns the album with the given id from the snapshot.
func (s Snapshot) Album(id string) (album.Album, bool) {
	for _, a := range s.Albums {
		if a.ID == id {
			return a, true
		}
	}
	return album.Album{}, false
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored album list. When err is non-nil the previous
// list is kept but the error is recorded for visibility.
func (s *Store) Update(albums []album.Album, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.Albums = cloneAlbums(albums)
	s.snapshot.HasAlbums = true
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Albums = cloneAlbums(s.snapshot.Albums)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneAlbums(albums []album.Album) []album.Album {
	if len(albums) == 0 {
		return nil
	}
	dup := make([]album.Album, len(albums))
	copy(dup, albums)
	for i := range dup {
		dup[i].Metadata.Images = slices.Clone(albums[i].Metadata.Images)
	}
	return dup
}
