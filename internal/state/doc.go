// Package state holds the album list shared by the poller and the UI.
//
// # Overview
//
// The background poller fetches the album list from the server and writes it
// into a Store; the album browser reads snapshots on every render. The Store
// is the only coordination point between the two goroutines.
//
//	Producer (Poller):             Consumer (UI):
//	┌────────────────┐            ┌─────────────────┐
//	│ FetchAlbums()  │            │                 │
//	│      ↓         │            │                 │
//	│ store.Update() │───────────→│ store.Snapshot()│
//	│      ↓         │  (mutex)   │      ↓          │
//	│  repeat...     │            │  render list    │
//	└────────────────┘            └─────────────────┘
//
// # Update Semantics
//
//	// Success case: replace the album list
//	store.Update(albums, nil)
//	→ snapshot.Albums = albums
//	→ snapshot.HasAlbums = true
//	→ snapshot.LastError = nil
//	→ snapshot.ConsecutiveFailures = 0
//
//	// Error case: keep the old list, record the error
//	store.Update(nil, err)
//	→ snapshot.Albums = <unchanged>
//	→ snapshot.LastError = err
//	→ snapshot.ConsecutiveFailures++
//
// After two consecutive failures IsOffline reports true and the UI switches
// its header to the offline banner. The poller also uses the failure count to
// back off.
//
// # Copying
//
// Update and Snapshot both copy the album slice and each album's frame list,
// so a snapshot can be kept and mutated by the UI without affecting the
// store. Errors are wrapped into a fresh value.
//
// The zero Store is ready to use.
package state
