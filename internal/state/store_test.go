package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/five82/rotary/internal/album"
)

func testAlbums() []album.Album {
	return []album.Album{
		{ID: "chair", Metadata: album.Metadata{Name: "Chair", Images: []string{"a.jpg"}}},
		{ID: "vase", Metadata: album.Metadata{Name: "Vase", Images: []string{"001.jpg", "002.jpg"}}},
	}
}

func TestStore_UpdateAndSnapshotClone(t *testing.T) {
	var s Store

	before := time.Now()
	s.Update(testAlbums(), nil)

	snap := s.Snapshot()
	if !snap.HasAlbums || len(snap.Albums) != 2 {
		t.Fatalf("snapshot albums = %#v, want 2 albums HasAlbums=true", snap.Albums)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.LastError != nil {
		t.Fatalf("LastError = %v, want nil", snap.LastError)
	}

	// Returned snapshot should be independent of the stored one.
	snap.Albums[0].ID = "mutated"
	snap.Albums[1].Metadata.Images[0] = "mutated.jpg"
	snap2 := s.Snapshot()
	if snap2.Albums[0].ID != "chair" || snap2.Albums[1].Metadata.Images[0] != "001.jpg" {
		t.Fatalf("Snapshot should clone albums; got %#v", snap2.Albums)
	}
}

func TestStore_EmptySuccessStillHasAlbums(t *testing.T) {
	var s Store
	s.Update(nil, nil)
	snap := s.Snapshot()
	if !snap.HasAlbums || len(snap.Albums) != 0 {
		t.Fatalf("snapshot = %#v, want HasAlbums with empty list", snap)
	}
}

func TestSnapshot_AlbumLookup(t *testing.T) {
	var s Store
	s.Update(testAlbums(), nil)
	snap := s.Snapshot()

	a, ok := snap.Album("vase")
	if !ok || a.Metadata.Name != "Vase" {
		t.Fatalf("Album(vase) = %#v, %v", a, ok)
	}
	if _, ok := snap.Album("missing"); ok {
		t.Fatalf("Album(missing) found")
	}
}

func TestStore_UpdateErrorKeepsPreviousData(t *testing.T) {
	var s Store

	s.Update(testAlbums(), nil)
	prev := s.Snapshot()

	before := time.Now()
	origErr := errors.New("boom")
	s.Update(nil, origErr)

	snap := s.Snapshot()
	if !reflect.DeepEqual(snap.Albums, prev.Albums) || !snap.HasAlbums {
		t.Fatalf("albums changed on error: got %#v want %#v", snap.Albums, prev.Albums)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	var s Store

	snap := s.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("initial snapshot = %#v, want online with 0 failures", snap)
	}

	for i := 1; i <= 3; i++ {
		s.Update(nil, errors.New("fail"))
		snap = s.Snapshot()
		if snap.ConsecutiveFailures != i {
			t.Fatalf("ConsecutiveFailures = %d, want %d", snap.ConsecutiveFailures, i)
		}
		if want := i >= 2; snap.IsOffline() != want {
			t.Fatalf("IsOffline() = %v after %d failures, want %v", snap.IsOffline(), i, want)
		}
	}

	// Success resets counter
	s.Update(testAlbums(), nil)
	snap = s.Snapshot()
	if snap.ConsecutiveFailures != 0 {
		t.Fatalf("ConsecutiveFailures = %d, want 0 after success", snap.ConsecutiveFailures)
	}
	if snap.IsOffline() {
		t.Fatal("IsOffline() = true, want false after success")
	}
}
