package ui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/rotary/internal/album"
	"github.com/five82/rotary/internal/config"
	"github.com/five82/rotary/internal/prefs"
	"github.com/five82/rotary/internal/state"
	"github.com/five82/rotary/internal/viewer"
)

type fakeResolver struct{ albumID string }

func (r fakeResolver) Primary(id string) string  { return "primary/" + r.albumID + "/" + id }
func (r fakeResolver) Fallback(id string) string { return "static/" + r.albumID + "/" + id }

// fakeGallery serves albums of solid-color frames without HTTP.
type fakeGallery struct {
	frames  map[string][]string
	listErr error
	broken  map[string]bool // frame URLs that fail on both sources
}

func (g *fakeGallery) FrameList(_ context.Context, albumID string) ([]string, error) {
	if g.listErr != nil {
		return nil, g.listErr
	}
	frames, ok := g.frames[albumID]
	if !ok {
		return nil, fmt.Errorf("api /api/albums/%s failed: Album not found", albumID)
	}
	return frames, nil
}

func (g *fakeGallery) LoadImage(_ context.Context, url string) (image.Image, error) {
	id := url[strings.LastIndex(url, "/")+1:]
	if g.broken[id] {
		return nil, errors.New("image returned status 500")
	}
	img := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.SetNRGBA(0, 0, color.NRGBA{R: 0xff, A: 0xff})
	return img, nil
}

func (g *fakeGallery) Resolver(albumID string) viewer.URLResolver {
	return fakeResolver{albumID: albumID}
}

func (g *fakeGallery) FetchImageInfo(_ context.Context, _ string, name string) (*album.ImageInfo, error) {
	return &album.ImageInfo{
		Filename:   name,
		Size:       2048,
		Dimensions: &album.Dimensions{Width: 8, Height: 4},
		Exif:       map[string]any{"ISO": 200},
	}, nil
}

func frameNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("%03d.jpg", i)
	}
	return names
}

func newTestModel(t *testing.T, g *fakeGallery) Model {
	t.Helper()
	store := &state.Store{}
	store.Update([]album.Album{
		{ID: "vase", Metadata: album.Metadata{Name: "Blue vase", Images: g.frames["vase"]}},
		{ID: "watch", Metadata: album.Metadata{Name: "Watch", Images: g.frames["watch"]}},
	}, nil)

	cfg := config.Default()
	cfg.LogPath = filepath.Join(t.TempDir(), "rotary.log")

	m := New(Options{
		Context:   context.Background(),
		Client:    g,
		Store:     store,
		Config:    &cfg,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
		Prefs:     prefs.Prefs{Theme: "Nightfox"},
	})
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	return update(t, m, snapshotMsg(store.Snapshot()))
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// openViewer opens albumID and waits until every frame has resolved.
func openViewer(t *testing.T, m Model, albumID string) Model {
	t.Helper()
	for i, a := range m.snapshot.Albums {
		if a.ID == albumID {
			m.selected = i
		}
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.viewer.opening || m.viewer.openingID != albumID {
		t.Fatalf("enter did not start opening %q", albumID)
	}

	msg := openAlbumCmd(m.ctx, m.client, albumID, m.viewerOptions())()
	m = update(t, m, msg)
	if m.currentView != ViewViewer || m.viewer.session == nil {
		t.Fatalf("view = %v, session = %v; want an open viewer", m.currentView, m.viewer.session)
	}
	t.Cleanup(m.viewer.session.Close)

	deadline := time.Now().Add(2 * time.Second)
	for !m.viewer.session.Snapshot().Ready {
		if time.Now().After(deadline) {
			t.Fatalf("album %q never finished preloading", albumID)
		}
		time.Sleep(5 * time.Millisecond)
	}
	return update(t, m, sessionChangedMsg{session: m.viewer.session})
}

func TestModel_BrowseAndOpenAlbum(t *testing.T) {
	g := &fakeGallery{frames: map[string][]string{"vase": frameNames(10), "watch": frameNames(3)}}
	m := newTestModel(t, g)

	m = update(t, m, keyRunes("j"))
	if album, _ := m.selectedAlbum(); album.ID != "watch" {
		t.Fatalf("selected = %q, want watch", album.ID)
	}
	m = update(t, m, keyRunes("k"))

	m = openViewer(t, m, "vase")
	if m.viewer.album.Metadata.Name != "Blue vase" {
		t.Fatalf("viewer album = %+v, want metadata from the snapshot", m.viewer.album)
	}
	if m.viewer.loadTime <= 0 {
		t.Fatalf("loadTime = %v, want it recorded once ready", m.viewer.loadTime)
	}
	if view := m.View(); !strings.Contains(view, "1 / 10") {
		t.Fatalf("viewer header missing position:\n%s", view)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if m.viewer.snap.FrameIndex != 1 {
		t.Fatalf("FrameIndex = %d, want 1", m.viewer.snap.FrameIndex)
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	if m.viewer.snap.FrameIndex != 9 {
		t.Fatalf("FrameIndex = %d, want 9 after wrapping", m.viewer.snap.FrameIndex)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if !m.viewer.snap.Playing {
		t.Fatalf("space did not start autoplay")
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeySpace})

	sess := m.viewer.session
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.currentView != ViewAlbums || m.viewer.session != nil {
		t.Fatalf("esc after preload should return to albums")
	}
	if !sess.Snapshot().Closed {
		t.Fatalf("esc did not close the session")
	}
}

func TestModel_ZoomKeysAndWheel(t *testing.T) {
	g := &fakeGallery{frames: map[string][]string{"vase": frameNames(4)}}
	m := openViewer(t, newTestModel(t, g), "vase")

	m = update(t, m, keyRunes("+"))
	if got := m.viewer.snap.Scale; got != 1.1 {
		t.Fatalf("Scale = %v, want 1.1", got)
	}
	m = update(t, m, keyRunes("0"))
	if got := m.viewer.snap.Scale; got != 1 {
		t.Fatalf("Scale = %v, want 1 after reset", got)
	}

	m = update(t, m, tea.MouseMsg{X: 10, Y: 10, Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp})
	if got := m.viewer.snap.Scale; got != 1.1 {
		t.Fatalf("Scale = %v, want 1.1 after wheel up", got)
	}
	m = update(t, m, tea.MouseMsg{X: 10, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp})
	if got := m.viewer.snap.Scale; got != 1.1 {
		t.Fatalf("Scale = %v, want wheel over the header ignored", got)
	}
	m = update(t, m, tea.MouseMsg{X: 10, Y: 10, Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown})
	if got := m.viewer.snap.Scale; got < 0.999 || got > 1.001 {
		t.Fatalf("Scale = %v, want about 1 after wheel down", got)
	}
}

func TestModel_MouseScrub(t *testing.T) {
	g := &fakeGallery{frames: map[string][]string{"vase": frameNames(10)}}
	m := openViewer(t, newTestModel(t, g), "vase")

	// 100 columns over 10 frames: 10 columns per frame.
	m = update(t, m, tea.MouseMsg{X: 50, Y: 7, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if m.viewer.snap.Drag != viewer.DragScrub {
		t.Fatalf("Drag = %v, want scrub", m.viewer.snap.Drag)
	}
	m = update(t, m, tea.MouseMsg{X: 30, Y: 7, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	if m.viewer.snap.FrameIndex != 2 {
		t.Fatalf("FrameIndex = %d, want 2 after dragging 20 columns left", m.viewer.snap.FrameIndex)
	}
	m = update(t, m, tea.MouseMsg{X: 30, Y: 7, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	if m.viewer.snap.Drag != viewer.DragNone || m.viewer.pointerDown {
		t.Fatalf("release left drag = %v, pointerDown = %v", m.viewer.snap.Drag, m.viewer.pointerDown)
	}
}

func TestModel_AltDragScrubsWhenZoomed(t *testing.T) {
	g := &fakeGallery{frames: map[string][]string{"vase": frameNames(10)}}
	m := openViewer(t, newTestModel(t, g), "vase")
	m = update(t, m, keyRunes("+"))

	m = update(t, m, tea.MouseMsg{X: 50, Y: 7, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if m.viewer.snap.Drag != viewer.DragPan {
		t.Fatalf("Drag = %v, want pan while zoomed", m.viewer.snap.Drag)
	}
	m = update(t, m, tea.MouseMsg{X: 55, Y: 9, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	if got := m.viewer.snap.Offset; got.X != 5 || got.Y != 4 {
		t.Fatalf("Offset = %+v, want {5 4}", got)
	}
	m = update(t, m, tea.MouseMsg{X: 55, Y: 9, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})

	m = update(t, m, tea.MouseMsg{X: 50, Y: 7, Alt: true, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if m.viewer.snap.Drag != viewer.DragScrub || !m.viewer.snap.AltHeld {
		t.Fatalf("alt press: Drag = %v, AltHeld = %v; want scrub", m.viewer.snap.Drag, m.viewer.snap.AltHeld)
	}
	m = update(t, m, tea.MouseMsg{X: 50, Y: 7, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	if m.viewer.snap.AltHeld {
		t.Fatalf("AltHeld stayed set after release without the latch")
	}

	m = update(t, m, keyRunes("a"))
	if !m.viewer.altLatch || !m.viewer.snap.AltHeld {
		t.Fatalf("a did not latch alt-drag")
	}
}

func TestModel_ErroredFrameRetry(t *testing.T) {
	g := &fakeGallery{
		frames: map[string][]string{"vase": frameNames(3)},
		broken: map[string]bool{"000.jpg": true},
	}
	m := openViewer(t, newTestModel(t, g), "vase")

	if view := m.View(); !strings.Contains(view, "failed to load") {
		t.Fatalf("view missing error placeholder:\n%s", view)
	}

	delete(g.broken, "000.jpg")
	m = update(t, m, keyRunes("R"))
	if !m.viewer.retrying {
		t.Fatalf("R did not start a retry")
	}
	msg := retryFrameCmd(m.ctx, m.viewer.session, 0)()
	m = update(t, m, msg)
	if m.viewer.retrying {
		t.Fatalf("retrying still set after the result arrived")
	}
	entry, _ := m.viewer.session.Frame(0)
	if entry.Status != viewer.StatusLoaded {
		t.Fatalf("entry status = %v, want loaded after retry", entry.Status)
	}
}

func TestModel_OpenFailureShowsModal(t *testing.T) {
	g := &fakeGallery{frames: map[string][]string{"vase": frameNames(3)}, listErr: errors.New("connection refused")}
	m := newTestModel(t, g)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = update(t, m, openAlbumCmd(m.ctx, m.client, "vase", m.viewerOptions())())
	if m.modal == nil {
		t.Fatalf("failed open did not show a modal")
	}
	if view := m.View(); !strings.Contains(view, "connection refused") {
		t.Fatalf("modal does not show the error:\n%s", view)
	}

	g.listErr = nil
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	if m.modal != nil || cmd == nil {
		t.Fatalf("enter should close the modal and retry")
	}
	if retry, ok := cmd().(openRetryMsg); !ok || retry.albumID != "vase" {
		t.Fatalf("retry cmd produced %#v", retry)
	}
}

func TestModel_StaleOpenIsClosed(t *testing.T) {
	g := &fakeGallery{frames: map[string][]string{"vase": frameNames(3)}}
	m := newTestModel(t, g)

	sess, err := viewer.Open(context.Background(), frameNames(3), fakeResolver{}, g, viewer.Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(sess.Close)
	m = update(t, m, sessionOpenedMsg{albumID: "vase", session: sess})
	if m.viewer.session != nil {
		t.Fatalf("unrequested session was adopted")
	}
	if !sess.Snapshot().Closed {
		t.Fatalf("unrequested session left open")
	}
}

func TestModel_EscapeSkipsPreload(t *testing.T) {
	g := &fakeGallery{frames: map[string][]string{"vase": frameNames(3)}}
	m := newTestModel(t, g)

	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	slow := viewer.LoaderFunc(func(ctx context.Context, url string) (image.Image, error) {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return g.LoadImage(ctx, url)
	})
	sess, err := viewer.Open(context.Background(), frameNames(3), fakeResolver{}, slow, viewer.Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(sess.Close)
	m.viewer.opening = true
	m.viewer.openingID = "vase"
	m = update(t, m, sessionOpenedMsg{albumID: "vase", session: sess, openedAt: time.Now()})

	if !strings.Contains(m.View(), "esc") {
		t.Fatalf("preload bar should offer esc to skip")
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.currentView != ViewViewer || !m.viewer.snap.Ready {
		t.Fatalf("esc during preload should skip loading and stay in the viewer")
	}
}

func TestModel_CycleThemeSavesPrefs(t *testing.T) {
	g := &fakeGallery{frames: map[string][]string{"vase": frameNames(3)}}
	m := newTestModel(t, g)
	m.prefs.Autoplay = "legacy"

	m = update(t, m, keyRunes("T"))
	if m.theme.Name != "Kanagawa" {
		t.Fatalf("theme = %q, want Kanagawa", m.theme.Name)
	}
	saved, err := prefs.Load(m.prefsPath)
	if err != nil {
		t.Fatalf("prefs.Load: %v", err)
	}
	if saved.Theme != "Kanagawa" || saved.Autoplay != "legacy" {
		t.Fatalf("saved prefs = %+v, want theme saved and autoplay kept", saved)
	}
}

func TestModel_LogView(t *testing.T) {
	g := &fakeGallery{frames: map[string][]string{"vase": frameNames(3)}}
	m := newTestModel(t, g)

	record := `time=2025-10-08T21:01:05.123Z level=WARN msg="poller: album fetch failed" failures=2` + "\n"
	if err := os.WriteFile(m.logPath(), []byte(record), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	next, cmd := m.Update(keyRunes("L"))
	m = next.(Model)
	if m.currentView != ViewLogs || cmd == nil {
		t.Fatalf("L should open the log view and read the log")
	}
	m = update(t, m, cmd())
	if view := m.View(); !strings.Contains(view, "album fetch failed") || !strings.Contains(view, "[poller]") {
		t.Fatalf("log view missing record:\n%s", view)
	}

	m = update(t, m, keyRunes("L"))
	if m.currentView != ViewAlbums {
		t.Fatalf("second L should return to albums, got %v", m.currentView)
	}
}

func TestModel_OfflineHeader(t *testing.T) {
	g := &fakeGallery{frames: map[string][]string{}}
	m := newTestModel(t, g)

	store := &state.Store{}
	store.Update(nil, errors.New("dial tcp 127.0.0.1:3001: connect: connection refused"))
	store.Update(nil, errors.New("dial tcp 127.0.0.1:3001: connect: connection refused"))
	m = update(t, m, snapshotMsg(store.Snapshot()))

	view := m.View()
	if !strings.Contains(view, "OFFLINE") || !strings.Contains(view, "Retrying") {
		t.Fatalf("offline header missing:\n%s", view)
	}
}

func TestModel_HelpOverlay(t *testing.T) {
	g := &fakeGallery{frames: map[string][]string{"vase": frameNames(3)}}
	m := newTestModel(t, g)

	m = update(t, m, keyRunes("?"))
	if !m.showHelp || !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Fatalf("? should show the help overlay")
	}
	m = update(t, m, keyRunes("x"))
	if m.showHelp {
		t.Fatalf("any key should close help")
	}
}
