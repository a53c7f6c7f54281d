package gallery

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/five82/rotary/internal/album"
)

func writeEnvelope(w http.ResponseWriter, status int, data any, errMsg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": status < 400,
		"data":    data,
		"error":   errMsg,
	})
}

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" {
		t.Fatalf("scheme = %q, want http", u.Scheme)
	}
	if u.Host != defaultAPIBind {
		t.Fatalf("host = %q, want %q", u.Host, defaultAPIBind)
	}

	u, err = parseBaseURL("https://gallery.example.com:8443/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

func TestClient_FetchesAlbums(t *testing.T) {
	t.Parallel()

	var gotUserAgent string
	vase := album.Album{ID: "vase", Metadata: album.Metadata{Name: "Vase", Images: []string{"001.jpg", "002.jpg"}}}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/api/albums":
			writeEnvelope(w, http.StatusOK, []album.Album{vase}, "")
		case "/api/albums/vase":
			writeEnvelope(w, http.StatusOK, vase, "")
		case "/api/albums/vase/images/001.jpg/info":
			writeEnvelope(w, http.StatusOK, album.ImageInfo{Filename: "001.jpg", Size: 2048}, "")
		default:
			writeEnvelope(w, http.StatusNotFound, nil, "Album not found")
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	albums, err := c.FetchAlbums(ctx)
	if err != nil {
		t.Fatalf("FetchAlbums returned error: %v", err)
	}
	if len(albums) != 1 || albums[0].ID != "vase" {
		t.Fatalf("FetchAlbums = %#v, want vase", albums)
	}

	frames, err := c.FrameList(ctx, "vase")
	if err != nil {
		t.Fatalf("FrameList returned error: %v", err)
	}
	if len(frames) != 2 || frames[0] != "001.jpg" {
		t.Fatalf("FrameList = %v", frames)
	}

	info, err := c.FetchImageInfo(ctx, "vase", "001.jpg")
	if err != nil {
		t.Fatalf("FetchImageInfo returned error: %v", err)
	}
	if info.Size != 2048 {
		t.Fatalf("Size = %d, want 2048", info.Size)
	}

	_, err = c.FetchAlbum(ctx, "missing")
	if err == nil || !strings.Contains(err.Error(), "returned status 404: Album not found") {
		t.Fatalf("FetchAlbum error = %v, want server message", err)
	}
	if _, err := c.FetchAlbum(ctx, "  "); err == nil {
		t.Fatalf("FetchAlbum with empty id returned nil error")
	}

	if !strings.HasPrefix(gotUserAgent, "rotary/") {
		t.Fatalf("User-Agent = %q, want rotary/*", gotUserAgent)
	}
}

func TestClient_DecodeErrorsAndFailedEnvelope(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/albums":
			_, _ = w.Write([]byte("{not-json"))
		case "/api/albums/vase":
			_, _ = w.Write([]byte(`{"success":false,"error":"Failed to fetch album"}`))
		default:
			http.Error(w, "nope", http.StatusInternalServerError)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := c.FetchAlbums(context.Background()); err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("FetchAlbums error = %v, want decode response error", err)
	}
	if _, err := c.FetchAlbum(context.Background(), "vase"); err == nil || !strings.Contains(err.Error(), "Failed to fetch album") {
		t.Fatalf("FetchAlbum error = %v, want envelope error", err)
	}
	if _, err := c.FetchAlbum(context.Background(), "other"); err == nil || !strings.Contains(err.Error(), "returned status 500") {
		t.Fatalf("FetchAlbum error = %v, want status 500 error", err)
	}
}

func TestClient_ResolverURLs(t *testing.T) {
	c, err := NewClient("127.0.0.1:3001")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	r := c.Resolver("blue vase")
	if got, want := r.Primary("001.jpg"), "http://127.0.0.1:3001/api/albums/blue%20vase/images/001.jpg"; got != want {
		t.Fatalf("Primary = %q, want %q", got, want)
	}
	if got, want := r.Fallback("001.jpg"), "http://127.0.0.1:3001/static/albums/blue%20vase/001.jpg"; got != want {
		t.Fatalf("Fallback = %q, want %q", got, want)
	}
}

func TestClient_LoadImage(t *testing.T) {
	t.Parallel()

	src := image.NewRGBA(image.Rect(0, 0, 4, 2))
	src.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/frame.png" {
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(buf.Bytes())
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	img, err := c.LoadImage(context.Background(), server.URL+"/frame.png")
	if err != nil {
		t.Fatalf("LoadImage returned error: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 2 {
		t.Fatalf("bounds = %v, want 4x2", b)
	}
	if r, _, _, _ := img.At(0, 0).RGBA(); r>>8 != 255 {
		t.Fatalf("pixel (0,0) red = %d, want 255", r>>8)
	}

	if _, err := c.LoadImage(context.Background(), server.URL+"/missing.png"); err == nil || !strings.Contains(err.Error(), "returned status 404") {
		t.Fatalf("LoadImage error = %v, want status 404", err)
	}
}

func TestClient_ImageRateLimit(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	_ = png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1)))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(buf.Bytes())
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, WithImageRate(0.01))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := c.LoadImage(context.Background(), server.URL+"/a.png"); err != nil {
		t.Fatalf("first LoadImage returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.LoadImage(ctx, server.URL+"/b.png"); err == nil || !strings.Contains(err.Error(), "wait for image slot") {
		t.Fatalf("second LoadImage error = %v, want rate limit wait error", err)
	}
}
