package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/five82/rotary/internal/album"
)

// Albums is the album store the API reads from. *album.Store implements it.
type Albums interface {
	List(ctx context.Context) ([]album.Album, error)
	Get(ctx context.Context, id string) (album.Album, error)
	ImageInfo(ctx context.Context, id, name string) (album.ImageInfo, error)
	ImagePath(id, name string) (string, error)
}

var _ Albums = (*album.Store)(nil)

// Response is the JSON envelope every API route answers with.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

const (
	serviceName    = "rotary-gallery-server"
	serviceVersion = "1.0.0"
	imageCache     = "public, max-age=86400"
)

// Server exposes an album store over HTTP.
type Server struct {
	albums Albums
	logger *slog.Logger
	now    func() time.Time
	mux    *http.ServeMux
}

// New builds the route table for albums.
func New(albums Albums, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		albums: albums,
		logger: logger,
		now:    time.Now,
		mux:    http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /api/albums", s.handleListAlbums)
	s.mux.HandleFunc("GET /api/albums/{id}", s.handleGetAlbum)
	s.mux.HandleFunc("GET /api/albums/{id}/images/{name}/info", s.handleImageInfo)
	s.mux.HandleFunc("GET /api/albums/{id}/images/{name}", s.handleImage)
	s.mux.HandleFunc("GET /static/albums/{id}/{name}", s.handleStatic)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("/", s.handleNotFound)
	return s
}

// Handler returns the full middleware chain.
func (s *Server) Handler() http.Handler {
	return s.recoverer(s.requestLogger(cors(s.mux)))
}

// ListenAndServe serves h on addr until ctx is cancelled, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server: listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server: stopped")
	return nil
}

func (s *Server) handleListAlbums(w http.ResponseWriter, r *http.Request) {
	albums, err := s.albums.List(r.Context())
	if err != nil {
		s.logger.Error("server: list albums failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, Response{Error: "Failed to fetch albums"})
		return
	}
	if albums == nil {
		albums = []album.Album{}
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: albums})
}

func (s *Server) handleGetAlbum(w http.ResponseWriter, r *http.Request) {
	a, err := s.albums.Get(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, album.ErrNotFound):
		writeJSON(w, http.StatusNotFound, Response{Error: "Album not found"})
	case err != nil:
		s.logger.Error("server: get album failed", "album", r.PathValue("id"), "error", err)
		writeJSON(w, http.StatusInternalServerError, Response{Error: "Failed to fetch album"})
	default:
		writeJSON(w, http.StatusOK, Response{Success: true, Data: a})
	}
}

func (s *Server) handleImageInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.albums.ImageInfo(r.Context(), r.PathValue("id"), r.PathValue("name"))
	switch {
	case errors.Is(err, album.ErrNotFound):
		writeJSON(w, http.StatusNotFound, Response{Error: "Image not found"})
	case err != nil:
		s.logger.Error("server: image info failed", "album", r.PathValue("id"), "image", r.PathValue("name"), "error", err)
		writeJSON(w, http.StatusInternalServerError, Response{Error: "Failed to fetch image info"})
	default:
		writeJSON(w, http.StatusOK, Response{Success: true, Data: info})
	}
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	path, err := s.albums.ImagePath(r.PathValue("id"), r.PathValue("name"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, Response{Error: "Image not found"})
		return
	}
	w.Header().Set("Cache-Control", imageCache)
	if err := serveFile(w, r, path); err != nil {
		s.logger.Error("server: serve image failed", "path", path, "error", err)
		w.Header().Del("Cache-Control")
		writeJSON(w, http.StatusNotFound, Response{Error: "Image not found"})
	}
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	path, err := s.albums.ImagePath(r.PathValue("id"), r.PathValue("name"))
	if err != nil {
		s.handleNotFound(w, r)
		return
	}
	if err := serveFile(w, r, path); err != nil {
		s.handleNotFound(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		"service":   serviceName,
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Rotary Gallery Server",
		"version": serviceVersion,
		"endpoints": map[string]string{
			"albums": "/api/albums",
			"health": "/health",
			"static": "/static/albums",
		},
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, Response{
		Error:   "Not found",
		Message: fmt.Sprintf("Route %s not found", r.URL.RequestURI()),
	})
}

// serveFile streams path with a content type derived from its extension.
func serveFile(w http.ResponseWriter, r *http.Request, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
