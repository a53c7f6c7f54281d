package album

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrNotFound reports a missing album or image, including ids that would
// escape the albums root.
var ErrNotFound = errors.New("not found")

// MetadataFile is the per-album metadata file name.
const MetadataFile = "metadata.json"

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

// IsImage reports whether name has a frame file extension.
func IsImage(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// Store reads albums from a directory tree where every child directory is an
// album. Metadata is cached only while Watch is running.
type Store struct {
	root   string
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	watching bool
	cache    map[string]Metadata
}

// NewStore returns a store rooted at dir, which must be an existing directory.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve albums dir: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("albums dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("albums dir %s is not a directory", root)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		root:   root,
		logger: logger,
		now:    time.Now,
		cache:  make(map[string]Metadata),
	}, nil
}

// Root returns the absolute albums directory.
func (s *Store) Root() string {
	return s.root
}

// List returns every album sorted by id.
func (s *Store) List(ctx context.Context) ([]Album, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read albums dir: %w", err)
	}
	var ids []string
	for _, entry := range entries {
		if isAlbumDir(s.root, entry) {
			ids = append(ids, entry.Name())
		}
	}
	sort.Strings(ids)

	albums := make([]Album, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		meta, err := s.metadata(id)
		if err != nil {
			return nil, fmt.Errorf("album %s: %w", id, err)
		}
		albums = append(albums, Album{ID: id, Path: filepath.Join(s.root, id), Metadata: meta})
	}
	return albums, nil
}

// Get returns one album.
func (s *Store) Get(ctx context.Context, id string) (Album, error) {
	if err := ctx.Err(); err != nil {
		return Album{}, err
	}
	dir, err := s.albumDir(id)
	if err != nil {
		return Album{}, err
	}
	meta, err := s.metadata(id)
	if err != nil {
		return Album{}, fmt.Errorf("album %s: %w", id, err)
	}
	return Album{ID: id, Path: dir, Metadata: meta}, nil
}

// ImagePath resolves a regular file inside an album.
func (s *Store) ImagePath(id, name string) (string, error) {
	dir, err := s.albumDir(id)
	if err != nil {
		return "", err
	}
	if !safeName(name) {
		return "", ErrNotFound
	}
	path := filepath.Join(dir, name)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", ErrNotFound
	}
	return path, nil
}

// ImageInfo returns size, dimensions and EXIF fields of one frame.
func (s *Store) ImageInfo(ctx context.Context, id, name string) (ImageInfo, error) {
	if err := ctx.Err(); err != nil {
		return ImageInfo{}, err
	}
	path, err := s.ImagePath(id, name)
	if err != nil {
		return ImageInfo{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return ImageInfo{}, fmt.Errorf("stat image: %w", err)
	}
	fields, err := readExif(path)
	if err != nil {
		return ImageInfo{}, err
	}
	return ImageInfo{
		Filename:   name,
		Path:       path,
		Size:       info.Size(),
		Dimensions: dimensions(path, fields),
		Exif:       fields,
	}, nil
}

// Invalidate drops the cached metadata of one album, or of every album when
// id is empty.
func (s *Store) Invalidate(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		clear(s.cache)
		return
	}
	delete(s.cache, id)
}

func (s *Store) metadata(id string) (Metadata, error) {
	s.mu.Lock()
	if meta, ok := s.cache[id]; ok && s.watching {
		s.mu.Unlock()
		return cloneMetadata(meta), nil
	}
	s.mu.Unlock()

	meta, err := s.loadMetadata(id)
	if err != nil {
		return Metadata{}, err
	}

	s.mu.Lock()
	if s.watching {
		s.cache[id] = cloneMetadata(meta)
	}
	s.mu.Unlock()
	return meta, nil
}

// loadMetadata reads metadata.json, creating it when missing or unparseable
// and rewriting it when its image list no longer matches the directory.
func (s *Store) loadMetadata(id string) (Metadata, error) {
	dir := filepath.Join(s.root, id)
	metaPath := filepath.Join(dir, MetadataFile)

	images, err := listImages(dir)
	if err != nil {
		return Metadata{}, err
	}

	var meta Metadata
	data, err := os.ReadFile(metaPath)
	if err == nil {
		err = json.Unmarshal(data, &meta)
	}
	if err != nil {
		s.logger.Info("album: creating metadata", "album", id)
		return s.createMetadata(id, dir, metaPath, images)
	}

	if !slices.Equal(meta.Images, images) {
		meta.Images = images
		meta.UpdatedAt = s.timestamp()
		if err := writeMetadata(metaPath, meta); err != nil {
			return Metadata{}, err
		}
		s.logger.Info("album: image list updated", "album", id, "images", len(images))
	}
	return meta, nil
}

func (s *Store) createMetadata(id, dir, metaPath string, images []string) (Metadata, error) {
	now := s.timestamp()
	meta := Metadata{
		Name:        id,
		Description: "360° image set: " + id,
		Images:      images,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if len(images) > 0 {
		fields, err := readExif(filepath.Join(dir, images[0]))
		if err != nil {
			s.logger.Warn("album: exif extraction failed", "album", id, "image", images[0], "error", err)
		}
		meta.ShootingInfo = shootingInfo(fields)
	}
	if err := writeMetadata(metaPath, meta); err != nil {
		return Metadata{}, err
	}
	return meta, nil
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(timestampLayout)
}

func (s *Store) albumDir(id string) (string, error) {
	if !safeName(id) {
		return "", ErrNotFound
	}
	dir := filepath.Join(s.root, id)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", ErrNotFound
	}
	return dir, nil
}

func writeMetadata(path string, meta Metadata) error {
	if meta.Images == nil {
		meta.Images = []string{}
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// listImages returns the frame files of dir sorted by name.
func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read album dir: %w", err)
	}
	images := []string{}
	for _, entry := range entries {
		if entry.IsDir() || !IsImage(entry.Name()) {
			continue
		}
		images = append(images, entry.Name())
	}
	sort.Strings(images)
	return images, nil
}

func isAlbumDir(root string, entry os.DirEntry) bool {
	if strings.HasPrefix(entry.Name(), ".") {
		return false
	}
	if entry.IsDir() {
		return true
	}
	// Follow symlinked album directories.
	info, err := os.Stat(filepath.Join(root, entry.Name()))
	return err == nil && info.IsDir()
}

func safeName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}

func cloneMetadata(meta Metadata) Metadata {
	out := meta
	out.Images = slices.Clone(meta.Images)
	if meta.ShootingInfo != nil {
		info := *meta.ShootingInfo
		if info.Settings != nil {
			settings := *info.Settings
			info.Settings = &settings
		}
		out.ShootingInfo = &info
	}
	return out
}
