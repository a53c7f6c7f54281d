package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the settings shared by the rotary viewer and server.
type Config struct {
	APIBind            string
	AlbumsDir          string
	Listen             string
	LogPath            string
	Autoplay           string
	AutoplayInterval   time.Duration
	PreloadConcurrency int
	ImageRatePerSec    float64
	Mode               string
}

// Autoplay cadences.
const (
	AutoplayEnhanced = "enhanced"
	AutoplayLegacy   = "legacy"
)

// Viewer modes.
const (
	ModeEnhanced = "enhanced"
	ModeBasic    = "basic"
)

const (
	defaultConfigPath         = "~/.config/rotary/config.toml"
	defaultAPIBind            = "127.0.0.1:3001"
	defaultListen             = "127.0.0.1:3001"
	defaultAlbumsDir          = "./albums"
	defaultLogPath            = "~/.local/share/rotary/rotary.log"
	defaultPreloadConcurrency = 6
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIBind:            defaultAPIBind,
		AlbumsDir:          mustExpand(defaultAlbumsDir),
		Listen:             defaultListen,
		LogPath:            mustExpand(defaultLogPath),
		Autoplay:           AutoplayEnhanced,
		PreloadConcurrency: defaultPreloadConcurrency,
		Mode:               ModeEnhanced,
	}
}

// Load locates and parses the rotary config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIBind            string  `toml:"api_bind"`
		AlbumsDir          string  `toml:"albums_dir"`
		Listen             string  `toml:"listen"`
		LogPath            string  `toml:"log_path"`
		Autoplay           string  `toml:"autoplay"`
		AutoplayIntervalMS int     `toml:"autoplay_interval_ms"`
		PreloadConcurrency int     `toml:"preload_concurrency"`
		ImageRatePerSec    float64 `toml:"image_rate_per_sec"`
		Mode               string  `toml:"mode"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIBind); v != "" {
		cfg.APIBind = v
	}
	if v := strings.TrimSpace(raw.Listen); v != "" {
		cfg.Listen = v
	}
	if v := strings.TrimSpace(raw.AlbumsDir); v != "" {
		cfg.AlbumsDir = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogPath); v != "" {
		cfg.LogPath = mustExpand(v)
	}
	if v := strings.ToLower(strings.TrimSpace(raw.Autoplay)); v != "" {
		cfg.Autoplay = v
	}
	if v := strings.ToLower(strings.TrimSpace(raw.Mode)); v != "" {
		cfg.Mode = v
	}
	if raw.AutoplayIntervalMS > 0 {
		cfg.AutoplayInterval = time.Duration(raw.AutoplayIntervalMS) * time.Millisecond
	}
	if raw.PreloadConcurrency > 0 {
		cfg.PreloadConcurrency = raw.PreloadConcurrency
	}
	cfg.ImageRatePerSec = raw.ImageRatePerSec

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values no component can act on.
func (c Config) Validate() error {
	switch c.Autoplay {
	case AutoplayEnhanced, AutoplayLegacy:
	default:
		return fmt.Errorf("invalid autoplay %q (want %q or %q)", c.Autoplay, AutoplayEnhanced, AutoplayLegacy)
	}
	switch c.Mode {
	case ModeEnhanced, ModeBasic:
	default:
		return fmt.Errorf("invalid mode %q (want %q or %q)", c.Mode, ModeEnhanced, ModeBasic)
	}
	if c.ImageRatePerSec < 0 {
		return fmt.Errorf("image_rate_per_sec must not be negative")
	}
	return nil
}

// LogDir returns the directory holding the log file.
func (c Config) LogDir() string {
	if strings.TrimSpace(c.LogPath) == "" {
		return filepath.Dir(mustExpand(defaultLogPath))
	}
	return filepath.Dir(c.LogPath)
}

// ExpandPath resolves a user supplied path the same way config values are.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
