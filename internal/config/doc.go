// Package config handles loading and parsing the rotary configuration file.
//
// # Overview
//
// Both binaries read the same TOML file. The viewer (rotary) uses the API
// endpoint, viewer tuning and log location; the server (rotaryd) uses the
// albums directory and listen address.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/rotary/config.toml (default)
//  3. If the config file doesn't exist, fall back to hardcoded defaults
//  4. If the file exists but fields are missing/empty, use defaults
//
// # Default Values
//
//   - Config file: ~/.config/rotary/config.toml
//   - API endpoint: 127.0.0.1:3001
//   - Listen address: 127.0.0.1:3001
//   - Albums directory: ./albums (resolved against the working directory)
//   - Log file: ~/.local/share/rotary/rotary.log
//   - Autoplay cadence: enhanced (100ms per frame)
//   - Preload concurrency: 6
//   - Image rate: unlimited
//   - Mode: enhanced
//
// # TOML Format
//
//	api_bind = "127.0.0.1:3001"
//	albums_dir = "~/photos/rotary"
//	listen = "0.0.0.0:3001"
//	log_path = "~/.local/share/rotary/rotary.log"
//	autoplay = "legacy"          # or "enhanced"
//	autoplay_interval_ms = 250   # overrides the cadence when > 0
//	preload_concurrency = 6
//	image_rate_per_sec = 20      # 0 disables pacing
//	mode = "basic"               # or "enhanced"
//
// Every field is optional. Tilde expansion is performed for albums_dir and
// log_path.
//
// # Error Handling
//
// Load returns errors for:
//   - Path expansion failures (e.g., cannot determine home directory)
//   - File read errors (except os.ErrNotExist, which triggers defaults)
//   - TOML parsing errors
//   - Unknown autoplay or mode values and a negative image rate
//
// Missing config files are NOT an error - defaults are used instead.
package config
