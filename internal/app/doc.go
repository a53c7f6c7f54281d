// Package app is the composition root for the rotary binaries.
//
// # Viewer
//
// Run wires the viewer together:
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()        Read ~/.config/rotary/config.toml
//	       ├─────> prefs.Load()         Theme and autoplay preference
//	       ├─────> openLogger()         slog text records to log_path
//	       ├─────> gallery.NewClient()  HTTP client for the album server
//	       ├─────> refresh()            First album list
//	       ├─────> StartPoller()        Background album polling
//	       └─────> ui.Run()             Start TUI (blocks)
//
// The autoplay cadence resolves config < prefs < the -legacy flag.
//
// # Polling Behavior
//
// The poller refreshes the album list every interval (default 2 seconds).
// Each consecutive failure doubles the wait, capped at 30 seconds, and the
// first success resets it. Failures are logged and recorded in the store;
// they never stop the UI.
//
// # Server
//
// Serve loads the same config, opens the album store, starts the fsnotify
// watcher that invalidates cached metadata, and serves the HTTP API until the
// context is cancelled. The server logs to stderr.
package app
