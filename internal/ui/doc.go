// Package ui is the rotary terminal viewer, built on Bubble Tea.
//
// # Views
//
//   - Albums: the album list polled from the server, with j/k and enter
//   - Viewer: one open album, drawn as half-block cells
//   - Logs: the tail of the viewer's own log file
//
// # Viewer
//
// Opening an album starts a viewer.Session. The session owns all viewer
// state; the model only keeps its latest Snapshot, refreshed after every
// input and every change notification from Session.Changed. Rendering reads
// that snapshot:
//
//	header       album name, index+1 / N, play state, zoom, cadence
//	command bar  key hints for the current state
//	frame        rasterize() + halfBlocks(), or a placeholder
//	bottom bar   preload progress until ready, then the rotation bar
//
// # Mouse Mapping
//
// The frame area is a canvas of cols x rows*2 pixels. Terminal mouse events
// are converted into that space and fed to the session's gesture entry
// points:
//
//	left press    PointerDown (Alt at press, or the "a" latch, sets alt-drag)
//	motion        PointerMove while the button is down
//	release       PointerUp
//	wheel up/down Wheel(+1 / -1)
//
// The container width passed to the session is the frame width in cells, so
// dragging across the full frame scrubs through the whole rotation.
//
// # Themes
//
// Three palettes ship: Nightfox (default), Kanagawa and Slate. T cycles them
// and the choice is saved to the prefs file.
package ui
