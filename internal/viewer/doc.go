// Package viewer implements the input and state engine of the rotary viewer.
//
// # Overview
//
// A rotary album is an ordered set of still frames of one object, shot while
// it turns. The viewer lets the user spin the object by dragging, zoom by
// pinching or scrolling, step with the keyboard, or let it auto-play. This
// package turns those overlapping inputs into one coherent state: the current
// frame index, the zoom scale, and the pan offset.
//
// # Components
//
//   - state.go: Machine, the owner of State, and the Effect values it applies
//   - gesture.go: Interpreter, which classifies pointer, wheel and key input
//   - preload.go: Preloader and Task, background loading with fallback URLs
//   - autoplay.go: Driver, the single ticker behind playback
//   - session.go: Session, which composes the above for one open album
//
// # Data Flow
//
//	 Preloader ──(progress, ready)──┐
//	                                ▼
//	 pointer/wheel/key ─► Interpreter ─► []Effect ─┐
//	                                               ├─► Session (mutex) ─► Machine.Apply ─► Snapshot
//	 Driver tick ──────────► StepFrame{+1} ────────┘
//
// The presentation layer reads Session.Snapshot and waits on Session.Changed;
// it never touches State directly.
//
// # Invariants
//
//   - FrameIndex always lies in [0, N); every step wraps modulo N
//   - Scale always lies in [MinScale, MaxScale]
//   - Offset is {0,0} whenever Scale <= 1
//   - Drag is none, pan or scrub, never two at once
//   - BeginDrag and the play toggle do nothing until preloading is ready
//
// # Gesture Classification
//
// Each pointer sequence is classified once, when it starts:
//
//	two or more points              → pinch
//	zoomed and no alt-drag modifier → pan
//	enhanced mode                   → scrub
//	otherwise                       → none (touch release may swipe)
//
// Scrubbing maps drag distance onto frames with containerWidth/N pixels per
// frame, so one full container width spins the object once.
//
// # Concurrency
//
// Image loads run on up to PreloadConcurrency goroutines. Their results are
// folded into the entry table by one collector goroutine, so progress counts
// are exact regardless of completion order. All state mutations go through the
// session mutex in call order. Close cancels preloading, stops the autoplay
// goroutine, and makes every later call a no-op.
package viewer
