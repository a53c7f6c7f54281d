package viewer

import "math"

// Gesture tuning constants.
const (
	// SwipeThreshold is the horizontal travel a touch release needs before it
	// counts as a swipe.
	SwipeThreshold = 50.0

	// WheelZoomFactor is the per-tick multiplier for wheel and key zoom.
	WheelZoomFactor = 1.1

	// maxDragProgress caps the scrub progress indicator.
	maxDragProgress = 0.5
)

// Mode selects which viewer feature set the interpreter implements.
type Mode int

const (
	// ModeEnhanced drags unzoomed frames to scrub through the rotation.
	ModeEnhanced Mode = iota
	// ModeBasic is the swipe-only viewer: unzoomed drags do nothing until
	// release, where a horizontal touch swipe steps one frame.
	ModeBasic
)

// ParseMode maps a config value onto a Mode, defaulting to ModeEnhanced.
func ParseMode(value string) Mode {
	if value == "basic" {
		return ModeBasic
	}
	return ModeEnhanced
}

// Source distinguishes mouse pointers from touch points. Only touch releases
// fall back to swipe detection.
type Source int

const (
	SourceMouse Source = iota
	SourceTouch
)

// Point is a pointer position in container coordinates.
type Point struct {
	X float64
	Y float64
}

// Gesture is the classification assigned to a pointer sequence when it starts.
type Gesture int

const (
	GestureNone Gesture = iota
	GesturePan
	GestureScrub
	GesturePinch
)

func (g Gesture) String() string {
	switch g {
	case GesturePan:
		return "pan"
	case GestureScrub:
		return "scrub"
	case GesturePinch:
		return "pinch"
	default:
		return "none"
	}
}

// Key is a logical key press, independent of any terminal or browser key API.
type Key int

const (
	KeyLeft Key = iota
	KeyRight
	KeySpace
	KeyReset
	KeyZoomIn
	KeyZoomOut
	KeyZoomReset
	KeyEscape
)

type gestureSession struct {
	source            Source
	kind              Gesture
	start             Point
	last              Point
	startFrame        int
	lastPinchDistance float64
	framesDragged     int
}

// Interpreter turns raw pointer, wheel and key input into effects. It holds the
// gesture session of the pointer sequence in progress and reads, but never
// mutates, the viewer snapshot it is handed.
type Interpreter struct {
	mode           Mode
	containerWidth float64
	session        *gestureSession
}

// NewInterpreter returns an interpreter for the given feature mode.
func NewInterpreter(mode Mode) *Interpreter {
	return &Interpreter{mode: mode}
}

// SetContainerWidth records the width scrubbing maps across.
func (g *Interpreter) SetContainerWidth(width float64) {
	g.containerWidth = width
}

// Active returns the classification of the gesture in progress.
func (g *Interpreter) Active() (Gesture, bool) {
	if g.session == nil {
		return GestureNone, false
	}
	return g.session.kind, true
}

// DragProgress is the scrub indicator: frames dragged over the frame count,
// capped at one half.
func (g *Interpreter) DragProgress(frames int) float64 {
	if g.session == nil || g.session.kind != GestureScrub || frames <= 0 {
		return 0
	}
	return math.Min(math.Abs(float64(g.session.framesDragged))/float64(frames), maxDragProgress)
}

// Classify decides what a pointer sequence starting with the given number of
// points will do. The result holds for the whole sequence.
func (g *Interpreter) Classify(snap Snapshot, points int) Gesture {
	switch {
	case points >= 2:
		return GesturePinch
	case points < 1:
		return GestureNone
	case !snap.Ready:
		return GestureNone
	case snap.Scale > 1 && !snap.AltHeld:
		return GesturePan
	case g.mode == ModeEnhanced:
		return GestureScrub
	default:
		return GestureNone
	}
}

// Down starts a new gesture session, implicitly ending any previous one.
func (g *Interpreter) Down(snap Snapshot, src Source, points ...Point) []Effect {
	if len(points) == 0 {
		return nil
	}
	kind := g.Classify(snap, len(points))
	sess := &gestureSession{
		source:     src,
		kind:       kind,
		start:      points[0],
		last:       points[0],
		startFrame: snap.FrameIndex,
	}
	g.session = sess

	switch kind {
	case GesturePan:
		return []Effect{BeginDrag{Kind: DragPan}}
	case GestureScrub:
		return []Effect{BeginDrag{Kind: DragScrub}}
	case GesturePinch:
		sess.lastPinchDistance = distance(points[0], points[1])
	}
	if snap.Drag != DragNone {
		return []Effect{EndDrag{}}
	}
	return nil
}

// Move feeds a pointer move into the current session.
func (g *Interpreter) Move(snap Snapshot, points ...Point) []Effect {
	sess := g.session
	if sess == nil || len(points) == 0 {
		return nil
	}
	p := points[0]

	switch sess.kind {
	case GesturePinch:
		if len(points) < 2 {
			return nil
		}
		d := distance(points[0], points[1])
		var effects []Effect
		if sess.lastPinchDistance > 0 {
			effects = append(effects, SetScale{Scale: snap.Scale * (d / sess.lastPinchDistance)})
		}
		sess.lastPinchDistance = d
		return effects

	case GesturePan:
		dx, dy := p.X-sess.last.X, p.Y-sess.last.Y
		sess.last = p
		return []Effect{SetOffset{X: snap.Offset.X + dx, Y: snap.Offset.Y + dy}}

	case GestureScrub:
		sess.last = p
		target, dragged, ok := ScrubTarget(g.containerWidth, snap.Frames, sess.start.X, p.X, sess.startFrame)
		if !ok {
			return nil
		}
		sess.framesDragged = dragged
		return []Effect{SetFrame{Index: target}}
	}

	sess.last = p
	return nil
}

// Up ends the pointer sequence once no points remain. remaining is the number
// of points still down after this release.
func (g *Interpreter) Up(snap Snapshot, p Point, remaining int) []Effect {
	sess := g.session
	if sess == nil || remaining > 0 {
		return nil
	}
	g.session = nil

	switch sess.kind {
	case GesturePan, GestureScrub:
		return []Effect{EndDrag{}}
	case GestureNone:
		if sess.source != SourceTouch {
			return nil
		}
		if step := SwipeStep(p.X-sess.start.X, p.Y-sess.start.Y, snap.Scale); step != 0 {
			return []Effect{StepFrame{Delta: step}}
		}
	}
	return nil
}

// Cancel drops the current session, as when the pointer leaves the container.
func (g *Interpreter) Cancel(snap Snapshot) []Effect {
	if g.session == nil {
		return nil
	}
	g.session = nil
	if snap.Drag != DragNone {
		return []Effect{EndDrag{}}
	}
	return nil
}

// Wheel zooms in for positive ticks and out for negative ones.
func (g *Interpreter) Wheel(snap Snapshot, ticks int) []Effect {
	if ticks == 0 {
		return nil
	}
	return []Effect{SetScale{Scale: WheelScale(snap.Scale, ticks)}}
}

// Key maps a logical key onto effects. KeyEscape never produces effects; the
// session handles it as a preload skip.
func (g *Interpreter) Key(snap Snapshot, k Key) []Effect {
	switch k {
	case KeyLeft:
		return []Effect{StepFrame{Delta: -1}}
	case KeyRight:
		return []Effect{StepFrame{Delta: 1}}
	case KeySpace:
		if !snap.Ready {
			return nil
		}
		return []Effect{SetPlaying{Playing: !snap.Playing}}
	case KeyReset, KeyZoomReset:
		return []Effect{ResetZoom{}}
	case KeyZoomIn:
		return []Effect{SetScale{Scale: WheelScale(snap.Scale, 1)}}
	case KeyZoomOut:
		return []Effect{SetScale{Scale: WheelScale(snap.Scale, -1)}}
	}
	return nil
}

// ScrubTarget maps horizontal drag travel onto a frame index. It returns the
// target index, the whole frames dragged, and false when the container width
// or frame count cannot define a mapping.
func ScrubTarget(containerWidth float64, frames int, startX, x float64, startFrame int) (int, int, bool) {
	if containerWidth <= 0 || frames <= 0 {
		return 0, 0, false
	}
	pixelsPerFrame := containerWidth / float64(frames)
	dragged := int(math.Floor((x-startX)/pixelsPerFrame + 0.5))
	return wrapIndex(startFrame-dragged, frames), dragged, true
}

// SwipeStep returns -1, +1 or 0 for a touch release with the given travel.
// Rightward swipes go back a frame.
func SwipeStep(dx, dy, scale float64) int {
	if scale > 1 {
		return 0
	}
	if math.Abs(dx) <= SwipeThreshold || math.Abs(dx) <= math.Abs(dy) {
		return 0
	}
	if dx > 0 {
		return -1
	}
	return 1
}

// WheelScale applies ticks of wheel zoom to scale, clamped.
func WheelScale(scale float64, ticks int) float64 {
	factor := math.Pow(WheelZoomFactor, math.Abs(float64(ticks)))
	if ticks < 0 {
		return clampScale(scale / factor)
	}
	return clampScale(scale * factor)
}

func distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}
