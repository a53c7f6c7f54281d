package viewer

import (
	"errors"
	"math"
)

// Zoom limits shared by every zoom path (pinch, wheel, keys, SetScale).
const (
	MinScale = 0.5
	MaxScale = 3.0
)

// ErrEmptyFrameSet is returned when a viewer is opened on an album with no frames.
var ErrEmptyFrameSet = errors.New("album has no frames")

// DragKind identifies what an in-progress drag is doing.
type DragKind int

const (
	DragNone DragKind = iota
	DragPan
	DragScrub
)

func (k DragKind) String() string {
	switch k {
	case DragPan:
		return "pan"
	case DragScrub:
		return "scrub"
	default:
		return "none"
	}
}

// Offset is the pan translation applied to the zoomed frame.
type Offset struct {
	X float64
	Y float64
}

// State is the single authoritative viewer state.
type State struct {
	FrameIndex int
	Scale      float64
	Offset     Offset
	Playing    bool
	Drag       DragKind
	AltHeld    bool
}

// Zoomed reports whether the frame is magnified past its fitted size.
func (s State) Zoomed() bool {
	return s.Scale > 1
}

func initialState() State {
	return State{Scale: 1}
}

// Effect is a proposed state transition. Effects are produced by the gesture
// interpreter, the autoplay driver and the presentation layer, and applied by
// Machine.Apply.
type Effect interface {
	apply(m *Machine)
}

// SetFrame jumps to an absolute frame index, wrapping modulo the frame count.
type SetFrame struct{ Index int }

// StepFrame moves the frame index by Delta, wrapping modulo the frame count.
type StepFrame struct{ Delta int }

// SetScale replaces the zoom scale; the value is clamped.
type SetScale struct{ Scale float64 }

// SetOffset replaces the pan offset. Ignored while the frame is not zoomed.
type SetOffset struct{ X, Y float64 }

// SetPlaying starts or stops autoplay.
type SetPlaying struct{ Playing bool }

// BeginDrag marks a drag of the given kind as in progress.
type BeginDrag struct{ Kind DragKind }

// EndDrag clears the drag flag.
type EndDrag struct{}

// ResetZoom returns to scale 1 with no offset.
type ResetZoom struct{}

// SetAltHeld records the alt-drag modifier state.
type SetAltHeld struct{ Held bool }

func (e SetFrame) apply(m *Machine) {
	m.state.FrameIndex = wrapIndex(e.Index, m.frames)
}

func (e StepFrame) apply(m *Machine) {
	m.state.FrameIndex = wrapIndex(m.state.FrameIndex+e.Delta, m.frames)
}

func (e SetScale) apply(m *Machine) {
	m.setScale(e.Scale)
}

func (e SetPlaying) apply(m *Machine) {
	m.state.Playing = e.Playing
}

func (e SetAltHeld) apply(m *Machine) {
	m.state.AltHeld = e.Held
}

func (EndDrag) apply(m *Machine) {
	m.state.Drag = DragNone
}

func (ResetZoom) apply(m *Machine) {
	m.setScale(1)
}

func (e SetOffset) apply(m *Machine) {
	if !m.state.Zoomed() {
		m.state.Offset = Offset{}
		return
	}
	m.state.Offset = Offset{X: e.X, Y: e.Y}
}

func (e BeginDrag) apply(m *Machine) {
	if !m.ready {
		return
	}
	m.state.Drag = e.Kind
}

// Machine applies effects to the viewer state while enforcing its invariants.
// It is not safe for concurrent use; Session serializes access.
type Machine struct {
	frames int
	ready  bool
	state  State
}

// NewMachine returns a machine in the initial state for a frame set of size n.
func NewMachine(n int) (*Machine, error) {
	if n <= 0 {
		return nil, ErrEmptyFrameSet
	}
	return &Machine{frames: n, state: initialState()}, nil
}

// Apply applies one effect and returns the resulting state.
func (m *Machine) Apply(e Effect) State {
	if e != nil {
		e.apply(m)
	}
	return m.state
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Frames returns the frame count the machine wraps against.
func (m *Machine) Frames() int {
	return m.frames
}

// Ready reports whether preloading has completed (or was skipped).
func (m *Machine) Ready() bool {
	return m.ready
}

// SetReady toggles the preload gate. Losing readiness also stops playback and
// any drag, since neither is allowed before frames are available.
func (m *Machine) SetReady(ready bool) {
	m.ready = ready
	if !ready {
		m.state.Playing = false
		m.state.Drag = DragNone
	}
}

func (m *Machine) setScale(scale float64) {
	m.state.Scale = clampScale(scale)
	if m.state.Scale <= 1 {
		m.state.Offset = Offset{}
	}
}

func clampScale(scale float64) float64 {
	if math.IsNaN(scale) {
		return 1
	}
	return math.Max(MinScale, math.Min(MaxScale, scale))
}

func wrapIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
