package viewer

import (
	"errors"
	"math"
	"testing"
)

func newReadyMachine(t *testing.T, n int) *Machine {
	t.Helper()
	m, err := NewMachine(n)
	if err != nil {
		t.Fatalf("NewMachine(%d) returned error: %v", n, err)
	}
	m.SetReady(true)
	return m
}

func TestNewMachine_EmptyFrameSetFails(t *testing.T) {
	_, err := NewMachine(0)
	if !errors.Is(err, ErrEmptyFrameSet) {
		t.Fatalf("NewMachine(0) error = %v, want ErrEmptyFrameSet", err)
	}
}

func TestNewMachine_InitialState(t *testing.T) {
	m, err := NewMachine(3)
	if err != nil {
		t.Fatalf("NewMachine returned error: %v", err)
	}
	want := State{FrameIndex: 0, Scale: 1, Offset: Offset{}, Playing: false, Drag: DragNone, AltHeld: false}
	if got := m.State(); got != want {
		t.Fatalf("initial state = %#v, want %#v", got, want)
	}
	if m.Ready() {
		t.Fatalf("Ready() = true, want false before preload")
	}
}

func TestStepFrame_WrapsAroundClosure(t *testing.T) {
	for n := 1; n <= 12; n++ {
		for start := 0; start < n; start++ {
			m := newReadyMachine(t, n)
			m.Apply(SetFrame{Index: start})
			for i := 0; i < n; i++ {
				m.Apply(StepFrame{Delta: 1})
			}
			if got := m.State().FrameIndex; got != start {
				t.Fatalf("n=%d start=%d: after %d steps index = %d, want %d", n, start, n, got, start)
			}
		}
	}
}

func TestStepFrame_Backwards(t *testing.T) {
	m := newReadyMachine(t, 5)
	if got := m.Apply(StepFrame{Delta: -1}).FrameIndex; got != 4 {
		t.Fatalf("step -1 from 0 = %d, want 4", got)
	}
	if got := m.Apply(StepFrame{Delta: -7}).FrameIndex; got != 2 {
		t.Fatalf("step -7 from 4 = %d, want 2", got)
	}
}

func TestSetFrame_NormalizesOutOfRange(t *testing.T) {
	cases := []struct {
		index int
		want  int
	}{
		{0, 0}, {8, 8}, {9, 0}, {20, 2}, {-1, 8}, {-10, 8}, {-18, 0},
	}
	for _, tc := range cases {
		m := newReadyMachine(t, 9)
		if got := m.Apply(SetFrame{Index: tc.index}).FrameIndex; got != tc.want {
			t.Fatalf("SetFrame(%d) = %d, want %d", tc.index, got, tc.want)
		}
	}
}

func TestSetScale_ClampsAndResetsOffset(t *testing.T) {
	cases := []struct {
		name  string
		scale float64
		want  float64
	}{
		{"tiny", 0.01, MinScale},
		{"negative", -4, MinScale},
		{"huge", 1e9, MaxScale},
		{"infinite", math.Inf(1), MaxScale},
		{"nan", math.NaN(), 1},
		{"inside", 2.25, 2.25},
		{"exact one", 1, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := newReadyMachine(t, 4)
			m.Apply(SetScale{Scale: 2})
			m.Apply(SetOffset{X: 30, Y: -12})
			st := m.Apply(SetScale{Scale: tc.scale})
			if st.Scale != tc.want {
				t.Fatalf("scale = %v, want %v", st.Scale, tc.want)
			}
			if st.Scale < MinScale || st.Scale > MaxScale {
				t.Fatalf("scale %v outside [%v,%v]", st.Scale, MinScale, MaxScale)
			}
			if st.Scale <= 1 && st.Offset != (Offset{}) {
				t.Fatalf("offset = %#v, want zero at scale %v", st.Offset, st.Scale)
			}
			if st.Scale > 1 && st.Offset != (Offset{X: 30, Y: -12}) {
				t.Fatalf("offset = %#v, want preserved at scale %v", st.Offset, st.Scale)
			}
		})
	}
}

func TestSetOffset_IgnoredWhenNotZoomed(t *testing.T) {
	m := newReadyMachine(t, 2)
	if st := m.Apply(SetOffset{X: 5, Y: 5}); st.Offset != (Offset{}) {
		t.Fatalf("offset = %#v, want zero while unzoomed", st.Offset)
	}
}

func TestResetZoom(t *testing.T) {
	m := newReadyMachine(t, 2)
	m.Apply(SetScale{Scale: 2.5})
	m.Apply(SetOffset{X: 1, Y: 2})
	st := m.Apply(ResetZoom{})
	if st.Scale != 1 || st.Offset != (Offset{}) {
		t.Fatalf("after reset = %#v, want scale 1 and zero offset", st)
	}
}

func TestBeginDrag_RejectedUntilReady(t *testing.T) {
	m, err := NewMachine(3)
	if err != nil {
		t.Fatalf("NewMachine returned error: %v", err)
	}
	if st := m.Apply(BeginDrag{Kind: DragScrub}); st.Drag != DragNone {
		t.Fatalf("drag = %v before ready, want none", st.Drag)
	}
	m.SetReady(true)
	if st := m.Apply(BeginDrag{Kind: DragScrub}); st.Drag != DragScrub {
		t.Fatalf("drag = %v after ready, want scrub", st.Drag)
	}
	if st := m.Apply(BeginDrag{Kind: DragPan}); st.Drag != DragPan {
		t.Fatalf("drag = %v, want pan to replace scrub", st.Drag)
	}
	if st := m.Apply(EndDrag{}); st.Drag != DragNone {
		t.Fatalf("drag = %v after EndDrag, want none", st.Drag)
	}
}

func TestSetReady_FalseStopsPlaybackAndDrag(t *testing.T) {
	m := newReadyMachine(t, 3)
	m.Apply(SetPlaying{Playing: true})
	m.Apply(BeginDrag{Kind: DragScrub})
	m.SetReady(false)
	st := m.State()
	if st.Playing || st.Drag != DragNone {
		t.Fatalf("state = %#v, want not playing and no drag", st)
	}
}

func TestApply_NilEffectIsNoop(t *testing.T) {
	m := newReadyMachine(t, 3)
	before := m.State()
	if after := m.Apply(nil); after != before {
		t.Fatalf("Apply(nil) changed state: %#v -> %#v", before, after)
	}
}
