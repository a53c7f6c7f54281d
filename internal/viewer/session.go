package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrClosed is returned by session operations after Close.
var ErrClosed = errors.New("viewer session closed")

// FrameSource lists the ordered frame identifiers of an album.
type FrameSource interface {
	FrameList(ctx context.Context, albumID string) ([]string, error)
}

// Options configure a viewer session.
type Options struct {
	Mode               Mode
	AutoplayInterval   time.Duration // zero uses EnhancedAutoplayInterval
	PreloadConcurrency int           // zero uses the preloader default
	ContainerWidth     float64
	Logger             *slog.Logger
}

// Snapshot is a read-only view of a session at one instant.
type Snapshot struct {
	State
	Frames       int
	Ready        bool
	Progress     Progress
	DragProgress float64
	Gesture      Gesture
	Closed       bool
}

// Session owns the viewer state for one open album and serializes every
// mutation: gestures, dispatched effects, autoplay ticks and preload events.
type Session struct {
	id     string
	logger *slog.Logger
	frames []string

	mu       sync.Mutex
	machine  *Machine
	gestures *Interpreter
	closed   bool
	changed  chan struct{}

	task   *Task
	driver *Driver
	syncMu sync.Mutex

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// OpenAlbum fetches the frame list for albumID and opens a session on it.
func OpenAlbum(ctx context.Context, src FrameSource, albumID string, resolver URLResolver, loader Loader, opts Options) (*Session, error) {
	frames, err := src.FrameList(ctx, albumID)
	if err != nil {
		return nil, fmt.Errorf("load album %q: %w", albumID, err)
	}
	sess, err := Open(ctx, frames, resolver, loader, opts)
	if err != nil {
		return nil, fmt.Errorf("open album %q: %w", albumID, err)
	}
	return sess, nil
}

// Open starts preloading frames and returns a session in the initial state.
// An empty frame set is a configuration error.
func Open(ctx context.Context, frames []string, resolver URLResolver, loader Loader, opts Options) (*Session, error) {
	machine, err := NewMachine(len(frames))
	if err != nil {
		return nil, err
	}
	if resolver == nil || loader == nil {
		return nil, fmt.Errorf("viewer requires a url resolver and an image loader")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	logger = logger.With("session", id)

	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		id:       id,
		logger:   logger,
		frames:   append([]string(nil), frames...),
		machine:  machine,
		gestures: NewInterpreter(opts.Mode),
		changed:  make(chan struct{}, 1),
		cancel:   cancel,
	}
	s.gestures.SetContainerWidth(opts.ContainerWidth)
	s.driver = NewDriver(opts.AutoplayInterval, s.onTick)

	preloader := NewPreloader(loader, opts.PreloadConcurrency, logger)
	s.task = preloader.Start(ctx, s.frames, resolver)

	s.wg.Add(1)
	go s.watch(ctx)

	logger.Info("viewer: session opened",
		"frames", len(frames),
		"autoplay", s.driver.Interval(),
	)
	return s, nil
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string {
	return s.id
}

// FrameIDs returns the frame identifiers in rotation order.
func (s *Session) FrameIDs() []string {
	return append([]string(nil), s.frames...)
}

// Changed receives a value whenever the snapshot may have changed. Signals
// coalesce; the channel is closed by Close.
func (s *Session) Changed() <-chan struct{} {
	return s.changed
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	gesture, _ := s.gestures.Active()
	return Snapshot{
		State:        s.machine.State(),
		Frames:       s.machine.Frames(),
		Ready:        s.machine.Ready(),
		Progress:     s.task.Progress(),
		DragProgress: s.gestures.DragProgress(s.machine.Frames()),
		Gesture:      gesture,
		Closed:       s.closed,
	}
}

// Dispatch applies effects in order and returns the resulting snapshot.
func (s *Session) Dispatch(effects ...Effect) Snapshot {
	return s.interpret(func(Snapshot) []Effect { return effects })
}

// SetContainerWidth updates the width scrubbing maps across.
func (s *Session) SetContainerWidth(width float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gestures.SetContainerWidth(width)
}

// PointerDown starts a gesture with one or more points.
func (s *Session) PointerDown(src Source, points ...Point) Snapshot {
	return s.interpret(func(snap Snapshot) []Effect {
		return s.gestures.Down(snap, src, points...)
	})
}

// PointerMove continues the current gesture.
func (s *Session) PointerMove(points ...Point) Snapshot {
	return s.interpret(func(snap Snapshot) []Effect {
		return s.gestures.Move(snap, points...)
	})
}

// PointerUp releases a point; remaining is how many points are still down.
func (s *Session) PointerUp(p Point, remaining int) Snapshot {
	return s.interpret(func(snap Snapshot) []Effect {
		return s.gestures.Up(snap, p, remaining)
	})
}

// PointerCancel abandons the current gesture.
func (s *Session) PointerCancel() Snapshot {
	return s.interpret(func(snap Snapshot) []Effect {
		return s.gestures.Cancel(snap)
	})
}

// Wheel zooms by the given number of ticks (positive zooms in).
func (s *Session) Wheel(ticks int) Snapshot {
	return s.interpret(func(snap Snapshot) []Effect {
		return s.gestures.Wheel(snap, ticks)
	})
}

// Key handles a logical key press. Escape skips preloading while it is still
// running and is ignored afterwards.
func (s *Session) Key(k Key) Snapshot {
	if k == KeyEscape {
		s.SkipPreload()
		return s.Snapshot()
	}
	return s.interpret(func(snap Snapshot) []Effect {
		return s.gestures.Key(snap, k)
	})
}

func (s *Session) interpret(fn func(Snapshot) []Effect) Snapshot {
	s.mu.Lock()
	if s.closed {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap
	}
	for _, e := range fn(s.snapshotLocked()) {
		s.machine.Apply(e)
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.syncAutoplay()
	s.notify()
	return snap
}

// Progress returns preload progress.
func (s *Session) Progress() Progress {
	return s.task.Progress()
}

// Frame returns the preload entry of frame i.
func (s *Session) Frame(i int) (Entry, bool) {
	return s.task.Entry(i)
}

// Frames returns every preload entry.
func (s *Session) Frames() []Entry {
	return s.task.Entries()
}

// SkipPreload marks preloading complete immediately. Loads still in flight
// keep running but no longer gate interaction.
func (s *Session) SkipPreload() {
	s.mu.Lock()
	if s.closed || s.machine.Ready() {
		s.mu.Unlock()
		return
	}
	s.task.Skip()
	s.machine.SetReady(true)
	progress := s.task.Progress()
	s.mu.Unlock()

	s.logger.Info("viewer: preload skipped", "resolved", progress.Resolved, "total", progress.Total)
	s.syncAutoplay()
	s.notify()
}

// RetryFrame reloads an errored frame. It blocks until the attempt finishes.
func (s *Session) RetryFrame(ctx context.Context, i int) (Entry, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return Entry{}, ErrClosed
	}

	entry, err := s.task.Retry(ctx, i)
	s.notify()
	return entry, err
}

// Close cancels preloading, stops autoplay and turns every later call into a
// no-op. It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.machine.state.Playing = false
	s.cancel()
	close(s.changed)
	s.mu.Unlock()

	s.syncAutoplay()
	s.wg.Wait()
	s.logger.Info("viewer: session closed")
}

func (s *Session) watch(ctx context.Context) {
	defer s.wg.Done()

	updates := s.task.Updates()
	ready := s.task.Ready()
	for updates != nil || ready != nil {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			s.notify()
		case <-ready:
			ready = nil
			s.markReady()
		}
	}
}

func (s *Session) markReady() {
	s.mu.Lock()
	if s.closed || s.machine.Ready() {
		s.mu.Unlock()
		return
	}
	s.machine.SetReady(true)
	s.mu.Unlock()

	s.logger.Info("viewer: preload complete")
	s.syncAutoplay()
	s.notify()
}

func (s *Session) onTick() {
	s.mu.Lock()
	if s.closed || !s.machine.Ready() || !s.machine.State().Playing {
		s.mu.Unlock()
		return
	}
	s.machine.Apply(StepFrame{Delta: 1})
	s.mu.Unlock()
	s.notify()
}

// syncAutoplay runs the driver exactly while playing and ready. It never holds
// s.mu while stopping the driver, because the tick goroutine takes s.mu.
func (s *Session) syncAutoplay() {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	s.mu.Lock()
	active := !s.closed && s.machine.Ready() && s.machine.State().Playing
	s.mu.Unlock()

	s.driver.Sync(active)
}

func (s *Session) notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.changed <- struct{}{}:
	default:
	}
}
