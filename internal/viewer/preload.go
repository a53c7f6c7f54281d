package viewer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/remeh/sizedwaitgroup"
)

const defaultPreloadConcurrency = 6

// ErrRetryInProgress is returned when a frame is already being retried.
var ErrRetryInProgress = errors.New("frame retry already in progress")

// Status is the load state of one preload entry.
type Status int

const (
	StatusPending Status = iota
	StatusLoaded
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusLoaded:
		return "loaded"
	case StatusErrored:
		return "errored"
	default:
		return "pending"
	}
}

// URLResolver maps a frame identifier onto its primary and fallback URLs.
type URLResolver interface {
	Primary(id string) string
	Fallback(id string) string
}

// Loader fetches and decodes one image.
type Loader interface {
	LoadImage(ctx context.Context, url string) (image.Image, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, url string) (image.Image, error)

// LoadImage implements Loader.
func (f LoaderFunc) LoadImage(ctx context.Context, url string) (image.Image, error) {
	return f(ctx, url)
}

// Entry is the preload record of one frame. Callers receive copies.
type Entry struct {
	ID           string
	URL          string
	Status       Status
	Image        image.Image
	Err          error
	UsedFallback bool
}

// Progress counts frames that reached a terminal status.
type Progress struct {
	Resolved int
	Total    int
}

// Percent returns progress in [0,100].
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return 100
	}
	return float64(p.Resolved) * 100 / float64(p.Total)
}

// Complete reports whether every frame has a terminal status.
func (p Progress) Complete() bool {
	return p.Resolved >= p.Total
}

// Preloader loads frame sets in the background.
type Preloader struct {
	loader      Loader
	concurrency int
	logger      *slog.Logger
}

// NewPreloader returns a preloader that keeps at most concurrency loads in
// flight. Non-positive values use the default of 6.
func NewPreloader(loader Loader, concurrency int, logger *slog.Logger) *Preloader {
	if concurrency <= 0 {
		concurrency = defaultPreloadConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Preloader{loader: loader, concurrency: concurrency, logger: logger}
}

type loadResult struct {
	index    int
	url      string
	img      image.Image
	err      error
	fallback bool
}

// Task is one running preload. Results are folded into the entry table by a
// single collector goroutine, so progress accounting never races.
type Task struct {
	preloader *Preloader
	resolver  URLResolver

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	entries  []Entry
	resolved int
	retrying map[int]bool

	updates   chan Progress
	done      chan struct{}
	ready     chan struct{}
	exited    chan struct{}
	doneOnce  sync.Once
	readyOnce sync.Once
}

// Start begins loading every frame and returns immediately.
func (p *Preloader) Start(ctx context.Context, frames []string, resolver URLResolver) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		preloader: p,
		resolver:  resolver,
		ctx:       ctx,
		cancel:    cancel,
		entries:   make([]Entry, len(frames)),
		retrying:  make(map[int]bool),
		updates:   make(chan Progress, len(frames)),
		done:      make(chan struct{}),
		ready:     make(chan struct{}),
		exited:    make(chan struct{}),
	}
	for i, id := range frames {
		t.entries[i] = Entry{ID: id, URL: resolver.Primary(id), Status: StatusPending}
	}

	results := make(chan loadResult, len(frames))
	go t.dispatch(frames, results)
	go t.collect(len(frames), results)
	return t
}

func (t *Task) dispatch(frames []string, results chan<- loadResult) {
	swg := sizedwaitgroup.New(t.preloader.concurrency)
	for i, id := range frames {
		if err := swg.AddWithContext(t.ctx); err != nil {
			break
		}
		go func(index int, id string) {
			defer swg.Done()
			r := t.load(t.ctx, id)
			r.index = index
			results <- r
		}(i, id)
	}
	swg.Wait()
}

func (t *Task) collect(total int, results <-chan loadResult) {
	defer close(t.exited)
	defer close(t.updates)

	if total == 0 {
		t.complete()
		return
	}
	for n := 0; n < total; n++ {
		select {
		case <-t.ctx.Done():
			return
		case r := <-results:
			progress := t.record(r)
			select {
			case <-t.ctx.Done():
				return
			default:
			}
			t.updates <- progress
		}
	}
	t.complete()
}

func (t *Task) record(r loadResult) Progress {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := &t.entries[r.index]
	e.URL = r.url
	e.UsedFallback = r.fallback
	if r.err != nil {
		e.Status = StatusErrored
		e.Err = r.err
		t.preloader.logger.Warn("preload: frame errored", "frame", e.ID, "url", r.url, "error", r.err)
	} else {
		e.Status = StatusLoaded
		e.Image = r.img
		e.Err = nil
	}
	t.resolved++
	return Progress{Resolved: t.resolved, Total: len(t.entries)}
}

func (t *Task) complete() {
	t.doneOnce.Do(func() {
		t.preloader.logger.Debug("preload: complete", "frames", len(t.entries))
		close(t.done)
	})
	t.markReady()
}

func (t *Task) markReady() {
	t.readyOnce.Do(func() { close(t.ready) })
}

// load tries the primary URL and then the fallback URL exactly once.
func (t *Task) load(ctx context.Context, id string) loadResult {
	primary := t.resolver.Primary(id)
	img, err := t.preloader.loader.LoadImage(ctx, primary)
	if err == nil {
		return loadResult{url: primary, img: img}
	}
	if ctx.Err() != nil {
		return loadResult{url: primary, err: ctx.Err()}
	}

	fallback := t.resolver.Fallback(id)
	img, ferr := t.preloader.loader.LoadImage(ctx, fallback)
	if ferr != nil {
		return loadResult{url: fallback, err: fmt.Errorf("primary: %v; fallback: %w", err, ferr), fallback: true}
	}
	return loadResult{url: fallback, img: img, fallback: true}
}

// Updates delivers one Progress value per resolved frame, in resolution order.
// The channel is closed when preloading completes or is cancelled.
func (t *Task) Updates() <-chan Progress {
	return t.updates
}

// Done is closed once every frame has a terminal status.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Ready is closed when preloading completes or is skipped.
func (t *Task) Ready() <-chan struct{} {
	return t.ready
}

// Skip releases the ready gate immediately. Outstanding loads continue.
func (t *Task) Skip() {
	t.markReady()
}

// Cancel stops delivery of further progress. It does not wait.
func (t *Task) Cancel() {
	t.cancel()
}

// Wait blocks until the collector has stopped.
func (t *Task) Wait() {
	<-t.exited
}

// Progress returns the current resolution count.
func (t *Task) Progress() Progress {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Progress{Resolved: t.resolved, Total: len(t.entries)}
}

// Len returns the number of frames in the task.
func (t *Task) Len() int {
	return len(t.entries)
}

// Entry returns a copy of the entry at index i.
func (t *Task) Entry(i int) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if i < 0 || i >= len(t.entries) {
		return Entry{}, false
	}
	return t.entries[i], true
}

// Entries returns a copy of every entry.
func (t *Task) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Retry reloads an errored frame, primary URL first. The progress count is
// unchanged because the frame was already counted when it errored.
func (t *Task) Retry(ctx context.Context, i int) (Entry, error) {
	t.mu.Lock()
	if i < 0 || i >= len(t.entries) {
		t.mu.Unlock()
		return Entry{}, fmt.Errorf("frame %d out of range", i)
	}
	if t.entries[i].Status != StatusErrored {
		e := t.entries[i]
		t.mu.Unlock()
		return e, nil
	}
	if t.retrying[i] {
		t.mu.Unlock()
		return Entry{}, ErrRetryInProgress
	}
	t.retrying[i] = true
	id := t.entries[i].ID
	t.mu.Unlock()

	r := t.load(ctx, id)

	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.retrying, i)
	if t.ctx.Err() != nil {
		return t.entries[i], t.ctx.Err()
	}
	e := &t.entries[i]
	e.URL = r.url
	e.UsedFallback = r.fallback
	if r.err != nil {
		e.Err = r.err
		return *e, r.err
	}
	e.Status = StatusLoaded
	e.Image = r.img
	e.Err = nil
	t.preloader.logger.Info("preload: frame recovered", "frame", e.ID, "url", r.url)
	return *e, nil
}
