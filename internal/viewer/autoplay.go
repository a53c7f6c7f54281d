package viewer

import (
	"sync"
	"time"
)

// Autoplay cadences. The enhanced viewer steps every 100ms; the legacy
// swipe-only viewer stepped once a second.
const (
	EnhancedAutoplayInterval = 100 * time.Millisecond
	LegacyAutoplayInterval   = time.Second
)

// AutoplayInterval resolves a cadence name and an optional explicit interval.
// An explicit positive interval wins.
func AutoplayInterval(name string, explicit time.Duration) time.Duration {
	if explicit > 0 {
		return explicit
	}
	if name == "legacy" {
		return LegacyAutoplayInterval
	}
	return EnhancedAutoplayInterval
}

// Driver runs a single ticker goroutine while started and calls tick on every
// period. Start and Stop are idempotent.
type Driver struct {
	interval time.Duration
	tick     func()

	mu      sync.Mutex
	stop    chan struct{}
	stopped chan struct{}
}

// NewDriver returns a stopped driver.
func NewDriver(interval time.Duration, tick func()) *Driver {
	if interval <= 0 {
		interval = EnhancedAutoplayInterval
	}
	return &Driver{interval: interval, tick: tick}
}

// Interval returns the step period.
func (d *Driver) Interval() time.Duration {
	return d.interval
}

// Running reports whether the ticker goroutine is active.
func (d *Driver) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stop != nil
}

// Start launches the ticker unless it is already running.
func (d *Driver) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		return
	}
	stop := make(chan struct{})
	stopped := make(chan struct{})
	d.stop, d.stopped = stop, stopped

	go func() {
		defer close(stopped)
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
			}
			select {
			case <-stop:
				return
			default:
			}
			d.tick()
		}
	}()
}

// Stop halts the ticker and waits for its goroutine to exit. It must not be
// called from inside tick.
func (d *Driver) Stop() {
	d.mu.Lock()
	stop, stopped := d.stop, d.stopped
	d.stop, d.stopped = nil, nil
	d.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-stopped
}

// Sync starts or stops the driver so that it runs exactly when active is true.
func (d *Driver) Sync(active bool) {
	if active {
		d.Start()
		return
	}
	d.Stop()
}
