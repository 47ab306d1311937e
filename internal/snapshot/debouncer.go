package snapshot

import (
	"statpulse/internal/clock"
	"sync"
	"time"
)

// Debouncer runs fn at most once at a time. Triggers arriving while a run is
// scheduled are absorbed; triggers arriving during a run schedule exactly one
// follow-up run.
type Debouncer struct {
	mu        sync.Mutex
	clock     clock.Clock
	delay     time.Duration
	fn        func()
	timer     clock.Timer
	scheduled bool
	running   bool
	dirty     bool
	stopped   bool
}

func NewDebouncer(clk clock.Clock, delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{clock: clk, delay: delay, fn: fn}
}

func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.running {
		d.dirty = true
		return
	}
	d.schedule()
}

// Flush runs fn now, cancelling a scheduled run.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.scheduled = false
	if d.running {
		d.dirty = true
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	d.run()
}

func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.scheduled = false
	d.dirty = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// schedule requires mu.
func (d *Debouncer) schedule() {
	if d.scheduled {
		return
	}
	d.scheduled = true
	d.timer = d.clock.AfterFunc(d.delay, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	d.scheduled = false
	d.timer = nil
	if d.stopped || d.running {
		if d.running {
			d.dirty = true
		}
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	d.run()
}

func (d *Debouncer) run() {
	d.fn()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.running = false
	if d.dirty && !d.stopped {
		d.dirty = false
		d.schedule()
	}
}
