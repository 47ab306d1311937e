// Package notify queues increase notifications and reveals them in batches
// limited by the number of visible slots.
package notify

import (
	"statpulse/internal/clock"
	"statpulse/internal/models"
	"sync"
	"time"
)

// Presenter shows and hides notifications. Show receives a whole batch at
// once; Hide is called for each event when its visible lifetime ends.
type Presenter interface {
	Show(batch []models.NotificationEvent)
	Hide(event models.NotificationEvent)
}

type Config struct {
	Capacity     int
	MaxVisible   int
	Backoff      time.Duration
	Lifetime     time.Duration
	ExitDelay    time.Duration
	RedrainDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		Capacity:     20,
		MaxVisible:   10,
		Backoff:      500 * time.Millisecond,
		Lifetime:     4 * time.Second,
		ExitDelay:    300 * time.Millisecond,
		RedrainDelay: 100 * time.Millisecond,
	}
}

type Stats struct {
	Enqueued int64
	Dropped  int64
	Shown    int64
}

type Queue struct {
	mu        sync.Mutex
	cfg       Config
	clock     clock.Clock
	presenter Presenter
	pending   []models.NotificationEvent
	visible   int
	running   bool
	drainAt   clock.Timer
	timers    map[int]clock.Timer
	nextTimer int
	stats     Stats
}

func NewQueue(cfg Config, clk clock.Clock, presenter Presenter) *Queue {
	def := DefaultConfig()
	if cfg.Capacity <= 0 {
		cfg.Capacity = def.Capacity
	}
	if cfg.MaxVisible <= 0 {
		cfg.MaxVisible = def.MaxVisible
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = def.Backoff
	}
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = def.Lifetime
	}
	if cfg.ExitDelay <= 0 {
		cfg.ExitDelay = def.ExitDelay
	}
	if cfg.RedrainDelay <= 0 {
		cfg.RedrainDelay = def.RedrainDelay
	}
	return &Queue{
		cfg:       cfg,
		clock:     clk,
		presenter: presenter,
		pending:   make([]models.NotificationEvent, 0, cfg.Capacity),
		timers:    make(map[int]clock.Timer),
	}
}

// Enqueue adds event, evicting the oldest pending event when the queue is
// full. It never blocks and reports whether an event was dropped.
func (q *Queue) Enqueue(event models.NotificationEvent) bool {
	if event.EntityKey == "" {
		return false
	}
	q.mu.Lock()
	dropped := false
	if len(q.pending) >= q.cfg.Capacity {
		q.pending = append(q.pending[:0], q.pending[1:]...)
		q.stats.Dropped++
		dropped = true
	}
	q.pending = append(q.pending, event)
	q.stats.Enqueued++
	kick := q.running && q.drainAt == nil
	q.mu.Unlock()

	if kick {
		q.drain()
	}
	return dropped
}

// Start begins revealing pending events.
func (q *Queue) Start() {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return
	}
	q.running = true
	q.mu.Unlock()
	q.drain()
}

// Stop cancels every scheduled drain and expiry and frees the visible slots
// those expiries would have released. Pending events are kept for the next
// Start.
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.running = false
	q.visible = 0
	if q.drainAt != nil {
		q.drainAt.Stop()
		q.drainAt = nil
	}
	for id, t := range q.timers {
		t.Stop()
		delete(q.timers, id)
	}
}

func (q *Queue) scheduleDrain(d time.Duration) {
	if q.drainAt != nil || !q.running {
		return
	}
	q.drainAt = q.clock.AfterFunc(d, func() {
		q.mu.Lock()
		q.drainAt = nil
		q.mu.Unlock()
		q.drain()
	})
}

func (q *Queue) drain() {
	q.mu.Lock()
	if !q.running || len(q.pending) == 0 {
		q.mu.Unlock()
		return
	}

	slots := q.cfg.MaxVisible - q.visible
	if slots <= 0 {
		q.scheduleDrain(q.cfg.Backoff)
		q.mu.Unlock()
		return
	}

	n := min(slots, len(q.pending))
	batch := make([]models.NotificationEvent, n)
	copy(batch, q.pending[:n])
	q.pending = append(q.pending[:0], q.pending[n:]...)
	q.visible += n
	q.stats.Shown += int64(n)

	for _, ev := range batch {
		q.expire(ev)
	}
	if len(q.pending) > 0 {
		q.scheduleDrain(q.cfg.RedrainDelay)
	}
	q.mu.Unlock()

	q.presenter.Show(batch)
}

// expire schedules the hide of ev and the release of its slot. Callers hold mu.
func (q *Queue) expire(ev models.NotificationEvent) {
	id := q.nextTimer
	q.nextTimer++
	q.timers[id] = q.clock.AfterFunc(q.cfg.Lifetime, func() {
		q.presenter.Hide(ev)

		q.mu.Lock()
		defer q.mu.Unlock()
		if _, ok := q.timers[id]; !ok {
			return
		}
		q.timers[id] = q.clock.AfterFunc(q.cfg.ExitDelay, func() {
			q.mu.Lock()
			defer q.mu.Unlock()
			if _, ok := q.timers[id]; !ok {
				return
			}
			delete(q.timers, id)
			q.visible--
		})
	})
}

// Pending returns a copy of the events waiting for a visible slot.
func (q *Queue) Pending() []models.NotificationEvent {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]models.NotificationEvent, len(q.pending))
	copy(out, q.pending)
	return out
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *Queue) Visible() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.visible
}

func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stats
}
