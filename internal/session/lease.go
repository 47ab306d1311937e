package session

import (
	"statpulse/internal/clock"
	"statpulse/internal/models"
	"sync"
	"time"
)

const DefaultLeaseTimeout = 60 * time.Second

// Lease is the sink side of the protocol. It recognizes at most one session
// at a time and forgets it after timeout of silence.
type Lease struct {
	mu      sync.Mutex
	clock   clock.Clock
	timeout time.Duration
	current *models.Session
}

func NewLease(clk clock.Clock, timeout time.Duration) *Lease {
	if timeout <= 0 {
		timeout = DefaultLeaseTimeout
	}
	return &Lease{clock: clk, timeout: timeout}
}

// Claim records a heartbeat for id. A free slot is taken by id; a slot held
// by another id yields a *ConflictError.
func (l *Lease) Claim(id string) (models.Session, error) {
	if id == "" {
		return models.Session{}, ErrMissingID
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	l.expire(now)

	if l.current == nil {
		l.current = &models.Session{ID: id, CreatedAt: now, LastHeartbeatAt: now}
		return *l.current, nil
	}
	if l.current.ID != id {
		return models.Session{}, &ConflictError{CurrentID: l.current.ID}
	}
	l.current.LastHeartbeatAt = now
	return *l.current, nil
}

// Current returns the live session, if any.
func (l *Lease) Current() (models.Session, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.expire(l.clock.Now())
	if l.current == nil {
		return models.Session{}, false
	}
	return *l.current, true
}

// Sweep drops an expired session and reports whether it did.
func (l *Lease) Sweep() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.expire(l.clock.Now())
}

func (l *Lease) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.current = nil
}

func (l *Lease) Timeout() time.Duration {
	return l.timeout
}

// expire requires mu.
func (l *Lease) expire(now time.Time) bool {
	if l.current == nil {
		return false
	}
	if now.Sub(l.current.LastHeartbeatAt) > l.timeout {
		l.current = nil
		return true
	}
	return false
}
