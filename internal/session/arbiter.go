// Package session implements the single-writer heartbeat protocol between a
// producer and the sink.
package session

import (
	"context"
	"errors"
	"go.uber.org/atomic"
	"statpulse/internal/clock"
	"statpulse/internal/models"
	"sync"
	"time"
)

const (
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultRequestTimeout    = 10 * time.Second
)

type State int

const (
	Disconnected State = iota
	Connecting
	Active
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Active:
		return "active"
	default:
		return "disconnected"
	}
}

// Transport delivers protocol messages to the sink. Implementations return
// nil on acknowledgement, an error matching ErrConflict or ErrUnrecognized
// on rejection, and any other error for transient failures.
type Transport interface {
	Heartbeat(ctx context.Context, id string) error
	Push(ctx context.Context, req models.DataRequest) error
}

type Outcome string

const (
	OutcomeAck          Outcome = "ack"
	OutcomeConflict     Outcome = "conflict"
	OutcomeUnrecognized Outcome = "unrecognized"
	OutcomeNetwork      Outcome = "network"
	OutcomeStale        Outcome = "stale"
)

// Observer is notified of every heartbeat and push result.
type Observer interface {
	SessionOutcome(op string, outcome Outcome, id string, err error)
	SessionState(state State)
}

type noopObserver struct{}

func (noopObserver) SessionOutcome(string, Outcome, string, error) {}
func (noopObserver) SessionState(State)                            {}

type Arbiter struct {
	mu        sync.Mutex
	clock     clock.Clock
	transport Transport
	interval  time.Duration
	timeout   time.Duration
	observer  Observer

	state     State
	session   models.Session
	heartbeat clock.Timer

	inflight *atomic.Bool
	wg       sync.WaitGroup
}

func NewArbiter(clk clock.Clock, transport Transport, interval, timeout time.Duration) *Arbiter {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Arbiter{
		clock:     clk,
		transport: transport,
		interval:  interval,
		timeout:   timeout,
		observer:  noopObserver{},
		inflight:  atomic.NewBool(false),
	}
}

func (a *Arbiter) SetObserver(o Observer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if o == nil {
		o = noopObserver{}
	}
	a.observer = o
}

// Init starts a new session with a fresh id and sends the first heartbeat.
// It is a no-op unless the arbiter is disconnected.
func (a *Arbiter) Init() string {
	a.mu.Lock()
	if a.state != Disconnected {
		id := a.session.ID
		a.mu.Unlock()
		return id
	}
	id := a.begin()
	a.mu.Unlock()

	a.beat(id)
	return id
}

// begin requires mu.
func (a *Arbiter) begin() string {
	now := a.clock.Now()
	a.session = models.Session{ID: NewSessionID(now), CreatedAt: now}
	a.setState(Connecting)
	a.schedule(a.session.ID)
	return a.session.ID
}

// Disconnect forgets the session. Results of requests still in flight for it
// are ignored.
func (a *Arbiter) Disconnect() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reset()
}

// reset requires mu.
func (a *Arbiter) reset() {
	if a.heartbeat != nil {
		a.heartbeat.Stop()
		a.heartbeat = nil
	}
	a.session = models.Session{}
	a.setState(Disconnected)
}

// setState requires mu.
func (a *Arbiter) setState(s State) {
	if a.state == s {
		return
	}
	a.state = s
	a.observer.SessionState(s)
}

// schedule requires mu.
func (a *Arbiter) schedule(id string) {
	if a.heartbeat != nil {
		a.heartbeat.Stop()
	}
	a.heartbeat = a.clock.AfterFunc(a.interval, func() {
		a.mu.Lock()
		if a.session.ID != id {
			a.mu.Unlock()
			return
		}
		a.schedule(id)
		a.mu.Unlock()
		a.beat(id)
	})
}

func (a *Arbiter) beat(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	err := a.transport.Heartbeat(ctx, id)
	a.resolve("heartbeat", id, err)
}

// Heartbeat sends one heartbeat for the current session, if any.
func (a *Arbiter) Heartbeat() {
	id := a.ID()
	if id == "" {
		return
	}
	a.beat(id)
}

// Push delivers a snapshot and the pending notifications synchronously.
// It returns false when there is no session to push for.
func (a *Arbiter) Push(ctx context.Context, snap models.Snapshot, notes []models.NotificationEvent) (Outcome, bool) {
	id := a.ID()
	if id == "" {
		return "", false
	}
	return a.push(ctx, id, snap, notes), true
}

func (a *Arbiter) push(ctx context.Context, id string, snap models.Snapshot, notes []models.NotificationEvent) Outcome {
	err := a.transport.Push(ctx, models.DataRequest{SessionID: id, Data: &snap, Notifications: notes})
	return a.resolve("push", id, err)
}

// PushAsync pushes in the background. A push is skipped, not queued, while
// the previous one is unresolved. It reports whether a push was started.
func (a *Arbiter) PushAsync(snap models.Snapshot, notes []models.NotificationEvent) bool {
	id := a.ID()
	if id == "" {
		return false
	}
	if !a.inflight.CompareAndSwap(false, true) {
		return false
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.inflight.Store(false)
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		a.push(ctx, id, snap, notes)
	}()
	return true
}

// Wait blocks until background pushes have finished.
func (a *Arbiter) Wait() {
	a.wg.Wait()
}

func (a *Arbiter) resolve(op, id string, err error) Outcome {
	a.mu.Lock()
	obs := a.observer

	outcome := OutcomeNetwork
	var reinit string
	switch {
	case a.session.ID != id:
		outcome = OutcomeStale
	case err == nil:
		outcome = OutcomeAck
		a.session.LastHeartbeatAt = a.clock.Now()
		a.setState(Active)
	case errors.Is(err, ErrConflict):
		outcome = OutcomeConflict
		a.reset()
	case errors.Is(err, ErrUnrecognized):
		outcome = OutcomeUnrecognized
		a.reset()
		reinit = a.begin()
	}
	a.mu.Unlock()

	obs.SessionOutcome(op, outcome, id, err)
	if reinit != "" {
		a.beat(reinit)
	}
	return outcome
}

func (a *Arbiter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Arbiter) ID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session.ID
}

// Session returns the local mirror of the session, if one is held.
func (a *Arbiter) Session() (models.Session, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session.ID == "" {
		return models.Session{}, false
	}
	return a.session, true
}

// Pushing reports whether a background push is unresolved.
func (a *Arbiter) Pushing() bool {
	return a.inflight.Load()
}
