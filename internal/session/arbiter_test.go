package session

import (
	"context"
	"errors"
	"statpulse/internal/clock/clocktest"
	"statpulse/internal/models"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	mu         sync.Mutex
	heartbeats []string
	pushes     []models.DataRequest
	hbErr      error
	pushErr    error
	release    chan struct{}
}

func (f *fakeTransport) Heartbeat(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.heartbeats = append(f.heartbeats, id)
	return f.hbErr
}

func (f *fakeTransport) Push(_ context.Context, req models.DataRequest) error {
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes = append(f.pushes, req)
	err := f.pushErr
	f.pushErr = nil
	return err
}

func (f *fakeTransport) setHeartbeatErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hbErr = err
}

func (f *fakeTransport) beats() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.heartbeats)
}

// leaseTransport speaks to an in-process Lease the way the sink does.
type leaseTransport struct {
	lease *Lease
}

func (l leaseTransport) Heartbeat(_ context.Context, id string) error {
	_, err := l.lease.Claim(id)
	return err
}

func (l leaseTransport) Push(_ context.Context, req models.DataRequest) error {
	if req.SessionID == "" {
		return ErrUnrecognized
	}
	_, err := l.lease.Claim(req.SessionID)
	return err
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []Outcome
	states   []State
}

func (r *recordingObserver) SessionOutcome(_ string, o Outcome, _ string, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func (r *recordingObserver) SessionState(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func newArbiter(tr Transport) (*Arbiter, *clocktest.Clock) {
	clk := clocktest.NewClock(time.Unix(1_700_000_000, 0))
	return NewArbiter(clk, tr, 0, 0), clk
}

func TestArbiter_InitAcknowledged(t *testing.T) {
	tr := &fakeTransport{}
	a, _ := newArbiter(tr)
	obs := &recordingObserver{}
	a.SetObserver(obs)

	assert.Equal(t, Disconnected, a.State())
	id := a.Init()

	assert.NotEmpty(t, id)
	assert.Equal(t, Active, a.State())
	assert.Equal(t, []string{id}, tr.heartbeats)
	assert.Equal(t, []State{Connecting, Active}, obs.states)
	assert.Equal(t, []Outcome{OutcomeAck}, obs.outcomes)

	// a second Init keeps the session
	assert.Equal(t, id, a.Init())
	assert.Equal(t, 1, tr.beats())
}

func TestArbiter_HeartbeatCadence(t *testing.T) {
	tr := &fakeTransport{}
	a, clk := newArbiter(tr)
	a.Init()

	clk.Advance(29 * time.Second)
	assert.Equal(t, 1, tr.beats())
	clk.Advance(time.Second)
	assert.Equal(t, 2, tr.beats())
	clk.Advance(90 * time.Second)
	assert.Equal(t, 5, tr.beats())
}

func TestArbiter_NetworkErrorKeepsState(t *testing.T) {
	tr := &fakeTransport{hbErr: errors.New("connection refused")}
	a, clk := newArbiter(tr)
	a.Init()
	assert.Equal(t, Connecting, a.State())

	clk.Advance(30 * time.Second)
	assert.Equal(t, Connecting, a.State())
	assert.Equal(t, 2, tr.beats())

	tr.setHeartbeatErr(nil)
	clk.Advance(30 * time.Second)
	assert.Equal(t, Active, a.State())
}

func TestArbiter_ConflictDisconnects(t *testing.T) {
	tr := &fakeTransport{}
	a, clk := newArbiter(tr)
	a.Init()

	tr.setHeartbeatErr(&ConflictError{CurrentID: "other"})
	clk.Advance(30 * time.Second)

	assert.Equal(t, Disconnected, a.State())
	assert.Empty(t, a.ID())
	assert.Equal(t, 0, clk.Pending())

	clk.Advance(5 * time.Minute)
	assert.Equal(t, 2, tr.beats(), "no retry after a conflict")
}

func TestArbiter_UnrecognizedReinitializes(t *testing.T) {
	tr := &fakeTransport{pushErr: ErrUnrecognized}
	a, _ := newArbiter(tr)
	first := a.Init()

	outcome, ok := a.Push(context.Background(), models.Snapshot{}, nil)
	require.True(t, ok)
	assert.Equal(t, OutcomeUnrecognized, outcome)

	second := a.ID()
	assert.NotEmpty(t, second)
	assert.NotEqual(t, first, second)
	assert.Equal(t, Active, a.State())
	assert.Equal(t, second, tr.heartbeats[len(tr.heartbeats)-1])
}

func TestArbiter_DisconnectIgnoresStaleResults(t *testing.T) {
	tr := &fakeTransport{release: make(chan struct{})}
	a, clk := newArbiter(tr)
	a.Init()

	require.True(t, a.PushAsync(models.Snapshot{Timestamp: 1}, nil))
	a.Disconnect()
	close(tr.release)
	a.Wait()

	assert.Equal(t, Disconnected, a.State())
	assert.Equal(t, 0, clk.Pending())
	_, ok := a.Session()
	assert.False(t, ok)
}

func TestArbiter_PushAsyncSkipsWhileInFlight(t *testing.T) {
	tr := &fakeTransport{release: make(chan struct{})}
	a, _ := newArbiter(tr)
	a.Init()

	require.True(t, a.PushAsync(models.Snapshot{Timestamp: 1}, nil))
	assert.True(t, a.Pushing())
	assert.False(t, a.PushAsync(models.Snapshot{Timestamp: 2}, nil))

	close(tr.release)
	a.Wait()
	assert.False(t, a.Pushing())

	require.Len(t, tr.pushes, 1)
	assert.Equal(t, int64(1), tr.pushes[0].Data.Timestamp)

	require.True(t, a.PushAsync(models.Snapshot{Timestamp: 3}, nil))
	a.Wait()
	assert.Len(t, tr.pushes, 2)
}

func TestArbiter_PushWithoutSession(t *testing.T) {
	a, _ := newArbiter(&fakeTransport{})
	_, ok := a.Push(context.Background(), models.Snapshot{}, nil)
	assert.False(t, ok)
	assert.False(t, a.PushAsync(models.Snapshot{}, nil))
}

func TestArbiter_SingleWriter(t *testing.T) {
	clk := clocktest.NewClock(time.Unix(1_700_000_000, 0))
	lease := NewLease(clk, time.Minute)
	winner := NewArbiter(clk, leaseTransport{lease}, 30*time.Second, time.Second)
	loser := NewArbiter(clk, leaseTransport{lease}, 30*time.Second, time.Second)

	winner.Init()
	loser.Init()
	assert.Equal(t, Active, winner.State())
	assert.Equal(t, Disconnected, loser.State())

	for i := 0; i < 4; i++ {
		clk.Advance(30 * time.Second)
		assert.Equal(t, Active, winner.State())
	}
	current, ok := lease.Current()
	require.True(t, ok)
	assert.Equal(t, winner.ID(), current.ID)
}

func TestArbiter_LeaseExpiryFreesSlot(t *testing.T) {
	clk := clocktest.NewClock(time.Unix(1_700_000_000, 0))
	lease := NewLease(clk, time.Minute)
	first := NewArbiter(clk, leaseTransport{lease}, 30*time.Second, time.Second)
	second := NewArbiter(clk, leaseTransport{lease}, 30*time.Second, time.Second)

	first.Init()
	first.Disconnect()

	clk.Advance(59 * time.Second)
	second.Init()
	assert.Equal(t, Disconnected, second.State())

	clk.Advance(2 * time.Second)
	second.Init()
	assert.Equal(t, Active, second.State())
}
