package services

import (
	"go.uber.org/atomic"
	"statpulse/internal/clock"
	"statpulse/internal/models"
	"statpulse/internal/providers"
	"statpulse/internal/session"
	"statpulse/internal/structures"
	"sync"
)

const defaultMaxNotifications = 50

type SinkServiceInterface interface {
	Heartbeat(id string) (models.Ack, error)
	Data(req models.DataRequest) (models.Ack, error)
	Status() models.SinkStatus
	Notifications() []models.NotificationEvent
	ClearNotifications()
	Sweep() bool
	Subscribe(fn func())
	State() models.SinkState
	Restore(state models.SinkState)
	Health() map[string]any
}

// SinkService is the single consumer: it holds the session lease, the latest
// snapshot and the most recent notifications.
type SinkService struct {
	mu      sync.RWMutex
	clock   clock.Clock
	lease   *session.Lease
	logger  providers.Logger
	metrics providers.MetricsProviderInterface

	// id of the published lease holder, empty when free
	holder *atomic.String

	latest        *models.Snapshot
	notifications []models.NotificationEvent
	maxNotes      int

	listeners []func()
}

func (s *SinkService) ack(id string) models.Ack {
	return models.Ack{Success: true, SessionID: id, Timestamp: s.clock.Now().UnixMilli()}
}

func (s *SinkService) Heartbeat(id string) (models.Ack, error) {
	sess, err := s.lease.Claim(id)
	if err != nil {
		s.logger.Debugf(providers.TypeSession, "Heartbeat %q refused: %s", id, err)
		s.syncConnected()
		return models.Ack{}, err
	}
	if s.syncConnected() {
		s.notify()
	}
	return s.ack(sess.ID), nil
}

// syncConnected compares the lease holder with the last published one and
// reports whether it changed. Expiry may happen lazily inside any lease call,
// so every entry point resyncs.
func (s *SinkService) syncConnected() bool {
	sess, ok := s.lease.Current()
	if prev := s.holder.Swap(sess.ID); prev == sess.ID {
		return false
	}
	if ok {
		s.logger.Infof(providers.TypeSession, "Session %s connected", sess.ID)
	} else {
		s.logger.Infof(providers.TypeSession, "Connection lost, heartbeat timeout")
	}
	s.metrics.SetSinkConnected(ok)
	return true
}

// Data accepts a push from the session holder. A push without an id is
// unrecognized; a push with a new id takes a free slot.
func (s *SinkService) Data(req models.DataRequest) (models.Ack, error) {
	if req.SessionID == "" {
		return models.Ack{}, session.ErrUnrecognized
	}
	sess, err := s.lease.Claim(req.SessionID)
	if err != nil {
		s.logger.Debugf(providers.TypeSession, "Data from %q refused: %s", req.SessionID, err)
		s.syncConnected()
		return models.Ack{}, err
	}
	s.syncConnected()

	s.mu.Lock()
	now := s.clock.Now()
	if req.Data != nil {
		snap := *req.Data
		snap.ReceivedAt = now.UnixMilli()
		s.latest = &snap
	}
	if len(req.Notifications) > 0 {
		s.notifications = append(s.notifications, req.Notifications...)
		if over := len(s.notifications) - s.maxNotes; over > 0 {
			kept := make([]models.NotificationEvent, s.maxNotes)
			copy(kept, s.notifications[over:])
			s.notifications = kept
		}
	}
	s.mu.Unlock()

	s.notify()
	return s.ack(sess.ID), nil
}

func (s *SinkService) Status() models.SinkStatus {
	status := models.SinkStatus{Notifications: s.Notifications()}
	if sess, ok := s.lease.Current(); ok {
		status.Connected = true
		status.SessionID = sess.ID
		status.LastHeartbeat = sess.LastHeartbeatAt.UnixMilli()
	}
	s.mu.RLock()
	if s.latest != nil {
		snap := *s.latest
		status.Data = &snap
	}
	s.mu.RUnlock()
	return status
}

func (s *SinkService) Notifications() []models.NotificationEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.NotificationEvent, len(s.notifications))
	copy(out, s.notifications)
	return out
}

func (s *SinkService) ClearNotifications() {
	s.mu.Lock()
	s.notifications = nil
	s.mu.Unlock()
	s.notify()
}

// Sweep drops a session whose heartbeat timed out.
func (s *SinkService) Sweep() bool {
	s.lease.Sweep()
	if !s.syncConnected() {
		return false
	}
	s.notify()
	return true
}

func (s *SinkService) Health() map[string]any {
	h := map[string]any{"connected": false}
	if sess, ok := s.lease.Current(); ok {
		h["connected"] = true
		h["sessionId"] = sess.ID
	}
	s.mu.RLock()
	h["notifications"] = len(s.notifications)
	h["hasData"] = s.latest != nil
	s.mu.RUnlock()
	return h
}

// Subscribe registers fn to run after every change of the served status.
func (s *SinkService) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *SinkService) notify() {
	s.mu.RLock()
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn()
	}
}

func (s *SinkService) State() models.SinkState {
	status := s.Status()
	return models.SinkState{Data: status.Data, Notifications: status.Notifications}
}

// Restore replaces the served data with a persisted state. The session is
// never restored.
func (s *SinkService) Restore(state models.SinkState) {
	s.mu.Lock()
	if state.Data != nil {
		snap := *state.Data
		s.latest = &snap
	}
	s.notifications = nil
	notes := state.Notifications
	if len(notes) > s.maxNotes {
		notes = notes[len(notes)-s.maxNotes:]
	}
	s.notifications = append(s.notifications, notes...)
	s.mu.Unlock()
	s.notify()
}

func NewSinkService(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface, clk clock.Clock) SinkServiceInterface {
	maxNotes := conf.Sink.MaxNotifications
	if maxNotes <= 0 {
		maxNotes = defaultMaxNotifications
	}
	metrics.SetSinkConnected(false)
	return &SinkService{
		clock:    clk,
		lease:    session.NewLease(clk, conf.Sink.HeartbeatTimeout),
		logger:   logger,
		metrics:  metrics,
		maxNotes: maxNotes,
		holder:   atomic.NewString(""),
	}
}
