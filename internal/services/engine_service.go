package services

import (
	"fmt"
	"statpulse/internal/clock"
	"statpulse/internal/ingest"
	"statpulse/internal/models"
	"statpulse/internal/notify"
	"statpulse/internal/providers"
	"statpulse/internal/session"
	"statpulse/internal/snapshot"
	"statpulse/internal/structures"
	"statpulse/internal/timeseries"
	"statpulse/internal/tracker"
	"sync"
	"time"
)

type EngineServiceInterface interface {
	Ingest(raw []byte) (IngestResult, error)
	Apply(batch ingest.Batch) IngestResult
	Snapshot() models.Snapshot
	Pending() []models.NotificationEvent
	Connect() SessionView
	Disconnect() SessionView
	Session() SessionView
	ConfigureHotStreak(hs structures.HotStreakConfig)
	Health() map[string]any
	Start()
	Stop()
}

// IngestResult reports which nodes of a payload were applied.
type IngestResult struct {
	Accepted int      `json:"accepted"`
	Rejected []string `json:"rejected"`
}

// SessionView is the producer-side session state exposed over HTTP.
type SessionView struct {
	State           string `json:"state"`
	SessionID       string `json:"sessionId,omitempty"`
	CreatedAt       int64  `json:"createdAt,omitempty"`
	LastHeartbeatAt int64  `json:"lastHeartbeat,omitempty"`
	Pushing         bool   `json:"pushing"`
}

// channelState holds the channel-wide values. Guarded by EngineService.mu.
type channelState struct {
	subscribers *int64
	history     []models.SubscriberPoint
	watchTime   int64
}

func (c *channelState) ChannelTotals() models.ChannelTotals {
	t := models.ChannelTotals{WatchTimeMs: c.watchTime}
	if c.subscribers != nil {
		v := *c.subscribers
		t.SubscriberCount = &v
	}
	if len(c.history) > 0 {
		t.SubscriberHistory = make([]models.SubscriberPoint, len(c.history))
		copy(t.SubscriberHistory, c.history)
	}
	return t
}

// EngineService owns the producer state. Every ingestion runs under mu, so
// snapshots always observe a whole batch or none of it.
type EngineService struct {
	mu      sync.Mutex
	conf    *structures.Config
	clock   clock.Clock
	logger  providers.Logger
	metrics providers.MetricsProviderInterface

	registry  *models.EntityRegistry
	store     *timeseries.Store
	tracker   *tracker.Tracker
	queue     *notify.Queue
	builder   *snapshot.Builder
	debouncer *snapshot.Debouncer
	arbiter   *session.Arbiter

	channel channelState
	// last observed window sums, per granularity
	views map[models.Granularity]map[string]int64
}

// Ingest decodes and applies a raw payload. Only an undecodable body is an
// error; malformed nodes are reported in the result.
func (e *EngineService) Ingest(raw []byte) (IngestResult, error) {
	payload, err := ingest.Decode(raw)
	if err != nil {
		return IngestResult{}, err
	}
	return e.Apply(ingest.Parse(payload)), nil
}

// Apply merges an extracted batch into the engine state, records every
// observed increase and queues like and comment notifications.
func (e *EngineService) Apply(batch ingest.Batch) IngestResult {
	result := IngestResult{Accepted: len(batch.Accepted), Rejected: make([]string, 0, len(batch.Rejected))}
	for _, nodeErr := range batch.Rejected {
		e.logger.Warnf(providers.TypeIngest, "Rejected node: %s", nodeErr)
		result.Rejected = append(result.Rejected, nodeErr.Key)
	}

	e.mu.Lock()
	now := e.clock.Now()
	var events []models.NotificationEvent
	for _, u := range batch.Entities {
		events = append(events, e.applyEntity(u, now)...)
	}
	for _, s := range []struct {
		g      models.Granularity
		cols   *ingest.SeriesColumns
		metric string
	}{
		{models.Hourly, batch.Hourly, tracker.MetricViews48h},
		{models.Minutely, batch.Minutely, tracker.MetricViews60m},
	} {
		if s.cols == nil {
			continue
		}
		if err := e.applySeries(s.g, s.cols, s.metric, now); err != nil {
			e.logger.Warnf(providers.TypeIngest, "Series %s: %s", s.g, err)
			result.Accepted--
			result.Rejected = append(result.Rejected, string(s.g))
		}
	}
	for _, d := range batch.Derived {
		e.registry.SetDerived(d)
	}
	if batch.WatchTimeTotal != nil {
		e.channel.watchTime = *batch.WatchTimeTotal
	}
	if batch.Subscribers != nil {
		e.applySubscribers(batch.Subscribers, now)
	}
	size := e.registry.Len()
	e.mu.Unlock()

	e.metrics.IncIngestNodes("accepted", result.Accepted)
	e.metrics.IncIngestNodes("rejected", len(result.Rejected))
	e.metrics.SetRegistrySize(size)

	dropped := 0
	for _, ev := range events {
		if e.queue.Enqueue(ev) {
			dropped++
		}
	}
	e.metrics.IncNotifications("enqueued", len(events))
	e.metrics.IncNotifications("dropped", dropped)
	if dropped > 0 {
		e.logger.Debugf(providers.TypeNotify, "Queue full, dropped %d", dropped)
	}

	if !batch.Empty() {
		e.debouncer.Trigger()
	}
	e.logger.Debugf(providers.TypeIngest, "Applied %d nodes, %d entities, %d events", result.Accepted, len(batch.Entities), len(events))
	return result
}

// applyEntity requires mu.
func (e *EngineService) applyEntity(u models.EntityUpdate, now time.Time) []models.NotificationEvent {
	prev, existed := e.registry.Upsert(u)
	if !existed {
		return nil
	}
	e.recordIncrease(u.Key, tracker.MetricLikes, prev.Likes, u.Likes, now)
	e.recordIncrease(u.Key, tracker.MetricComments, prev.Comments, u.Comments, now)
	e.recordIncrease(u.Key, tracker.MetricDislikes, prev.Dislikes, u.Dislikes, now)

	if u.Comments <= prev.Comments && u.Likes <= prev.Likes {
		return nil
	}
	rec, _ := e.registry.Get(u.Key)
	var events []models.NotificationEvent
	if u.Comments > prev.Comments {
		events = append(events, models.NotificationEvent{
			EntityKey:    u.Key,
			Title:        rec.Title,
			ThumbnailURL: rec.ThumbnailURL,
			Kind:         models.KindComments,
			OldCount:     prev.Comments,
			NewCount:     u.Comments,
		})
	}
	if u.Likes > prev.Likes {
		events = append(events, models.NotificationEvent{
			EntityKey:    u.Key,
			Title:        rec.Title,
			ThumbnailURL: rec.ThumbnailURL,
			Kind:         models.KindLikes,
			OldCount:     prev.Likes,
			NewCount:     u.Likes,
		})
	}
	return events
}

// applySeries requires mu.
func (e *EngineService) applySeries(g models.Granularity, cols *ingest.SeriesColumns, metric string, now time.Time) error {
	if err := e.store.MergeColumns(g, cols.Keys, cols.Timestamps, cols.Counts); err != nil {
		return err
	}
	last := e.views[g]
	seen := make(map[string]struct{}, len(cols.Keys))
	for _, key := range cols.Keys {
		if _, ok := seen[key]; ok || key == "" {
			continue
		}
		seen[key] = struct{}{}
		e.registry.Touch(key)

		sum := e.store.Sum(key, g)
		if prev, ok := last[key]; ok {
			e.recordIncrease(key, metric, prev, sum, now)
		}
		last[key] = sum
	}
	return nil
}

// applySubscribers requires mu.
func (e *EngineService) applySubscribers(card *ingest.SubscriberCard, now time.Time) {
	if card.LifetimeTotal != nil {
		v := *card.LifetimeTotal
		if prev := e.channel.subscribers; prev != nil {
			e.recordIncrease(tracker.SubscriberSubject, tracker.SubscriberMetric, *prev, v, now)
		}
		e.channel.subscribers = &v
	}
	if len(card.History) > 0 {
		e.channel.history = make([]models.SubscriberPoint, len(card.History))
		copy(e.channel.history, card.History)
	}
}

func (e *EngineService) recordIncrease(subject, metric string, prev, next int64, now time.Time) {
	if next <= prev {
		return
	}
	if e.tracker.Record(subject, metric, next, now) && e.tracker.HotAt(subject, metric, now) {
		e.logger.Debugf(providers.TypeIngest, "Hot streak: %s %s", subject, metric)
	}
}

func (e *EngineService) Snapshot() models.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.builder.Build(e.clock.Now())
}

func (e *EngineService) Pending() []models.NotificationEvent {
	return e.queue.Pending()
}

// publish runs on the debouncer. A push skipped because the previous one is
// still unresolved is retried on the next debounce tick.
func (e *EngineService) publish() {
	snap := e.Snapshot()
	notes := e.queue.Pending()
	if e.arbiter.PushAsync(snap, notes) {
		return
	}
	if e.arbiter.Pushing() {
		e.debouncer.Trigger()
		return
	}
	e.logger.Debugf(providers.TypeSession, "Push skipped, session %s", e.arbiter.State())
}

// Connect opens a session with the sink and schedules a push of the current
// state.
func (e *EngineService) Connect() SessionView {
	id := e.arbiter.Init()
	e.logger.Infof(providers.TypeSession, "Connect %s", id)
	e.debouncer.Trigger()
	return e.Session()
}

func (e *EngineService) Disconnect() SessionView {
	e.arbiter.Disconnect()
	e.logger.Infof(providers.TypeSession, "Disconnected")
	return e.Session()
}

func (e *EngineService) Session() SessionView {
	view := SessionView{State: e.arbiter.State().String(), Pushing: e.arbiter.Pushing()}
	if s, ok := e.arbiter.Session(); ok {
		view.SessionID = s.ID
		view.CreatedAt = s.CreatedAt.UnixMilli()
		if !s.LastHeartbeatAt.IsZero() {
			view.LastHeartbeatAt = s.LastHeartbeatAt.UnixMilli()
		}
	}
	return view
}

func (e *EngineService) Health() map[string]any {
	stats := e.queue.Stats()
	return map[string]any{
		"session":  e.arbiter.State().String(),
		"entities": e.registry.Len(),
		"series":   e.store.Len(),
		"pending":  e.queue.Len(),
		"visible":  e.queue.Visible(),
		"enqueued": stats.Enqueued,
		"dropped":  stats.Dropped,
	}
}

func (e *EngineService) ConfigureHotStreak(hs structures.HotStreakConfig) {
	e.tracker.Configure(hs.Increases, hs.Window)
	e.logger.Infof(providers.TypeApp, "Hot streak: %d increases in %s", hs.Increases, hs.Window)
}

// Start begins revealing notifications and, when delivery is enabled,
// connects to the sink.
func (e *EngineService) Start() {
	e.queue.Start()
	if e.conf.Agent.Enabled {
		e.Connect()
	}
}

func (e *EngineService) Stop() {
	e.debouncer.Stop()
	e.queue.Stop()
	e.arbiter.Disconnect()
	e.arbiter.Wait()
}

func NewEngineService(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface, clk clock.Clock, transport session.Transport) EngineServiceInterface {
	e := &EngineService{
		conf:     conf,
		clock:    clk,
		logger:   logger,
		metrics:  metrics,
		registry: models.NewEntityRegistry(),
		store:    timeseries.NewStore(clk, conf.Retention.Hourly, conf.Retention.Minutely),
		tracker:  tracker.NewTracker(conf.HotStreak.Increases, conf.HotStreak.Window),
		views: map[models.Granularity]map[string]int64{
			models.Hourly:   make(map[string]int64),
			models.Minutely: make(map[string]int64),
		},
	}
	e.queue = notify.NewQueue(notify.Config{
		Capacity:     conf.Notifications.Capacity,
		MaxVisible:   conf.Notifications.MaxVisible,
		Backoff:      conf.Notifications.Backoff,
		Lifetime:     conf.Notifications.Lifetime,
		ExitDelay:    conf.Notifications.ExitDelay,
		RedrainDelay: conf.Notifications.RedrainDelay,
	}, clk, NewLogPresenter(logger, metrics))
	e.builder = snapshot.NewBuilder(e.registry, e.store, e.tracker, &e.channel)
	e.debouncer = snapshot.NewDebouncer(clk, conf.Agent.BuildInterval, e.publish)
	e.arbiter = session.NewArbiter(clk, transport, conf.Agent.HeartbeatInterval, conf.Agent.RequestTimeout)
	e.arbiter.SetObserver(&sessionObserver{logger: logger, metrics: metrics})
	return e
}

// NewSinkTransport builds the HTTP client the producer uses to reach the sink.
func NewSinkTransport(conf *structures.Config) (session.Transport, error) {
	client, err := session.NewClient(conf.Agent.SinkURL, conf.Agent.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("sink client: %w", err)
	}
	return client, nil
}
