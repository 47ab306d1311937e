package providers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"statpulse/internal/structures"
	"time"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	ObservePersistenceDuration(duration time.Duration)
	IncIngestNodes(result string, count int)
	IncNotifications(event string, count int)
	IncSessionOutcome(op, outcome string)
	SetSessionState(state string)
	SetRegistrySize(count int)
	SetSinkConnected(connected bool)
}

var sessionStates = []string{"disconnected", "connecting", "active"}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	persistenceDuration prometheus.Histogram
	ingestNodes         *prometheus.CounterVec
	notifications       *prometheus.CounterVec
	sessionOutcomes     *prometheus.CounterVec
	sessionState        *prometheus.GaugeVec
	registrySize        prometheus.Gauge
	sinkConnected       prometheus.Gauge
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) IncIngestNodes(result string, count int) {
	if count > 0 {
		m.ingestNodes.WithLabelValues(result).Add(float64(count))
	}
}

func (m *MetricsProvider) IncNotifications(event string, count int) {
	if count > 0 {
		m.notifications.WithLabelValues(event).Add(float64(count))
	}
}

func (m *MetricsProvider) IncSessionOutcome(op, outcome string) {
	m.sessionOutcomes.WithLabelValues(op, outcome).Inc()
}

func (m *MetricsProvider) SetSessionState(state string) {
	for _, s := range sessionStates {
		v := 0.0
		if s == state {
			v = 1
		}
		m.sessionState.WithLabelValues(s).Set(v)
	}
}

func (m *MetricsProvider) SetRegistrySize(count int) {
	m.registrySize.Set(float64(count))
}

func (m *MetricsProvider) SetSinkConnected(connected bool) {
	if connected {
		m.sinkConnected.Set(1)
		return
	}
	m.sinkConnected.Set(0)
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "statpulse_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "statpulse_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "statpulse_cache_hits_total",
			Help: "Total number of cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "statpulse_cache_misses_total",
			Help: "Total number of cache misses",
		}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "statpulse_persistence_duration_seconds",
			Help:    "Duration of persistence operations in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		ingestNodes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "statpulse_ingest_nodes_total",
			Help: "Payload nodes by result (accepted, rejected)",
		}, []string{"result"}),

		notifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "statpulse_notifications_total",
			Help: "Notification queue events (enqueued, dropped, shown)",
		}, []string{"event"}),

		sessionOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "statpulse_session_outcomes_total",
			Help: "Heartbeat and push results by outcome",
		}, []string{"op", "outcome"}),

		sessionState: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "statpulse_session_state",
			Help: "1 for the current producer session state",
		}, []string{"state"}),

		registrySize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "statpulse_entities",
			Help: "Number of tracked entities",
		}),

		sinkConnected: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "statpulse_sink_connected",
			Help: "1 while the sink holds a live session",
		}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (n *noopMetrics) IncIngestNodes(_ string, _ int)                   {}
func (n *noopMetrics) IncNotifications(_ string, _ int)                 {}
func (n *noopMetrics) IncSessionOutcome(_, _ string)                    {}
func (n *noopMetrics) SetSessionState(_ string)                         {}
func (n *noopMetrics) SetRegistrySize(_ int)                            {}
func (n *noopMetrics) SetSinkConnected(_ bool)                          {}
