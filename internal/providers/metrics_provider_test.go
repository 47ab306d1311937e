package providers

import (
	"statpulse/internal/structures"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func swapRegistry(t *testing.T) {
	t.Helper()
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg
	t.Cleanup(func() {
		prometheus.DefaultRegisterer = prometheus.NewRegistry()
		prometheus.DefaultGatherer = prometheus.DefaultRegisterer.(prometheus.Gatherer)
	})
}

func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, m.Write(&out))
	if out.Counter != nil {
		return out.Counter.GetValue()
	}
	return out.Gauge.GetValue()
}

func TestNoopMetrics_WhenDisabled(t *testing.T) {
	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: false},
	}
	m := NewMetricsProvider(conf)
	_, ok := m.(*noopMetrics)
	assert.True(t, ok, "should return noopMetrics when disabled")

	m.IncRequestsTotal("/api/status", 200)
	m.ObserveRequestDuration("/api/status", time.Millisecond)
	m.IncCacheHits()
	m.IncCacheMisses()
	m.ObservePersistenceDuration(time.Millisecond)
	m.IncIngestNodes("accepted", 3)
	m.IncNotifications("dropped", 1)
	m.IncSessionOutcome("heartbeat", "ack")
	m.SetSessionState("active")
	m.SetRegistrySize(10)
	m.SetSinkConnected(true)
}

func TestMetricsProvider_WhenEnabled(t *testing.T) {
	swapRegistry(t)

	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: true},
	}
	m := NewMetricsProvider(conf)
	_, ok := m.(*MetricsProvider)
	assert.True(t, ok, "should return MetricsProvider when enabled")
}

func TestMetricsProvider_Counters(t *testing.T) {
	swapRegistry(t)

	m := NewMetricsProvider(&structures.Config{Metrics: structures.MetricsConfig{Enabled: true}})
	mp := m.(*MetricsProvider)

	m.IncRequestsTotal("/api/data", 200)
	m.IncRequestsTotal("/api/data", 409)
	m.ObserveRequestDuration("/api/data", 5*time.Millisecond)
	m.IncIngestNodes("accepted", 4)
	m.IncIngestNodes("rejected", 1)
	m.IncIngestNodes("rejected", 0)
	m.IncNotifications("enqueued", 2)
	m.IncSessionOutcome("push", "conflict")
	m.SetRegistrySize(7)

	assert.Equal(t, 1.0, value(t, mp.requestsTotal.WithLabelValues("/api/data", "4xx")))
	assert.Equal(t, 4.0, value(t, mp.ingestNodes.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, value(t, mp.ingestNodes.WithLabelValues("rejected")))
	assert.Equal(t, 2.0, value(t, mp.notifications.WithLabelValues("enqueued")))
	assert.Equal(t, 1.0, value(t, mp.sessionOutcomes.WithLabelValues("push", "conflict")))
	assert.Equal(t, 7.0, value(t, mp.registrySize))
}

func TestMetricsProvider_SessionStateIsExclusive(t *testing.T) {
	swapRegistry(t)

	m := NewMetricsProvider(&structures.Config{Metrics: structures.MetricsConfig{Enabled: true}})
	mp := m.(*MetricsProvider)

	m.SetSessionState("connecting")
	m.SetSessionState("active")

	require.Equal(t, 1.0, value(t, mp.sessionState.WithLabelValues("active")))
	assert.Equal(t, 0.0, value(t, mp.sessionState.WithLabelValues("connecting")))
	assert.Equal(t, 0.0, value(t, mp.sessionState.WithLabelValues("disconnected")))

	m.SetSinkConnected(true)
	assert.Equal(t, 1.0, value(t, mp.sinkConnected))
	m.SetSinkConnected(false)
	assert.Equal(t, 0.0, value(t, mp.sinkConnected))
}

func TestHttpStatusBucket(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{100, "1xx"},
		{200, "2xx"},
		{202, "2xx"},
		{301, "3xx"},
		{400, "4xx"},
		{401, "4xx"},
		{409, "4xx"},
		{500, "5xx"},
		{503, "5xx"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, httpStatusBucket(tt.code))
	}
}
