package testutil

import (
	"fmt"
	"statpulse/internal/providers"
	"strings"
	"sync"
	"time"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (e LogEntry) Message() string {
	return fmt.Sprintf(e.Format, e.Args...)
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// Messages returns the rendered messages logged at level on channel t.
func (m *MockLogger) Messages(level string, t providers.TypeEnum) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.Logs {
		if e.Level == level && e.Type == t {
			out = append(out, e.Message())
		}
	}
	return out
}

// Contains reports whether any message logged at level contains substr.
func (m *MockLogger) Contains(level, substr string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Logs {
		if e.Level == level && strings.Contains(e.Message(), substr) {
			return true
		}
	}
	return false
}

// MockMetrics implements providers.MetricsProviderInterface and keeps totals
// in memory.
type MockMetrics struct {
	mu            sync.Mutex
	Requests      map[string]int
	CacheHits     int
	CacheMisses   int
	Persistence   []time.Duration
	IngestNodes   map[string]int
	Notifications map[string]int
	Outcomes      map[string]int
	SessionState  string
	RegistrySize  int
	SinkConnected bool
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		Requests:      make(map[string]int),
		IngestNodes:   make(map[string]int),
		Notifications: make(map[string]int),
		Outcomes:      make(map[string]int),
	}
}

// inc lets a zero MockMetrics be used without NewMockMetrics.
func inc(counters *map[string]int, key string, n int) {
	if *counters == nil {
		*counters = make(map[string]int)
	}
	(*counters)[key] += n
}

func (m *MockMetrics) IncRequestsTotal(endpoint string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inc(&m.Requests, fmt.Sprintf("%s %d", endpoint, status), 1)
}

func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}

func (m *MockMetrics) IncCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}

func (m *MockMetrics) IncCacheMisses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}

func (m *MockMetrics) ObservePersistenceDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Persistence = append(m.Persistence, d)
}

func (m *MockMetrics) IncIngestNodes(result string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inc(&m.IngestNodes, result, count)
}

func (m *MockMetrics) IncNotifications(event string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inc(&m.Notifications, event, count)
}

func (m *MockMetrics) IncSessionOutcome(op, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inc(&m.Outcomes, op+":"+outcome, 1)
}

func (m *MockMetrics) SetSessionState(state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SessionState = state
}

func (m *MockMetrics) SetRegistrySize(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RegistrySize = count
}

func (m *MockMetrics) SetSinkConnected(connected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SinkConnected = connected
}

// Snapshot returns copies of the counters under lock.
func (m *MockMetrics) Snapshot() MockMetricsValues {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := MockMetricsValues{
		IngestNodes:   make(map[string]int, len(m.IngestNodes)),
		Notifications: make(map[string]int, len(m.Notifications)),
		Outcomes:      make(map[string]int, len(m.Outcomes)),
		SessionState:  m.SessionState,
		RegistrySize:  m.RegistrySize,
		SinkConnected: m.SinkConnected,
		Persisted:     len(m.Persistence),
	}
	for k, n := range m.IngestNodes {
		v.IngestNodes[k] = n
	}
	for k, n := range m.Notifications {
		v.Notifications[k] = n
	}
	for k, n := range m.Outcomes {
		v.Outcomes[k] = n
	}
	return v
}

type MockMetricsValues struct {
	IngestNodes   map[string]int
	Notifications map[string]int
	Outcomes      map[string]int
	SessionState  string
	RegistrySize  int
	SinkConnected bool
	Persisted     int
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

func (m *MockCache) Del(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Data, key)
}

// MockCompressor implements interfaces.CompressorInterface with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	// Default: return as-is (identity)
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Close() {}
