package providers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type cacheMetricsTestMetrics struct {
	mockMetrics
	hits   int
	misses int
}

func (m *cacheMetricsTestMetrics) IncCacheHits()   { m.hits++ }
func (m *cacheMetricsTestMetrics) IncCacheMisses() { m.misses++ }

type cacheMetricsTestInner struct {
	data map[string][]byte
}

func (c *cacheMetricsTestInner) Get(key string) ([]byte, bool) {
	v, ok := c.data[key]
	return v, ok
}
func (c *cacheMetricsTestInner) Set(key string, value []byte) {
	c.data[key] = value
}
func (c *cacheMetricsTestInner) Del(key string) {
	delete(c.data, key)
}

func TestMetricsCacheProvider_HitAndMiss(t *testing.T) {
	inner := &cacheMetricsTestInner{data: map[string][]byte{"status": []byte("doc")}}
	metrics := &cacheMetricsTestMetrics{}
	cache := &MetricsCacheProvider{inner: inner, metrics: metrics}

	val, ok := cache.Get("status")
	assert.True(t, ok)
	assert.Equal(t, []byte("doc"), val)

	_, ok = cache.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, 1, metrics.hits)
	assert.Equal(t, 1, metrics.misses)
}

func TestMetricsCacheProvider_SetAndDelDelegate(t *testing.T) {
	inner := &cacheMetricsTestInner{data: map[string][]byte{}}
	cache := &MetricsCacheProvider{inner: inner, metrics: &cacheMetricsTestMetrics{}}

	cache.Set("status", []byte("doc"))
	_, ok := inner.Get("status")
	assert.True(t, ok)

	cache.Del("status")
	_, ok = inner.Get("status")
	assert.False(t, ok)
}

func TestNewInstrumentedCacheProvider(t *testing.T) {
	disabled := NewInstrumentedCacheProvider(cacheConfig(false, 1, time.Second), &cacheTestLogger{}, &mockMetrics{})
	assert.IsType(t, &noopCache{}, disabled)

	zeroSize := NewInstrumentedCacheProvider(cacheConfig(true, 0, time.Second), &cacheTestLogger{}, &mockMetrics{})
	assert.IsType(t, &noopCache{}, zeroSize)

	enabled := NewInstrumentedCacheProvider(cacheConfig(true, 1, time.Second), &cacheTestLogger{}, &mockMetrics{})
	assert.IsType(t, &MetricsCacheProvider{}, enabled)
}
