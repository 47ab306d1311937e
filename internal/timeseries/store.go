// Package timeseries keeps bounded per-entity view series at hourly and
// minutely granularity.
package timeseries

import (
	"errors"
	"fmt"
	"sort"
	"statpulse/internal/clock"
	"statpulse/internal/models"
	"sync"
	"time"
)

// ErrMalformedBatch is returned when zipped columns disagree in length.
var ErrMalformedBatch = errors.New("malformed batch")

type series struct {
	hourly   []models.Point
	minutely []models.Point
	// requested marks granularities merged at least once, even to empty.
	hasHourly   bool
	hasMinutely bool
}

type Store struct {
	mu      sync.RWMutex
	data    map[string]*series
	windows map[models.Granularity]time.Duration
	clock   clock.Clock
}

// NewStore creates a store with the given retention windows. A zero window
// falls back to the granularity default.
func NewStore(clk clock.Clock, hourly, minutely time.Duration) *Store {
	if hourly <= 0 {
		hourly = models.HourlyWindow
	}
	if minutely <= 0 {
		minutely = models.MinutelyWindow
	}
	return &Store{
		data: make(map[string]*series),
		windows: map[models.Granularity]time.Duration{
			models.Hourly:   hourly,
			models.Minutely: minutely,
		},
		clock: clk,
	}
}

func (s *Store) window(g models.Granularity) time.Duration {
	return s.windows[g]
}

// bounds returns the inclusive [from, to] range of retained timestamps.
func (s *Store) bounds(g models.Granularity) (int64, int64) {
	now := s.clock.Now()
	return now.Add(-s.window(g)).UnixMilli(), now.UnixMilli()
}

func (sr *series) get(g models.Granularity) ([]models.Point, bool) {
	if g == models.Hourly {
		return sr.hourly, sr.hasHourly
	}
	return sr.minutely, sr.hasMinutely
}

func (sr *series) set(g models.Granularity, points []models.Point) {
	if g == models.Hourly {
		sr.hourly, sr.hasHourly = points, true
		return
	}
	sr.minutely, sr.hasMinutely = points, true
}

// Merge overlays points on the stored series of key. On equal timestamps the
// new count wins. Points outside the retention window are dropped.
func (s *Store) Merge(key string, g models.Granularity, points []models.Point) error {
	if !g.Valid() {
		return fmt.Errorf("unknown granularity %q", g)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.merge(key, g, points)
	return nil
}

func (s *Store) merge(key string, g models.Granularity, points []models.Point) {
	sr, ok := s.data[key]
	if !ok {
		sr = &series{}
		s.data[key] = sr
	}

	existing, _ := sr.get(g)
	byTs := make(map[int64]int64, len(existing)+len(points))
	for _, p := range existing {
		byTs[p.Timestamp] = p.Count
	}
	for _, p := range points {
		byTs[p.Timestamp] = p.Count
	}

	from, to := s.bounds(g)
	merged := make([]models.Point, 0, len(byTs))
	for ts, count := range byTs {
		if ts < from || ts > to {
			continue
		}
		merged = append(merged, models.Point{Timestamp: ts, Count: count})
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	sr.set(g, merged)
}

// MergeColumns zips parallel key/timestamp/count columns and merges the rows
// grouped by key. Nothing is merged when the columns disagree in length.
func (s *Store) MergeColumns(g models.Granularity, keys []string, timestamps []int64, counts []int64) error {
	if !g.Valid() {
		return fmt.Errorf("unknown granularity %q", g)
	}
	if len(keys) != len(timestamps) || len(timestamps) != len(counts) {
		return fmt.Errorf("%w: %d keys, %d timestamps, %d counts", ErrMalformedBatch, len(keys), len(timestamps), len(counts))
	}

	grouped := make(map[string][]models.Point)
	order := make([]string, 0)
	for i, key := range keys {
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], models.Point{Timestamp: timestamps[i], Count: counts[i]})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range order {
		s.merge(key, g, grouped[key])
	}
	return nil
}

func (s *Store) visible(key string, g models.Granularity) ([]models.Point, bool) {
	sr, ok := s.data[key]
	if !ok {
		return nil, false
	}
	points, requested := sr.get(g)
	if !requested {
		return nil, false
	}
	from, to := s.bounds(g)
	out := make([]models.Point, 0, len(points))
	for _, p := range points {
		if p.Timestamp >= from && p.Timestamp <= to {
			out = append(out, p)
		}
	}
	return out, true
}

// Sum adds up the counts currently inside the retention window.
func (s *Store) Sum(key string, g models.Granularity) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points, _ := s.visible(key, g)
	var total int64
	for _, p := range points {
		total += p.Count
	}
	return total
}

// Window returns a copy of the retained points. ok is false when the series
// was never merged; a merged series with no retained points returns an empty
// slice and true.
func (s *Store) Window(key string, g models.Granularity) ([]models.Point, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.visible(key, g)
}

// Counts returns the retained counts in timestamp order, or nil when there
// are none. Used for sparklines.
func (s *Store) Counts(key string, g models.Granularity) []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points, _ := s.visible(key, g)
	if len(points) == 0 {
		return nil
	}
	out := make([]int64, len(points))
	for i, p := range points {
		out[i] = p.Count
	}
	return out
}

func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
