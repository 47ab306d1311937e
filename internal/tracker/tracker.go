// Package tracker counts monotonic increases of metrics inside a sliding time
// window and flags hot streaks.
package tracker

import (
	"statpulse/internal/models"
	"sync"
	"time"
)

const (
	DefaultThreshold = 5
	DefaultWindow    = 5 * time.Minute

	// SubscriberSubject is the subject of the channel-wide subscriber counter.
	SubscriberSubject = "__subscribers__"
	SubscriberMetric  = "subscribers"
)

const (
	MetricLikes    = "likes"
	MetricComments = "comments"
	MetricDislikes = "dislikes"
	MetricViews48h = "views48h"
	MetricViews60m = "views60m"
)

type subjectKey struct {
	subject string
	metric  string
}

type changeWindow struct {
	entries []models.ChangeEntry
	// last survives eviction so that a value below an evicted peak is not
	// counted as an increase.
	last    int64
	hasLast bool
}

func (w *changeWindow) evict(cutoff time.Time) {
	i := 0
	for i < len(w.entries) && w.entries[i].At.Before(cutoff) {
		i++
	}
	if i > 0 {
		w.entries = append(w.entries[:0], w.entries[i:]...)
	}
}

func (w *changeWindow) countSince(cutoff time.Time) int {
	n := 0
	for i := len(w.entries) - 1; i >= 0; i-- {
		if w.entries[i].At.Before(cutoff) {
			break
		}
		n++
	}
	return n
}

type Tracker struct {
	mu        sync.Mutex
	windows   map[subjectKey]*changeWindow
	threshold int
	window    time.Duration
}

func NewTracker(threshold int, window time.Duration) *Tracker {
	t := &Tracker{windows: make(map[subjectKey]*changeWindow)}
	t.Configure(threshold, window)
	return t
}

// Configure replaces the shared threshold and window. Stored increases are
// independent of both, so the change applies on the next evaluation.
func (t *Tracker) Configure(threshold int, window time.Duration) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if window <= 0 {
		window = DefaultWindow
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.threshold = threshold
	t.window = window
}

func (t *Tracker) Settings() (int, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.threshold, t.window
}

// Record appends (now, value) when value is strictly greater than the last
// recorded value of subject/metric. It reports whether the value was recorded.
func (t *Tracker) Record(subject, metric string, value int64, now time.Time) bool {
	if subject == "" || metric == "" {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	key := subjectKey{subject: subject, metric: metric}
	w, ok := t.windows[key]
	if !ok {
		w = &changeWindow{}
		t.windows[key] = w
	}

	recorded := false
	if !w.hasLast || value > w.last {
		w.entries = append(w.entries, models.ChangeEntry{At: now, Value: value})
		w.last = value
		w.hasLast = true
		recorded = true
	}
	w.evict(now.Add(-t.window))
	return recorded
}

// IsHot evicts stale increases and reports whether at least the configured
// threshold of increases remain in the window.
func (t *Tracker) IsHot(subject, metric string, now time.Time) bool {
	t.mu.Lock()
	threshold, window := t.threshold, t.window
	t.mu.Unlock()
	return t.IsHotWith(subject, metric, now, threshold, window)
}

func (t *Tracker) IsHotWith(subject, metric string, now time.Time, threshold int, window time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.windows[subjectKey{subject: subject, metric: metric}]
	if !ok {
		return false
	}
	w.evict(now.Add(-window))
	return len(w.entries) >= threshold
}

// HotAt answers like IsHot without evicting.
func (t *Tracker) HotAt(subject, metric string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.windows[subjectKey{subject: subject, metric: metric}]
	if !ok {
		return false
	}
	return w.countSince(now.Add(-t.window)) >= t.threshold
}

// Count returns the increases of subject/metric inside the current window.
func (t *Tracker) Count(subject, metric string, now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.windows[subjectKey{subject: subject, metric: metric}]
	if !ok {
		return 0
	}
	w.evict(now.Add(-t.window))
	return len(w.entries)
}
