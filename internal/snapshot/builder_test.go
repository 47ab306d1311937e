package snapshot

import (
	"statpulse/internal/clock/clocktest"
	"statpulse/internal/models"
	"statpulse/internal/timeseries"
	"statpulse/internal/tracker"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTotals models.ChannelTotals

func (s staticTotals) ChannelTotals() models.ChannelTotals { return models.ChannelTotals(s) }

type fixture struct {
	clk      *clocktest.Clock
	registry *models.EntityRegistry
	store    *timeseries.Store
	tracker  *tracker.Tracker
}

func newFixture() *fixture {
	clk := clocktest.NewClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	return &fixture{
		clk:      clk,
		registry: models.NewEntityRegistry(),
		store:    timeseries.NewStore(clk, 0, 0),
		tracker:  tracker.NewTracker(0, 0),
	}
}

func (f *fixture) hourly(t *testing.T, key string, counts ...int64) {
	t.Helper()
	now := f.clk.Now()
	points := make([]models.Point, len(counts))
	for i, c := range counts {
		points[i] = models.Point{Timestamp: now.Add(-time.Duration(len(counts)-i) * time.Hour).UnixMilli(), Count: c}
	}
	require.NoError(t, f.store.Merge(key, models.Hourly, points))
}

func TestBuilder_OrdersByViews48hStable(t *testing.T) {
	f := newFixture()
	for _, k := range []string{"a", "b", "c", "d"} {
		f.registry.Touch(k)
	}
	f.hourly(t, "a", 5)
	f.hourly(t, "b", 10, 20)
	f.hourly(t, "c", 30)
	f.hourly(t, "d", 1, 2)

	snap := NewBuilder(f.registry, f.store, f.tracker, nil).Build(f.clk.Now())

	keys := make([]string, len(snap.Entities))
	for i, e := range snap.Entities {
		keys[i] = e.Key
	}
	// b and c tie at 30; b was registered first
	assert.Equal(t, []string{"b", "c", "a", "d"}, keys)
	assert.Equal(t, []int64{10, 20}, snap.Entities[0].Sparkline48h)
	assert.Nil(t, snap.Entities[0].Sparkline60m)
}

func TestBuilder_TotalsAndDerived(t *testing.T) {
	f := newFixture()
	e1, e2 := 1.25, 2.5
	f.registry.Upsert(models.EntityUpdate{Key: "a", Title: "A", Likes: 10, Comments: 2})
	f.registry.Upsert(models.EntityUpdate{Key: "b", Title: "B", Likes: 5, Comments: 3})
	f.registry.SetDerived(models.DerivedMetrics{Key: "a", Earnings: &e1})
	f.registry.SetDerived(models.DerivedMetrics{Key: "b", Earnings: &e2})

	subs := int64(1200)
	totals := staticTotals{
		SubscriberCount:   &subs,
		SubscriberHistory: []models.SubscriberPoint{{DateID: 20250301, Count: 1200}},
		WatchTimeMs:       3_600_000,
	}
	snap := NewBuilder(f.registry, f.store, f.tracker, totals).Build(f.clk.Now())

	assert.Equal(t, int64(15), snap.TotalLikes)
	assert.Equal(t, int64(5), snap.TotalComments)
	assert.InDelta(t, 3.75, snap.TotalRevenue, 1e-9)
	require.NotNil(t, snap.SubscriberCount)
	assert.Equal(t, int64(1200), *snap.SubscriberCount)
	assert.Len(t, snap.SubscriberHistory, 1)
	assert.Equal(t, int64(3_600_000), snap.TotalWatchTimeMs)
	assert.Equal(t, f.clk.Now().UnixMilli(), snap.Timestamp)
	assert.Nil(t, snap.Entities[0].CTR)
}

func TestBuilder_HotFlags(t *testing.T) {
	f := newFixture()
	f.registry.Touch("a")
	now := f.clk.Now()
	for i := int64(1); i <= 5; i++ {
		f.tracker.Record("a", tracker.MetricLikes, i, now.Add(time.Duration(i)*time.Second))
		f.tracker.Record(tracker.SubscriberSubject, tracker.SubscriberMetric, 100+i, now.Add(time.Duration(i)*time.Second))
	}

	b := NewBuilder(f.registry, f.store, f.tracker, nil)
	snap := b.Build(now.Add(10 * time.Second))
	assert.True(t, snap.Entities[0].HotLikes)
	assert.False(t, snap.Entities[0].HotComments)
	assert.True(t, snap.SubscriberHot)

	later := b.Build(now.Add(10 * time.Minute))
	assert.False(t, later.Entities[0].HotLikes)
	assert.False(t, later.SubscriberHot)
}

func TestBuilder_DoesNotAliasState(t *testing.T) {
	f := newFixture()
	e := 1.0
	f.registry.SetDerived(models.DerivedMetrics{Key: "a", Earnings: &e})
	snap := NewBuilder(f.registry, f.store, f.tracker, nil).Build(f.clk.Now())

	*snap.Entities[0].Earnings = 99
	rec, ok := f.registry.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1.0, *rec.Earnings)
}

func TestBuilder_ByRecent(t *testing.T) {
	f := newFixture()
	f.registry.Touch("a")
	f.registry.Touch("b")
	f.hourly(t, "a", 100)
	f.hourly(t, "b", 1)
	now := f.clk.Now()
	require.NoError(t, f.store.Merge("b", models.Minutely, []models.Point{{Timestamp: now.Add(-time.Minute).UnixMilli(), Count: 7}}))

	snap := NewBuilder(f.registry, f.store, f.tracker, nil).Build(now)
	assert.Equal(t, "a", snap.Entities[0].Key)
	assert.Equal(t, "b", snap.ByRecent()[0].Key)
}
