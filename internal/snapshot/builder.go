// Package snapshot assembles the immutable aggregate view of the engine state.
package snapshot

import (
	"sort"
	"statpulse/internal/models"
	"statpulse/internal/timeseries"
	"statpulse/internal/tracker"
	"time"
)

// TotalsSource supplies the channel-wide state kept outside the registry.
type TotalsSource interface {
	ChannelTotals() models.ChannelTotals
}

type Builder struct {
	registry *models.EntityRegistry
	store    *timeseries.Store
	tracker  *tracker.Tracker
	totals   TotalsSource
}

func NewBuilder(registry *models.EntityRegistry, store *timeseries.Store, tr *tracker.Tracker, totals TotalsSource) *Builder {
	return &Builder{
		registry: registry,
		store:    store,
		tracker:  tr,
		totals:   totals,
	}
}

// Build reads the current state without mutating it. Entities are ordered by
// Views48h descending; ties keep registry insertion order.
func (b *Builder) Build(now time.Time) models.Snapshot {
	records := b.registry.Records()

	snap := models.Snapshot{
		Timestamp: now.UnixMilli(),
		Entities:  make([]models.EntitySnapshot, 0, len(records)),
	}

	for _, rec := range records {
		es := models.EntitySnapshot{
			Key:                 rec.Key,
			Title:               rec.Title,
			ThumbnailURL:        rec.ThumbnailURL,
			PublishedAt:         rec.PublishedAt,
			Views48h:            b.store.Sum(rec.Key, models.Hourly),
			Views60m:            b.store.Sum(rec.Key, models.Minutely),
			Sparkline48h:        b.store.Counts(rec.Key, models.Hourly),
			Sparkline60m:        b.store.Counts(rec.Key, models.Minutely),
			Views:               rec.Views,
			Likes:               rec.Likes,
			Comments:            rec.Comments,
			Dislikes:            rec.Dislikes,
			Earnings:            rec.Earnings,
			SubscriberNetChange: rec.SubscriberNetChange,
			WatchTimeMs:         rec.WatchTimeMs,
			CTR:                 rec.CTR,
			HotLikes:            b.tracker.HotAt(rec.Key, tracker.MetricLikes, now),
			HotComments:         b.tracker.HotAt(rec.Key, tracker.MetricComments, now),
			HotDislikes:         b.tracker.HotAt(rec.Key, tracker.MetricDislikes, now),
			HotViews48h:         b.tracker.HotAt(rec.Key, tracker.MetricViews48h, now),
			HotViews60m:         b.tracker.HotAt(rec.Key, tracker.MetricViews60m, now),
		}

		snap.TotalLikes += rec.Likes
		snap.TotalComments += rec.Comments
		if rec.Earnings != nil {
			snap.TotalRevenue += *rec.Earnings
		}
		snap.Entities = append(snap.Entities, es)
	}

	sort.SliceStable(snap.Entities, func(i, j int) bool {
		return snap.Entities[i].Views48h > snap.Entities[j].Views48h
	})

	if b.totals != nil {
		t := b.totals.ChannelTotals()
		if t.SubscriberCount != nil {
			v := *t.SubscriberCount
			snap.SubscriberCount = &v
		}
		if len(t.SubscriberHistory) > 0 {
			snap.SubscriberHistory = append([]models.SubscriberPoint(nil), t.SubscriberHistory...)
		}
		snap.TotalWatchTimeMs = t.WatchTimeMs
	}
	snap.SubscriberHot = b.tracker.HotAt(tracker.SubscriberSubject, tracker.SubscriberMetric, now)

	return snap
}
