package models

import "sort"

type EntitySnapshot struct {
	Key          string  `json:"videoId"`
	Title        string  `json:"title"`
	ThumbnailURL string  `json:"thumbnailUrl,omitempty"`
	PublishedAt  int64   `json:"timePublishedSeconds,omitempty"`
	Views48h     int64   `json:"views48h"`
	Views60m     int64   `json:"views60m"`
	Sparkline48h []int64 `json:"sparkline48h"`
	Sparkline60m []int64 `json:"sparkline60m"`

	Views    int64 `json:"viewCount"`
	Likes    int64 `json:"likeCount"`
	Comments int64 `json:"commentCount"`
	Dislikes int64 `json:"dislikeCount"`

	Earnings            *float64 `json:"earnings"`
	SubscriberNetChange *int64   `json:"subscriberNetChange"`
	WatchTimeMs         *int64   `json:"watchTime"`
	CTR                 *float64 `json:"ctr"`

	HotLikes    bool `json:"hotLikes"`
	HotComments bool `json:"hotComments"`
	HotDislikes bool `json:"hotDislikes"`
	HotViews48h bool `json:"hotViews48h"`
	HotViews60m bool `json:"hotViews60m"`
}

// Snapshot is the immutable aggregate view handed to the sink and to
// presentation. Entities are ordered by Views48h descending.
type Snapshot struct {
	Timestamp         int64             `json:"timestamp"`
	SubscriberCount   *int64            `json:"subscriberCount"`
	SubscriberHistory []SubscriberPoint `json:"subscriberHistory"`
	SubscriberHot     bool              `json:"subscriberHot"`
	TotalWatchTimeMs  int64             `json:"totalWatchTime"`
	TotalLikes        int64             `json:"totalLikes"`
	TotalComments     int64             `json:"totalComments"`
	TotalRevenue      float64           `json:"totalRevenue"`
	Entities          []EntitySnapshot  `json:"videos"`
	ReceivedAt        int64             `json:"receivedAt,omitempty"`
}

// ByRecent returns the entities ordered by Views60m descending. Ties keep the
// primary ordering.
func (s *Snapshot) ByRecent() []EntitySnapshot {
	out := make([]EntitySnapshot, len(s.Entities))
	copy(out, s.Entities)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Views60m > out[j].Views60m
	})
	return out
}

// ChannelTotals is the channel-wide state that does not belong to any entity.
type ChannelTotals struct {
	SubscriberCount   *int64
	SubscriberHistory []SubscriberPoint
	WatchTimeMs       int64
}
