package models

// EntityRecord is the latest known state of a tracked item (a video).
// Derived metrics arrive from a separate table and stay nil until seen.
type EntityRecord struct {
	Key          string `json:"videoId"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	PublishedAt  int64  `json:"timePublishedSeconds,omitempty"`

	Views    int64 `json:"viewCount"`
	Likes    int64 `json:"likeCount"`
	Comments int64 `json:"commentCount"`
	Dislikes int64 `json:"dislikeCount"`

	Earnings            *float64 `json:"earnings"`
	SubscriberNetChange *int64   `json:"subscriberNetChange"`
	WatchTimeMs         *int64   `json:"watchTime"`
	CTR                 *float64 `json:"ctr"`

	observed bool
}

// EntityUpdate carries the identity and counters of one entry of an entity list.
type EntityUpdate struct {
	Key          string
	Title        string
	ThumbnailURL string
	PublishedAt  int64
	Views        int64
	Likes        int64
	Comments     int64
	Dislikes     int64
}

// DerivedMetrics is one row of the per-entity metrics table. Nil fields were
// absent from the row and leave the stored value untouched.
type DerivedMetrics struct {
	Key                 string
	Earnings            *float64
	SubscriberNetChange *int64
	WatchTimeMs         *int64
	CTR                 *float64
}
