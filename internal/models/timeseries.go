package models

import "time"

type Granularity string

const (
	Hourly   Granularity = "hourly"
	Minutely Granularity = "minutely"
)

const (
	HourlyWindow   = 48 * time.Hour
	MinutelyWindow = 60 * time.Minute
)

// Window returns the default retention window of the granularity.
func (g Granularity) Window() time.Duration {
	switch g {
	case Hourly:
		return HourlyWindow
	case Minutely:
		return MinutelyWindow
	default:
		return 0
	}
}

func (g Granularity) Valid() bool {
	return g == Hourly || g == Minutely
}

// Point is one bucket of a series. Timestamp is in milliseconds.
type Point struct {
	Timestamp int64 `json:"timestamp"`
	Count     int64 `json:"count"`
}

// SubscriberPoint is one day of the cumulative subscriber history.
type SubscriberPoint struct {
	DateID int64 `json:"dateId"`
	Count  int64 `json:"count"`
}

// ChangeEntry is one recorded increase of a tracked metric.
type ChangeEntry struct {
	At    time.Time `json:"timestamp"`
	Value int64     `json:"value"`
}
