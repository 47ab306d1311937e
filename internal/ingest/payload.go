package ingest

import (
	json "github.com/goccy/go-json"
)

// Node keys understood by the parser. Other keys are ignored.
const (
	KeyVideoMeta      = "0__TOP_VIDEO_META"
	KeyHourly         = "0__HOURLY_PER_VIDEO"
	KeyMinutely       = "0__MINUTELY_PER_VIDEO"
	KeyEntityMetrics  = "2__TOP_ENTITIES_TABLE_QUERY_KEY"
	KeySubscriberCard = "0__CUMULATIVE_SUBSCRIBERS_KEY"
)

const (
	dimensionVideo  = "VIDEO"
	dimensionHour   = "HOUR"
	dimensionMinute = "MINUTE"

	metricExternalViews = "EXTERNAL_VIEWS"
	metricEarnings      = "TOTAL_ESTIMATED_EARNINGS"
	metricSubscribers   = "SUBSCRIBERS_NET_CHANGE"
	metricWatchTime     = "EXTERNAL_WATCH_TIME"
	metricCTR           = "VIDEO_THUMBNAIL_IMPRESSIONS_VTR"
)

type Payload struct {
	Results []Node `json:"results"`
}

type Node struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

type videoMetaValue struct {
	GetCreatorVideos struct {
		Videos []videoItem `json:"videos"`
	} `json:"getCreatorVideos"`
}

type videoItem struct {
	VideoID          string `json:"videoId"`
	VideoKey         string `json:"videoKey"`
	Title            string `json:"title"`
	VideoTitle       string `json:"videoTitle"`
	ThumbnailDetails struct {
		Thumbnails []struct {
			URL string `json:"url"`
		} `json:"thumbnails"`
	} `json:"thumbnailDetails"`
	Metrics              map[string]any `json:"metrics"`
	ViewCount            any            `json:"viewCount"`
	LikeCount            any            `json:"likeCount"`
	CommentCount         any            `json:"commentCount"`
	DislikeCount         any            `json:"dislikeCount"`
	TimePublishedSeconds any            `json:"timePublishedSeconds"`
}

type tableValue struct {
	ResultTable *resultTable `json:"resultTable"`
}

type resultTable struct {
	DimensionColumns []dimensionColumn `json:"dimensionColumns"`
	MetricColumns    []metricColumn    `json:"metricColumns"`
}

type dimensionColumn struct {
	Dimension struct {
		Type string `json:"type"`
	} `json:"dimension"`
	Strings    *valueColumn `json:"strings"`
	Timestamps *valueColumn `json:"timestamps"`
	DateIDs    *valueColumn `json:"dateIds"`
}

type metricColumn struct {
	Metric struct {
		Type                 string `json:"type"`
		AsPercentagesOfTotal *bool  `json:"asPercentagesOfTotal"`
	} `json:"metric"`
	Counts       *valueColumn `json:"counts"`
	Earnings     *valueColumn `json:"earnings"`
	Milliseconds *valueColumn `json:"milliseconds"`
	Percentages  *valueColumn `json:"percentages"`
}

type valueColumn struct {
	Values []any `json:"values"`
	Total  any   `json:"total"`
}

type subscriberValue struct {
	GetCards struct {
		Cards []struct {
			CumulativeSubscribersCardData *subscriberCard `json:"cumulativeSubscribersCardData"`
		} `json:"cards"`
	} `json:"getCards"`
}

type subscriberCard struct {
	LifetimeTotal any          `json:"lifetimeTotal"`
	TableData     *resultTable `json:"tableData"`
}

func (t *resultTable) dimension(kind string) *dimensionColumn {
	for i := range t.DimensionColumns {
		if t.DimensionColumns[i].Dimension.Type == kind {
			return &t.DimensionColumns[i]
		}
	}
	return nil
}

func (t *resultTable) metric(kind string) *metricColumn {
	for i := range t.MetricColumns {
		if t.MetricColumns[i].Metric.Type == kind {
			return &t.MetricColumns[i]
		}
	}
	return nil
}

func (c *valueColumn) values() []any {
	if c == nil {
		return nil
	}
	return c.Values
}
