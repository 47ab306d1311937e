// Package ingest turns raw analytics payloads into typed batches for the
// aggregation engine.
package ingest

import (
	"errors"
	"fmt"
	json "github.com/goccy/go-json"
	"github.com/spf13/cast"
	"math"
	"statpulse/internal/models"
	"strings"
)

// ErrMalformedNode marks a node that was rejected as a whole.
var ErrMalformedNode = errors.New("malformed node")

// NodeError describes a rejected node.
type NodeError struct {
	Key    string
	Reason string
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrMalformedNode, e.Key, e.Reason)
}

func (e *NodeError) Unwrap() error {
	return ErrMalformedNode
}

// SeriesColumns holds the zipped rows of a per-entity time table.
type SeriesColumns struct {
	Keys       []string
	Timestamps []int64
	Counts     []int64
}

func (c SeriesColumns) Len() int {
	return len(c.Keys)
}

type SubscriberCard struct {
	LifetimeTotal *int64
	History       []models.SubscriberPoint
}

// Batch is everything extracted from one payload.
type Batch struct {
	Entities       []models.EntityUpdate
	Hourly         *SeriesColumns
	Minutely       *SeriesColumns
	Derived        []models.DerivedMetrics
	WatchTimeTotal *int64
	Subscribers    *SubscriberCard

	Accepted []string
	Rejected []*NodeError
}

func (b *Batch) Empty() bool {
	return len(b.Entities) == 0 && b.Hourly == nil && b.Minutely == nil &&
		len(b.Derived) == 0 && b.WatchTimeTotal == nil && b.Subscribers == nil
}

// Decode parses the JSON envelope of a payload.
func Decode(data []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, fmt.Errorf("decode payload: %w", err)
	}
	return p, nil
}

// Parse extracts every known node of p. A malformed node is recorded in
// Rejected and contributes nothing; the other nodes still apply.
func Parse(p Payload) Batch {
	var b Batch
	for _, node := range p.Results {
		var err error
		switch node.Key {
		case KeyVideoMeta:
			err = parseVideoMeta(node.Value, &b)
		case KeyHourly:
			b.Hourly, err = parseSeries(node.Value, dimensionHour)
		case KeyMinutely:
			b.Minutely, err = parseSeries(node.Value, dimensionMinute)
		case KeyEntityMetrics:
			err = parseEntityMetrics(node.Value, &b)
		case KeySubscriberCard:
			b.Subscribers, err = parseSubscriberCard(node.Value)
		default:
			continue
		}
		if err != nil {
			b.Rejected = append(b.Rejected, &NodeError{Key: node.Key, Reason: err.Error()})
			continue
		}
		b.Accepted = append(b.Accepted, node.Key)
	}
	return b
}

func parseVideoMeta(raw json.RawMessage, b *Batch) error {
	var v videoMetaValue
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}

	seen := make(map[string]struct{})
	updates := make([]models.EntityUpdate, 0, len(v.GetCreatorVideos.Videos))
	for i, item := range v.GetCreatorVideos.Videos {
		key := firstNonEmpty(item.VideoID, item.VideoKey)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		u := models.EntityUpdate{
			Key:          key,
			Title:        firstNonEmpty(item.Title, item.VideoTitle),
			ThumbnailURL: pickThumbnail(item),
		}
		var err error
		if u.Views, err = counter(item, "viewCount", item.ViewCount); err != nil {
			return fmt.Errorf("video %d: %w", i, err)
		}
		if u.Likes, err = counter(item, "likeCount", item.LikeCount); err != nil {
			return fmt.Errorf("video %d: %w", i, err)
		}
		if u.Comments, err = counter(item, "commentCount", item.CommentCount); err != nil {
			return fmt.Errorf("video %d: %w", i, err)
		}
		if u.Dislikes, err = counter(item, "dislikeCount", item.DislikeCount); err != nil {
			return fmt.Errorf("video %d: %w", i, err)
		}
		if item.TimePublishedSeconds != nil {
			if u.PublishedAt, err = toInt64(item.TimePublishedSeconds); err != nil {
				return fmt.Errorf("video %d: timePublishedSeconds: %w", i, err)
			}
		}
		updates = append(updates, u)
	}
	b.Entities = append(b.Entities, updates...)
	return nil
}

// counter prefers the nested metrics object over the flat field.
func counter(item videoItem, name string, flat any) (int64, error) {
	v, ok := item.Metrics[name]
	if !ok || v == nil {
		v = flat
	}
	if v == nil {
		return 0, nil
	}
	n, err := toInt64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return n, nil
}

func pickThumbnail(item videoItem) string {
	thumbs := item.ThumbnailDetails.Thumbnails
	for _, t := range thumbs {
		if strings.Contains(t.URL, "mqdefault") || strings.Contains(t.URL, "mq2") {
			return t.URL
		}
	}
	if len(thumbs) > 0 {
		return thumbs[0].URL
	}
	return ""
}

func parseSeries(raw json.RawMessage, timeDimension string) (*SeriesColumns, error) {
	table, err := decodeTable(raw)
	if err != nil {
		return nil, err
	}

	video := table.dimension(dimensionVideo)
	bucket := table.dimension(timeDimension)
	views := table.metric(metricExternalViews)
	switch {
	case video == nil:
		return nil, errors.New("missing VIDEO dimension")
	case bucket == nil:
		return nil, fmt.Errorf("missing %s dimension", timeDimension)
	case views == nil || views.Counts == nil:
		return nil, errors.New("missing EXTERNAL_VIEWS counts")
	}

	keys := video.Strings.values()
	stamps := bucket.Timestamps.values()
	counts := views.Counts.values()
	if len(keys) != len(stamps) || len(stamps) != len(counts) {
		return nil, fmt.Errorf("column length mismatch: keys=%d timestamps=%d counts=%d", len(keys), len(stamps), len(counts))
	}

	cols := &SeriesColumns{
		Keys:       make([]string, len(keys)),
		Timestamps: make([]int64, len(keys)),
		Counts:     make([]int64, len(keys)),
	}
	for i := range keys {
		if cols.Keys[i], err = cast.ToStringE(keys[i]); err != nil {
			return nil, fmt.Errorf("row %d: key: %w", i, err)
		}
		if cols.Timestamps[i], err = toInt64(stamps[i]); err != nil {
			return nil, fmt.Errorf("row %d: timestamp: %w", i, err)
		}
		if cols.Counts[i], err = toInt64(counts[i]); err != nil {
			return nil, fmt.Errorf("row %d: count: %w", i, err)
		}
	}
	return cols, nil
}

func parseEntityMetrics(raw json.RawMessage, b *Batch) error {
	table, err := decodeTable(raw)
	if err != nil {
		return err
	}
	video := table.dimension(dimensionVideo)
	if video == nil {
		return errors.New("missing VIDEO dimension")
	}
	keys := video.Strings.values()

	var earnings, subscribers, watchTime, ctr []any
	var total *int64
	for _, col := range table.MetricColumns {
		switch col.Metric.Type {
		case metricEarnings:
			pct := col.Metric.AsPercentagesOfTotal
			if pct != nil && !*pct && col.Earnings != nil {
				earnings = col.Earnings.Values
			}
		case metricSubscribers:
			subscribers = col.Counts.values()
		case metricWatchTime:
			watchTime = col.Milliseconds.values()
			if col.Milliseconds != nil && col.Milliseconds.Total != nil {
				v, err := toInt64(col.Milliseconds.Total)
				if err != nil {
					return fmt.Errorf("watch time total: %w", err)
				}
				total = &v
			}
		case metricCTR:
			ctr = col.Percentages.values()
		}
	}

	for name, col := range map[string][]any{
		metricEarnings:    earnings,
		metricSubscribers: subscribers,
		metricWatchTime:   watchTime,
		metricCTR:         ctr,
	} {
		if col != nil && len(col) != len(keys) {
			return fmt.Errorf("column length mismatch: %s=%d videos=%d", name, len(col), len(keys))
		}
	}

	rows := make([]models.DerivedMetrics, 0, len(keys))
	for i, k := range keys {
		key, err := cast.ToStringE(k)
		if err != nil || key == "" {
			return fmt.Errorf("row %d: invalid video key", i)
		}
		d := models.DerivedMetrics{Key: key}
		if earnings != nil {
			v, err := cast.ToFloat64E(earnings[i])
			if err != nil {
				return fmt.Errorf("row %d: earnings: %w", i, err)
			}
			e := milliToCurrency(v)
			d.Earnings = &e
		}
		if subscribers != nil {
			v, err := toInt64(subscribers[i])
			if err != nil {
				return fmt.Errorf("row %d: subscribers: %w", i, err)
			}
			d.SubscriberNetChange = &v
		}
		if watchTime != nil {
			v, err := toInt64(watchTime[i])
			if err != nil {
				return fmt.Errorf("row %d: watch time: %w", i, err)
			}
			d.WatchTimeMs = &v
		}
		if ctr != nil {
			v, err := cast.ToFloat64E(ctr[i])
			if err != nil {
				return fmt.Errorf("row %d: ctr: %w", i, err)
			}
			d.CTR = &v
		}
		rows = append(rows, d)
	}

	b.Derived = append(b.Derived, rows...)
	if total != nil {
		b.WatchTimeTotal = total
	}
	return nil
}

func parseSubscriberCard(raw json.RawMessage) (*SubscriberCard, error) {
	var v subscriberValue
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	if len(v.GetCards.Cards) == 0 || v.GetCards.Cards[0].CumulativeSubscribersCardData == nil {
		return nil, errors.New("missing cumulative subscribers card")
	}
	data := v.GetCards.Cards[0].CumulativeSubscribersCardData

	card := &SubscriberCard{}
	if data.LifetimeTotal != nil {
		n, err := toInt64(data.LifetimeTotal)
		if err != nil {
			return nil, fmt.Errorf("lifetime total: %w", err)
		}
		card.LifetimeTotal = &n
	}

	td := data.TableData
	if td == nil || len(td.DimensionColumns) == 0 || len(td.MetricColumns) == 0 {
		return card, nil
	}
	dates := td.DimensionColumns[0].DateIDs.values()
	counts := td.MetricColumns[0].Counts.values()
	if len(dates) != len(counts) {
		return nil, fmt.Errorf("column length mismatch: dateIds=%d counts=%d", len(dates), len(counts))
	}
	for i := range dates {
		id, err := toInt64(dates[i])
		if err != nil {
			return nil, fmt.Errorf("row %d: date id: %w", i, err)
		}
		n, err := toInt64(counts[i])
		if err != nil {
			return nil, fmt.Errorf("row %d: count: %w", i, err)
		}
		card.History = append(card.History, models.SubscriberPoint{DateID: id, Count: n})
	}
	return card, nil
}

func decodeTable(raw json.RawMessage) (*resultTable, error) {
	var v tableValue
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	if v.ResultTable == nil {
		return nil, errors.New("missing resultTable")
	}
	if len(v.ResultTable.DimensionColumns) == 0 || len(v.ResultTable.MetricColumns) == 0 {
		return nil, errors.New("missing dimension or metric columns")
	}
	return v.ResultTable, nil
}

// toInt64 accepts JSON numbers and numeric strings. Fractions are rounded.
func toInt64(v any) (int64, error) {
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %v", v)
	}
	return int64(math.Round(f)), nil
}

// milliToCurrency converts earnings reported in milli-units, rounding half up.
func milliToCurrency(v float64) float64 {
	return math.Floor(v+0.5) / 1000
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
