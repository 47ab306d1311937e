package models

import "sync"

// EntityRegistry keeps entity records in first-sighting order.
type EntityRegistry struct {
	mu      sync.RWMutex
	order   []string
	records map[string]*EntityRecord
}

func NewEntityRegistry() *EntityRegistry {
	return &EntityRegistry{
		records: make(map[string]*EntityRecord),
	}
}

func (r *EntityRegistry) touch(key string) *EntityRecord {
	rec, ok := r.records[key]
	if !ok {
		rec = &EntityRecord{Key: key}
		r.records[key] = rec
		r.order = append(r.order, key)
	}
	return rec
}

// Touch creates an empty record for key unless one exists.
func (r *EntityRegistry) Touch(key string) {
	if key == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touch(key)
}

// Upsert overwrites identity and counters with the update and returns the
// record as it was before. existed is false until the counters of the key
// have been observed once; records created by Touch or SetDerived do not
// count.
func (r *EntityRegistry) Upsert(u EntityUpdate) (prev EntityRecord, existed bool) {
	if u.Key == "" {
		return EntityRecord{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.touch(u.Key)
	existed = rec.observed
	if existed {
		prev = rec.clone()
	}
	rec.observed = true

	if u.Title != "" {
		rec.Title = u.Title
	}
	if u.ThumbnailURL != "" {
		rec.ThumbnailURL = u.ThumbnailURL
	}
	if u.PublishedAt != 0 {
		rec.PublishedAt = u.PublishedAt
	}
	rec.Views = u.Views
	rec.Likes = u.Likes
	rec.Comments = u.Comments
	rec.Dislikes = u.Dislikes
	return prev, existed
}

func (r *EntityRegistry) SetDerived(d DerivedMetrics) {
	if d.Key == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.touch(d.Key)
	if d.Earnings != nil {
		v := *d.Earnings
		rec.Earnings = &v
	}
	if d.SubscriberNetChange != nil {
		v := *d.SubscriberNetChange
		rec.SubscriberNetChange = &v
	}
	if d.WatchTimeMs != nil {
		v := *d.WatchTimeMs
		rec.WatchTimeMs = &v
	}
	if d.CTR != nil {
		v := *d.CTR
		rec.CTR = &v
	}
}

func (r *EntityRegistry) Get(key string) (EntityRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[key]
	if !ok {
		return EntityRecord{}, false
	}
	return rec.clone(), true
}

// Records returns copies of all records in insertion order.
func (r *EntityRegistry) Records() []EntityRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]EntityRecord, 0, len(r.order))
	for _, key := range r.order {
		result = append(result, r.records[key].clone())
	}
	return result
}

func (r *EntityRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func (e *EntityRecord) clone() EntityRecord {
	c := *e
	if e.Earnings != nil {
		v := *e.Earnings
		c.Earnings = &v
	}
	if e.SubscriberNetChange != nil {
		v := *e.SubscriberNetChange
		c.SubscriberNetChange = &v
	}
	if e.WatchTimeMs != nil {
		v := *e.WatchTimeMs
		c.WatchTimeMs = &v
	}
	if e.CTR != nil {
		v := *e.CTR
		c.CTR = &v
	}
	return c
}
