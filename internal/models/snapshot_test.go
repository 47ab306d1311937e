package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGranularity_Window(t *testing.T) {
	assert.Equal(t, 48*time.Hour, Hourly.Window())
	assert.Equal(t, 60*time.Minute, Minutely.Window())
	assert.Equal(t, time.Duration(0), Granularity("daily").Window())
	assert.False(t, Granularity("daily").Valid())
}

func TestSnapshot_ByRecentIsStable(t *testing.T) {
	s := Snapshot{Entities: []EntitySnapshot{
		{Key: "a", Views48h: 30, Views60m: 1},
		{Key: "b", Views48h: 20, Views60m: 5},
		{Key: "c", Views48h: 10, Views60m: 1},
	}}

	recent := s.ByRecent()

	keys := []string{recent[0].Key, recent[1].Key, recent[2].Key}
	assert.Equal(t, []string{"b", "a", "c"}, keys)
	assert.Equal(t, "a", s.Entities[0].Key, "primary ordering untouched")
}
