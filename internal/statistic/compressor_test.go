package statistic

import (
	"fmt"
	json "github.com/goccy/go-json"
	"statpulse/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCompressor(t *testing.T) *ZstdCompression {
	t.Helper()
	c, err := NewZstdCompressor()
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c.(*ZstdCompression)
}

func TestZstdCompression_SinkStateRoundtrip(t *testing.T) {
	c := newCompressor(t)

	state := models.SinkState{Data: &models.Snapshot{TotalLikes: 3}}
	for i := 0; i < 50; i++ {
		state.Notifications = append(state.Notifications, models.NotificationEvent{
			EntityKey: fmt.Sprintf("v%d", i%5),
			Title:     "Same title over and over",
			Kind:      models.KindComments,
			NewCount:  int64(i + 1),
		})
	}
	original, err := json.Marshal(state)
	require.NoError(t, err)

	compressed, err := c.Compress(original)
	require.NoError(t, err)
	// Notification lists repeat most of their text
	assert.Less(t, len(compressed), len(original)/2)

	decompressed, err := c.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, original, decompressed)
}

func TestZstdCompression_EmptyData(t *testing.T) {
	c := newCompressor(t)

	compressed, err := c.Compress([]byte{})
	require.NoError(t, err)

	decompressed, err := c.Decompress(compressed)
	require.NoError(t, err)
	assert.Empty(t, decompressed)
}

func TestZstdCompression_DecompressInvalidData(t *testing.T) {
	c := newCompressor(t)

	_, err := c.Decompress([]byte("not valid zstd data"))
	assert.Error(t, err)

	_, err = c.Decompress([]byte{0xff, 0xfe, 0xfd, 0xfc, 0x00, 0x01})
	assert.Error(t, err)
}
