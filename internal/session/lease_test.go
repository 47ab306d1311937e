package session

import (
	"errors"
	"statpulse/internal/clock/clocktest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLease_ClaimAndConflict(t *testing.T) {
	clk := clocktest.NewClock(time.Unix(1_700_000_000, 0))
	l := NewLease(clk, 0)

	s, err := l.Claim("a")
	require.NoError(t, err)
	assert.Equal(t, "a", s.ID)

	_, err = l.Claim("b")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflict))
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "a", conflict.CurrentID)

	clk.Advance(30 * time.Second)
	s, err = l.Claim("a")
	require.NoError(t, err)
	assert.Equal(t, clk.Now(), s.LastHeartbeatAt)
	assert.Equal(t, time.Unix(1_700_000_000, 0), s.CreatedAt)
}

func TestLease_MissingID(t *testing.T) {
	l := NewLease(clocktest.NewClock(time.Now()), time.Minute)
	_, err := l.Claim("")
	assert.ErrorIs(t, err, ErrMissingID)
	_, ok := l.Current()
	assert.False(t, ok)
}

func TestLease_ExpiresAfterTimeout(t *testing.T) {
	clk := clocktest.NewClock(time.Unix(1_700_000_000, 0))
	l := NewLease(clk, time.Minute)
	_, err := l.Claim("a")
	require.NoError(t, err)

	clk.Advance(time.Minute)
	_, ok := l.Current()
	assert.True(t, ok, "exactly at the timeout the lease still holds")

	clk.Advance(time.Second)
	_, ok = l.Current()
	assert.False(t, ok)

	s, err := l.Claim("b")
	require.NoError(t, err)
	assert.Equal(t, "b", s.ID)
}

func TestLease_Sweep(t *testing.T) {
	clk := clocktest.NewClock(time.Unix(1_700_000_000, 0))
	l := NewLease(clk, time.Minute)
	_, _ = l.Claim("a")

	assert.False(t, l.Sweep())
	clk.Advance(61 * time.Second)
	assert.True(t, l.Sweep())
	assert.False(t, l.Sweep())
}

func TestLease_Release(t *testing.T) {
	l := NewLease(clocktest.NewClock(time.Now()), time.Minute)
	_, _ = l.Claim("a")
	l.Release()
	_, err := l.Claim("b")
	assert.NoError(t, err)
}

func TestNewSessionID(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_123)
	a := NewSessionID(now)
	b := NewSessionID(now)

	assert.Regexp(t, `^sp-1700000000123-[0-9a-f]{12}$`, a)
	assert.NotEqual(t, a, b)
}
