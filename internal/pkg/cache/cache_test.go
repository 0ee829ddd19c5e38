package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counts struct {
	Users     int64 `json:"users"`
	Positions int64 `json:"positions"`
}

func TestFileCache_RoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	fc, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	fc.now = func() time.Time { return now }

	require.NoError(t, fc.Set(ctx, "dashboard:counts", counts{Users: 3, Positions: 7}, time.Minute))

	var got counts
	ok, err := fc.Get(ctx, "dashboard:counts", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, counts{Users: 3, Positions: 7}, got)

	now = now.Add(2 * time.Minute)
	ok, err = fc.Get(ctx, "dashboard:counts", &got)
	require.NoError(t, err)
	assert.False(t, ok, "expired entries are misses")
}

func TestFileCache_Delete(t *testing.T) {
	ctx := context.Background()
	fc, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, fc.Set(ctx, "k", "v", time.Hour))
	require.NoError(t, fc.Delete(ctx, "k"))
	require.NoError(t, fc.Delete(ctx, "k"), "deleting a missing key is fine")

	var s string
	ok, err := fc.Get(ctx, "k", &s)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	var c Cache = Noop{}

	require.NoError(t, c.Set(ctx, "k", 1, time.Hour))
	var v int
	ok, err := c.Get(ctx, "k", &v)
	require.NoError(t, err)
	assert.False(t, ok)
}
