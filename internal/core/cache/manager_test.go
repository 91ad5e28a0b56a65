package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-manager/internal/infrastructure/config"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager(maxSize int) (*Manager, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := newManager(config.CacheConfig{MaxSize: maxSize, TTL: time.Minute}, clock.now)
	return m, clock
}

func TestManagerGetSet(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(10)

	_, err := m.Get(ctx, "recipes:list")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, m.Set(ctx, "recipes:list", `[]`))
	val, err := m.Get(ctx, "recipes:list")
	require.NoError(t, err)
	assert.Equal(t, `[]`, val)

	stats := m.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)
}

func TestManagerExpiry(t *testing.T) {
	ctx := context.Background()
	m, clock := newTestManager(10)

	require.NoError(t, m.Set(ctx, "k", "v"))
	clock.advance(2 * time.Minute)

	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
	assert.Equal(t, int64(1), m.GetStats().Evictions)
}

func TestManagerEvictsLeastUsed(t *testing.T) {
	ctx := context.Background()
	m, clock := newTestManager(2)

	require.NoError(t, m.Set(ctx, "a", "1"))
	clock.advance(time.Second)
	require.NoError(t, m.Set(ctx, "b", "2"))
	_, err := m.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, m.Set(ctx, "c", "3"))

	_, err = m.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrMiss, "b was never read and should be evicted")
	_, err = m.Get(ctx, "a")
	assert.NoError(t, err)
	_, err = m.Get(ctx, "c")
	assert.NoError(t, err)
}

func TestManagerPurge(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(10)

	require.NoError(t, m.Set(ctx, "recipes:list", "[]"))
	require.NoError(t, m.Set(ctx, "recipes:search:pasta", "[]"))
	require.NoError(t, m.Set(ctx, "other:key", "x"))

	n, err := m.Purge(ctx, "recipes:")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, m.GetStats().Size)
}

func TestManagerClose(t *testing.T) {
	m := NewManager(config.CacheConfig{MaxSize: 1, TTL: time.Minute, CleanupInterval: time.Hour})
	require.NoError(t, m.Set(context.Background(), "k", "v"))
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.Equal(t, 0, m.GetStats().Size)
}

func TestNewDisabled(t *testing.T) {
	cfg := config.Default()
	store, err := New(cfg)
	require.NoError(t, err)
	assert.Nil(t, store)
}

func TestManagerStatsReportTrackedCounters(t *testing.T) {
	ctx := context.Background()
	m, clock := newTestManager(10)

	require.NoError(t, m.Set(ctx, "recipes:list", `[]`))
	clock.advance(2 * time.Minute)
	_, err := m.Get(ctx, "recipes:list")
	assert.ErrorIs(t, err, ErrMiss)

	raw, err := json.Marshal(m.GetStats())
	require.NoError(t, err)
	var fields map[string]int64
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, map[string]int64{
		"size":      0,
		"max_size":  10,
		"hits":      0,
		"misses":    1,
		"evictions": 1,
	}, fields)
}
