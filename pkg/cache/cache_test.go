package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tickingClock struct {
	t time.Time
}

func newTickingClock() *tickingClock {
	return &tickingClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *tickingClock) Now() time.Time { return c.t }

func (c *tickingClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestPreloadCache_StoreAndContains(t *testing.T) {
	clock := newTickingClock()
	c := New(time.Minute, clock.Now)

	c.Store("v1", 1024)
	assert.True(t, c.Contains("v1"))
	assert.False(t, c.Contains("v2"))
	assert.Equal(t, 1, c.Size())
	assert.Equal(t, int64(1024), c.BytesUsed())
}

func TestPreloadCache_EntriesExpire(t *testing.T) {
	clock := newTickingClock()
	c := New(time.Minute, clock.Now)
	c.Store("v1", 1024)

	clock.Advance(time.Minute)
	assert.False(t, c.Contains("v1"))
	assert.Equal(t, int64(0), c.BytesUsed())

	freed := c.EvictExpired()
	assert.Equal(t, int64(1024), freed)
	assert.Equal(t, 0, c.Size())
}

func TestPreloadCache_StoreRefreshesTTL(t *testing.T) {
	clock := newTickingClock()
	c := New(time.Minute, clock.Now)
	c.Store("v1", 1024)

	clock.Advance(45 * time.Second)
	c.Store("v1", 2048)

	clock.Advance(30 * time.Second)
	assert.True(t, c.Contains("v1"))
	assert.Equal(t, int64(2048), c.BytesUsed())
}

func TestPreloadCache_Remove(t *testing.T) {
	c := New(time.Minute, newTickingClock().Now)
	c.Store("v1", 1)
	c.Remove("v1")
	assert.False(t, c.Contains("v1"))
	c.Remove("v1") // removing a missing entry is fine
}

func TestPreloadCache_EvictAll(t *testing.T) {
	c := New(time.Minute, newTickingClock().Now)
	c.Store("v1", 100)
	c.Store("v2", 200)

	assert.Equal(t, int64(300), c.EvictAll())
	assert.Equal(t, 0, c.Size())
}

func TestPreloadCache_ActsAsCleaner(t *testing.T) {
	c := New(time.Minute, newTickingClock().Now)
	c.Store("v1", 512)

	assert.Equal(t, "preload_cache", c.Name())
	freed, err := c.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(512), freed)
	assert.Equal(t, 0, c.Size())
}
