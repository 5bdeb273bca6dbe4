package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	bytes     int64
	expiresAt time.Time
}

// PreloadCache records which videos have been preloaded, and how much data
// each fetch pulled, with a TTL so stale preloads age out. It implements
// the cleanup coordinator's Cleaner contract: evicting everything reports
// the bytes it let go of.
type PreloadCache struct {
	mu         sync.Mutex
	entries    map[string]entry
	defaultTTL time.Duration
	now        func() time.Time
}

// New creates a cache. now may be nil for time.Now.
func New(defaultTTL time.Duration, now func() time.Time) *PreloadCache {
	if now == nil {
		now = time.Now
	}
	return &PreloadCache{
		entries:    make(map[string]entry),
		defaultTTL: defaultTTL,
		now:        now,
	}
}

// Store records a completed preload for a video id.
func (c *PreloadCache) Store(id string, bytes int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = entry{bytes: bytes, expiresAt: c.now().Add(c.defaultTTL)}
}

// Contains reports whether a non-expired preload exists for the id.
func (c *PreloadCache) Contains(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	return ok && c.now().Before(e.expiresAt)
}

// Remove drops one entry.
func (c *PreloadCache) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

// Size returns the number of entries, expired ones included.
func (c *PreloadCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// BytesUsed sums the recorded sizes of non-expired entries.
func (c *PreloadCache) BytesUsed() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total int64
	now := c.now()
	for _, e := range c.entries {
		if now.Before(e.expiresAt) {
			total += e.bytes
		}
	}
	return total
}

// EvictExpired drops expired entries and returns the bytes released.
func (c *PreloadCache) EvictExpired() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var freed int64
	now := c.now()
	for id, e := range c.entries {
		if !now.Before(e.expiresAt) {
			freed += e.bytes
			delete(c.entries, id)
		}
	}
	return freed
}

// EvictAll drops everything and returns the bytes released.
func (c *PreloadCache) EvictAll() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var freed int64
	for _, e := range c.entries {
		freed += e.bytes
	}
	c.entries = make(map[string]entry)
	return freed
}

// Name implements the cleanup Cleaner contract.
func (c *PreloadCache) Name() string { return "preload_cache" }

// Cleanup implements the cleanup Cleaner contract by evicting everything.
func (c *PreloadCache) Cleanup(_ context.Context) (uint64, error) {
	return uint64(c.EvictAll()), nil
}
