// Package cache provides the TTL cache invalidated after every pipeline run.
package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultTTL is how long cached aggregate views live without invalidation.
const DefaultTTL = 5 * time.Minute

// Memory is an in-process TTL cache. It implements news.Cache and offers
// Get/Set for the API layer's response caching.
type Memory struct {
	c *gocache.Cache
}

// NewMemory constructs a cache with the given TTL (DefaultTTL when zero).
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{c: gocache.New(ttl, 2*ttl)}
}

// Get returns a cached value.
func (m *Memory) Get(key string) (any, bool) {
	return m.c.Get(key)
}

// Set stores a value under the default TTL.
func (m *Memory) Set(key string, value any) {
	m.c.Set(key, value, gocache.DefaultExpiration)
}

// Clear drops every entry. Called once per pipeline run so stale aggregate
// views are never served.
func (m *Memory) Clear(_ context.Context) error {
	m.c.Flush()
	return nil
}

// Size reports the number of live entries.
func (m *Memory) Size(_ context.Context) (int, error) {
	return m.c.ItemCount(), nil
}
