package cache

import (
	"context"
	"time"

	"github.com/kjstillabower/weather-uk/internal/models"
)

// SiteListKey is the key under which the DataPoint site list is stored.
const SiteListKey = "sitelist"

// Cache defines the interface for site list caching implementations.
// Get returns cached data if present and not expired, Set stores data with TTL.
// Forecasts are never cached.
type Cache interface {
	Get(ctx context.Context, key string) ([]models.Location, bool, error)
	Set(ctx context.Context, key string, value []models.Location, ttl time.Duration) error
}

// InMemoryCache implements Cache using an in-memory map with TTL-based expiration.
// Expired entries are removed on access. Not thread-safe; the app uses it from one goroutine.
type InMemoryCache struct {
	data map[string]cacheEntry
	now  func() time.Time
}

type cacheEntry struct {
	value     []models.Location
	expiresAt time.Time
}

// NewInMemoryCache creates a new in-memory cache instance.
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		data: make(map[string]cacheEntry),
		now:  time.Now,
	}
}

// Get returns a copy of the cached locations for key if present and not expired.
// Returns (data, true, nil) on cache hit, (nil, false, nil) on miss or expiration.
func (c *InMemoryCache) Get(ctx context.Context, key string) ([]models.Location, bool, error) {
	entry, ok := c.data[key]
	if !ok {
		return nil, false, nil
	}

	if c.now().After(entry.expiresAt) {
		delete(c.data, key)
		return nil, false, nil
	}

	return clone(entry.value), true, nil
}

// Set stores a copy of value under key for ttl.
func (c *InMemoryCache) Set(ctx context.Context, key string, value []models.Location, ttl time.Duration) error {
	c.data[key] = cacheEntry{
		value:     clone(value),
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

func clone(locs []models.Location) []models.Location {
	out := make([]models.Location, len(locs))
	copy(out, locs)
	for i := range out {
		if c := out[i].Coordinates; c != nil {
			cc := *c
			out[i].Coordinates = &cc
		}
		if e := out[i].Elevation; e != nil {
			ee := *e
			out[i].Elevation = &ee
		}
	}
	return out
}
