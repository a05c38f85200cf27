package navigation

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Keyed is implemented by travelers whose maps may be cached. CacheKey must
// change whenever the traveler's location, drives or map knowledge change.
type Keyed interface {
	CacheKey() string
}

// DefaultCacheLimit is the number of maps a Cache holds before it starts over.
const DefaultCacheLimit = 256

// Cache is a thread-safe store of built distance maps for one galaxy.
// A singleflight.Group makes concurrent requests for the same map share one search.
type Cache struct {
	graph   Graph
	metrics *Metrics
	// Limit caps the number of stored maps; reaching it empties the cache.
	Limit int

	mu      sync.RWMutex
	entries map[string]*DistanceMap
	group   singleflight.Group
}

// NewCache creates an empty cache over g. metrics may be nil.
func NewCache(g Graph, metrics *Metrics) *Cache {
	return &Cache{
		graph:   g,
		metrics: metrics,
		Limit:   DefaultCacheLimit,
		entries: make(map[string]*DistanceMap),
	}
}

// FromOrigin returns the unrestricted map centered on origin.
func (c *Cache) FromOrigin(origin int32) *DistanceMap {
	return c.load(fmt.Sprintf("origin:%d", origin), func() *DistanceMap {
		return New(origin, c.graph)
	})
}

// ForTraveler returns the traveler's map. Travelers that do not implement
// Keyed get a freshly built map on every call. Pass an immutable snapshot of
// the traveler when its knowledge can change concurrently.
func (c *Cache) ForTraveler(t Traveler) *DistanceMap {
	return c.traveler(t, "", func() *DistanceMap {
		return ForTraveler(t, c.graph)
	})
}

// WithPolicy returns the traveler's map under p, as built by WithPolicy.
func (c *Cache) WithPolicy(t Traveler, p Policy) *DistanceMap {
	return c.traveler(t, "/"+p.String(), func() *DistanceMap {
		return WithPolicy(t, c.graph, p)
	})
}

func (c *Cache) traveler(t Traveler, suffix string, build func() *DistanceMap) *DistanceMap {
	k, ok := t.(Keyed)
	if !ok {
		dm := build()
		c.metrics.observeBuild(dm)
		return dm
	}
	return c.load("traveler:"+k.CacheKey()+suffix, build)
}

// Invalidate drops every cached map. Call it after the galaxy changes.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*DistanceMap)
}

// Len returns the number of cached maps.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) get(key string) (*DistanceMap, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	dm, ok := c.entries[key]
	return dm, ok
}

func (c *Cache) load(key string, build func() *DistanceMap) *DistanceMap {
	if dm, ok := c.get(key); ok {
		c.metrics.observeHit()
		return dm
	}
	v, _, _ := c.group.Do(key, func() (interface{}, error) {
		if dm, ok := c.get(key); ok {
			c.metrics.observeHit()
			return dm, nil
		}
		dm := build()
		c.metrics.observeBuild(dm)

		c.mu.Lock()
		// Stale traveler keys are never requested again.
		if c.Limit > 0 && len(c.entries) >= c.Limit {
			c.entries = make(map[string]*DistanceMap)
		}
		c.entries[key] = dm
		c.mu.Unlock()
		return dm, nil
	})
	return v.(*DistanceMap)
}
