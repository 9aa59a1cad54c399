package memory

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shruggr/fpgrowth/cache"
)

var lookups = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "fpgrowth_result_cache_lookups_total",
		Help: "Result cache lookups by outcome",
	},
	[]string{"outcome"},
)

// Cache is an in-memory LRU cache for mining results
type Cache struct {
	lru *lru.Cache[cache.Key, cache.Entry]
	mu  sync.RWMutex
}

// New creates a new in-memory LRU cache with the specified size
func New(size int) (*Cache, error) {
	l, err := lru.New[cache.Key, cache.Entry](size)
	if err != nil {
		return nil, err
	}

	return &Cache{
		lru: l,
	}, nil
}

// Get retrieves a cached result
func (c *Cache) Get(key cache.Key) (cache.Entry, bool) {
	c.mu.RLock()
	entry, ok := c.lru.Get(key)
	c.mu.RUnlock()

	if ok {
		lookups.WithLabelValues("hit").Inc()
	} else {
		lookups.WithLabelValues("miss").Inc()
	}
	return entry, ok
}

// Put stores a result
func (c *Cache) Put(key cache.Key, entry cache.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Add(key, entry)
	return nil
}

// Delete removes a cached result
func (c *Cache) Delete(key cache.Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Remove(key)
	return nil
}

// Clear removes all cached entries
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Purge()
	return nil
}

// Len returns the number of cached entries
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.lru.Len()
}
