package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/tandem/pkg/ports"
)

type entry struct {
	results []ports.SearchResult
	expires time.Time
}

// Cache implements ports.SearchCache in memory.
// Safe for concurrent use.
type Cache struct {
	data map[string]entry
	ttl  time.Duration
	now  func() time.Time
	mu   sync.RWMutex
}

// NewCache creates a new in-memory cache. A zero ttl keeps entries forever.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		data: make(map[string]entry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Get returns a copy of the cached results.
func (c *Cache) Get(ctx context.Context, query string) ([]ports.SearchResult, error) {
	c.mu.RLock()
	e, ok := c.data[normalise(query)]
	c.mu.RUnlock()

	if !ok {
		return nil, ports.ErrCacheMiss
	}
	if c.expired(e) {
		key := normalise(query)
		c.mu.Lock()
		// A Set may have replaced the entry since the read lock was released.
		if cur, ok := c.data[key]; ok && c.expired(cur) {
			delete(c.data, key)
		}
		c.mu.Unlock()
		return nil, ports.ErrCacheMiss
	}

	// Copy on read so callers can't mutate the cached slice
	out := make([]ports.SearchResult, len(e.results))
	copy(out, e.results)
	return out, nil
}

// Set stores a copy of results.
func (c *Cache) Set(ctx context.Context, query string, results []ports.SearchResult) error {
	stored := make([]ports.SearchResult, len(results))
	copy(stored, results)

	e := entry{results: stored}
	if c.ttl > 0 {
		e.expires = c.now().Add(c.ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[normalise(query)] = e
	return nil
}

// Len returns the number of cached queries, including expired ones not yet evicted.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

func normalise(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

func (c *Cache) expired(e entry) bool {
	return !e.expires.IsZero() && c.now().After(e.expires)
}
