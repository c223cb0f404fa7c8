package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/tandem/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// DefaultTTL is how long search results stay cached.
const DefaultTTL = 24 * time.Hour

// Cache implements ports.SearchCache using Redis.
// Entries expire after the configured TTL.
type Cache struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures the Redis Cache.
type Option func(*Cache)

// WithTTL sets the expiration for cached results. Zero keeps entries forever.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithPrefix sets the key prefix (default "tandem:search:").
func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

// New creates a cache connected to the Redis server at addr.
func New(addr string, opts ...Option) *Cache {
	client := backend.NewClient(&backend.Options{
		Addr: addr,
	})
	return NewFromClient(client, opts...)
}

// NewFromURL creates a cache from a redis:// URL.
func NewFromURL(url string, opts ...Option) (*Cache, error) {
	parsed, err := backend.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return NewFromClient(backend.NewClient(parsed), opts...), nil
}

// NewFromClient creates a cache using an existing Redis client.
func NewFromClient(client *backend.Client, opts ...Option) *Cache {
	c := &Cache{
		client: client,
		prefix: "tandem:search:",
		ttl:    DefaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ping checks connectivity to the server.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Get returns the cached results for query.
func (c *Cache) Get(ctx context.Context, query string) ([]ports.SearchResult, error) {
	val, err := c.client.Get(ctx, c.key(query)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, ports.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var results []ports.SearchResult
	if err := json.Unmarshal([]byte(val), &results); err != nil {
		return nil, fmt.Errorf("failed to decode cached results: %w", err)
	}
	return results, nil
}

// Set stores the results for query.
func (c *Cache) Set(ctx context.Context, query string, results []ports.SearchResult) error {
	if results == nil {
		results = []ports.SearchResult{}
	}
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}

	if err := c.client.Set(ctx, c.key(query), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// key normalises the query and hashes it so arbitrary text maps to a bounded key.
func (c *Cache) key(query string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query))))
	return c.prefix + hex.EncodeToString(sum[:])
}
