package ports

import (
	"context"
	"errors"
)

// ErrCacheMiss is returned by SearchCache.Get when the query is not cached.
var ErrCacheMiss = errors.New("cache miss")

// SearchCache memoises search results by query.
// Implementations must be safe for concurrent use.
type SearchCache interface {
	// Get returns the cached results for query or ErrCacheMiss.
	Get(ctx context.Context, query string) ([]SearchResult, error)

	// Set stores the results for query.
	Set(ctx context.Context, query string, results []SearchResult) error
}
