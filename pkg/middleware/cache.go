package middleware

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/tandem/internal/logging"
	"github.com/aretw0/tandem/pkg/ports"
)

type cacheMiddleware struct {
	next   ports.Searcher
	cache  ports.SearchCache
	logger *slog.Logger
}

// NewCacheMiddleware creates a middleware that memoises search results.
// Cache failures are logged and never fail the search itself.
func NewCacheMiddleware(cache ports.SearchCache, logger *slog.Logger) SearcherMiddleware {
	if logger == nil {
		logger = logging.NewNop()
	}
	return func(next ports.Searcher) ports.Searcher {
		return &cacheMiddleware{next: next, cache: cache, logger: logger}
	}
}

func (m *cacheMiddleware) Search(ctx context.Context, query string) ([]ports.SearchResult, error) {
	cached, err := m.cache.Get(ctx, query)
	switch {
	case err == nil:
		m.logger.Debug("search cache hit", "query", query)
		return cached, nil
	case !errors.Is(err, ports.ErrCacheMiss):
		m.logger.Warn("search cache read failed", "query", query, "err", err)
	}

	results, err := m.next.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	if err := m.cache.Set(ctx, query, results); err != nil {
		m.logger.Warn("search cache write failed", "query", query, "err", err)
	}
	return results, nil
}
