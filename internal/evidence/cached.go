package evidence

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/ppiankov/claimcheck/internal/cache"
	"github.com/ppiankov/claimcheck/internal/model"
)

// CachedSearcher memoizes successful searches per (corpus, query)
type CachedSearcher struct {
	next  Searcher
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedSearcher wraps next. A zero ttl uses the cache's default.
func NewCachedSearcher(next Searcher, c cache.Cache, ttl time.Duration) *CachedSearcher {
	return &CachedSearcher{next: next, cache: c, ttl: ttl}
}

// Name returns the wrapped corpus name
func (s *CachedSearcher) Name() string {
	return s.next.Name()
}

// Search returns cached sources when present. Errors are never cached.
func (s *CachedSearcher) Search(ctx context.Context, query string) ([]model.Source, error) {
	key := cache.CacheKey(s.next.Name() + "\x00" + normalizeQuery(query))

	if data, ok := s.cache.Get(key); ok {
		var sources []model.Source
		if err := json.Unmarshal(data, &sources); err == nil {
			return sources, nil
		}
		_ = s.cache.Delete(key)
	}

	sources, err := s.next.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(sources); err == nil {
		_ = s.cache.Set(key, data, s.ttl)
	}
	return sources, nil
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}
