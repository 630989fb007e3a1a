package rpc

import (
	"context"

	"github.com/hiq-lab/arvak-go/internal/cache"
	"github.com/hiq-lab/arvak-go/internal/core/domain"
)

// CachedService serves job results from a two-level cache before reaching
// the remote service. Submit, Poll, Cancel, and Close pass straight through
// to the embedded service; only Result is intercepted.
type CachedService struct {
	JobService
	cache     *cache.TwoLevelCache
	autoCache bool
}

// NewCachedService wraps inner with result caching. When autoCache is true
// (the usual mode), fetched results are stored on the way out.
func NewCachedService(inner JobService, c *cache.TwoLevelCache, autoCache bool) *CachedService {
	return &CachedService{JobService: inner, cache: c, autoCache: autoCache}
}

// Result returns the cached result when present, fetching and (optionally)
// caching it otherwise.
func (s *CachedService) Result(ctx context.Context, jobID string) (*domain.JobResult, error) {
	if r, ok := s.cache.Get(jobID); ok {
		return r, nil
	}

	r, err := s.JobService.Result(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if s.autoCache {
		// A write failure only costs a future round-trip.
		_ = s.cache.Put(r)
	}
	return r, nil
}

// CacheStats reports both cache tiers' statistics.
func (s *CachedService) CacheStats() cache.TwoLevelStats {
	return s.cache.Stats()
}
