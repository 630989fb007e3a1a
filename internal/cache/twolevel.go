package cache

import (
	"time"

	"github.com/hiq-lab/arvak-go/internal/core/domain"
)

// TwoLevelConfig configures the L1 memory tier, the L2 durable tier, and the
// promotion policy.
type TwoLevelConfig struct {
	MemorySize int
	MemoryTTL  time.Duration
	Dir        string
	DiskTTL    time.Duration
	Codec      Codec

	// PromoteOnHit controls whether an L2 hit is written into L1. Nil
	// defaults to true; disable for scan-heavy access patterns where
	// promotion would churn L1.
	PromoteOnHit *bool
}

// TwoLevelStats nests each tier's statistics.
type TwoLevelStats struct {
	L1 Stats `json:"l1"`
	L2 Stats `json:"l2"`
}

// EvictedCounts reports per-tier eviction counts from EvictExpired.
type EvictedCounts struct {
	L1 int `json:"l1_evicted"`
	L2 int `json:"l2_evicted"`
}

// TwoLevelCache composes a fast in-memory L1 with a durable L2. Puts write
// through to both tiers; L2 hits are promoted into L1 so recently accessed
// keys stay fast, bounded by L1's own capacity.
type TwoLevelCache struct {
	l1      *MemoryCache
	l2      Cache
	promote bool
}

// NewTwoLevelCache builds a memory-over-disk cache from cfg.
func NewTwoLevelCache(cfg TwoLevelConfig) (*TwoLevelCache, error) {
	size := cfg.MemorySize
	if size <= 0 {
		size = 100
	}
	l2, err := NewDiskCache(cfg.Dir, cfg.Codec, cfg.DiskTTL)
	if err != nil {
		return nil, err
	}
	promote := true
	if cfg.PromoteOnHit != nil {
		promote = *cfg.PromoteOnHit
	}
	return &TwoLevelCache{
		l1:      NewMemoryCache(size, cfg.MemoryTTL),
		l2:      l2,
		promote: promote,
	}, nil
}

// NewTwoLevelCacheWith composes an explicit L1 and L2, for callers wiring a
// Redis L2 or a custom tier.
func NewTwoLevelCacheWith(l1 *MemoryCache, l2 Cache, promoteOnHit bool) *TwoLevelCache {
	return &TwoLevelCache{l1: l1, l2: l2, promote: promoteOnHit}
}

// Get tries L1 first, then L2. An L2 hit is promoted into L1 (when enabled)
// before returning.
func (c *TwoLevelCache) Get(jobID string) (*domain.JobResult, bool) {
	if r, ok := c.l1.Get(jobID); ok {
		return r, true
	}
	r, ok := c.l2.Get(jobID)
	if !ok {
		return nil, false
	}
	if c.promote {
		_ = c.l1.Put(r)
	}
	return r, true
}

// Put writes through to both tiers.
func (c *TwoLevelCache) Put(result *domain.JobResult) error {
	_ = c.l1.Put(result)
	return c.l2.Put(result)
}

// Remove deletes from both tiers, reporting whether either held the key.
func (c *TwoLevelCache) Remove(jobID string) bool {
	inL1 := c.l1.Remove(jobID)
	inL2 := c.l2.Remove(jobID)
	return inL1 || inL2
}

// Clear empties both tiers.
func (c *TwoLevelCache) Clear() error {
	_ = c.l1.Clear()
	return c.l2.Clear()
}

// EvictExpired sweeps both tiers and returns per-tier counts.
func (c *TwoLevelCache) EvictExpired() EvictedCounts {
	return EvictedCounts{
		L1: c.l1.EvictExpired(),
		L2: c.l2.EvictExpired(),
	}
}

// Stats reports both tiers' statistics keyed separately.
func (c *TwoLevelCache) Stats() TwoLevelStats {
	return TwoLevelStats{
		L1: c.l1.Stats(),
		L2: c.l2.Stats(),
	}
}

// L1 exposes the memory tier (tests and diagnostics).
func (c *TwoLevelCache) L1() *MemoryCache { return c.l1 }

// L2 exposes the durable tier.
func (c *TwoLevelCache) L2() Cache { return c.l2 }
