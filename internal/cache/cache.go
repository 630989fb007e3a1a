// Package cache stores job results so repeated fetches skip remote
// round-trips. Tiers share one contract: a bounded in-memory LRU, a durable
// on-disk tier, a Redis tier, and a two-level composition with promotion.
package cache

import (
	"time"

	"github.com/hiq-lab/arvak-go/internal/core/domain"
)

// Cache is the contract shared by all result cache tiers. Implementations
// must be safe for concurrent use. I/O problems are reported as misses,
// never as fatal errors on the read path.
type Cache interface {
	// Put stores a result keyed by its job id, overwriting any existing entry.
	Put(result *domain.JobResult) error

	// Get returns the cached result, or false on miss. Expired entries
	// are misses and are removed lazily.
	Get(jobID string) (*domain.JobResult, bool)

	// Remove deletes an entry, reporting whether it existed.
	Remove(jobID string) bool

	// Clear empties the cache.
	Clear() error

	// Size returns the number of entries currently indexed. It may count
	// expired entries that have not been swept yet.
	Size() int

	// EvictExpired removes all expired entries and returns how many.
	EvictExpired() int

	// Stats reports hit/miss accounting for this tier.
	Stats() Stats
}

// Stats holds per-tier cache statistics.
type Stats struct {
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	HitRate float64 `json:"hit_rate"`
	Size    int     `json:"size"`
}

func hitRate(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// entry is one cached result with expiry metadata. Entries are owned by the
// tier holding them; moving between tiers copies the result pointer only.
type entry struct {
	key        string
	value      *domain.JobResult
	createdAt  time.Time
	lastAccess time.Time
	ttl        time.Duration // 0 = never expires
}

func (e *entry) expired(now time.Time) bool {
	return e.ttl > 0 && now.Sub(e.createdAt) >= e.ttl
}
