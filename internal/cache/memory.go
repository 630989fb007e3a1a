package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/hiq-lab/arvak-go/internal/core/domain"
	"github.com/hiq-lab/arvak-go/internal/metrics"
)

const tierMemory = "memory"

// MemoryCache is a bounded in-memory LRU cache with optional TTL.
// The recency list and index are updated atomically under one mutex.
type MemoryCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	ll       *list.List // front = most recently used, element value = *entry
	items    map[string]*list.Element
	hits     uint64
	misses   uint64
	now      func() time.Time
}

// NewMemoryCache creates a memory cache holding at most capacity entries.
// ttl of 0 disables expiry.
func NewMemoryCache(capacity int, ttl time.Duration) *MemoryCache {
	if capacity <= 0 {
		capacity = 100
	}
	return &MemoryCache{
		capacity: capacity,
		ttl:      ttl,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
		now:      time.Now,
	}
}

// Put stores a result and marks it most recently used, evicting the least
// recently used entry when over capacity.
func (c *MemoryCache) Put(result *domain.JobResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if elem, ok := c.items[result.JobID]; ok {
		e := elem.Value.(*entry)
		e.value = result
		e.createdAt = now
		e.lastAccess = now
		c.ll.MoveToFront(elem)
		return nil
	}

	elem := c.ll.PushFront(&entry{
		key:        result.JobID,
		value:      result,
		createdAt:  now,
		lastAccess: now,
		ttl:        c.ttl,
	})
	c.items[result.JobID] = elem

	if c.ll.Len() > c.capacity {
		c.evictOldest()
	}
	return nil
}

// Get returns the cached result and refreshes its recency. Expired entries
// are removed and reported as misses.
func (c *MemoryCache) Get(jobID string) (*domain.JobResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[jobID]
	if !ok {
		c.misses++
		metrics.CacheMisses.WithLabelValues(tierMemory).Inc()
		return nil, false
	}

	e := elem.Value.(*entry)
	if e.expired(c.now()) {
		c.removeElement(elem)
		c.misses++
		metrics.CacheMisses.WithLabelValues(tierMemory).Inc()
		return nil, false
	}

	e.lastAccess = c.now()
	c.ll.MoveToFront(elem)
	c.hits++
	metrics.CacheHits.WithLabelValues(tierMemory).Inc()
	return e.value, true
}

// Remove deletes an entry, reporting whether it existed.
func (c *MemoryCache) Remove(jobID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[jobID]
	if !ok {
		return false
	}
	c.removeElement(elem)
	return true
}

// Clear empties the cache. Hit/miss counters are preserved.
func (c *MemoryCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[string]*list.Element)
	return nil
}

// Size returns the number of entries, including not-yet-swept expired ones.
func (c *MemoryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// EvictExpired removes all expired entries and returns how many.
func (c *MemoryCache) EvictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for elem := c.ll.Back(); elem != nil; {
		prev := elem.Prev()
		if elem.Value.(*entry).expired(now) {
			c.removeElement(elem)
			removed++
		}
		elem = prev
	}
	return removed
}

// Stats reports hit/miss accounting.
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: hitRate(c.hits, c.misses),
		Size:    c.ll.Len(),
	}
}

// evictOldest drops the least recently used entry. Callers must hold c.mu.
func (c *MemoryCache) evictOldest() {
	if elem := c.ll.Back(); elem != nil {
		c.removeElement(elem)
		metrics.CacheEvictions.WithLabelValues(tierMemory).Inc()
	}
}

func (c *MemoryCache) removeElement(elem *list.Element) {
	c.ll.Remove(elem)
	delete(c.items, elem.Value.(*entry).key)
}
