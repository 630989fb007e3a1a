package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hiq-lab/arvak-go/internal/core/domain"
	"github.com/hiq-lab/arvak-go/internal/metrics"
)

const tierDisk = "disk"

const (
	payloadExt = ".cache"
	metaExt    = ".meta"
)

// diskMeta is the sidecar record stored next to each payload file. It
// carries enough to check expiry without deserializing the payload.
type diskMeta struct {
	Key       string        `json:"key"`
	CreatedAt time.Time     `json:"created_at"`
	TTL       time.Duration `json:"ttl"`
	Codec     string        `json:"codec"`
}

// DiskCache persists results under a directory, one payload file plus one
// metadata sidecar per key. A new instance over an existing directory
// recovers all non-expired entries. Corrupt or missing files are misses,
// never fatal errors.
type DiskCache struct {
	mu     sync.Mutex
	dir    string
	codec  Codec
	ttl    time.Duration
	index  map[string]diskMeta
	hits   uint64
	misses uint64
	now    func() time.Time
}

// NewDiskCache opens (or creates) a disk cache at dir. ttl of 0 disables
// expiry for new entries; recovered entries keep the ttl they were written
// with.
func NewDiskCache(dir string, codec Codec, ttl time.Duration) (*DiskCache, error) {
	if codec == nil {
		codec = JSONCodec{}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	c := &DiskCache{
		dir:   dir,
		codec: codec,
		ttl:   ttl,
		index: make(map[string]diskMeta),
		now:   time.Now,
	}
	c.loadIndex()
	return c, nil
}

// loadIndex rebuilds the in-memory index from metadata sidecars on disk.
// Unreadable sidecars are skipped; their entries resurface as misses.
func (c *DiskCache) loadIndex() {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return
	}
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), metaExt) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(c.dir, de.Name()))
		if err != nil {
			continue
		}
		var meta diskMeta
		if err := json.Unmarshal(data, &meta); err != nil || meta.Key == "" {
			continue
		}
		c.index[meta.Key] = meta
	}
}

// Put stores a result durably, writing payload and sidecar via rename so
// concurrent readers never observe partial files.
func (c *DiskCache) Put(result *domain.JobResult) error {
	data, err := c.codec.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to serialize result %s: %w", result.JobID, err)
	}

	meta := diskMeta{
		Key:       result.JobID,
		CreatedAt: c.now(),
		TTL:       c.ttl,
		Codec:     c.codec.Name(),
	}
	metaData, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to serialize metadata for %s: %w", result.JobID, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writeFile(c.payloadPath(result.JobID), data); err != nil {
		return err
	}
	if err := c.writeFile(c.metaPath(result.JobID), metaData); err != nil {
		return err
	}
	c.index[result.JobID] = meta
	return nil
}

// Get returns the cached result. Expired, missing, or corrupt entries are
// dropped and reported as misses.
func (c *DiskCache) Get(jobID string) (*domain.JobResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	meta, ok := c.index[jobID]
	if !ok {
		return c.miss()
	}
	if c.metaExpired(meta) {
		c.removeLocked(jobID)
		return c.miss()
	}

	data, err := os.ReadFile(c.payloadPath(jobID))
	if err != nil {
		// Stale index entry: payload vanished underneath us.
		c.removeLocked(jobID)
		return c.miss()
	}

	codec := c.codec
	if meta.Codec != "" && meta.Codec != c.codec.Name() {
		if byName, err := CodecByName(meta.Codec); err == nil {
			codec = byName
		}
	}

	result, err := codec.Unmarshal(data)
	if err != nil {
		// Corrupt payload: treat as a miss and clean it up.
		c.removeLocked(jobID)
		return c.miss()
	}

	c.hits++
	metrics.CacheHits.WithLabelValues(tierDisk).Inc()
	return result, true
}

// Remove deletes an entry and its files, reporting whether it existed.
func (c *DiskCache) Remove(jobID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.index[jobID]; !ok {
		return false
	}
	c.removeLocked(jobID)
	return true
}

// Clear removes every indexed entry and its files.
func (c *DiskCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.index {
		c.removeLocked(key)
	}
	return nil
}

// Size returns the number of indexed entries.
func (c *DiskCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

// EvictExpired removes all expired entries and returns how many.
func (c *DiskCache) EvictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, meta := range c.index {
		if c.metaExpired(meta) {
			c.removeLocked(key)
			removed++
		}
	}
	return removed
}

// Stats reports hit/miss accounting.
func (c *DiskCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: hitRate(c.hits, c.misses),
		Size:    len(c.index),
	}
}

// DiskUsage returns the total size in bytes of all cache files.
func (c *DiskCache) DiskUsage() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var total int64
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0
	}
	for _, de := range entries {
		name := de.Name()
		if !strings.HasSuffix(name, payloadExt) && !strings.HasSuffix(name, metaExt) {
			continue
		}
		if info, err := de.Info(); err == nil {
			total += info.Size()
		}
	}
	return total
}

func (c *DiskCache) miss() (*domain.JobResult, bool) {
	c.misses++
	metrics.CacheMisses.WithLabelValues(tierDisk).Inc()
	return nil, false
}

func (c *DiskCache) metaExpired(meta diskMeta) bool {
	return meta.TTL > 0 && c.now().Sub(meta.CreatedAt) >= meta.TTL
}

// removeLocked drops an entry's files and index record. Callers hold c.mu.
func (c *DiskCache) removeLocked(jobID string) {
	_ = os.Remove(c.payloadPath(jobID))
	_ = os.Remove(c.metaPath(jobID))
	delete(c.index, jobID)
	metrics.CacheEvictions.WithLabelValues(tierDisk).Inc()
}

// writeFile writes via a temp file and rename so readers never see a
// partial write.
func (c *DiskCache) writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(c.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to close cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to rename cache file: %w", err)
	}
	return nil
}

func (c *DiskCache) payloadPath(jobID string) string {
	return filepath.Join(c.dir, fileName(jobID)+payloadExt)
}

func (c *DiskCache) metaPath(jobID string) string {
	return filepath.Join(c.dir, fileName(jobID)+metaExt)
}

// fileName derives a deterministic filesystem-safe name from a job id.
func fileName(jobID string) string {
	sum := sha256.Sum256([]byte(jobID))
	return hex.EncodeToString(sum[:16])
}
