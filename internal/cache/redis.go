package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hiq-lab/arvak-go/internal/core/domain"
	"github.com/hiq-lab/arvak-go/internal/metrics"
)

const tierRedis = "redis"

const redisOpTimeout = 5 * time.Second

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// RedisCache is a durable tier backed by Redis, usable as the L2 of a
// TwoLevelCache for deployments that share results across hosts. Expiry is
// delegated to Redis key TTLs, so EvictExpired is a no-op here.
type RedisCache struct {
	rdb   *redis.Client
	codec Codec
	ttl   time.Duration

	mu     sync.Mutex
	hits   uint64
	misses uint64
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(cfg RedisConfig, codec Codec, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if codec == nil {
		codec = JSONCodec{}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{rdb: rdb, codec: codec, ttl: ttl}, nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

func resultKey(jobID string) string {
	return fmt.Sprintf("arvak:result:%s", jobID)
}

// Put stores a result, letting Redis expire it after the cache TTL.
func (c *RedisCache) Put(result *domain.JobResult) error {
	data, err := c.codec.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to serialize result %s: %w", result.JobID, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := c.rdb.Set(ctx, resultKey(result.JobID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store result %s: %w", result.JobID, err)
	}
	return nil
}

// Get returns the cached result. Connection errors and corrupt payloads are
// misses.
func (c *RedisCache) Get(jobID string) (*domain.JobResult, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	data, err := c.rdb.Get(ctx, resultKey(jobID)).Bytes()
	if err != nil {
		return c.miss()
	}
	result, err := c.codec.Unmarshal(data)
	if err != nil {
		// Corrupt value: drop it so the next fetch repopulates.
		c.rdb.Del(ctx, resultKey(jobID))
		return c.miss()
	}

	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	metrics.CacheHits.WithLabelValues(tierRedis).Inc()
	return result, true
}

// Remove deletes an entry, reporting whether it existed.
func (c *RedisCache) Remove(jobID string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	n, err := c.rdb.Del(ctx, resultKey(jobID)).Result()
	return err == nil && n > 0
}

// Clear removes every cached result under this cache's key prefix.
func (c *RedisCache) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	iter := c.rdb.Scan(ctx, 0, resultKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}

// Size counts cached results by scanning the key prefix.
func (c *RedisCache) Size() int {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	count := 0
	iter := c.rdb.Scan(ctx, 0, resultKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		count++
	}
	return count
}

// EvictExpired is a no-op: Redis expires keys itself.
func (c *RedisCache) EvictExpired() int {
	return 0
}

// Stats reports hit/miss accounting observed by this client plus the
// current entry count, which costs a key scan.
func (c *RedisCache) Stats() Stats {
	size := c.Size()

	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: hitRate(c.hits, c.misses),
		Size:    size,
	}
}

func (c *RedisCache) miss() (*domain.JobResult, bool) {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
	metrics.CacheMisses.WithLabelValues(tierRedis).Inc()
	return nil, false
}
