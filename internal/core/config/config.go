package config

import (
	"fmt"
	"time"

	"github.com/hiq-lab/arvak-go/internal/batch"
	"github.com/hiq-lab/arvak-go/internal/cache"
	"github.com/hiq-lab/arvak-go/internal/resilience"
	"github.com/hiq-lab/arvak-go/internal/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig      `yaml:"server"`
	Arvak    ArvakConfig       `yaml:"arvak"`
	Retry    RetryConfig       `yaml:"retry"`
	Breaker  BreakerConfig     `yaml:"breaker"`
	Cache    CacheConfig       `yaml:"cache"`
	Batch    batch.Config      `yaml:"batch"`
	Redis    cache.RedisConfig `yaml:"redis"`
	Database postgres.Config   `yaml:"database"`
	Logging  LoggingConfig     `yaml:"logging"`
}

// ServerConfig holds the metrics/health HTTP listener settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// ArvakConfig points the client at an execution service. An empty
// endpoint selects the in-process simulator.
type ArvakConfig struct {
	Endpoint string `yaml:"endpoint"`
	Backend  string `yaml:"backend"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// RetryConfig holds retry policy settings.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	Multiplier   float64       `yaml:"multiplier"`
	Jitter       *bool         `yaml:"jitter"` // nil defaults to true
	Strategy     string        `yaml:"strategy"`
}

// Policy converts the section into a resilience.Policy, filling unset
// fields from the defaults.
func (c RetryConfig) Policy() (resilience.Policy, error) {
	p := resilience.DefaultPolicy()
	if c.MaxAttempts > 0 {
		p.MaxAttempts = c.MaxAttempts
	}
	if c.InitialDelay > 0 {
		p.InitialDelay = c.InitialDelay
	}
	if c.MaxDelay > 0 {
		p.MaxDelay = c.MaxDelay
	}
	if c.Multiplier > 0 {
		p.Multiplier = c.Multiplier
	}
	if c.Jitter != nil {
		p.Jitter = *c.Jitter
	}
	if c.Strategy != "" {
		s, err := resilience.ParseStrategy(c.Strategy)
		if err != nil {
			return resilience.Policy{}, fmt.Errorf("failed to parse retry strategy: %w", err)
		}
		p.Strategy = s
	}
	return p, nil
}

// BreakerConfig holds circuit breaker settings.
type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	SuccessThreshold int           `yaml:"success_threshold"`
	OpenTimeout      time.Duration `yaml:"open_timeout"`
	HalfOpenMaxCalls int           `yaml:"half_open_max_calls"`
}

// Breaker converts the section into a resilience.BreakerConfig.
func (c BreakerConfig) Breaker() resilience.BreakerConfig {
	b := resilience.DefaultBreakerConfig()
	if c.FailureThreshold > 0 {
		b.FailureThreshold = c.FailureThreshold
	}
	if c.SuccessThreshold > 0 {
		b.SuccessThreshold = c.SuccessThreshold
	}
	if c.OpenTimeout > 0 {
		b.OpenTimeout = c.OpenTimeout
	}
	if c.HalfOpenMaxCalls > 0 {
		b.HalfOpenMaxCalls = c.HalfOpenMaxCalls
	}
	return b
}

// CacheConfig holds result cache settings.
type CacheConfig struct {
	MemorySize int           `yaml:"memory_size"`
	MemoryTTL  time.Duration `yaml:"memory_ttl"`
	Dir        string        `yaml:"dir"`
	DiskTTL    time.Duration `yaml:"disk_ttl"`
	Codec      string        `yaml:"codec"`   // json or gob
	Promote    *bool         `yaml:"promote"` // nil defaults to true
}

// TwoLevel converts the section into a cache.TwoLevelConfig.
func (c CacheConfig) TwoLevel() (cache.TwoLevelConfig, error) {
	codec, err := cache.CodecByName(c.Codec)
	if err != nil {
		return cache.TwoLevelConfig{}, fmt.Errorf("failed to resolve cache codec: %w", err)
	}
	return cache.TwoLevelConfig{
		MemorySize:   c.MemorySize,
		MemoryTTL:    c.MemoryTTL,
		Dir:          c.Dir,
		DiskTTL:      c.DiskTTL,
		Codec:        codec,
		PromoteOnHit: c.Promote,
	}, nil
}
