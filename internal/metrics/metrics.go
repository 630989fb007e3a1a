package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RetrySleeps tracks backoff sleeps taken between retry attempts
	RetrySleeps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arvak_retry_sleeps_total",
			Help: "Total number of backoff sleeps between retry attempts",
		},
	)

	// BreakerTransitions tracks circuit breaker state transitions
	BreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arvak_breaker_transitions_total",
			Help: "Total circuit breaker state transitions",
		},
		[]string{"state"},
	)

	// BreakerRejections tracks calls rejected by an open breaker
	BreakerRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arvak_breaker_rejections_total",
			Help: "Total calls rejected without reaching the remote service",
		},
	)

	// CacheHits tracks cache hits per tier
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arvak_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"tier"},
	)

	// CacheMisses tracks cache misses per tier
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arvak_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"tier"},
	)

	// CacheEvictions tracks evicted entries per tier
	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arvak_cache_evictions_total",
			Help: "Total cache entries evicted",
		},
		[]string{"tier"},
	)

	// JobsSubmitted tracks jobs successfully submitted to the remote service
	JobsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arvak_jobs_submitted_total",
			Help: "Total jobs submitted",
		},
	)

	// JobsCompleted tracks jobs that finished successfully
	JobsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arvak_jobs_completed_total",
			Help: "Total jobs completed successfully",
		},
	)

	// JobsFailed tracks jobs that finished with an error
	JobsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arvak_jobs_failed_total",
			Help: "Total jobs that failed",
		},
	)

	// PollLatency tracks remote poll call latency
	PollLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "arvak_poll_latency_seconds",
			Help:    "Poll call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)
