package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by store implementation.
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apiclient_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"store"}, // "file", "memory", "redis"
	)

	// CacheMisses tracks cache misses by store implementation.
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apiclient_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"store"},
	)

	// CacheEvictions tracks entries removed by capacity cleanup.
	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apiclient_cache_evictions_total",
			Help: "Total number of entries evicted by cleanup",
		},
		[]string{"store"},
	)

	// CacheSizeBytes tracks the current total size per store.
	CacheSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "apiclient_cache_size_bytes",
			Help: "Current total size of the cache in bytes",
		},
		[]string{"store"},
	)

	// CacheErrors tracks cache operation errors.
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apiclient_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "load", "save", "remove", "clear", "cleanup"
	)
)
