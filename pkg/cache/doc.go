// Package cache provides the byte-oriented response cache used by the
// fetch orchestrator, with three Store implementations:
//
//   - FileStore: one file per key, size-bounded with recency eviction
//   - MemoryStore: count-bounded, oldest-created eviction, process-local
//   - RedisStore: shared across processes via an existing Redis client
//
// # Keys
//
// Cache keys are derived deterministically from an endpoint's path and
// sorted query parameters:
//
//	key := cache.Key(endpoint.Get("/v1/feed").WithQuery("page", "2"))
//	// "api:v1/feed:page=2"
//
// Identical endpoints always produce the same key regardless of query
// parameter order. Callers may substitute an explicit key when several
// logical views share one endpoint shape (paginated lists, for example).
//
// # Capacity and eviction
//
// FileStore enforces a total-size budget: a cleanup pass (hourly, and
// opportunistically after each save) sorts entries by last access and
// deletes the oldest until the total is at or below 80% of capacity.
// MemoryStore enforces an item-count budget and evicts the entries with
// the oldest creation time first.
//
// Entry TTL is nominal. Stale entries are visible through Metadata and
// janitor logs but are not purged on load; freshness decisions belong to
// the caller's fetch strategy.
//
// # Concurrency
//
// Every implementation serializes mutating operations against each other
// while allowing concurrent reads. The cache is process-local (RedisStore
// aside); no cross-process locking is attempted.
//
// # Metrics
//
// The package exports Prometheus metrics:
//
//   - apiclient_cache_hits_total{store}
//   - apiclient_cache_misses_total{store}
//   - apiclient_cache_evictions_total{store}
//   - apiclient_cache_size_bytes{store}
//   - apiclient_cache_errors_total{operation}
package cache
