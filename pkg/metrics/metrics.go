// Package metrics documents the Prometheus metrics exposed by the client.
// All metrics are defined in their respective packages (client, cache) to
// maintain modularity and avoid circular dependencies.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the client. All
// metrics are automatically registered via promauto in their packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - apiclient_requests_total{path, status} (Counter): Total requests by path and HTTP status
//   - apiclient_request_duration_seconds{path} (Histogram): Request duration by path
//   - apiclient_errors_total{kind} (Counter): Errors by kind (connectivity, server, rate_limited, ...)
//
// Retry Metrics (pkg/client):
//   - apiclient_retries_total{kind} (Counter): Retry attempts by error kind
//   - apiclient_retry_backoff_seconds (Histogram): Backoff delay before each retry
//   - apiclient_retry_exhausted_total{kind} (Counter): Requests that exhausted max retries
//
// Cache Metrics (pkg/cache):
//   - apiclient_cache_hits_total{store} (Counter): Cache hits by store type
//   - apiclient_cache_misses_total{store} (Counter): Cache misses by store type
//   - apiclient_cache_evictions_total{store} (Counter): Evicted entries by store type
//   - apiclient_cache_size_bytes{store} (Gauge): Current cache size in bytes
//   - apiclient_cache_errors_total{operation} (Counter): Cache operation errors
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(apiclient_cache_hits_total[5m])) /
//   (sum(rate(apiclient_cache_hits_total[5m])) + sum(rate(apiclient_cache_misses_total[5m])))
//
//   # Request Error Rate
//   rate(apiclient_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(apiclient_request_duration_seconds_bucket[5m]))
//
//   # Retry Pressure
//   rate(apiclient_retries_total[5m])
