// Package fetch combines the request executor and the response cache
// behind a single call with a per-request caching strategy.
package fetch

import (
	"context"
	"errors"
	"fmt"

	"github.com/meridianapp/api-client-go/pkg/apierror"
	"github.com/meridianapp/api-client-go/pkg/backoff"
	"github.com/meridianapp/api-client-go/pkg/cache"
	"github.com/meridianapp/api-client-go/pkg/client"
	"github.com/meridianapp/api-client-go/pkg/endpoint"
	"github.com/rs/zerolog/log"
)

// Strategy selects how a fetch balances the network against the cache.
type Strategy string

const (
	// NetworkOnly always calls the network and never touches the cache.
	NetworkOnly Strategy = "network_only"

	// CacheOnly serves from the cache and never calls the network.
	CacheOnly Strategy = "cache_only"

	// NetworkFirst calls the network, caches successes, and falls back to
	// the cache when the network fails.
	NetworkFirst Strategy = "network_first"

	// CacheFirst serves cache hits immediately and only calls the network
	// on a miss, caching the result.
	CacheFirst Strategy = "cache_first"

	// NetworkThenCache always calls the network and refreshes the cache on
	// success, keeping a fallback value for later offline reads.
	NetworkThenCache Strategy = "network_then_cache"
)

// Config selects the strategy, store and retry policy for one fetch.
type Config struct {
	// Strategy defaults to NetworkOnly.
	Strategy Strategy

	// Store backs all cache-involving strategies. Required unless the
	// strategy is NetworkOnly.
	Store cache.Store

	// Key overrides the derived cache key. Useful when multiple logical
	// views share one endpoint shape.
	Key string

	// Policy configures retries for idempotent endpoints. The zero value
	// selects the default policy.
	Policy backoff.Policy
}

var logger = log.With().Str("component", "fetch").Logger()

// Fetch executes the endpoint under the configured caching strategy and
// decodes the result into T. Cache writes are best-effort: a failed write
// is logged, never surfaced.
func Fetch[T any](ctx context.Context, c *client.Client, ep endpoint.Endpoint, cfg Config) (T, error) {
	var zero T

	strategy := cfg.Strategy
	if strategy == "" {
		strategy = NetworkOnly
	}
	if strategy != NetworkOnly && cfg.Store == nil {
		return zero, apierror.New(apierror.KindBadRequest, fmt.Sprintf("strategy %s requires a cache store", strategy))
	}

	key := cfg.Key
	if key == "" {
		key = cache.Key(ep)
	}

	switch strategy {
	case NetworkOnly:
		raw, err := fetchNetwork(ctx, c, ep, cfg.Policy)
		if err != nil {
			return zero, err
		}
		return client.Decode[T](raw)

	case CacheOnly:
		return fetchCached[T](ctx, cfg.Store, key)

	case NetworkFirst:
		raw, netErr := fetchNetwork(ctx, c, ep, cfg.Policy)
		if netErr == nil {
			persist(ctx, cfg.Store, key, raw)
			return client.Decode[T](raw)
		}
		cached, cacheErr := fetchCached[T](ctx, cfg.Store, key)
		if cacheErr == nil {
			logger.Debug().
				Str("key", key).
				Str("kind", string(apierror.KindOf(netErr))).
				Msg("Network failed, served from cache")
			return cached, nil
		}
		// A cache miss must not mask the real cause.
		return zero, netErr

	case CacheFirst:
		cached, cacheErr := fetchCached[T](ctx, cfg.Store, key)
		if cacheErr == nil {
			return cached, nil
		}
		raw, err := fetchNetwork(ctx, c, ep, cfg.Policy)
		if err != nil {
			return zero, err
		}
		persist(ctx, cfg.Store, key, raw)
		return client.Decode[T](raw)

	case NetworkThenCache:
		raw, err := fetchNetwork(ctx, c, ep, cfg.Policy)
		if err != nil {
			return zero, err
		}
		persist(ctx, cfg.Store, key, raw)
		return client.Decode[T](raw)

	default:
		return zero, apierror.New(apierror.KindBadRequest, fmt.Sprintf("unknown fetch strategy %q", strategy))
	}
}

// fetchNetwork routes idempotent endpoints through the retry executor and
// everything else through the plain executor.
func fetchNetwork(ctx context.Context, c *client.Client, ep endpoint.Endpoint, policy backoff.Policy) ([]byte, error) {
	if ep.IsIdempotent() {
		return client.GetRawWithRetry(ctx, c, ep, policy)
	}
	return c.DoRaw(ctx, ep)
}

// fetchCached loads and decodes a cached entry. A corrupt entry is removed
// and reported as absent.
func fetchCached[T any](ctx context.Context, store cache.Store, key string) (T, error) {
	var zero T

	raw, err := store.Load(ctx, key)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return zero, apierror.New(apierror.KindNotFound, fmt.Sprintf("no cached value for %s", key))
		}
		return zero, apierror.Wrap(apierror.KindUnknown, "load cached value", err)
	}

	value, err := client.Decode[T](raw)
	if err != nil {
		logger.Warn().
			Str("key", key).
			Err(err).
			Msg("Removing undecodable cache entry")
		if removeErr := store.Remove(ctx, key); removeErr != nil {
			logger.Warn().Str("key", key).Err(removeErr).Msg("Failed to remove cache entry")
		}
		return zero, apierror.New(apierror.KindNotFound, fmt.Sprintf("cached value for %s is not decodable", key))
	}
	return value, nil
}

func persist(ctx context.Context, store cache.Store, key string, raw []byte) {
	if len(raw) == 0 {
		return
	}
	if err := store.Save(ctx, key, raw); err != nil {
		logger.Warn().
			Str("key", key).
			Err(err).
			Msg("Failed to cache response")
	}
}
