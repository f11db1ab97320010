package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisEnvelope wraps a payload with the timestamps the Store contract
// exposes through Metadata.
type redisEnvelope struct {
	Data           []byte    `json:"data"`
	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
}

// RedisStoreConfig configures a RedisStore.
type RedisStoreConfig struct {
	// Prefix namespaces this store's keys inside the Redis keyspace.
	// Clear only touches keys under the prefix.
	Prefix string

	// TTL is the Redis expiry applied on save. Zero means no expiry.
	TTL time.Duration
}

// RedisStore is a Redis-backed Store implementation for deployments where
// multiple processes share one cache. Concurrency control is delegated to
// Redis itself.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore on top of an existing Redis client.
func NewRedisStore(rdb *redis.Client, cfg RedisStoreConfig) *RedisStore {
	if rdb == nil {
		panic("redis client cannot be nil")
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "apiclient:"
	}
	return &RedisStore{rdb: rdb, prefix: prefix, ttl: cfg.TTL}
}

func (s *RedisStore) redisKey(key string) string {
	return s.prefix + key
}

// Load implements Store. The envelope is rewritten with a fresh
// last-accessed timestamp, preserving the remaining expiry.
func (s *RedisStore) Load(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.rdb.Get(ctx, s.redisKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			CacheMisses.WithLabelValues("redis").Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("load").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var envelope redisEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		CacheErrors.WithLabelValues("load").Inc()
		return nil, fmt.Errorf("decode cache envelope: %w", err)
	}

	envelope.LastAccessedAt = time.Now()
	if updated, err := json.Marshal(&envelope); err == nil {
		// Best-effort access-time refresh; the payload is already in hand.
		_ = s.rdb.Set(ctx, s.redisKey(key), updated, redis.KeepTTL).Err()
	}

	CacheHits.WithLabelValues("redis").Inc()
	return envelope.Data, nil
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, key string, data []byte) error {
	now := time.Now()
	envelope := redisEnvelope{
		Data:           data,
		CreatedAt:      now,
		LastAccessedAt: now,
	}

	raw, err := json.Marshal(&envelope)
	if err != nil {
		CacheErrors.WithLabelValues("save").Inc()
		return fmt.Errorf("encode cache envelope: %w", err)
	}

	if err := s.rdb.Set(ctx, s.redisKey(key), raw, s.ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("save").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

// Remove implements Store.
func (s *RedisStore) Remove(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.redisKey(key)).Err(); err != nil {
		CacheErrors.WithLabelValues("remove").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Clear implements Store. Only keys under this store's prefix are removed.
func (s *RedisStore) Clear(ctx context.Context) error {
	iter := s.rdb.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			CacheErrors.WithLabelValues("clear").Inc()
			return fmt.Errorf("redis del: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		CacheErrors.WithLabelValues("clear").Inc()
		return fmt.Errorf("redis scan: %w", err)
	}
	return nil
}

// Exists implements Store.
func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, s.redisKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

// Metadata implements Store.
func (s *RedisStore) Metadata(ctx context.Context, key string) (*Metadata, error) {
	raw, err := s.rdb.Get(ctx, s.redisKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var envelope redisEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode cache envelope: %w", err)
	}

	return &Metadata{
		SizeBytes:      int64(len(envelope.Data)),
		CreatedAt:      envelope.CreatedAt,
		LastAccessedAt: envelope.LastAccessedAt,
	}, nil
}
