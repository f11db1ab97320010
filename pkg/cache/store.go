package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrCacheMiss indicates the requested key was not found in the store.
	ErrCacheMiss = errors.New("cache miss")
)

// Metadata describes a stored entry.
type Metadata struct {
	// SizeBytes is the stored payload size.
	SizeBytes int64

	// CreatedAt is when the entry was first saved. The file store
	// approximates it with the file modification time.
	CreatedAt time.Time

	// LastAccessedAt is when the entry was last loaded. Recency-based
	// eviction orders entries by this timestamp.
	LastAccessedAt time.Time
}

// Store is a byte-oriented key/value cache for encoded response payloads.
//
// Implementations serialize mutating operations against each other while
// permitting concurrent reads. All implementations are process-local; no
// cross-process locking is provided.
type Store interface {
	// Load returns the stored bytes for key, or ErrCacheMiss. Loading
	// refreshes the entry's last-accessed timestamp.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save stores data under key, replacing any existing entry.
	Save(ctx context.Context, key string, data []byte) error

	// Remove deletes the entry for key. Removing a missing key is not
	// an error.
	Remove(ctx context.Context, key string) error

	// Clear deletes every entry in the store.
	Clear(ctx context.Context) error

	// Exists reports whether key has an entry.
	Exists(ctx context.Context, key string) (bool, error)

	// Metadata returns size and timestamps for key, or ErrCacheMiss.
	Metadata(ctx context.Context, key string) (*Metadata, error)
}
