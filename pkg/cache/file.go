package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultMaxTotalBytes is the default file cache capacity (~50MB).
	DefaultMaxTotalBytes = 50 * 1024 * 1024

	// DefaultEntryTTL is the default entry lifetime. It is informational:
	// stale entries are reported, not auto-purged.
	DefaultEntryTTL = 24 * time.Hour

	// DefaultCleanupInterval is how often the background janitor runs.
	DefaultCleanupInterval = 1 * time.Hour

	// cleanupTargetPercent is the capacity share a cleanup pass restores
	// the store to. Targeting below 100% avoids flapping on every save.
	cleanupTargetPercent = 80

	// maxFilenameLen caps the sanitized portion of a cache filename.
	maxFilenameLen = 100
)

// FileStoreConfig configures a FileStore.
type FileStoreConfig struct {
	// Dir is the dedicated cache directory. Required.
	Dir string

	// MaxTotalBytes is the capacity budget. Defaults to DefaultMaxTotalBytes.
	MaxTotalBytes int64

	// EntryTTL is the nominal entry lifetime. Defaults to DefaultEntryTTL.
	EntryTTL time.Duration

	// CleanupInterval is the janitor period. Defaults to
	// DefaultCleanupInterval; negative disables the janitor.
	CleanupInterval time.Duration
}

// DefaultFileStoreConfig returns the default configuration for dir.
func DefaultFileStoreConfig(dir string) FileStoreConfig {
	return FileStoreConfig{
		Dir:             dir,
		MaxTotalBytes:   DefaultMaxTotalBytes,
		EntryTTL:        DefaultEntryTTL,
		CleanupInterval: DefaultCleanupInterval,
	}
}

// FileStore is the durable Store implementation: one file per key inside a
// dedicated cache directory. Mutating filesystem operations are serialized
// against each other; reads proceed concurrently with other reads.
type FileStore struct {
	dir           string
	maxTotalBytes int64
	entryTTL      time.Duration
	logger        zerolog.Logger

	mu sync.RWMutex

	stopJanitor chan struct{}
	closeOnce   sync.Once
}

// NewFileStore creates the cache directory if needed and starts the
// background janitor. Call Close to stop the janitor.
func NewFileStore(cfg FileStoreConfig) (*FileStore, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("cache directory is required")
	}
	if cfg.MaxTotalBytes <= 0 {
		cfg.MaxTotalBytes = DefaultMaxTotalBytes
	}
	if cfg.EntryTTL == 0 {
		cfg.EntryTTL = DefaultEntryTTL
	}
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = DefaultCleanupInterval
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	s := &FileStore{
		dir:           cfg.Dir,
		maxTotalBytes: cfg.MaxTotalBytes,
		entryTTL:      cfg.EntryTTL,
		logger:        log.With().Str("component", "file-cache").Logger(),
		stopJanitor:   make(chan struct{}),
	}

	if cfg.CleanupInterval > 0 {
		go s.janitor(cfg.CleanupInterval)
	}

	return s, nil
}

// Load implements Store. Reading refreshes the file's modification time,
// which doubles as the last-accessed timestamp for eviction ordering.
func (s *FileStore) Load(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.entryPath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			CacheMisses.WithLabelValues("file").Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("load").Inc()
		return nil, fmt.Errorf("read cache file: %w", err)
	}

	now := time.Now()
	if err := os.Chtimes(path, now, now); err != nil {
		s.logger.Debug().Err(err).Str("key", key).Msg("Failed to refresh access time")
	}

	CacheHits.WithLabelValues("file").Inc()
	return data, nil
}

// Save implements Store. Each save is followed by an opportunistic
// capacity check.
func (s *FileStore) Save(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	err := os.WriteFile(s.entryPath(key), data, 0o644)
	s.mu.Unlock()

	if err != nil {
		CacheErrors.WithLabelValues("save").Inc()
		return fmt.Errorf("write cache file: %w", err)
	}

	if err := s.Cleanup(); err != nil {
		s.logger.Warn().Err(err).Msg("Cleanup after save failed")
	}

	return nil
}

// Remove implements Store.
func (s *FileStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.entryPath(key)); err != nil && !os.IsNotExist(err) {
		CacheErrors.WithLabelValues("remove").Inc()
		return fmt.Errorf("remove cache file: %w", err)
	}
	return nil
}

// Clear implements Store.
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		CacheErrors.WithLabelValues("clear").Inc()
		return fmt.Errorf("read cache directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			CacheErrors.WithLabelValues("clear").Inc()
			return fmt.Errorf("remove cache file: %w", err)
		}
	}

	CacheSizeBytes.WithLabelValues("file").Set(0)
	return nil
}

// Exists implements Store.
func (s *FileStore) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := os.Stat(s.entryPath(key)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat cache file: %w", err)
	}
	return true, nil
}

// Metadata implements Store. Creation and last-access times are both
// approximated by the file modification time.
func (s *FileStore) Metadata(ctx context.Context, key string) (*Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, err := os.Stat(s.entryPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("stat cache file: %w", err)
	}

	return &Metadata{
		SizeBytes:      info.Size(),
		CreatedAt:      info.ModTime(),
		LastAccessedAt: info.ModTime(),
	}, nil
}

// Cleanup enforces the capacity budget. If the total size exceeds
// MaxTotalBytes, entries are removed least-recently-accessed first until
// the total is at or below the cleanup target.
func (s *FileStore) Cleanup() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		CacheErrors.WithLabelValues("cleanup").Inc()
		return fmt.Errorf("read cache directory: %w", err)
	}

	type fileEntry struct {
		path     string
		size     int64
		accessed time.Time
	}

	var (
		files      []fileEntry
		total      int64
		staleCount int
	)
	now := time.Now()
	for _, entry := range dirEntries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, fileEntry{
			path:     filepath.Join(s.dir, entry.Name()),
			size:     info.Size(),
			accessed: info.ModTime(),
		})
		total += info.Size()
		if now.Sub(info.ModTime()) > s.entryTTL {
			staleCount++
		}
	}

	CacheSizeBytes.WithLabelValues("file").Set(float64(total))
	if staleCount > 0 {
		s.logger.Debug().
			Int("stale_entries", staleCount).
			Dur("entry_ttl", s.entryTTL).
			Msg("Entries past nominal TTL (not purged)")
	}

	if total <= s.maxTotalBytes {
		return nil
	}

	target := s.maxTotalBytes * cleanupTargetPercent / 100

	sort.Slice(files, func(i, j int) bool {
		return files[i].accessed.Before(files[j].accessed)
	})

	evicted := 0
	for _, f := range files {
		if total <= target {
			break
		}
		if err := os.Remove(f.path); err != nil {
			CacheErrors.WithLabelValues("cleanup").Inc()
			s.logger.Warn().Err(err).Str("path", f.path).Msg("Failed to evict cache file")
			continue
		}
		total -= f.size
		evicted++
	}

	CacheEvictions.WithLabelValues("file").Add(float64(evicted))
	CacheSizeBytes.WithLabelValues("file").Set(float64(total))
	s.logger.Info().
		Int("evicted", evicted).
		Int64("total_bytes", total).
		Int64("target_bytes", target).
		Msg("Cache cleanup completed")

	return nil
}

// Close stops the background janitor. The store remains usable.
func (s *FileStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopJanitor)
	})
	return nil
}

// janitor periodically enforces the capacity budget.
func (s *FileStore) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.Cleanup(); err != nil {
				s.logger.Warn().Err(err).Msg("Periodic cleanup failed")
			}
		case <-s.stopJanitor:
			return
		}
	}
}

// entryPath maps a cache key to its file path.
func (s *FileStore) entryPath(key string) string {
	return filepath.Join(s.dir, sanitizeKey(key))
}

// sanitizeKey converts a cache key into a safe filename. Characters outside
// [A-Za-z0-9._-] are replaced; whenever the name was altered or truncated, a
// short hash of the original key is appended so distinct keys never collide.
func sanitizeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	altered := false
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
			altered = true
		}
	}

	name := b.String()
	if len(name) > maxFilenameLen {
		name = name[:maxFilenameLen]
		altered = true
	}
	if altered {
		sum := sha256.Sum256([]byte(key))
		name += "-" + hex.EncodeToString(sum[:])[:16]
	}
	return name
}
