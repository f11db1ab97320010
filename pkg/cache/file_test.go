package cache

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

// newTestFileStore creates a FileStore in a temp dir with the janitor
// disabled so tests control cleanup timing.
func newTestFileStore(t *testing.T, maxBytes int64) *FileStore {
	t.Helper()

	store, err := NewFileStore(FileStoreConfig{
		Dir:             t.TempDir(),
		MaxTotalBytes:   maxBytes,
		CleanupInterval: -1,
	})
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewFileStore_RequiresDir(t *testing.T) {
	if _, err := NewFileStore(FileStoreConfig{}); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	store := newTestFileStore(t, DefaultMaxTotalBytes)
	ctx := context.Background()

	payload := []byte(`{"items": [1, 2, 3]}`)
	if err := store.Save(ctx, "api:v1/items", payload); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Load(ctx, "api:v1/items")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("Load = %q, want %q", got, payload)
	}
}

func TestFileStore_LoadMiss(t *testing.T) {
	store := newTestFileStore(t, DefaultMaxTotalBytes)

	_, err := store.Load(context.Background(), "api:v1/absent")
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Load = %v, want ErrCacheMiss", err)
	}
}

func TestFileStore_ExistsRemove(t *testing.T) {
	store := newTestFileStore(t, DefaultMaxTotalBytes)
	ctx := context.Background()

	if err := store.Save(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	ok, err := store.Exists(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Exists = (%v, %v), want (true, nil)", ok, err)
	}

	if err := store.Remove(ctx, "k"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	// Removing again must not error.
	if err := store.Remove(ctx, "k"); err != nil {
		t.Errorf("Remove of absent key failed: %v", err)
	}

	ok, err = store.Exists(ctx, "k")
	if err != nil || ok {
		t.Errorf("Exists after Remove = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestFileStore_Clear(t *testing.T) {
	store := newTestFileStore(t, DefaultMaxTotalBytes)
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		if err := store.Save(ctx, key, []byte("data")); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	for _, key := range []string{"a", "b", "c"} {
		if _, err := store.Load(ctx, key); !errors.Is(err, ErrCacheMiss) {
			t.Errorf("Load(%q) after Clear = %v, want ErrCacheMiss", key, err)
		}
	}
}

func TestFileStore_Metadata(t *testing.T) {
	store := newTestFileStore(t, DefaultMaxTotalBytes)
	ctx := context.Background()

	payload := []byte("twelve bytes")
	if err := store.Save(ctx, "k", payload); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	md, err := store.Metadata(ctx, "k")
	if err != nil {
		t.Fatalf("Metadata failed: %v", err)
	}
	if md.SizeBytes != int64(len(payload)) {
		t.Errorf("SizeBytes = %d, want %d", md.SizeBytes, len(payload))
	}
	if md.LastAccessedAt.IsZero() || md.CreatedAt.IsZero() {
		t.Error("timestamps should be populated")
	}

	if _, err := store.Metadata(ctx, "absent"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Metadata(absent) = %v, want ErrCacheMiss", err)
	}
}

func TestFileStore_LoadRefreshesAccessTime(t *testing.T) {
	store := newTestFileStore(t, DefaultMaxTotalBytes)
	ctx := context.Background()

	if err := store.Save(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Age the entry, then load it and verify the access time moved forward.
	past := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(store.entryPath("k"), past, past); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}

	if _, err := store.Load(ctx, "k"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	md, err := store.Metadata(ctx, "k")
	if err != nil {
		t.Fatalf("Metadata failed: %v", err)
	}
	if md.LastAccessedAt.Before(time.Now().Add(-time.Minute)) {
		t.Errorf("LastAccessedAt = %v, expected refresh on load", md.LastAccessedAt)
	}
}

func TestFileStore_CleanupEvictsLeastRecentlyAccessed(t *testing.T) {
	// 100KB capacity, ten 20KB entries: cleanup must land at or below
	// 80KB, removing the least recently accessed entries first.
	const capacity = 100 * 1024
	store := newTestFileStore(t, capacity)
	ctx := context.Background()

	payload := make([]byte, 20*1024)
	keys := []string{"k0", "k1", "k2", "k3", "k4"}
	for _, key := range keys {
		if err := store.Save(ctx, key, payload); err != nil {
			t.Fatalf("Save(%q) failed: %v", key, err)
		}
	}

	// Assign explicit access times: k0 oldest .. k4 newest.
	base := time.Now().Add(-time.Hour)
	for i, key := range keys {
		at := base.Add(time.Duration(i) * time.Minute)
		if err := os.Chtimes(store.entryPath(key), at, at); err != nil {
			t.Fatalf("Chtimes failed: %v", err)
		}
	}

	// Five more entries push the total to 200KB.
	for _, key := range []string{"k5", "k6", "k7", "k8", "k9"} {
		if err := store.Save(ctx, key, payload); err != nil {
			t.Fatalf("Save(%q) failed: %v", key, err)
		}
	}

	if err := store.Cleanup(); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}

	total := dirSize(t, store.dir)
	if total > capacity*cleanupTargetPercent/100 {
		t.Errorf("total size after cleanup = %d, want <= %d", total, capacity*cleanupTargetPercent/100)
	}

	// The oldest-accessed entry must be the first casualty.
	if ok, _ := store.Exists(ctx, "k0"); ok {
		t.Error("k0 (least recently accessed) should have been evicted")
	}
	// The most recent save must survive.
	if ok, _ := store.Exists(ctx, "k9"); !ok {
		t.Error("k9 (most recently saved) should have survived cleanup")
	}
}

func TestFileStore_CleanupNoopUnderCapacity(t *testing.T) {
	store := newTestFileStore(t, DefaultMaxTotalBytes)
	ctx := context.Background()

	if err := store.Save(ctx, "k", []byte("small")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Cleanup(); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if ok, _ := store.Exists(ctx, "k"); !ok {
		t.Error("entry under capacity should not be evicted")
	}
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"plain", "simple-key_1.bin"},
		{"path separators", "api:v1/feed:page=2"},
		{"traversal attempt", "../../etc/passwd"},
		{"long key", strings.Repeat("x", 300) + ":page=1"},
	}

	seen := make(map[string]string)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name := sanitizeKey(tt.key)
			if strings.ContainsAny(name, "/\\:") {
				t.Errorf("sanitized name %q contains path characters", name)
			}
			if len(name) > maxFilenameLen+17 {
				t.Errorf("sanitized name too long: %d chars", len(name))
			}
			if prev, dup := seen[name]; dup {
				t.Errorf("keys %q and %q collide on %q", prev, tt.key, name)
			}
			seen[name] = tt.key
		})
	}

	// Distinct keys that sanitize to the same base must stay distinct.
	a := sanitizeKey("api:a/b")
	b := sanitizeKey("api:a:b")
	if a == b {
		t.Errorf("distinct keys collide after sanitizing: %q", a)
	}
}

func TestFileStore_LongKeyRoundTrip(t *testing.T) {
	store := newTestFileStore(t, DefaultMaxTotalBytes)
	ctx := context.Background()

	key := "api:" + strings.Repeat("very-long-segment/", 20) + "leaf:page=42"
	payload := []byte("payload")

	if err := store.Save(ctx, key, payload); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := store.Load(ctx, key)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("Load = %q, want %q", got, payload)
	}
}

func dirSize(t *testing.T, dir string) int64 {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	var total int64
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			t.Fatalf("Info failed: %v", err)
		}
		total += info.Size()
	}
	return total
}
