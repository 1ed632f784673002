package cache

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTestCache(t *testing.T, capacity int64, level int) (*DiskCache, string) {
	t.Helper()
	dir := t.TempDir()
	dc, err := Open(Config{Dir: dir, Capacity: capacity, CompressionLevel: level})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = dc.Close() })
	return dc, dir
}

func TestDiskCache_BasicOperations(t *testing.T) {
	dc, _ := openTestCache(t, 1024, 0)

	key := Key("gtts", "en", false, "hello")
	value := []byte("fake mp3 data")

	if err := dc.Put(key, value); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok := dc.Get(key)
	if !ok {
		t.Fatal("Get failed: key not found")
	}
	if !bytes.Equal(got, value) {
		t.Errorf("Retrieved value mismatch: got %q, want %q", got, value)
	}

	if !dc.Contains(key) {
		t.Error("Contains returned false for existing key")
	}
	if dc.Stats().Size != int64(len(value)) {
		t.Errorf("Size mismatch: got %d, want %d", dc.Stats().Size, len(value))
	}

	if err := dc.Delete(key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if dc.Contains(key) {
		t.Error("Key still exists after delete")
	}
	if _, ok := dc.Get(key); ok {
		t.Error("Get should miss after delete")
	}

	stats := dc.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestDiskCache_Compression(t *testing.T) {
	dc, dir := openTestCache(t, 1<<20, 3)

	value := bytes.Repeat([]byte("compressible "), 1000)
	if err := dc.Put("k", value); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if dc.Stats().Size >= int64(len(value)) {
		t.Errorf("expected compressed size below %d, got %d", len(value), dc.Stats().Size)
	}

	info, err := os.Stat(filepath.Join(dir, fileName("k")))
	if err != nil {
		t.Fatalf("cache file missing: %v", err)
	}
	if info.Size() != dc.Stats().Size {
		t.Errorf("disk size %d does not match tracked size %d", info.Size(), dc.Stats().Size)
	}

	got, ok := dc.Get("k")
	if !ok || !bytes.Equal(got, value) {
		t.Error("decompressed value does not match")
	}
}

func TestDiskCache_LRUEviction(t *testing.T) {
	dc, _ := openTestCache(t, 100, 0)

	item := bytes.Repeat([]byte("x"), 40)
	for _, k := range []string{"a", "b"} {
		if err := dc.Put(k, item); err != nil {
			t.Fatalf("Put %s failed: %v", k, err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	// Touch a so that b becomes the least recently used entry.
	if _, ok := dc.Get("a"); !ok {
		t.Fatal("expected a to be cached")
	}
	time.Sleep(2 * time.Millisecond)

	if err := dc.Put("c", item); err != nil {
		t.Fatalf("Put c failed: %v", err)
	}

	if dc.Contains("b") {
		t.Error("b should have been evicted")
	}
	if !dc.Contains("a") || !dc.Contains("c") {
		t.Error("a and c should still be cached")
	}
	if dc.Stats().Evictions != 1 {
		t.Errorf("expected 1 eviction, got %d", dc.Stats().Evictions)
	}

	if keys := dc.Keys(); len(keys) != 2 || keys[0] != "a" {
		t.Errorf("expected LRU order [a c], got %v", keys)
	}
}

func TestDiskCache_ItemTooLarge(t *testing.T) {
	dc, _ := openTestCache(t, 10, 0)

	err := dc.Put("big", bytes.Repeat([]byte("y"), 11))
	if !errors.Is(err, ErrItemTooLarge) {
		t.Errorf("expected ErrItemTooLarge, got %v", err)
	}
}

func TestDiskCache_PersistsIndex(t *testing.T) {
	dir := t.TempDir()
	dc, err := Open(Config{Dir: dir, Capacity: 1024})
	if err != nil {
		t.Fatal(err)
	}
	if err := dc.Put("persist", []byte("audio")); err != nil {
		t.Fatal(err)
	}
	if err := dc.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := dc.Put("after", []byte("x")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	reopened, err := Open(Config{Dir: dir, Capacity: 1024})
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close() //nolint:errcheck

	got, ok := reopened.Get("persist")
	if !ok || string(got) != "audio" {
		t.Errorf("expected persisted entry, got %q (ok=%v)", got, ok)
	}
}

func TestDiskCache_PruneAndClear(t *testing.T) {
	dc, _ := openTestCache(t, 1024, 0)

	_ = dc.Put("old", []byte("1"))
	_ = dc.Put("new", []byte("2"))

	dc.mu.Lock()
	dc.index["old"].Timestamp = time.Now().Add(-48 * time.Hour)
	dc.mu.Unlock()

	if n := dc.Prune(24 * time.Hour); n != 1 {
		t.Errorf("expected 1 pruned entry, got %d", n)
	}
	if dc.Contains("old") || !dc.Contains("new") {
		t.Error("prune removed the wrong entries")
	}

	if err := dc.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if dc.Stats().Size != 0 || dc.Stats().ItemCount != 0 {
		t.Errorf("cache not empty after Clear: %+v", dc.Stats())
	}
}

func TestKey(t *testing.T) {
	base := Key("gtts", "en", false, "hello")
	if base != Key("gtts", "en", false, "hello") {
		t.Error("Key should be deterministic")
	}
	for name, other := range map[string]string{
		"provider": Key("openai", "en", false, "hello"),
		"language": Key("gtts", "fr", false, "hello"),
		"slow":     Key("gtts", "en", true, "hello"),
		"text":     Key("gtts", "en", false, "hello!"),
	} {
		if other == base {
			t.Errorf("changing %s should change the key", name)
		}
	}
}
