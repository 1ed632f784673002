package cache

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

const indexName = "cache.index"

// compressThreshold is the smallest entry worth compressing.
const compressThreshold = 1024

// DiskCache stores audio on disk with optional zstd compression. It is safe
// for concurrent use.
type DiskCache struct {
	dir      string
	capacity int64
	size     int64
	ttl      time.Duration

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	index  map[string]*entry
	closed bool

	mu    sync.RWMutex
	stats Stats
}

// entry is a record in the on-disk index.
type entry struct {
	Key          string
	File         string // Base name inside dir
	Size         int64  // Size on disk
	OriginalSize int64
	Timestamp    time.Time
	LastAccess   time.Time
	Hits         int64
	Compressed   bool
}

// Open opens (or creates) a disk cache. Entries older than the configured TTL
// are pruned on open.
func Open(cfg Config) (*DiskCache, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("cache directory not set")
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultConfig(cfg.Dir).Capacity
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	dc := &DiskCache{
		dir:      cfg.Dir,
		capacity: cfg.Capacity,
		ttl:      cfg.TTL,
		index:    make(map[string]*entry),
		stats:    Stats{Capacity: cfg.Capacity},
	}

	if cfg.CompressionLevel > 0 {
		var err error
		dc.encoder, err = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(cfg.CompressionLevel)))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		dc.decoder, err = zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
	}

	if err := dc.loadIndex(); err != nil {
		// A broken index only costs us the cached entries.
		dc.index = make(map[string]*entry)
	}
	dc.recalculate()

	if dc.ttl > 0 {
		dc.Prune(dc.ttl)
	}

	return dc, nil
}

// Get returns the cached audio for key.
func (dc *DiskCache) Get(key string) ([]byte, bool) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	e, ok := dc.index[key]
	if !ok || dc.closed {
		dc.stats.Misses++
		return nil, false
	}

	data, err := os.ReadFile(filepath.Join(dc.dir, e.File))
	if err != nil {
		dc.drop(key, e)
		dc.stats.Misses++
		return nil, false
	}

	if e.Compressed {
		if dc.decoder == nil {
			dc.drop(key, e)
			dc.stats.Misses++
			return nil, false
		}
		data, err = dc.decoder.DecodeAll(data, nil)
		if err != nil {
			dc.drop(key, e)
			dc.stats.Misses++
			return nil, false
		}
	}

	now := time.Now()
	e.LastAccess = now
	e.Hits++
	dc.stats.Hits++
	dc.stats.LastAccess = now

	return data, true
}

// Put stores value under key, evicting least recently used entries when the
// cache is full.
func (dc *DiskCache) Put(key string, value []byte) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if dc.closed {
		return ErrClosed
	}

	data, compressed := value, false
	if dc.encoder != nil && len(value) > compressThreshold {
		if c := dc.encoder.EncodeAll(value, nil); len(c) < len(value) {
			data, compressed = c, true
		}
	}

	diskSize := int64(len(data))
	if diskSize > dc.capacity {
		return ErrItemTooLarge
	}

	if existing, ok := dc.index[key]; ok {
		dc.drop(key, existing)
	}
	for dc.size+diskSize > dc.capacity && len(dc.index) > 0 {
		dc.evictOldest()
	}

	name := fileName(key)
	if err := writeFileAtomic(filepath.Join(dc.dir, name), data); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	now := time.Now()
	dc.index[key] = &entry{
		Key:          key,
		File:         name,
		Size:         diskSize,
		OriginalSize: int64(len(value)),
		Timestamp:    now,
		LastAccess:   now,
		Compressed:   compressed,
	}
	dc.size += diskSize
	dc.syncStats()

	return nil
}

// Delete removes key from the cache.
func (dc *DiskCache) Delete(key string) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if e, ok := dc.index[key]; ok {
		dc.drop(key, e)
	}
	return nil
}

// Contains reports whether key is cached without touching its access time.
func (dc *DiskCache) Contains(key string) bool {
	dc.mu.RLock()
	defer dc.mu.RUnlock()

	_, ok := dc.index[key]
	return ok
}

// Clear removes every entry.
func (dc *DiskCache) Clear() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	for _, e := range dc.index {
		_ = os.Remove(filepath.Join(dc.dir, e.File))
	}
	dc.index = make(map[string]*entry)
	dc.size = 0
	dc.syncStats()

	return dc.saveIndex()
}

// Prune removes entries stored more than maxAge ago and returns how many
// were removed.
func (dc *DiskCache) Prune(maxAge time.Duration) int {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for key, e := range dc.index {
		if e.Timestamp.Before(cutoff) {
			dc.drop(key, e)
			removed++
		}
	}
	return removed
}

// Keys returns the cached keys, least recently used first.
func (dc *DiskCache) Keys() []string {
	dc.mu.RLock()
	defer dc.mu.RUnlock()

	entries := make([]*entry, 0, len(dc.index))
	for _, e := range dc.index {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LastAccess.Before(entries[j].LastAccess)
	})

	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}

// Stats returns a snapshot of the cache counters.
func (dc *DiskCache) Stats() Stats {
	dc.mu.RLock()
	defer dc.mu.RUnlock()

	s := dc.stats
	s.Size = dc.size
	s.ItemCount = int64(len(dc.index))
	if s.Hits+s.Misses > 0 {
		s.HitRate = float64(s.Hits) / float64(s.Hits+s.Misses)
	}
	return s
}

// Close persists the index. The cache must not be used afterwards.
func (dc *DiskCache) Close() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if dc.closed {
		return nil
	}
	dc.closed = true
	if dc.encoder != nil {
		_ = dc.encoder.Close()
	}
	if dc.decoder != nil {
		dc.decoder.Close()
	}
	return dc.saveIndex()
}

// drop removes an entry and its file. Callers hold mu.
func (dc *DiskCache) drop(key string, e *entry) {
	_ = os.Remove(filepath.Join(dc.dir, e.File))
	dc.size -= e.Size
	delete(dc.index, key)
	dc.syncStats()
}

func (dc *DiskCache) evictOldest() {
	var oldestKey string
	var oldest *entry
	for key, e := range dc.index {
		if oldest == nil || e.LastAccess.Before(oldest.LastAccess) {
			oldestKey, oldest = key, e
		}
	}
	if oldest == nil {
		return
	}
	dc.drop(oldestKey, oldest)
	dc.stats.Evictions++
	dc.stats.LastEvict = time.Now()
}

func (dc *DiskCache) syncStats() {
	dc.stats.Size = dc.size
	dc.stats.ItemCount = int64(len(dc.index))
}

func (dc *DiskCache) recalculate() {
	dc.size = 0
	for key, e := range dc.index {
		if _, err := os.Stat(filepath.Join(dc.dir, e.File)); err != nil {
			delete(dc.index, key)
			continue
		}
		dc.size += e.Size
	}
	dc.syncStats()
}

func (dc *DiskCache) loadIndex() error {
	f, err := os.Open(filepath.Join(dc.dir, indexName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close() //nolint:errcheck

	return gob.NewDecoder(f).Decode(&dc.index)
}

func (dc *DiskCache) saveIndex() error {
	path := filepath.Join(dc.dir, indexName)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	err = gob.NewEncoder(f).Encode(dc.index)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func fileName(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:16]) + ".cache"
}

// writeFileAtomic writes to a temp file and renames it over path.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
