package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// Common errors for cache operations
var (
	// ErrItemTooLarge is returned when an item exceeds the cache capacity
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrClosed is returned when the cache is used after Close
	ErrClosed = errors.New("cache closed")
)

// Stats holds cache counters.
type Stats struct {
	Capacity  int64 // Maximum capacity in bytes (on disk)
	Size      int64 // Current size in bytes (on disk)
	ItemCount int64

	Hits      int64
	Misses    int64
	Evictions int64
	HitRate   float64 // hits / (hits + misses)

	LastAccess time.Time
	LastEvict  time.Time
}

// Config holds configuration for a disk cache.
type Config struct {
	Dir              string // Directory for cache files
	Capacity         int64  // Bytes
	CompressionLevel int    // Zstd level (1-22), 0 disables compression
	TTL              time.Duration
}

// DefaultConfig returns the default cache configuration for dir.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:              dir,
		Capacity:         100 * 1024 * 1024, // 100MB
		CompressionLevel: 3,
		TTL:              7 * 24 * time.Hour,
	}
}

// Key builds a cache key from the parts that determine synthesized audio.
// identity names the provider together with any setting that changes its
// output.
func Key(identity, language string, slow bool, text string) string {
	data := fmt.Sprintf("%s|%s|%t|%s", identity, language, slow, text)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:16])
}
