package synth

import (
	"context"

	"github.com/charmbracelet/log"
)

// AudioCache is the storage used by Cached.
type AudioCache interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
	Delete(key string) error
}

// Cached wraps a Synthesizer and serves repeated requests from a cache.
type Cached struct {
	next  Synthesizer
	cache AudioCache
}

// NewCached returns next wrapped with c.
func NewCached(next Synthesizer, c AudioCache) *Cached {
	return &Cached{next: next, cache: c}
}

// Name implements Synthesizer.
func (c *Cached) Name() string { return c.next.Name() }

// CacheKey implements CacheKeyer.
func (c *Cached) CacheKey() string { return identity(c.next) }

// Validate implements Synthesizer.
func (c *Cached) Validate() error { return c.next.Validate() }

// Synthesize implements Synthesizer.
func (c *Cached) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}

	key := KeyFor(c.next, req)
	if audio, ok := c.cache.Get(key); ok {
		if len(audio) > 0 {
			log.Debug("Audio cache hit", "key", key, "bytes", len(audio))
			return audio, nil
		}
		log.Warn("Dropping empty cache entry", "key", key)
		if err := c.cache.Delete(key); err != nil {
			log.Warn("Could not drop cache entry", "key", key, "err", err)
		}
	}

	audio, err := c.next.Synthesize(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Put(key, audio); err != nil {
		log.Warn("Could not cache audio", "key", key, "err", err)
	}
	return audio, nil
}

var _ Synthesizer = (*Cached)(nil)
