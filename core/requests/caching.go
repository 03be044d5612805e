// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package requests

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"codeberg.org/ttools/ttsync/config"
	"codeberg.org/ttools/ttsync/core/requests/lrucache"
)

// Cache stores API responses with a time to live.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
	Delete(key string)
}

// LRUCache is a [Cache] backed by a bounded [lrucache.Cache].
type LRUCache struct {
	c   *lrucache.Cache
	now func() time.Time
}

// NewLRUCache returns a cache of size entries. now defaults to [time.Now].
func NewLRUCache(size int, compress bool, now func() time.Time) (*LRUCache, error) {
	if now == nil {
		now = time.Now
	}

	opts := []lrucache.Option{lrucache.WithClock(now)}
	if compress {
		opts = append(opts, lrucache.WithCompression())
	}

	c, err := lrucache.New(size, opts...)
	if err != nil {
		return nil, err
	}

	return &LRUCache{c: c, now: now}, nil
}

func (l *LRUCache) Get(key string) ([]byte, bool) {
	v, ok := l.c.Get(key)
	if !ok {
		return nil, false
	}

	b, ok := v.([]byte)
	if !ok {
		l.c.Remove(key)

		return nil, false
	}

	return b, true
}

// Set stores value for ttl. A non-positive ttl stores nothing.
func (l *LRUCache) Set(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	l.c.AddWithExpiry(key, value, l.now().Add(ttl))
}

func (l *LRUCache) Delete(key string) {
	l.c.Remove(key)
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Get(string) ([]byte, bool)          { return nil, false }
func (NopCache) Set(string, []byte, time.Duration) {}
func (NopCache) Delete(string)                     {}

// Setup builds the API response cache from [config.Global].
func Setup() (Cache, error) {
	cfg := config.Global.Cache

	if !cfg.Enabled {
		log.Info().
			Msg("Cache is disabled, skipping cache initialization")

		return NopCache{}, nil
	}

	c, err := NewLRUCache(cfg.Size, cfg.Compress, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	log.Info().
		Int("size", cfg.Size).
		Bool("compress", cfg.Compress).
		Dur("ttl", cfg.TTL).
		Msg("Initialized API response cache")

	return c, nil
}
