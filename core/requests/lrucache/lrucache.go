// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package lrucache provides a fixed-capacity least-recently-used cache with
optional per-entry expiry.

Keys are strings. When the cache is full, adding a new key evicts the least
recently used entry. Entries added with [Cache.AddWithExpiry] are dropped the
first time they are looked up after their deadline. With [WithCompression],
string and []byte values are stored zstd-compressed when that saves space.
*/
package lrucache

import (
	"container/list"
	"errors"
	"sync"
	"time"
)

var ErrInvalidSize = errors.New("must provide a positive size")

// Cache is safe for concurrent use. Construct it with [New].
type Cache struct {
	mu    sync.Mutex
	size  int
	order *list.List // front is most recently used
	items map[string]*list.Element
	codec *codec
	now   func() time.Time
}

type entry struct {
	key       string
	value     stored
	expiresAt time.Time // zero means no expiry
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Option configures a [Cache].
type Option func(*Cache) error

// WithCompression stores string and []byte values zstd-compressed.
func WithCompression() Option {
	return func(c *Cache) error {
		cd, err := newCodec()
		if err != nil {
			return err
		}

		c.codec = cd

		return nil
	}
}

// WithClock replaces [time.Now] as the source of the current time.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) error {
		c.now = now

		return nil
	}
}

// New returns a cache holding at most size entries.
func New(size int, opts ...Option) (*Cache, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	c := &Cache{
		size:  size,
		order: list.New(),
		items: make(map[string]*list.Element),
		now:   time.Now,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Add stores value under key without expiry. It reports whether an older
// entry was evicted to make room.
func (c *Cache) Add(key string, value any) bool {
	return c.AddWithExpiry(key, value, time.Time{})
}

// AddWithExpiry stores value under key until expiresAt. A zero expiresAt
// never expires. It reports whether an older entry was evicted.
func (c *Cache) AddWithExpiry(key string, value any, expiresAt time.Time) bool {
	s := c.codec.pack(value)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.order.MoveToFront(el)

		ent := el.Value.(*entry) //nolint:forcetypeassert
		ent.value = s
		ent.expiresAt = expiresAt

		return false
	}

	c.items[key] = c.order.PushFront(&entry{key: key, value: s, expiresAt: expiresAt})

	if c.order.Len() <= c.size {
		return false
	}

	if oldest := c.order.Back(); oldest != nil {
		c.remove(oldest)
	}

	return true
}

// Get returns the value for key and marks it as most recently used.
// []byte values are returned as copies.
func (c *Cache) Get(key string) (any, bool) {
	return c.lookup(key, true)
}

// Peek is like [Cache.Get] but leaves the recency order untouched.
func (c *Cache) Peek(key string) (any, bool) {
	return c.lookup(key, false)
}

func (c *Cache) lookup(key string, touch bool) (any, bool) {
	c.mu.Lock()

	el, ok := c.items[key]
	if !ok {
		c.mu.Unlock()

		return nil, false
	}

	ent := el.Value.(*entry) //nolint:forcetypeassert
	if ent.expired(c.now()) {
		c.remove(el)
		c.mu.Unlock()

		return nil, false
	}

	if touch {
		c.order.MoveToFront(el)
	}

	s := ent.value

	c.mu.Unlock()

	return c.codec.unpack(s)
}

// Remove deletes key and reports whether it was present.
func (c *Cache) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if ok {
		c.remove(el)
	}

	return ok
}

// Keys returns the keys from least to most recently used, expired entries included.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.items))
	for el := c.order.Back(); el != nil; el = el.Prev() {
		keys = append(keys, el.Value.(*entry).key) //nolint:forcetypeassert
	}

	return keys
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.order.Len()
}

// Purge removes every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	clear(c.items)
}

func (c *Cache) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry).key) //nolint:forcetypeassert
}
