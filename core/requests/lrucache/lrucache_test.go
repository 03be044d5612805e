// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package lrucache

import (
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.now = f.now.Add(d)
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := New(0)
	require.ErrorIs(t, err, ErrInvalidSize)

	c, err := New(3, WithCompression())
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestCache_Eviction(t *testing.T) {
	t.Parallel()

	c, err := New(2)
	require.NoError(t, err)

	assert.False(t, c.Add("a", 1))
	assert.False(t, c.Add("b", 2))

	// Touch "a" so that "b" is the oldest.
	_, ok := c.Get("a")
	require.True(t, ok)

	assert.True(t, c.Add("c", 3))

	_, ok = c.Peek("b")
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "c"}, c.Keys())

	// Updating an existing key does not evict.
	assert.False(t, c.Add("a", 10))

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 10, v)
}

func TestCache_PeekKeepsOrder(t *testing.T) {
	t.Parallel()

	c, err := New(2)
	require.NoError(t, err)

	c.Add("a", 1)
	c.Add("b", 2)

	_, ok := c.Peek("a")
	require.True(t, ok)

	c.Add("c", 3)

	_, ok = c.Peek("a")
	assert.False(t, ok, "peek must not refresh recency")
}

func TestCache_Expiry(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}

	c, err := New(4, WithClock(clock.Now))
	require.NoError(t, err)

	c.AddWithExpiry("short", "x", clock.Now().Add(time.Minute))
	c.AddWithExpiry("long", "y", clock.Now().Add(time.Hour))
	c.Add("forever", "z")

	clock.Advance(30 * time.Second)

	v, ok := c.Get("short")
	require.True(t, ok)
	assert.Equal(t, "x", v)

	clock.Advance(time.Minute)

	_, ok = c.Get("short")
	assert.False(t, ok)

	_, ok = c.Peek("long")
	assert.True(t, ok)

	clock.Advance(2 * time.Hour)

	_, ok = c.Peek("long")
	assert.False(t, ok)

	_, ok = c.Get("forever")
	assert.True(t, ok)

	assert.Equal(t, 1, c.Len(), "expired entries are dropped on lookup")
}

func TestCache_Compression(t *testing.T) {
	t.Parallel()

	c, err := New(4, WithCompression())
	require.NoError(t, err)

	text := strings.Repeat("translation ", 200)

	c.Add("s", text)
	c.Add("b", []byte(text))
	c.Add("short", "hi")
	c.Add("n", 42)

	el := c.items["s"]
	assert.True(t, el.Value.(*entry).value.compressed)

	v, ok := c.Get("s")
	require.True(t, ok)
	assert.Equal(t, text, v)

	v, ok = c.Get("b")
	require.True(t, ok)
	assert.Equal(t, []byte(text), v)

	v, ok = c.Get("short")
	require.True(t, ok)
	assert.Equal(t, "hi", v)

	v, ok = c.Get("n")
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestCache_BytesAreCopied(t *testing.T) {
	t.Parallel()

	c, err := New(1)
	require.NoError(t, err)

	in := []byte("abc")
	c.Add("k", in)
	in[0] = 'x'

	v, ok := c.Get("k")
	require.True(t, ok)

	out := v.([]byte)
	assert.Equal(t, []byte("abc"), out)

	out[1] = 'y'

	v, _ = c.Get("k")
	assert.Equal(t, []byte("abc"), v)
}

func TestCache_RemoveAndPurge(t *testing.T) {
	t.Parallel()

	c, err := New(3)
	require.NoError(t, err)

	c.Add("a", 1)
	c.Add("b", 2)

	assert.True(t, c.Remove("a"))
	assert.False(t, c.Remove("a"))
	assert.Equal(t, 1, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Keys())
}

func TestCache_Concurrent(t *testing.T) {
	t.Parallel()

	c, err := New(16, WithCompression())
	require.NoError(t, err)

	var wg sync.WaitGroup

	for i := range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for j := range 200 {
				key := strconv.Itoa((i + j) % 32)
				c.AddWithExpiry(key, strings.Repeat(key, 64), time.Now().Add(time.Minute))
				c.Get(key)
				c.Peek(strconv.Itoa(j % 32))
			}
		}()
	}

	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 16)
}
