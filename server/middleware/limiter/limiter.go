// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter holds one token bucket per client network.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	limit rate.Limit
	burst int
	idle  time.Duration

	now func() time.Time
}

type bucket struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// Decision is the result of [Limiter.Allow].
type Decision struct {
	Allowed bool

	// Limit is the bucket size.
	Limit int

	// Remaining is the number of requests that would be allowed right now.
	Remaining int

	// RetryAfter is how long a rejected client has to wait. It is zero when allowed.
	RetryAfter time.Duration
}

// New returns a limiter refilling perSecond tokens per second up to burst.
// Buckets unused for idle are dropped by [Limiter.Cleanup].
func New(perSecond float64, burst int, idle time.Duration) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		idle:    idle,
		now:     time.Now,
	}
}

// Allow takes one token from the bucket of key.
func (l *Limiter) Allow(key string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}

	b.lastAccess = now

	d := Decision{Limit: l.burst}

	res := b.limiter.ReserveN(now, 1)
	if !res.OK() {
		d.RetryAfter = l.idle

		return d
	}

	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)

		d.RetryAfter = delay
	} else {
		d.Allowed = true
	}

	d.Remaining = max(0, int(math.Floor(b.limiter.TokensAt(now))))

	return d
}

// Cleanup drops the buckets that have been idle for longer than the idle
// timeout and returns how many were dropped.
func (l *Limiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	dropped := 0

	for key, b := range l.buckets {
		if now.Sub(b.lastAccess) > l.idle {
			delete(l.buckets, key)

			dropped++
		}
	}

	return dropped
}

// Len returns the number of tracked client networks.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.buckets)
}
