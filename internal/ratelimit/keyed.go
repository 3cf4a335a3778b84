package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// KeyedLimiter keeps one token bucket per key and forgets keys idle for
// longer than ttl. Idle keys are swept at most once per ttl.
type KeyedLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	now       func() time.Time
	entries   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewKeyedLimiter allows rps events per second per key with the given burst.
func NewKeyedLimiter(rps float64, burst int, ttl time.Duration) *KeyedLimiter {
	return &KeyedLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*bucket),
	}
}

// Allow consumes one token for key.
func (k *KeyedLimiter) Allow(key string) bool {
	now := k.now()
	k.mu.Lock()
	defer k.mu.Unlock()

	b := k.entries[key]
	if b == nil {
		b = &bucket{lim: rate.NewLimiter(k.limit, k.burst), lastSeen: now}
		k.entries[key] = b
	}
	b.lastSeen = now

	if now.Sub(k.lastSweep) >= k.ttl {
		k.sweep(now)
	}
	return b.lim.AllowN(now, 1)
}

// sweep drops idle keys. Callers hold k.mu.
func (k *KeyedLimiter) sweep(now time.Time) {
	for key, entry := range k.entries {
		if now.Sub(entry.lastSeen) > k.ttl {
			delete(k.entries, key)
		}
	}
	k.lastSweep = now
}

// Len reports how many keys are currently tracked.
func (k *KeyedLimiter) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
