package resource

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// KeyedLimiter keeps one token bucket per key, e.g. per client address.
// Buckets idle for longer than the configured TTL are dropped by Sweep.
type KeyedLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	now     func() time.Time
	buckets map[string]*keyedBucket
}

type keyedBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewKeyedLimiter allows events per interval for every key, with a burst of
// the same size.
func NewKeyedLimiter(events int, interval time.Duration) *KeyedLimiter {
	return &KeyedLimiter{
		limit:   rate.Every(interval / time.Duration(events)),
		burst:   events,
		ttl:     2 * interval,
		now:     time.Now,
		buckets: make(map[string]*keyedBucket),
	}
}

// Allow reports whether an event for key may happen now.
func (k *KeyedLimiter) Allow(key string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	b, ok := k.buckets[key]
	if !ok {
		b = &keyedBucket{limiter: rate.NewLimiter(k.limit, k.burst)}
		k.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// Sweep drops buckets that have been idle longer than the TTL and returns the
// number removed.
func (k *KeyedLimiter) Sweep() int {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	removed := 0
	for key, b := range k.buckets {
		if now.Sub(b.lastSeen) > k.ttl {
			delete(k.buckets, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (k *KeyedLimiter) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buckets)
}
