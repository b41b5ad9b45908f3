package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const defaultMaxKeys = 100_000

// Local is an in-process token bucket per key. Each bucket refills at
// limit/window and holds at most limit tokens.
type Local struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	maxKeys int
	now     func() time.Time
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func NewLocal() *Local {
	return &Local{
		buckets: make(map[string]*bucket),
		maxKeys: defaultMaxKeys,
		now:     time.Now,
	}
}

func (l *Local) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	if limit <= 0 || window <= 0 {
		return true, 0, nil
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= l.maxKeys {
			l.prune(now, window)
		}
		b = &bucket{lim: rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	if b.lim.AllowN(now, 1) {
		return true, 0, nil
	}
	r := b.lim.ReserveN(now, 1)
	retryAfter := r.DelayFrom(now)
	r.CancelAt(now)
	return false, retryAfter, nil
}

// Len reports how many keys are tracked.
func (l *Local) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// prune drops buckets idle for a full window; they would be full again.
// Called with l.mu held.
func (l *Local) prune(now time.Time, window time.Duration) {
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) >= window {
			delete(l.buckets, k)
		}
	}
}
