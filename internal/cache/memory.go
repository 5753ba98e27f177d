package cache

import (
	"context"
	"math"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type bucket struct {
	tokens     float64
	lastUpdate time.Time
}

// MemoryLimiter is a per-process token bucket limiter backed by go-cache.
// Used when no Redis is configured; limits are not shared across replicas.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets *gocache.Cache
	cfg     LimitConfig
	now     func() time.Time
}

// NewMemoryLimiter creates an in-process limiter.
func NewMemoryLimiter(cfg LimitConfig) *MemoryLimiter {
	ttl := cfg.bucketTTL()
	return &MemoryLimiter{
		buckets: gocache.New(ttl, 2*ttl),
		cfg:     cfg,
		now:     time.Now,
	}
}

// Allow consumes one token for key. It never returns an error.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (*RateLimitResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	burst := float64(l.cfg.Burst)

	b := bucket{tokens: burst, lastUpdate: now}
	if v, found := l.buckets.Get(key); found {
		b = v.(bucket)
	}

	elapsed := now.Sub(b.lastUpdate).Seconds()
	if elapsed > 0 {
		b.tokens = math.Min(burst, b.tokens+elapsed*l.cfg.Rate)
	}
	b.lastUpdate = now

	result := &RateLimitResult{ResetAt: now.Add(time.Duration(float64(time.Second) / l.cfg.Rate))}
	if b.tokens >= 1 {
		b.tokens--
		result.Allowed = true
	} else {
		result.RetryAfter = time.Duration(math.Ceil((1-b.tokens)/l.cfg.Rate)) * time.Second
	}
	result.Remaining = int64(math.Floor(b.tokens))

	l.buckets.Set(key, b, gocache.DefaultExpiration)

	return result, nil
}
