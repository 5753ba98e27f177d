package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

// rateLimitIPPrefix is the Redis key prefix for per-IP limits.
const rateLimitIPPrefix = "ratelimit:ip:"

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter decides whether one more request from key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (*RateLimitResult, error)
}

// LimitConfig is a token bucket: Rate tokens per second, at most Burst.
type LimitConfig struct {
	Rate  float64
	Burst int
}

// bucketTTL keeps an idle bucket around until it would be full again.
func (c LimitConfig) bucketTTL() time.Duration {
	if c.Rate <= 0 {
		return time.Minute
	}
	seconds := math.Ceil(float64(c.Burst)/c.Rate) + 1
	return time.Duration(seconds) * time.Second
}

// tokenBucketScript refills and consumes in one atomic step.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local rate = tonumber(ARGV[1])      -- tokens per second
	local burst = tonumber(ARGV[2])     -- max tokens (bucket capacity)
	local now = tonumber(ARGV[3])       -- current time in seconds
	local ttl = tonumber(ARGV[4])       -- TTL in seconds

	local data = redis.call('HMGET', key, 'tokens', 'last_update')
	local tokens = tonumber(data[1]) or burst
	local last_update = tonumber(data[2]) or now

	local elapsed = math.max(0, now - last_update)
	tokens = math.min(burst, tokens + (elapsed * rate))

	local allowed = 0
	local retry_after = 0

	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	else
		retry_after = math.ceil((1 - tokens) / rate)
	end

	redis.call('HSET', key, 'tokens', tokens, 'last_update', now)
	redis.call('EXPIRE', key, ttl)

	return {allowed, retry_after, math.floor(tokens)}
`)

// RedisLimiter is a Limiter shared by every instance using the same Redis.
type RedisLimiter struct {
	cache  *Cache
	prefix string
	cfg    LimitConfig
}

// NewRedisLimiter creates a limiter whose keys live under scope.
func NewRedisLimiter(c *Cache, scope string, cfg LimitConfig) *RedisLimiter {
	return &RedisLimiter{
		cache:  c,
		prefix: rateLimitIPPrefix + scope + ":",
		cfg:    cfg,
	}
}

// Allow consumes one token for key. Keys are hashed before storage.
// On Redis errors the request is allowed and the error is returned
// alongside so the caller can log it.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (*RateLimitResult, error) {
	now := time.Now()

	result, err := tokenBucketScript.Run(ctx, l.cache.client,
		[]string{l.prefix + hashIP(key)},
		l.cfg.Rate, l.cfg.Burst, now.Unix(), int(l.cfg.bucketTTL().Seconds()),
	).Int64Slice()
	if err != nil {
		return &RateLimitResult{
			Allowed:   true,
			Remaining: int64(l.cfg.Burst),
			ResetAt:   now.Add(time.Minute),
		}, fmt.Errorf("rate limit script: %w", err)
	}

	return &RateLimitResult{
		Allowed:    result[0] == 1,
		Remaining:  result[2],
		ResetAt:    now.Add(time.Duration(float64(time.Second) / l.cfg.Rate)),
		RetryAfter: time.Duration(result[1]) * time.Second,
	}, nil
}

// hashIP creates a truncated SHA256 hash of an IP address.
func hashIP(ip string) string {
	hash := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(hash[:8])
}
