// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements rate limiting for the authenticated API. Two limiters
// share one Gin handler shape:
//
//   - RateLimiter: an in-process token bucket per identity
//     (golang.org/x/time/rate) with opportunistic eviction of idle buckets.
//   - WindowLimiter: a fixed-window counter kept in a shared store (Redis) so
//     every replica enforces the same budget. When the store errors, it falls
//     back to a local RateLimiter instead of failing requests.
//
// Replays flagged by IdempotencyValidator bypass both limiters: serving a
// stored result does not repeat the work the budget protects.
package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// keyFunc selects the identity used to key a rate-limit bucket.
type keyFunc func(*gin.Context) string

// KeyByUserOrIP prefers the authenticated user and falls back to the client
// IP. Keys are prefixed so the two namespaces never collide.
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if uid, ok := UserIDFrom(c); ok {
			return "user:" + uid
		}
		return "ip:" + c.ClientIP()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-key token-bucket limiter. Safe for concurrent use.
type RateLimiter struct {
	rps      rate.Limit
	burst    int
	keyFn    keyFunc
	mu       sync.Mutex
	visitors map[string]*visitor

	ttl      time.Duration
	cleanupN uint64
}

// NewRateLimiter constructs a RateLimiter refilling rps tokens per second
// with the given burst (coerced to at least 1).
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		visitors: make(map[string]*visitor),
		ttl:      10 * time.Minute,
	}
}

// getVisitor returns the limiter for key, creating it if absent. Every 5000
// lookups idle buckets are evicted first, so a stale bucket can be dropped
// even when it is the one being requested.
func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.cleanupN++
	if rl.cleanupN >= 5000 {
		for k, vv := range rl.visitors {
			if now.Sub(vv.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.cleanupN = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// Allow consumes one token for key.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getVisitor(key).Allow()
}

// IsRateBypass reports whether IdempotencyValidator marked this request as a
// replay of a completed operation.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Handler enforces the token bucket and answers 429 RATE_LIMITED with
// Retry-After: 1 when the bucket is empty.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) || rl.Allow(rl.keyFn(c)) {
			c.Next()
			return
		}
		tooManyRequests(c, time.Second)
	}
}

func tooManyRequests(c *gin.Context, retry time.Duration) {
	secs := int(math.Ceil(retry.Seconds()))
	if secs < 1 {
		secs = 1
	}
	c.Header("Retry-After", strconv.Itoa(secs))
	abortError(c, http.StatusTooManyRequests, codeRateLimited, "rate limit exceeded")
}

// Counter increments the hit count of a window bucket and reports the new
// count. The bucket must expire on its own after ttl.
type Counter interface {
	Incr(ctx context.Context, bucket string, ttl time.Duration) (int64, error)
}

// RedisCounter is a Counter backed by INCR + EXPIRE in one transaction.
type RedisCounter struct {
	Client redis.UniversalClient
	Prefix string
}

// Incr implements Counter.
func (r *RedisCounter) Incr(ctx context.Context, bucket string, ttl time.Duration) (int64, error) {
	pipe := r.Client.TxPipeline()
	incr := pipe.Incr(ctx, r.Prefix+bucket)
	pipe.Expire(ctx, r.Prefix+bucket, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("rate counter: %w", err)
	}
	return incr.Val(), nil
}

// WindowLimiter allows Limit requests per identity per fixed Window.
type WindowLimiter struct {
	Counter  Counter
	Limit    int64
	Window   time.Duration
	KeyFn    keyFunc
	Fallback *RateLimiter

	// Now is overridable in tests.
	Now func() time.Time
}

// NewWindowLimiter builds a shared limiter. The fallback token bucket is
// sized to the same average rate.
func NewWindowLimiter(counter Counter, limit int, window time.Duration, keyFn keyFunc) *WindowLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	rps := float64(limit) / window.Seconds()
	return &WindowLimiter{
		Counter:  counter,
		Limit:    int64(limit),
		Window:   window,
		KeyFn:    keyFn,
		Fallback: NewRateLimiter(rps, limit, keyFn),
		Now:      time.Now,
	}
}

// Handler enforces the window limit. Store errors are logged and the request
// is judged by the local fallback bucket.
func (wl *WindowLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}
		key := wl.KeyFn(c)
		now := wl.Now()
		slot := now.UnixNano() / int64(wl.Window)
		bucket := fmt.Sprintf("%s:%d", key, slot)

		n, err := wl.Counter.Incr(c.Request.Context(), bucket, wl.Window)
		if err != nil {
			LoggerFrom(c).Warn().Err(err).Msg("shared rate limiter unavailable; using local bucket")
			if wl.Fallback.Allow(key) {
				c.Next()
				return
			}
			tooManyRequests(c, time.Second)
			return
		}
		if n > wl.Limit {
			next := time.Unix(0, (slot+1)*int64(wl.Window))
			tooManyRequests(c, next.Sub(now))
			return
		}
		c.Next()
	}
}
