package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// ──────────────────────────────────────────────────────────────────────
// Per-IP Rate Limiter
//
// Each IP gets its own golang.org/x/time/rate.Limiter (token bucket
// under the hood) sized to the configured requests-per-minute and
// burst. When a request can't be admitted immediately it receives
// HTTP 429 with a Retry-After header computed from the limiter's
// reservation delay.
//
// A background goroutine evicts limiters idle for more than
// cleanupIdleDuration to prevent unbounded memory growth from
// transient IPs. This mirrors the per-provider limiter in
// internal/providers' CPF registry client, which also wraps
// golang.org/x/time/rate rather than a hand-rolled bucket.
// ──────────────────────────────────────────────────────────────────────

const cleanupIdleDuration = 10 * time.Minute

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter holds one rate.Limiter per IP.
type RateLimiter struct {
	limit rate.Limit
	burst int
	mu    sync.Mutex
	ips   map[string]*ipLimiter
}

// NewRateLimiter creates a rate limiter allowing `ratePerMin` requests per
// minute per IP, with a burst capacity of `burst` requests.
func NewRateLimiter(ratePerMin, burst int) *RateLimiter {
	rl := &RateLimiter{
		limit: rate.Limit(float64(ratePerMin) / 60.0),
		burst: burst,
		ips:   make(map[string]*ipLimiter),
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *RateLimiter) limiterFor(ip string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	entry, ok := rl.ips[ip]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.ips[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// allow is allowAt pinned to the wall clock; split out so tests can
// drive the reservation off a synthetic clock instead of sleeping.
func (rl *RateLimiter) allow(ip string) (bool, time.Duration) {
	return rl.allowAt(ip, time.Now())
}

func (rl *RateLimiter) allowAt(ip string, now time.Time) (bool, time.Duration) {
	lim := rl.limiterFor(ip, now)
	res := lim.ReserveN(now, 1)
	if !res.OK() {
		return false, 0
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.Cancel()
		return false, delay
	}
	return true, 0
}

// Middleware returns a Gin handler that enforces the rate limit.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		allowed, retryAfter := rl.allow(ip)
		if !allowed {
			c.Header("Retry-After", retryAfter.String())
			respondErr(c, http.StatusTooManyRequests, "rate limit exceeded", retryAfter.String())
			c.Abort()
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupIdleDuration)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-cleanupIdleDuration)
		rl.mu.Lock()
		for ip, entry := range rl.ips {
			if entry.lastSeen.Before(cutoff) {
				delete(rl.ips, ip)
			}
		}
		rl.mu.Unlock()
	}
}
