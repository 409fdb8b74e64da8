package http

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	apperrors "github.com/nxl-pharma/crm-api/pkg/util"
)

const maxTrackedClients = 10000

// limiterCache hands out one token bucket per key.
type limiterCache struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func newLimiterCache(rps float64, burst int) *limiterCache {
	return &limiterCache{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

func (lc *limiterCache) get(key string) *rate.Limiter {
	lc.mu.RLock()
	limiter, ok := lc.limiters[key]
	lc.mu.RUnlock()
	if ok {
		return limiter
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()
	if limiter, ok = lc.limiters[key]; ok {
		return limiter
	}
	// Drop every bucket once the map grows too large; clients simply start fresh.
	if len(lc.limiters) >= maxTrackedClients {
		lc.limiters = make(map[string]*rate.Limiter)
	}
	limiter = rate.NewLimiter(lc.rate, lc.burst)
	lc.limiters[key] = limiter
	return limiter
}

// IPRateLimiter throttles anonymous endpoints per client IP.
type IPRateLimiter struct {
	cache *limiterCache
}

// NewIPRateLimiter builds a limiter allowing rps sustained requests with the given burst.
func NewIPRateLimiter(rps float64, burst int) *IPRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &IPRateLimiter{cache: newLimiterCache(rps, burst)}
}

// Handle rejects requests over the client's budget with 429.
func (rl *IPRateLimiter) Handle(c *fiber.Ctx) error {
	if !rl.cache.get(c.IP()).Allow() {
		c.Set(fiber.HeaderRetryAfter, "1")
		return apperrors.NewTooManyRequests("too many requests")
	}
	return c.Next()
}
