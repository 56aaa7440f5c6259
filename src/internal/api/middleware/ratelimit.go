package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/casapps/cascontacts/src/internal/auth"
	apperrors "github.com/casapps/cascontacts/src/internal/errors"
)

// RateLimiter hands out one token bucket per client key
type RateLimiter struct {
	limiters map[string]*visitor
	mu       sync.Mutex
	idleTTL  time.Duration
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*visitor),
		idleTTL:  10 * time.Minute,
	}
}

// Allow reports whether key may make another request at requestsPerMinute
func (rl *RateLimiter) Allow(key string, requestsPerMinute int) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	v, exists := rl.limiters[key]
	if !exists {
		// Allow a full minute's worth as burst
		v = &visitor{
			limiter: rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), requestsPerMinute),
		}
		rl.limiters[key] = v
	}
	v.lastSeen = now

	return v.limiter.Allow()
}

// Remaining returns the whole tokens left for key, -1 when unknown
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.limiters[key]
	if !exists {
		return -1
	}
	return int(v.limiter.Tokens())
}

// Cleanup drops buckets that have been idle for a while
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.idleTTL)
	for key, v := range rl.limiters {
		if v.lastSeen.Before(cutoff) {
			delete(rl.limiters, key)
		}
	}
}

// RateLimit returns a rate limiting middleware. Authenticated requests are
// counted per user, anonymous ones per client IP.
func RateLimit(cfg *viper.Viper, limiter *RateLimiter) echo.MiddlewareFunc {
	if limiter == nil {
		limiter = NewRateLimiter()
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.GetBool("ratelimit.enabled") {
				return next(c)
			}

			key := "ip:" + c.RealIP()
			limit := cfg.GetInt("ratelimit.anonymous_api")
			if user, ok := auth.CurrentUser(c); ok {
				key = "user:" + user.ID.String()
				limit = cfg.GetInt("ratelimit.authenticated_api")
			}
			if limit <= 0 {
				return next(c)
			}

			if !limiter.Allow(key, limit) {
				c.Response().Header().Set("Retry-After", "60")
				return apperrors.TooManyAttempts(limit, "1m")
			}

			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(key)))

			return next(c)
		}
	}
}
