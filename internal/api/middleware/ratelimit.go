package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"atrium/internal/utils"
	"atrium/internal/utils/logger"
)

var log = logger.New("ratelimit")

// RateLimitConfig configures the fixed-window limiter applied to public
// endpoints. When Redis is nil or unreachable the limiter degrades to an
// in-process token bucket keyed by client IP.
type RateLimitConfig struct {
	Redis  *utils.RedisClient
	Limit  int
	Window time.Duration
}

// RateLimiter enforces a per-IP request budget over a fixed window.
func RateLimiter(cfg RateLimitConfig) echo.MiddlewareFunc {
	if cfg.Limit <= 0 {
		cfg.Limit = 20
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Hour
	}

	fallback := newLocalLimiter(cfg.Limit, cfg.Window)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := clientIP(c)

			if cfg.Redis == nil {
				if !fallback.Allow(ip) {
					return tooManyRequests(c, int(cfg.Window.Seconds()))
				}
				return next(c)
			}

			ctx := c.Request().Context()
			key := cfg.Redis.GetRateLimitKey(ip, c.Path())

			count, err := cfg.Redis.IncrementRateLimit(ctx, key, cfg.Window)
			if err != nil {
				log.Warn("redis unavailable, falling back to local limiter: %v", err)
				if !fallback.Allow(ip) {
					return tooManyRequests(c, int(cfg.Window.Seconds()))
				}
				return next(c)
			}

			remaining := cfg.Limit - int(count)
			if remaining < 0 {
				remaining = 0
			}
			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if int(count) > cfg.Limit {
				retryAfter := int(cfg.Window.Seconds())
				if ttl, err := cfg.Redis.GetRateLimitTTL(ctx, key); err == nil && ttl > 0 {
					retryAfter = int(ttl.Seconds())
				}
				return tooManyRequests(c, retryAfter)
			}

			return next(c)
		}
	}
}

func tooManyRequests(c echo.Context, retryAfter int) error {
	c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
	return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
		"error":       "rate_limit_exceeded",
		"message":     "Too many requests. Try again later.",
		"retry_after": retryAfter,
	})
}

func clientIP(c echo.Context) string {
	if forwardedFor := c.Request().Header.Get("X-Forwarded-For"); forwardedFor != "" {
		parts := strings.Split(forwardedFor, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := c.Request().Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return c.RealIP()
}

// localLimiter is the in-process fallback. One token bucket per client IP,
// refilling at the configured rate.
type localLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

func newLocalLimiter(limit int, window time.Duration) *localLimiter {
	return &localLimiter{
		buckets: make(map[string]*rate.Limiter),
		limit:   rate.Limit(float64(limit) / window.Seconds()),
		burst:   limit,
	}
}

func (l *localLimiter) Allow(key string) bool {
	l.mu.Lock()
	bucket, ok := l.buckets[key]
	if !ok {
		bucket = rate.NewLimiter(l.limit, l.burst)
		l.buckets[key] = bucket
	}
	l.mu.Unlock()
	return bucket.Allow()
}
