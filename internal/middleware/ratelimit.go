package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/filmfest/catalogue-api/internal/config"
)

// limiterStore is the minimal Redis surface the limiter needs; tests
// substitute a fake.
type limiterStore interface {
	Incr(ctx context.Context, key string) (int64, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

type redisLimiterStore struct{ rdb *redis.Client }

func (r redisLimiterStore) Incr(ctx context.Context, key string) (int64, error) {
	return r.rdb.Incr(ctx, key).Result()
}

func (r redisLimiterStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	return r.rdb.TTL(ctx, key).Result()
}

func (r redisLimiterStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return r.rdb.Expire(ctx, key, ttl).Err()
}

// NewRateLimiter returns a fixed-window per-IP rate limiter backed by
// Redis INCR/EXPIRE. When disabled or Redis is unavailable it is a
// pass-through; when Redis errors mid-request the request is allowed
// rather than failed, so the limiter can only ever shed load, not add
// faults.
func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil || cfg.Limit <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	return newRateLimiter(cfg, redisLimiterStore{rdb})
}

func newRateLimiter(cfg config.RateLimitConfig, store limiterStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			key := fmt.Sprintf("%s:%s", cfg.Prefix, c.RealIP())

			n, err := store.Incr(ctx, key)
			if err != nil {
				return next(c)
			}
			if n == 1 {
				_ = store.Expire(ctx, key, cfg.Window)
			} else if ttl, err := store.TTL(ctx, key); err == nil && ttl < 0 {
				// The Expire that should have armed this window failed
				// on an earlier request; re-arm so the key cannot count
				// against this IP forever.
				_ = store.Expire(ctx, key, cfg.Window)
			}
			if n > int64(cfg.Limit) {
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "rate limit exceeded"})
			}
			return next(c)
		}
	}
}
