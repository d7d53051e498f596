package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"catalog_back_end/internal/logger"
)

const APIWindow = time.Minute

// Counter counts hits on key within a window that starts at the first hit.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

type RedisCounter struct {
	client *redis.Client
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

func (r *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	n, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, err
		}
	}
	return n, nil
}

// RateLimit caps requests per client IP. When the counter is unreachable requests
// go through.
func RateLimit(counter Counter, limit int64, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "api_requests:" + c.ClientIP()
		n, err := counter.Incr(c, key, window)
		if err != nil {
			logger.Warn(c, "⚠️ Rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		remaining := limit - n
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if n > limit {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests, try again later",
				"retry_after": int(window.Seconds()),
			})
			return
		}
		c.Next()
	}
}
