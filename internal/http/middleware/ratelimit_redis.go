package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"crewquest/internal/logger"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window limiter backed by Redis INCR/EXPIRE.
// It fails open: with no Redis configured (or Redis down) every
// request passes, so the engine never depends on Redis to serve.
type RateLimiter struct {
	rdb *redis.Client
}

// NewRateLimiter connects to Redis; an empty addr or a failed ping
// yields a limiter that allows everything.
func NewRateLimiter(addr, password string, db int) *RateLimiter {
	if addr == "" {
		return &RateLimiter{}
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, rate limiting disabled", "error", err)
		return &RateLimiter{}
	}
	return &RateLimiter{rdb: rdb}
}

// Limit caps requests per client IP inside the window.
func (l *RateLimiter) Limit(maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.rdb == nil {
			c.Next()
			return
		}

		key := "rl:" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + c.ClientIP()
		ctx := c.Request.Context()

		val, err := l.rdb.Incr(ctx, key).Result()
		if err != nil {
			c.Header("X-RateLimit-Error", "redis-error")
			c.Next()
			return
		}
		if val == 1 {
			l.rdb.Expire(ctx, key, window)
		}

		limiterRequests.WithLabelValues(c.FullPath()).Inc()
		if val > int64(maxRequests) {
			limiterBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		c.Next()
	}
}
