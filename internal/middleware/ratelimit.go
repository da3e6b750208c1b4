package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RateLimit allows perMinute requests per client IP and route. The window
// opens with the first request and lasts a minute. Redis failures let the
// request through. A counter found without a TTL while over the limit gets its
// window restored, so a lost EXPIRE cannot lock a client out for good.
func RateLimit(client redis.Cmdable, perMinute int, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if perMinute <= 0 || client == nil {
			c.Next()
			return
		}

		key := "ratelimit:" + c.FullPath() + ":" + c.ClientIP()
		ctx := c.Request.Context()

		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("rate limit counter unavailable")
			c.Next()
			return
		}
		if count == 1 {
			if err := client.Expire(ctx, key, time.Minute).Err(); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("rate limit window not set")
			}
		}

		remaining := int64(perMinute) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(perMinute))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(perMinute) {
			ensureWindow(ctx, client, key, log)
			log.Warn().Str("client_ip", c.ClientIP()).Str("path", c.FullPath()).Int64("count", count).Msg("rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

func ensureWindow(ctx context.Context, client redis.Cmdable, key string, log zerolog.Logger) {
	ttl, err := client.TTL(ctx, key).Result()
	if err != nil || ttl >= 0 {
		return
	}
	if err := client.Expire(ctx, key, time.Minute).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("rate limit window not restored")
	}
}
