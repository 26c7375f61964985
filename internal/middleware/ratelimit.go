package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	redispkg "github.com/strategiz/core/internal/pkg/redis"
	"github.com/strategiz/core/internal/pkg/response"
	"go.uber.org/zap"
)

// RateLimit enforces a fixed-window per-IP limit backed by redis. Used
// on the credential endpoints, where unlimited attempts would undo the
// failure delay.
func RateLimit(client *redispkg.Client, name string, limit int, window time.Duration, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("ratelimit:%s:%s", name, c.ClientIP())
		ctx := c.Request.Context()

		n, err := client.Incr(ctx, key)
		if err != nil {
			// Redis being down must not lock everyone out.
			log.Warn("rate limit check failed", zap.Error(err))
			c.Next()
			return
		}
		if n == 1 {
			if err := client.Expire(ctx, key, window); err != nil {
				log.Warn("rate limit expire failed", zap.Error(err))
			}
		}
		if n > int64(limit) {
			log.Info("rate limit exceeded",
				zap.String("limiter", name),
				zap.String("ip", c.ClientIP()))
			response.TooManyRequests(c, "too many requests, slow down")
			return
		}
		c.Next()
	}
}
