package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tinylink-go/internal/apperrors"
	"tinylink-go/internal/metrics"
	"tinylink-go/internal/ratelimit"
	"tinylink-go/pkg/logging"
)

// KeyFunc 从请求中提取限流 key
type KeyFunc func(c *gin.Context) string

// ClientIPKey 默认按客户端 IP 限流
func ClientIPKey(c *gin.Context) string {
	return c.ClientIP()
}

// RateLimit 令牌桶准入控制，拒绝时返回 429
func RateLimit(limiter *ratelimit.Limiter, keyFunc KeyFunc) gin.HandlerFunc {
	if keyFunc == nil {
		keyFunc = ClientIPKey
	}
	return func(c *gin.Context) {
		key := keyFunc(c)
		if limiter.Allow(key) == ratelimit.Reject {
			metrics.RateLimitRejects.Inc()
			logging.Logger.Debug("Request rate limited",
				zap.String("key", key),
				zap.String("path", c.Request.URL.Path),
			)
			_ = c.Error(apperrors.TooManyRequestsError())
			c.Abort()
			return
		}
		c.Next()
	}
}
