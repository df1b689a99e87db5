package middleware

import (
	"net/http"
	"strconv"

	"github.com/inkpost/blog/caching"
	"github.com/inkpost/blog/logger"

	"github.com/gin-gonic/gin"
)

// RateLimitConfig configures rate limiting
type RateLimitConfig struct {
	RequestsPerWindow int
	Counter           *caching.Counter
	KeyFunc           func(c *gin.Context) string
}

// DefaultKey buckets requests by client IP and route.
func DefaultKey(c *gin.Context) string {
	return c.ClientIP() + ":" + c.FullPath()
}

// RateLimitMiddleware answers 429 once a key exceeds its allowance.
func RateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	keyFunc := config.KeyFunc
	if keyFunc == nil {
		keyFunc = DefaultKey
	}
	return func(c *gin.Context) {
		if config.RequestsPerWindow <= 0 {
			c.Next()
			return
		}

		key := keyFunc(c)
		count := config.Counter.Hit(key)

		remaining := config.RequestsPerWindow - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerWindow))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if count > config.RequestsPerWindow {
			logger.Warningf("Rate limit exceeded for %s (count: %d)", key, count)
			c.Header("Retry-After", "60")
			abortMsg(c, http.StatusTooManyRequests, "tooManyRequests")
			return
		}
		c.Next()
	}
}
