package middleware

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"inkpress/internal/core/apperror"
	"inkpress/internal/infrastructure/cache"
	"inkpress/pkg/logger"
)

// rateLimitSkipPaths are exempt from rate limiting.
var rateLimitSkipPaths = []string{"/health", "/metrics", "/ping"}

// RateLimit enforces a per-client request budget backed by Redis. When the
// limiter itself fails the request is allowed through; availability wins
// over strictness here.
func RateLimit(limiter *cache.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, p := range rateLimitSkipPaths {
			if strings.HasPrefix(c.Request.URL.Path, p) {
				c.Next()
				return
			}
		}

		res, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.Warn(c.Request.Context(), "rate limiter unavailable, failing open",
				"error", err,
			)
			c.Next()
			return
		}

		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())))
			_ = c.Error(apperror.NewRateLimited("Too many requests from this IP, please try again later"))
			c.Abort()
			return
		}

		c.Next()
	}
}
