package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"bgaming-proxy/internal/services"
)

// RateLimitMiddleware throttles the money-moving routes. Operator calls are
// keyed by the authenticated operator id, player-facing callbacks by client
// IP. Routes without a configured limit pass through untouched.
func RateLimitMiddleware(limiter services.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		var route string
		var limit int
		var window time.Duration

		switch {
		case strings.Contains(path, "/callback/"):
			route = "callback"
			limit = 300 // gameplay commands per minute per client
			window = time.Minute
		case strings.HasSuffix(path, "/sessions"):
			route = "sessions"
			limit = 30 // session creations per minute per operator
			window = time.Minute
		default:
			c.Next()
			return
		}

		key := c.GetString("operator_id")
		if key == "" {
			key = c.ClientIP()
		}

		allowed, err := limiter.Allow(key+":"+route, limit, window)
		if err != nil || !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": window.Seconds(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
