package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"depot/internal/rate_limiter"

	"github.com/gin-gonic/gin"
)

// WriteLimit throttles mutating requests per client.
func WriteLimit(rl *rate_limiter.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		client := clientKey(c)

		if !rl.IsAllowed(client) {
			c.Header("X-RateLimit-Limit", strconv.Itoa(rl.Limit()))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", time.Now().Add(rl.Window()).Format(time.RFC3339))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":    "Too many changes, try again later",
				"reset_at": time.Now().Add(rl.Window()).Format(time.RFC3339),
			})
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(rl.GetRemainingRequests(client)))
		c.Next()
	}
}

func clientKey(c *gin.Context) string {
	client := c.GetHeader("X-Forwarded-For")
	if client == "" {
		client = c.GetHeader("X-Real-IP")
	}
	if client == "" {
		client = c.ClientIP()
	}
	if i := strings.Index(client, ","); i >= 0 {
		client = client[:i]
	}
	return strings.TrimSpace(client)
}
