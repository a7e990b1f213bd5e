package middleware

import (
	"strings"

	"depot/internal/session"

	"github.com/gin-gonic/gin"
)

const OperatorHeader = "X-Depot-Operator"

// SessionMiddleware attaches the acting operator: the header when present, otherwise the configured one.
func SessionMiddleware(defaultOperator string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := strings.TrimSpace(c.GetHeader(OperatorHeader))
		if user == "" {
			user = defaultOperator
		}
		session.Attach(c, session.New(user))
		c.Next()
	}
}
