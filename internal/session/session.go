package session

import "github.com/gin-gonic/gin"

const (
	DefaultUser = "admin"
	contextKey  = "depot.session"
)

// Session identifies who performs an action. It is built per request and passed
// explicitly to the services that record log entries.
type Session struct {
	User string
}

func New(user string) Session {
	if user == "" {
		user = DefaultUser
	}
	return Session{User: user}
}

func Attach(c *gin.Context, s Session) {
	c.Set(contextKey, s)
}

// FromContext returns the request session, or the default operator when none was attached.
func FromContext(c *gin.Context) Session {
	if value, ok := c.Get(contextKey); ok {
		if s, ok := value.(Session); ok {
			return s
		}
	}
	return New("")
}
