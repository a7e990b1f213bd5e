package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"depot/internal/rate_limiter"
	"depot/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSync struct {
	loading bool
}

func (f *fakeSync) Loading() bool { return f.loading }

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func get(router *gin.Engine, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheckReportsLoading(t *testing.T) {
	sync := &fakeSync{loading: true}
	router := newRouter()
	router.GET("/health", HealthCheckHandler(sync))

	var status HealthStatus
	w := get(router, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "loading", status.Status)
	assert.True(t, status.Loading)

	sync.loading = false
	w = get(router, "/health", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "ok", status.Status)
	assert.False(t, status.Loading)
}

func TestRequireReady(t *testing.T) {
	sync := &fakeSync{loading: true}
	router := newRouter()
	router.GET("/storage", RequireReady(sync), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := get(router, "/storage", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	sync.loading = false
	assert.Equal(t, http.StatusOK, get(router, "/storage", nil).Code)
}

func TestSessionMiddleware(t *testing.T) {
	router := newRouter()
	router.Use(SessionMiddleware("festival"))
	router.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, session.FromContext(c).User)
	})

	assert.Equal(t, "festival", get(router, "/whoami", nil).Body.String())
	assert.Equal(t, "ola", get(router, "/whoami", map[string]string{OperatorHeader: " ola "}).Body.String())
}

func TestSessionMiddlewareFallsBackToDefaultUser(t *testing.T) {
	router := newRouter()
	router.Use(SessionMiddleware(""))
	router.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, session.FromContext(c).User)
	})

	assert.Equal(t, session.DefaultUser, get(router, "/whoami", nil).Body.String())
}

func TestRecoveryMiddleware(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	router := newRouter()
	router.Use(RecoveryMiddleware(zap.New(core)))
	router.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := get(router, "/boom", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Panic recovered", logs.All()[0].Message)
}

func TestWriteLimit(t *testing.T) {
	rl := rate_limiter.NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	router := newRouter()
	router.GET("/write", WriteLimit(rl), func(c *gin.Context) { c.Status(http.StatusOK) })

	header := map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}
	assert.Equal(t, http.StatusOK, get(router, "/write", header).Code)
	assert.Equal(t, http.StatusOK, get(router, "/write", header).Code)

	w := get(router, "/write", header)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))

	other := map[string]string{"X-Forwarded-For": "203.0.113.8"}
	assert.Equal(t, http.StatusOK, get(router, "/write", other).Code)
}

func TestRequestID(t *testing.T) {
	router := newRouter()
	router.Use(RequestID())
	router.GET("/id", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := get(router, "/id", nil)
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	w = get(router, "/id", map[string]string{RequestIDHeader: "abc-123"})
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc-123", w.Body.String())
}
