package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// LoadingReporter tells whether the live inventory is still waiting for its first snapshots.
type LoadingReporter interface {
	Loading() bool
}

type HealthStatus struct {
	Status      string    `json:"status"`
	Loading     bool      `json:"loading"`
	LastChecked time.Time `json:"last_checked"`
	Uptime      string    `json:"uptime"`
	Version     string    `json:"version"`
}

var (
	healthMutex sync.RWMutex
	version     = "1.0.0"
	startTime   = time.Now()
)

// HealthCheckHandler reports "loading" until the inventory is synchronised and "ok" afterwards.
func HealthCheckHandler(reporter LoadingReporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		healthMutex.RLock()
		status := HealthStatus{
			Status:      "ok",
			Loading:     reporter.Loading(),
			LastChecked: time.Now(),
			Uptime:      time.Since(startTime).Round(time.Second).String(),
			Version:     version,
		}
		healthMutex.RUnlock()

		if status.Loading {
			status.Status = "loading"
		}
		c.JSON(http.StatusOK, status)
	}
}

func SetVersion(v string) {
	healthMutex.Lock()
	defer healthMutex.Unlock()

	version = v
}

// RequireReady answers 503 while the inventory is loading, so views never validate against
// an empty snapshot.
func RequireReady(reporter LoadingReporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if reporter.Loading() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Inventory is still loading"})
			return
		}
		c.Next()
	}
}
