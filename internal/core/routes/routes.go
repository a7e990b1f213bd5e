package routes

import (
	"net/http"
	"os"

	"depot/internal/core/container"
	"depot/internal/metrics"
	"depot/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func NewRouter(c *container.Container) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RecoveryMiddleware(c.Logger),
		middleware.RequestLogger(c.Logger),
		metrics.Middleware(),
		middleware.SessionMiddleware(c.Config.Operator),
	)

	RegisterUtilityRoutes(router, c)
	RegisterInventoryRoutes(router, c)

	return router
}

// RegisterInventoryRoutes mounts the views behind the readiness gate. Mutating routes are
// rate limited per client.
func RegisterInventoryRoutes(router *gin.Engine, c *container.Container) {
	inventoryRoutes := router.Group("")
	inventoryRoutes.Use(
		middleware.RequireReady(c.Sync),
		middleware.TimeoutMiddleware(c.Config.RequestTimeout),
	)

	write := middleware.WriteLimit(c.RateLimiter)
	c.StorageHandler.RegisterRoutes(inventoryRoutes, write)
	c.BoxHandler.RegisterRoutes(inventoryRoutes, write)
	c.WasteHandler.RegisterRoutes(inventoryRoutes)
	c.ChangelogHandler.RegisterRoutes(inventoryRoutes, write)

	c.LiveHandler.RegisterRoutes(router)
}

func RegisterUtilityRoutes(router *gin.Engine, c *container.Container) {
	router.GET("/health", middleware.HealthCheckHandler(c.Sync))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	openapiFilePath := "./docs/index.html"
	if _, err := os.Stat(openapiFilePath); err == nil {
		router.GET("/openapi.html", func(ctx *gin.Context) {
			ctx.File(openapiFilePath)
		})
		c.Logger.Info("Route registered", zap.String("path", "/openapi.html"))
	} else {
		c.Logger.Debug("API docs not found, /openapi.html not registered", zap.String("file", openapiFilePath))
	}

	router.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
}
