package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"

	"github.com/openlms/file-service/internal/api/handlers"
	"github.com/openlms/file-service/internal/api/middleware"
)

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	}
}

// RegisterRoutes mounts middleware and the API surface on the engine.
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, auth *middleware.Authenticator, tracingEnabled bool) {
	r.Use(corsMiddleware())
	r.Use(middleware.Metrics())
	if tracingEnabled {
		r.Use(gintrace.Middleware("lms-file-service"))
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/health", h.HealthCheck)

		api.POST("/files", auth.Require(), h.Upload)
		api.GET("/files", auth.Require(), h.List)
		api.DELETE("/files/:id", auth.Require(), h.Delete)

		// Downloads allow anonymous callers: public files need no account.
		api.GET("/files/:id/info", auth.Optional(), h.Info)
		api.GET("/files/:id/download", auth.Optional(), h.Download)
	}
}
