package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"minutri/internal/handler"
)

// ReadinessCheck reports whether one dependency is usable.
type ReadinessCheck func(ctx context.Context) error

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	roadmapHandler *handler.RoadmapHandler,
	jwtSecret string,
	checks map[string]ReadinessCheck,
	logger *zap.Logger,
) *Router {
	r := gin.New()
	r.Use(gin.Recovery(), TraceMiddleware(), RequestLogger(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/readyz", readyz(checks))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := r.Group("/")
	auth.Use(AuthMiddleware(jwtSecret))
	{
		auth.POST("/roadmap", roadmapHandler.CreateRoadmap)
		auth.GET("/roadmap", roadmapHandler.GetRoadmap)
		auth.GET("/modules", roadmapHandler.GetModules)
		auth.GET("/modules/:id/tracking", roadmapHandler.GetTracking)
		auth.PUT("/modules/:id/tracking/:day", roadmapHandler.CheckIn)
		auth.GET("/modules/:id/content", roadmapHandler.GetContent)
		auth.GET("/modules/:id/content/:day", roadmapHandler.GetContentDay)
		auth.POST("/modules/:id/content/regenerate", roadmapHandler.RegenerateContent)
		auth.POST("/modules/:id/override", roadmapHandler.Override)
	}

	return &Router{Engine: r}
}

func readyz(checks map[string]ReadinessCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		for name, check := range checks {
			if err := check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": name + "_not_ready", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
