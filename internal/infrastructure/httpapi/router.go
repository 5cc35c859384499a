package httpapi

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// RouterConfig carries the handlers mounted by NewRouter.
type RouterConfig struct {
	AssignmentHandler *AssignmentHandler
	Logger            *slog.Logger
}

// NewRouter builds the gin engine for the read API.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Logger != nil {
		router.Use(requestLogger(cfg.Logger))
	}

	router.GET("/healthz", HealthCheck)

	api := router.Group("/api")
	{
		api.GET("/courses", cfg.AssignmentHandler.ListCourses)
		api.GET("/assignments", cfg.AssignmentHandler.ListAssignments)
		api.GET("/assignments/:course/:id", cfg.AssignmentHandler.GetAssignment)
		api.POST("/assignments/:course/:id/download", cfg.AssignmentHandler.Download)
		api.POST("/assignments/:course/:id/submit", cfg.AssignmentHandler.Submit)
	}

	return router
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
