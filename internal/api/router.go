package api

import (
	"github.com/gin-gonic/gin"

	"docuchat/internal/api/middleware"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	APIKey       string
	AllowOrigins []string
}

// SetupRouter sets up the Gin router
func SetupRouter(handler *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.AllowOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	apiGroup := r.Group("/api")
	apiGroup.Use(middleware.APIKey(cfg.APIKey))
	handler.RegisterRoutes(apiGroup)

	return r
}
