package routes

import (
	"photoshare/api/handlers"
	"photoshare/api/middleware"
	"photoshare/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter собирает gin с логированием, метриками и API
func NewRouter(h *handlers.Handlers, limiter *services.ActionLimiter, serviceName string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.PrometheusMiddleware(serviceName))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	PublicApi(router, h, limiter)
	return router
}
