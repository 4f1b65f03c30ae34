package middleware

import (
	"photoshare/services"

	"github.com/gin-gonic/gin"
)

// RateLimit ограничивает действие по IP клиента
func RateLimit(limiter *services.ActionLimiter, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		if err := limiter.Allow(c.Request.Context(), action, c.ClientIP()); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}
