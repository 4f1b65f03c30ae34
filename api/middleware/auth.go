package middleware

import (
	"context"
	"strings"

	"photoshare/services"

	"github.com/gin-gonic/gin"
)

const UserIDKey = "user_id"

// TokenResolver возвращает id пользователя по токену сессии
type TokenResolver interface {
	UserIDByToken(ctx context.Context, token string) (string, error)
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}

// AuthMiddleware - Authorization: Bearer <token>, без токена или с неизвестным токеном - UNAUTHORIZED
func AuthMiddleware(resolver TokenResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			AbortWithError(c, services.ErrUnauthorized("authentication required"))
			return
		}
		userID, err := resolver.UserIDByToken(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// CurrentUserID - id пользователя, установленный AuthMiddleware
func CurrentUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// Token - токен текущей сессии
func Token(c *gin.Context) string {
	return bearerToken(c)
}
