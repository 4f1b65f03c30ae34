package handlers

import (
	"photoshare/api/middleware"
	"photoshare/services"

	"github.com/gin-gonic/gin"
)

// Handlers - HTTP обработчики поверх сервисов
type Handlers struct {
	Users         *services.UserService
	PasswordReset *services.PasswordResetService
	Access        *services.AccessEvaluator
	Relations     *services.RelationshipMutator
	Albums        *services.AlbumService
	Reports       *services.ReportService
	Timeline      *services.TimelineService
	WS            *services.WSConnManager
}

// bindJSON разбирает тело запроса, при ошибке отвечает INVALID_INPUT
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		middleware.AbortWithError(c, services.ErrInvalidInput("invalid request"))
		return false
	}
	return true
}

// actingUser возвращает id из токена. Если в теле указан другой actor_id - FORBIDDEN.
func actingUser(c *gin.Context, actorID string) (string, bool) {
	userID := middleware.CurrentUserID(c)
	if actorID != "" && actorID != userID {
		middleware.AbortWithError(c, services.ErrForbidden("actor does not match credential"))
		return "", false
	}
	return userID, true
}
