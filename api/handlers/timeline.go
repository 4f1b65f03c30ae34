package handlers

import (
	"net/http"
	"strconv"

	"photoshare/api/middleware"
	"photoshare/services"

	"github.com/gin-gonic/gin"
)

// GetTimeline - лента альбомов друзей и подписок
// Query параметры: limit (по умолчанию 20, максимум 100), cursor - id последнего альбома предыдущей страницы
func (h *Handlers) GetTimeline(c *gin.Context) {
	limit := services.DEFAULT_TIMELINE_LIMIT
	if limitStr := c.Query("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 {
			middleware.AbortWithError(c, services.ErrInvalidInput("limit must be a positive number"))
			return
		}
		limit = l
	}

	timeline, err := h.Timeline.GetTimeline(c.Request.Context(), middleware.CurrentUserID(c), c.Query("cursor"), limit)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, timeline)
}
