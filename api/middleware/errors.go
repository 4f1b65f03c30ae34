package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"photoshare/logger"
	"photoshare/services"

	"github.com/gin-gonic/gin"
)

var statusByCode = map[services.ErrorCode]int{
	services.CodeUnauthorized:  http.StatusUnauthorized,
	services.CodeForbidden:     http.StatusForbidden,
	services.CodeInvalidInput:  http.StatusBadRequest,
	services.CodeNotFound:      http.StatusNotFound,
	services.CodeBlocked:       http.StatusForbidden,
	services.CodeLimitExceeded: http.StatusConflict,
	services.CodeRateLimited:   http.StatusTooManyRequests,
	services.CodeUnknown:       http.StatusInternalServerError,
}

// StatusForCode - HTTP статус для кода ошибки
func StatusForCode(code services.ErrorCode) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// AbortWithError отвечает {"error": code, "message": ...}. Текст внутренних ошибок клиенту не отдается.
func AbortWithError(c *gin.Context, err error) {
	code := services.CodeOf(err)
	body := gin.H{"error": code, "message": "internal error"}

	var appErr *services.Error
	if errors.As(err, &appErr) && code != services.CodeUnknown {
		body["message"] = appErr.Message
	}
	if code == services.CodeRateLimited && appErr != nil {
		c.Header("Retry-After", strconv.Itoa(appErr.RetryAfter))
		body["retryAfter"] = appErr.RetryAfter
	}
	if code == services.CodeUnknown {
		logger.Log.WithField("path", c.FullPath()).WithError(err).Error("request failed")
	}
	c.AbortWithStatusJSON(StatusForCode(code), body)
}
