package handlers

import (
	"net/http"

	"photoshare/api/middleware"
	"photoshare/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Notifications - WebSocket для уведомлений пользователя
func (h *Handlers) Notifications(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.WithError(err).Warn("WebSocket upgrade error")
		return
	}
	defer conn.Close()

	// Приветствие до регистрации, чтобы не писать в соединение параллельно с рассылкой
	_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"connected","message":"WebSocket connected"}`))

	h.WS.Add(userID, conn)
	defer h.WS.Remove(userID, conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			logger.Log.WithField("user_id", userID).WithError(err).Debug("WebSocket closed")
			break
		}
	}
}
