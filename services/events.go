package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"photoshare/logger"

	"github.com/sirupsen/logrus"
)

const (
	EventFriendRequest  = "friend_request"
	EventFriendAccepted = "friend_accepted"
	EventAlbumComment   = "album_comment"
	EventAlbumReaction  = "album_reaction"
	EventImageAdded     = "image_added"
	EventPasswordReset  = "password_reset"
)

// Event - событие для уведомления пользователя или отправки письма
type Event struct {
	Type      string            `json:"event"`
	UserID    string            `json:"user_id"`
	ActorID   string            `json:"actor_id,omitempty"`
	AlbumID   string            `json:"album_id,omitempty"`
	Payload   map[string]string `json:"payload,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// EventPublisher публикует события во внешнюю шину
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event Event) error
}

// NopPublisher - публикатор для окружений без брокера
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, routingKey string, event Event) error {
	logger.Log.WithFields(logrus.Fields{
		"routing_key": routingKey,
		"event":       event.Type,
		"user_id":     event.UserID,
	}).Debug("event dropped, broker is not configured")
	return nil
}

// LocalPublisher доставляет уведомления в WebSocket-соединения текущего процесса.
// Используется без брокера, когда сервер работает в одном экземпляре.
type LocalPublisher struct {
	ws *WSConnManager
}

func NewLocalPublisher(ws *WSConnManager) *LocalPublisher {
	return &LocalPublisher{ws: ws}
}

func (p *LocalPublisher) Publish(ctx context.Context, routingKey string, event Event) error {
	if !strings.HasPrefix(routingKey, "user.") {
		return NopPublisher{}.Publish(ctx, routingKey, event)
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return deliverNotification(p.ws, body)
}

// UserRoutingKey - ключ маршрутизации уведомлений пользователя
func UserRoutingKey(userID string) string {
	return "user." + userID
}

// notifyUser публикует событие после коммита; ошибка публикации не отменяет действие
func notifyUser(ctx context.Context, publisher EventPublisher, event Event) {
	if publisher == nil || event.UserID == "" || event.UserID == event.ActorID {
		return
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	if err := publisher.Publish(ctx, UserRoutingKey(event.UserID), event); err != nil {
		logger.Log.WithFields(logrus.Fields{
			"event":   event.Type,
			"user_id": event.UserID,
		}).WithError(err).Warn("failed to publish event")
	}
}
