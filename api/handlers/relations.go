package handlers

import (
	"context"
	"net/http"

	"photoshare/api/middleware"
	"photoshare/models"
	"photoshare/services"

	"github.com/gin-gonic/gin"
)

// TargetRequest - действие над другим пользователем
type TargetRequest struct {
	ActorID string `json:"actor_id"`
	UserID  string `json:"user_id"`
}

// bindTarget разбирает тело и проверяет actor_id
func bindTarget(c *gin.Context) (actorID, targetID string, ok bool) {
	var r TargetRequest
	if !bindJSON(c, &r) {
		return "", "", false
	}
	actorID, ok = actingUser(c, r.ActorID)
	return actorID, r.UserID, ok
}

func (h *Handlers) GetRelation(c *gin.Context) {
	summary, err := h.Access.Summary(c.Request.Context(), middleware.CurrentUserID(c), c.Param("user_id"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handlers) friendAction(c *gin.Context, action func(ctx context.Context, actorID, targetID string) error, message string) {
	actorID, targetID, ok := bindTarget(c)
	if !ok {
		return
	}
	if err := action(c.Request.Context(), actorID, targetID); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

func (h *Handlers) SendFriendRequest(c *gin.Context) {
	h.friendAction(c, h.Relations.SendFriendRequest, "friend request sent")
}

// AcceptFriendRequest - user_id в теле: отправитель заявки
func (h *Handlers) AcceptFriendRequest(c *gin.Context) {
	h.friendAction(c, h.Relations.AcceptFriendRequest, "friendship accepted")
}

func (h *Handlers) DeclineFriendRequest(c *gin.Context) {
	h.friendAction(c, h.Relations.DeclineFriendRequest, "friend request declined")
}

func (h *Handlers) CancelFriendRequest(c *gin.Context) {
	h.friendAction(c, h.Relations.CancelFriendRequest, "friend request cancelled")
}

func (h *Handlers) RemoveFriend(c *gin.Context) {
	h.friendAction(c, h.Relations.RemoveFriend, "friend removed")
}

func (h *Handlers) GetFriends(c *gin.Context) {
	friends, err := h.Relations.ListFriends(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

func (h *Handlers) GetPendingRequests(c *gin.Context) {
	requests, err := h.Relations.ListPendingRequests(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

func (h *Handlers) toggle(c *gin.Context, action func(ctx context.Context, actorID, targetID string) (bool, error), field string) {
	actorID, targetID, ok := bindTarget(c)
	if !ok {
		return
	}
	state, err := action(c.Request.Context(), actorID, targetID)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": targetID, field: state})
}

func (h *Handlers) ToggleBlock(c *gin.Context) {
	h.toggle(c, h.Relations.ToggleBlock, "blocked")
}

func (h *Handlers) ToggleMute(c *gin.Context) {
	h.toggle(c, h.Relations.ToggleMute, "muted")
}

func (h *Handlers) ToggleWatch(c *gin.Context) {
	h.toggle(c, h.Relations.ToggleWatch, "watching")
}

// ListRelations - исходящие связи: ?kind=watch|block|mute
func (h *Handlers) ListRelations(c *gin.Context) {
	kind := models.RelationKind(c.DefaultQuery("kind", string(models.RelationWatch)))
	switch kind {
	case models.RelationWatch, models.RelationBlock, models.RelationMute:
	default:
		middleware.AbortWithError(c, services.ErrInvalidInput("kind must be watch, block or mute"))
		return
	}
	edges, err := h.Relations.ListOutgoing(c.Request.Context(), kind, middleware.CurrentUserID(c))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	ids := make([]string, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.ToUser)
	}
	c.JSON(http.StatusOK, gin.H{"kind": kind, "users": ids})
}
