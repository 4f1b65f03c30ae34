package routes

import (
	"photoshare/api/handlers"
	"photoshare/api/middleware"
	"photoshare/services"

	"github.com/gin-gonic/gin"
)

// PublicApi регистрирует все маршруты /api/v1/. Изменяющие запросы ограничены по IP.
func PublicApi(router *gin.Engine, h *handlers.Handlers, limiter *services.ActionLimiter) *gin.RouterGroup {
	limit := func(action string) gin.HandlerFunc {
		return middleware.RateLimit(limiter, action)
	}

	publicEndpoints := router.Group("/api/v1/")
	{
		publicEndpoints.POST("auth/register", limit(services.ActionRegistration), h.Register)
		publicEndpoints.POST("auth/login", limit(services.ActionLogin), h.Login)
		// Лимит по email внутри сервиса
		publicEndpoints.POST("auth/password-reset", h.RequestPasswordReset)
		publicEndpoints.POST("auth/password-reset/confirm", limit(services.ActionPasswordResetConfirm), h.ConfirmPasswordReset)
	}

	authEndpoints := router.Group("/api/v1/", middleware.AuthMiddleware(h.Users))
	{
		authEndpoints.POST("auth/logout", h.Logout)

		// Связи
		authEndpoints.GET("relations", h.ListRelations)
		authEndpoints.GET("relations/:user_id", h.GetRelation)
		authEndpoints.POST("relations/block", limit(services.ActionBlock), h.ToggleBlock)
		authEndpoints.POST("relations/mute", limit(services.ActionMute), h.ToggleMute)
		authEndpoints.POST("relations/watch", limit(services.ActionWatch), h.ToggleWatch)

		// Друзья
		authEndpoints.POST("friends/request", limit(services.ActionFriendRequest), h.SendFriendRequest)
		authEndpoints.POST("friends/accept", limit(services.ActionFriendRequest), h.AcceptFriendRequest)
		authEndpoints.POST("friends/decline", limit(services.ActionFriendRequest), h.DeclineFriendRequest)
		authEndpoints.POST("friends/cancel", limit(services.ActionFriendRequest), h.CancelFriendRequest)
		authEndpoints.POST("friends/remove", limit(services.ActionFriendRequest), h.RemoveFriend)
		authEndpoints.GET("friends/list", h.GetFriends)
		authEndpoints.GET("friends/requests", h.GetPendingRequests)

		// Альбомы
		authEndpoints.POST("albums", limit(services.ActionAlbumCreate), h.CreateAlbum)
		authEndpoints.GET("albums/:id", h.GetAlbum)
		authEndpoints.DELETE("albums/:id", h.DeleteAlbum)
		authEndpoints.GET("users/:user_id/albums", h.ListUserAlbums)
		authEndpoints.GET("albums/:id/images", h.ListImages)
		authEndpoints.POST("albums/:id/images", limit(services.ActionImageAdd), h.AddImage)
		authEndpoints.DELETE("images/:id", h.RemoveImage)
		authEndpoints.GET("albums/:id/comments", h.ListComments)
		authEndpoints.POST("albums/:id/comments", limit(services.ActionComment), h.AddComment)
		authEndpoints.POST("albums/:id/reactions", limit(services.ActionReaction), h.AddReaction)
		authEndpoints.POST("albums/:id/like", limit(services.ActionReaction), h.ToggleLike)
		authEndpoints.POST("albums/:id/repost", limit(services.ActionReaction), h.Repost)

		authEndpoints.POST("reports", limit(services.ActionReport), h.CreateReport)
		authEndpoints.GET("timeline", h.GetTimeline)
		authEndpoints.GET("ws", h.Notifications)
	}
	return publicEndpoints
}
