package handlers

import (
	"net/http"

	"photoshare/api/middleware"
	"photoshare/models"

	"github.com/gin-gonic/gin"
)

type CreateAlbumRequest struct {
	ActorID     string            `json:"actor_id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Visibility  models.Visibility `json:"visibility"`
}

type AddImageRequest struct {
	ActorID    string `json:"actor_id"`
	StorageKey string `json:"storage_key"`
	Caption    string `json:"caption"`
}

type CommentRequest struct {
	ActorID string `json:"actor_id"`
	Text    string `json:"text"`
}

type ReactionRequest struct {
	ActorID string `json:"actor_id"`
	Emoji   string `json:"emoji"`
}

func (h *Handlers) CreateAlbum(c *gin.Context) {
	var r CreateAlbumRequest
	if !bindJSON(c, &r) {
		return
	}
	ownerID, ok := actingUser(c, r.ActorID)
	if !ok {
		return
	}
	album, err := h.Albums.CreateAlbum(c.Request.Context(), ownerID, r.Title, r.Description, r.Visibility)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, album)
}

func (h *Handlers) GetAlbum(c *gin.Context) {
	album, err := h.Albums.GetAlbum(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, album)
}

func (h *Handlers) DeleteAlbum(c *gin.Context) {
	if err := h.Albums.DeleteAlbum(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id")); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "album deleted"})
}

func (h *Handlers) ListUserAlbums(c *gin.Context) {
	albums, err := h.Albums.ListUserAlbums(c.Request.Context(), middleware.CurrentUserID(c), c.Param("user_id"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"albums": albums})
}

func (h *Handlers) ListImages(c *gin.Context) {
	images, err := h.Albums.ListImages(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"images": images})
}

func (h *Handlers) AddImage(c *gin.Context) {
	var r AddImageRequest
	if !bindJSON(c, &r) {
		return
	}
	uploaderID, ok := actingUser(c, r.ActorID)
	if !ok {
		return
	}
	image, err := h.Albums.AddImage(c.Request.Context(), uploaderID, c.Param("id"), r.StorageKey, r.Caption)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, image)
}

func (h *Handlers) RemoveImage(c *gin.Context) {
	if err := h.Albums.RemoveImage(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id")); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "image removed"})
}

func (h *Handlers) AddComment(c *gin.Context) {
	var r CommentRequest
	if !bindJSON(c, &r) {
		return
	}
	authorID, ok := actingUser(c, r.ActorID)
	if !ok {
		return
	}
	comment, err := h.Albums.AddComment(c.Request.Context(), authorID, c.Param("id"), r.Text)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *Handlers) ListComments(c *gin.Context) {
	comments, err := h.Albums.ListComments(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

func (h *Handlers) AddReaction(c *gin.Context) {
	var r ReactionRequest
	if !bindJSON(c, &r) {
		return
	}
	userID, ok := actingUser(c, r.ActorID)
	if !ok {
		return
	}
	if err := h.Albums.AddReaction(c.Request.Context(), userID, c.Param("id"), r.Emoji); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "reaction added"})
}

func (h *Handlers) ToggleLike(c *gin.Context) {
	liked, err := h.Albums.ToggleLike(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

func (h *Handlers) Repost(c *gin.Context) {
	if err := h.Albums.Repost(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id")); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "album reposted"})
}
