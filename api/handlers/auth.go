package handlers

import (
	"net/http"

	"photoshare/api/middleware"

	"github.com/gin-gonic/gin"
)

type RegisterRequest struct {
	Nickname string `json:"nickname" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Nickname string `json:"nickname" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type PasswordResetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *Handlers) Register(c *gin.Context) {
	var r RegisterRequest
	if !bindJSON(c, &r) {
		return
	}
	user, err := h.Users.Register(c.Request.Context(), r.Nickname, r.Email, r.Password)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user_id": user.ID, "nickname": user.Nickname})
}

func (h *Handlers) Login(c *gin.Context) {
	var r LoginRequest
	if !bindJSON(c, &r) {
		return
	}
	token, user, err := h.Users.Login(c.Request.Context(), r.Nickname, r.Password)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, LoginResponse{UserID: user.ID, Token: token})
}

func (h *Handlers) Logout(c *gin.Context) {
	if err := h.Users.Logout(c.Request.Context(), middleware.Token(c)); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}

// RequestPasswordReset отвечает одинаково для любых адресов
func (h *Handlers) RequestPasswordReset(c *gin.Context) {
	var r PasswordResetRequest
	if !bindJSON(c, &r) {
		return
	}
	message, err := h.PasswordReset.Request(c.Request.Context(), r.Email)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

func (h *Handlers) ConfirmPasswordReset(c *gin.Context) {
	var r PasswordResetConfirmRequest
	if !bindJSON(c, &r) {
		return
	}
	if err := h.PasswordReset.Confirm(c.Request.Context(), r.Token, r.Password); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}
