package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"shortcut-relay.backend/internal/domain/entities"
	domainerrors "shortcut-relay.backend/internal/domain/errors"
	"shortcut-relay.backend/internal/interfaces/http/middleware"
	"shortcut-relay.backend/internal/interfaces/http/response"
	"shortcut-relay.backend/internal/usecases"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authUsecase *usecases.AuthUsecase
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authUsecase *usecases.AuthUsecase) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
	}
}

// Register handles user registration
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var input entities.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	user, err := h.authUsecase.Register(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
		},
	})
}

// Login handles user login
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var input entities.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	authResponse, err := h.authUsecase.Login(c.Request.Context(), &input, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"accessToken":  authResponse.AccessToken,
		"sessionToken": authResponse.SessionToken,
		"user": gin.H{
			"id":    authResponse.User.ID,
			"email": authResponse.User.Email,
			"name":  authResponse.User.Name,
		},
	})
}

// Logout invalidates the presented session token
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	token, ok := middleware.GetSessionToken(c)
	if !ok || token == "" {
		response.ErrorWithError(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", "session token required")
		return
	}

	if err := h.authUsecase.Logout(c.Request.Context(), token, c.ClientIP()); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "logged out"})
}

// GetMe returns the authenticated user's profile
// GET /api/v1/auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		response.ErrorWithError(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", "user not authenticated")
		return
	}

	profile, err := h.authUsecase.Me(c.Request.Context(), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"id":        profile.ID,
		"email":     profile.Email,
		"name":      profile.Name,
		"createdAt": profile.CreatedAt,
	})
}

// ChangePassword replaces the password and closes every open session
// POST /api/v1/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		response.ErrorWithError(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", "user not authenticated")
		return
	}

	var input entities.ChangePasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	if err := h.authUsecase.ChangePassword(c.Request.Context(), user.ID, &input, c.ClientIP()); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "password changed, all sessions closed"})
}
