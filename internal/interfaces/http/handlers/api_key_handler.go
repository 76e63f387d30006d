package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"shortcut-relay.backend/internal/domain/entities"
	domainerrors "shortcut-relay.backend/internal/domain/errors"
	"shortcut-relay.backend/internal/interfaces/http/middleware"
	"shortcut-relay.backend/internal/interfaces/http/response"
	"shortcut-relay.backend/internal/usecases"
)

// ApiKeyHandler handles API key endpoints
type ApiKeyHandler struct {
	apiKeyUsecase *usecases.ApiKeyUsecase
}

// NewApiKeyHandler creates a new API key handler
func NewApiKeyHandler(apiKeyUsecase *usecases.ApiKeyUsecase) *ApiKeyHandler {
	return &ApiKeyHandler{
		apiKeyUsecase: apiKeyUsecase,
	}
}

// CreateApiKey creates a new API key; the raw key is shown once
// POST /api/v1/keys
func (h *ApiKeyHandler) CreateApiKey(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		response.ErrorWithError(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", "user not authenticated")
		return
	}

	var input entities.CreateApiKeyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	resp, err := h.apiKeyUsecase.Create(c.Request.Context(), user.ID, &input, c.ClientIP())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp)
}

// ListApiKeys lists the user's active API keys (prefixes only)
// GET /api/v1/keys
func (h *ApiKeyHandler) ListApiKeys(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		response.ErrorWithError(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", "user not authenticated")
		return
	}

	keys, err := h.apiKeyUsecase.List(c.Request.Context(), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, keys)
}

// RevokeApiKey revokes an API key
// DELETE /api/v1/keys/:id
func (h *ApiKeyHandler) RevokeApiKey(c *gin.Context) {
	keyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("invalid api key id"))
		return
	}

	user, ok := middleware.GetUser(c)
	if !ok {
		response.ErrorWithError(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", "user not authenticated")
		return
	}

	if err := h.apiKeyUsecase.Revoke(c.Request.Context(), user.ID, keyID, c.ClientIP()); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "api key revoked"})
}
