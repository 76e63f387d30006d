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

// WebhookHandler handles webhook management endpoints. The public trigger
// endpoint lives in TriggerHandler.
type WebhookHandler struct {
	webhookUsecase *usecases.WebhookUsecase
	orchestrator   *usecases.TriggerOrchestrator
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(webhookUsecase *usecases.WebhookUsecase, orchestrator *usecases.TriggerOrchestrator) *WebhookHandler {
	return &WebhookHandler{
		webhookUsecase: webhookUsecase,
		orchestrator:   orchestrator,
	}
}

// CreateWebhook mints a webhook for one of the user's devices
// POST /api/v1/webhooks
func (h *WebhookHandler) CreateWebhook(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		response.ErrorWithError(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", "user not authenticated")
		return
	}

	var input entities.CreateWebhookInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	resp, err := h.webhookUsecase.Create(c.Request.Context(), user.ID, &input, c.ClientIP())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp)
}

// ListWebhooks lists the user's active webhooks
// GET /api/v1/webhooks
func (h *WebhookHandler) ListWebhooks(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		response.ErrorWithError(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", "user not authenticated")
		return
	}

	webhooks, err := h.webhookUsecase.List(c.Request.Context(), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, webhooks)
}

// RevokeWebhook soft-deactivates a webhook
// DELETE /api/v1/webhooks/:id
func (h *WebhookHandler) RevokeWebhook(c *gin.Context) {
	webhookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("invalid webhook id"))
		return
	}

	user, ok := middleware.GetUser(c)
	if !ok {
		response.ErrorWithError(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", "user not authenticated")
		return
	}

	if err := h.webhookUsecase.Revoke(c.Request.Context(), user.ID, webhookID, c.ClientIP()); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "webhook revoked"})
}

// RotateWebhook retires the public identifier and signing secret
// POST /api/v1/webhooks/:id/rotate
func (h *WebhookHandler) RotateWebhook(c *gin.Context) {
	webhookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("invalid webhook id"))
		return
	}

	user, ok := middleware.GetUser(c)
	if !ok {
		response.ErrorWithError(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", "user not authenticated")
		return
	}

	var input struct {
		Reason string `json:"reason"`
	}
	// Body is optional; an empty reason is allowed.
	_ = c.ShouldBindJSON(&input)

	resp, err := h.orchestrator.RotateWebhook(c.Request.Context(), webhookID, user, input.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

// GetWebhookStats returns counters plus recent daily analytics
// GET /api/v1/webhooks/:id/stats
func (h *WebhookHandler) GetWebhookStats(c *gin.Context) {
	webhookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("invalid webhook id"))
		return
	}

	user, ok := middleware.GetUser(c)
	if !ok {
		response.ErrorWithError(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", "user not authenticated")
		return
	}

	stats, err := h.orchestrator.GetWebhookStats(c.Request.Context(), webhookID, user)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, stats)
}
