package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	domainerrors "shortcut-relay.backend/internal/domain/errors"
	"shortcut-relay.backend/internal/interfaces/http/middleware"
	"shortcut-relay.backend/internal/interfaces/http/response"
	"shortcut-relay.backend/internal/usecases"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Webhook-Signature"

// TriggerHandler exposes the public trigger endpoint. Authentication is
// optional here; the gate and orchestrator decide what an anonymous caller
// may do.
type TriggerHandler struct {
	orchestrator    *usecases.TriggerOrchestrator
	maxPayloadBytes int
}

// NewTriggerHandler creates a new trigger handler
func NewTriggerHandler(orchestrator *usecases.TriggerOrchestrator, maxPayloadBytes int) *TriggerHandler {
	return &TriggerHandler{
		orchestrator:    orchestrator,
		maxPayloadBytes: maxPayloadBytes,
	}
}

// Trigger runs one trigger attempt end to end
// POST /api/v1/trigger/:webhookId
func (h *TriggerHandler) Trigger(c *gin.Context) {
	// Read one byte past the cap so the orchestrator can tell "at the limit"
	// from "over it" without buffering unbounded bodies.
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, int64(h.maxPayloadBytes)+1))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("failed to read request body"))
		return
	}

	// Allow-list matching and audit rows both want a non-empty caller
	// address, even when the transport gives none.
	clientIP := c.ClientIP()
	if clientIP == "" {
		clientIP = "unknown"
	}

	req := &usecases.GateRequest{
		PublicID:    c.Param("webhookId"),
		RawBody:     body,
		Signature:   c.GetHeader(SignatureHeader),
		ClientIP:    clientIP,
		UserAgent:   c.Request.UserAgent(),
		Credentials: middleware.ExtractCredentials(c),
	}

	result, err := h.orchestrator.AuthorizeAndTrigger(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}
