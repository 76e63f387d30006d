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

// DeviceHandler handles device registration endpoints
type DeviceHandler struct {
	deviceUsecase *usecases.DeviceUsecase
}

// NewDeviceHandler creates a new device handler
func NewDeviceHandler(deviceUsecase *usecases.DeviceUsecase) *DeviceHandler {
	return &DeviceHandler{
		deviceUsecase: deviceUsecase,
	}
}

// RegisterDevice registers a device, or re-registers one with the same secret
// POST /api/v1/devices
func (h *DeviceHandler) RegisterDevice(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		response.ErrorWithError(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", "user not authenticated")
		return
	}

	var input entities.RegisterDeviceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	device, err := h.deviceUsecase.Register(c.Request.Context(), user.ID, &input, c.ClientIP())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, device)
}

// ListDevices lists the user's active devices
// GET /api/v1/devices
func (h *DeviceHandler) ListDevices(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		response.ErrorWithError(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", "user not authenticated")
		return
	}

	devices, err := h.deviceUsecase.List(c.Request.Context(), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, devices)
}

// DeactivateDevice soft-deactivates a device
// DELETE /api/v1/devices/:id
func (h *DeviceHandler) DeactivateDevice(c *gin.Context) {
	deviceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("invalid device id"))
		return
	}

	user, ok := middleware.GetUser(c)
	if !ok {
		response.ErrorWithError(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", "user not authenticated")
		return
	}

	if err := h.deviceUsecase.Deactivate(c.Request.Context(), user.ID, deviceID, c.ClientIP()); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "device deactivated"})
}
