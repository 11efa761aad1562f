package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nearbuyapp/api-nearbuy/internal/model"
	"github.com/nearbuyapp/api-nearbuy/internal/repository"
)

// DeviceHandler handles push-token registration
type DeviceHandler struct {
	userRepo *repository.UserRepository
}

func NewDeviceHandler(userRepo *repository.UserRepository) *DeviceHandler {
	return &DeviceHandler{userRepo: userRepo}
}

// RegisterDevice godoc
// @Summary Register an FCM device token for the current user
// @Description Idempotent: re-registering the same token refreshes its last-active time.
// @Tags Devices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.RegisterDeviceRequest true "Device token"
// @Success 200 {object} map[string]string
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /devices [post]
func (h *DeviceHandler) RegisterDevice(c *gin.Context) {
	var req model.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	deviceType := req.DeviceType
	if deviceType == "" {
		deviceType = "unknown"
	}

	// Tokens carry ids minted by the auth service; reject ids that no
	// longer resolve to an account before storing a token for them.
	userID := c.MustGet("user_id").(uuid.UUID)
	if _, err := h.userRepo.FindByID(userID); err != nil {
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "User not found"})
		return
	}

	if err := h.userRepo.AddDevice(userID, req.FCMToken, deviceType); err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to register device"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "detail": "Device token registered"})
}
