package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nearbuyapp/api-nearbuy/internal/model"
	"github.com/nearbuyapp/api-nearbuy/internal/repository"
	"github.com/nearbuyapp/api-nearbuy/internal/service"
)

// AlertHandler handles the alerting engine's HTTP endpoints
type AlertHandler struct {
	proximityService *service.ProximityService
	deadlineService  *service.DeadlineService
	alertRepo        *repository.AlertRepository
	storeRepo        *repository.StoreRepository
}

func NewAlertHandler(
	proximityService *service.ProximityService,
	deadlineService *service.DeadlineService,
	alertRepo *repository.AlertRepository,
	storeRepo *repository.StoreRepository,
) *AlertHandler {
	return &AlertHandler{
		proximityService: proximityService,
		deadlineService:  deadlineService,
		alertRepo:        alertRepo,
		storeRepo:        storeRepo,
	}
}

// LocationUpdate godoc
// @Summary Process a location ping
// @Description Runs the geofence dwell check for the current user and returns any alerts fired by this ping.
// @Tags Alerts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.LocationUpdateRequest true "Location ping"
// @Success 200 {object} model.LocationUpdateResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /location [post]
func (h *AlertHandler) LocationUpdate(c *gin.Context) {
	var req model.LocationUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	now := req.Timestamp
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	userID := c.MustGet("user_id").(uuid.UUID)
	fired, err := h.proximityService.Ingest(c.Request.Context(), userID, *req.Latitude, *req.Longitude, now)
	if err != nil {
		log.Printf("⚠️ Location update failed for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to process location update"})
		return
	}

	c.JSON(http.StatusOK, model.LocationUpdateResponse{Alerts: fired})
}

// GetAlerts godoc
// @Summary Get the current user's notification log
// @Description Newest first, with store names resolved and per-type totals.
// @Tags Alerts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.AlertLogResponse
// @Router /alerts [get]
func (h *AlertHandler) GetAlerts(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	alerts, err := h.alertRepo.ListForUser(userID, 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to get alerts"})
		return
	}

	// Resolve store names for geo alerts; one lookup per distinct store
	storeNames := map[uuid.UUID]string{}
	for i := range alerts {
		if alerts[i].StoreID == nil {
			continue
		}
		name, ok := storeNames[*alerts[i].StoreID]
		if !ok {
			store, err := h.storeRepo.FindByID(*alerts[i].StoreID)
			if err != nil {
				log.Printf("⚠️ Failed to resolve store %s: %v", *alerts[i].StoreID, err)
				continue
			}
			name = store.Name
			storeNames[*alerts[i].StoreID] = name
		}
		alerts[i].StoreName = name
	}

	geoCount, err := h.alertRepo.CountForUser(userID, model.AlertTypeGeo)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to get alerts"})
		return
	}
	deadlineCount, err := h.alertRepo.CountForUser(userID, model.AlertTypeDeadline)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to get alerts"})
		return
	}

	c.JSON(http.StatusOK, model.AlertLogResponse{
		Alerts:        alerts,
		GeoCount:      geoCount,
		DeadlineCount: deadlineCount,
	})
}

// TriggerDeadlineCheck godoc
// @Summary Manually run one deadline sweep
// @Description Testing hook; the scheduler runs the same sweep on its interval.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Router /admin/deadline-check [post]
func (h *AlertHandler) TriggerDeadlineCheck(c *gin.Context) {
	if err := h.deadlineService.Tick(c.Request.Context()); err != nil {
		log.Printf("⚠️ Manual deadline check failed: %v", err)
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Deadline check failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "detail": "Deadlines processed"})
}
