package handler

import (
	"github.com/gin-gonic/gin"

	fiscalapp "github.com/fiscalflow/backend/internal/application/fiscal"
)

// SyncHandler handles sync-related API endpoints
type SyncHandler struct {
	BaseHandler
	syncService *fiscalapp.SyncService
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(syncService *fiscalapp.SyncService) *SyncHandler {
	return &SyncHandler{
		syncService: syncService,
	}
}

// Sync godoc
// @ID           syncLocation
// @Summary      Run an incremental sync for a location
// @Description  Fetches all fiscal documents issued against the location since its cursor, stores them and reconciles against captured receipts. Rejected with 409 when a sync is already running for the location.
// @Tags         sync
// @Produce      json
// @Param        locationID path string true "Location ID"
// @Success      200 {object} APIResponse[SyncReportResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /fiscal/locations/{locationID}/sync [post]
func (h *SyncHandler) Sync(c *gin.Context) {
	locationID, err := getLocationID(c)
	if err != nil {
		h.BadRequest(c, "Invalid location ID")
		return
	}

	report, err := h.syncService.SyncLocation(c.Request.Context(), locationID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ToSyncReportResponse(report))
}

// GetCursor godoc
// @ID           getSyncCursor
// @Summary      Get the sync cursor for a location
// @Description  Returns the location's current sync position. A location that has never synced reports the start-of-stream cursor.
// @Tags         sync
// @Produce      json
// @Param        locationID path string true "Location ID"
// @Success      200 {object} APIResponse[SyncCursorResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /fiscal/locations/{locationID}/cursor [get]
func (h *SyncHandler) GetCursor(c *gin.Context) {
	locationID, err := getLocationID(c)
	if err != nil {
		h.BadRequest(c, "Invalid location ID")
		return
	}

	cursor, err := h.syncService.GetCursor(c.Request.Context(), locationID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ToSyncCursorResponse(cursor))
}

// RegisterRoutes registers sync routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	locations := rg.Group("/fiscal/locations")
	{
		locations.POST("/:locationID/sync", h.Sync)
		locations.GET("/:locationID/cursor", h.GetCursor)
	}
}
