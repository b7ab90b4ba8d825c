package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	fiscalapp "github.com/fiscalflow/backend/internal/application/fiscal"
)

// ReconciliationHandler handles note-to-receipt reconciliation endpoints
type ReconciliationHandler struct {
	BaseHandler
	reconciliationService *fiscalapp.ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(reconciliationService *fiscalapp.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{
		reconciliationService: reconciliationService,
	}
}

// ReconcileResponse reports how many note/receipt pairs a batch run linked
type ReconcileResponse struct {
	LocationID string `json:"location_id"`
	Linked     int    `json:"linked"`
}

// UnlinkResponse reports how many notes lost their receipt reference
type UnlinkResponse struct {
	ReceiptID string `json:"receipt_id"`
	Unlinked  int    `json:"unlinked"`
}

// Reconcile godoc
// @ID           reconcileLocation
// @Summary      Batch-reconcile notes against receipts
// @Description  Links every unlinked fiscal note in the location whose access key matches a captured receipt. Idempotent: a second run links nothing.
// @Tags         reconciliation
// @Produce      json
// @Param        locationID path string true "Location ID"
// @Success      200 {object} APIResponse[ReconcileResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /fiscal/locations/{locationID}/reconcile [post]
func (h *ReconciliationHandler) Reconcile(c *gin.Context) {
	locationID, err := getLocationID(c)
	if err != nil {
		h.BadRequest(c, "Invalid location ID")
		return
	}

	linked, err := h.reconciliationService.ReconcileLocation(c.Request.Context(), locationID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ReconcileResponse{
		LocationID: locationID.String(),
		Linked:     linked,
	})
}

// Enrich godoc
// @ID           enrichReceipt
// @Summary      Single-shot reconciliation for one receipt
// @Description  Matches a just-captured receipt against its fiscal note, fetching the note from the distribution service when it is not stored yet. Lookup failures degrade to a warning on the result.
// @Tags         reconciliation
// @Produce      json
// @Param        receiptID path string true "Receipt ID"
// @Success      200 {object} APIResponse[fiscalapp.EnrichmentResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /fiscal/receipts/{receiptID}/enrich [post]
func (h *ReconciliationHandler) Enrich(c *gin.Context) {
	receiptID, err := uuid.Parse(c.Param("receiptID"))
	if err != nil {
		h.BadRequest(c, "Invalid receipt ID")
		return
	}

	result, err := h.reconciliationService.EnrichReceipt(c.Request.Context(), receiptID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Unlink godoc
// @ID           unlinkReceipt
// @Summary      Clear note links to a deleted receipt
// @Description  Clears the weak reference on every note pointing at a receipt the capture pipeline deleted. Notes themselves are kept.
// @Tags         reconciliation
// @Produce      json
// @Param        receiptID path string true "Receipt ID"
// @Success      200 {object} APIResponse[UnlinkResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /fiscal/receipts/{receiptID}/links [delete]
func (h *ReconciliationHandler) Unlink(c *gin.Context) {
	receiptID, err := uuid.Parse(c.Param("receiptID"))
	if err != nil {
		h.BadRequest(c, "Invalid receipt ID")
		return
	}

	unlinked, err := h.reconciliationService.UnlinkReceipt(c.Request.Context(), receiptID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, UnlinkResponse{
		ReceiptID: receiptID.String(),
		Unlinked:  unlinked,
	})
}

// RegisterRoutes registers reconciliation routes
func (h *ReconciliationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	fiscal := rg.Group("/fiscal")
	{
		fiscal.POST("/locations/:locationID/reconcile", h.Reconcile)
		fiscal.POST("/receipts/:receiptID/enrich", h.Enrich)
		fiscal.DELETE("/receipts/:receiptID/links", h.Unlink)
	}
}
