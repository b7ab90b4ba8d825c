package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	fiscalapp "github.com/fiscalflow/backend/internal/application/fiscal"
	"github.com/fiscalflow/backend/internal/domain/fiscal"
	"github.com/fiscalflow/backend/internal/interfaces/http/middleware"
)

// FiscalNoteHandler handles fiscal note query endpoints
type FiscalNoteHandler struct {
	BaseHandler
	noteService *fiscalapp.NoteService
}

// NewFiscalNoteHandler creates a new FiscalNoteHandler
func NewFiscalNoteHandler(noteService *fiscalapp.NoteService) *FiscalNoteHandler {
	return &FiscalNoteHandler{
		noteService: noteService,
	}
}

// ListNotesRequest represents the fiscal note list query parameters
type ListNotesRequest struct {
	Status   string `form:"status" binding:"omitempty,oneof=ACTIVE CANCELLED DENIED UNKNOWN"`
	Category string `form:"category"`
	Linked   *bool  `form:"linked"`
	From     string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To       string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	Search   string `form:"search" binding:"omitempty,max=200"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=200"`
}

// SummaryRequest represents the category summary query parameters
type SummaryRequest struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

// NoteKeyURI binds the note lookup path parameters
type NoteKeyURI struct {
	LocationID string `uri:"locationID" binding:"required,uuid" json:"location_id"`
	AccessKey  string `uri:"accessKey" binding:"required,accesskey44" json:"access_key"`
}

// List godoc
// @ID           listFiscalNotes
// @Summary      List fiscal notes for a location
// @Description  Returns a filtered, paginated page of the location's stored fiscal notes, newest first.
// @Tags         fiscal-notes
// @Produce      json
// @Param        locationID path string true "Location ID"
// @Param        status query string false "Note status filter" Enums(ACTIVE, CANCELLED, DENIED, UNKNOWN)
// @Param        category query string false "Category filter"
// @Param        linked query bool false "Reconciliation state filter"
// @Param        from query string false "Issue date lower bound (YYYY-MM-DD)"
// @Param        to query string false "Issue date upper bound (YYYY-MM-DD)"
// @Param        search query string false "Issuer name or access key search"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size (max 200)"
// @Success      200 {object} APIResponse[[]FiscalNoteResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /fiscal/locations/{locationID}/notes [get]
func (h *FiscalNoteHandler) List(c *gin.Context) {
	locationID, err := getLocationID(c)
	if err != nil {
		h.BadRequest(c, "Invalid location ID")
		return
	}

	var req ListNotesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter, err := req.toFilter()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	notes, total, err := h.noteService.List(c.Request.Context(), locationID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	h.SuccessWithMeta(c, ToFiscalNoteResponses(notes), total, page, pageSize)
}

// Get godoc
// @ID           getFiscalNote
// @Summary      Get a fiscal note by access key
// @Description  Looks a single stored note up by its 44-digit access key within a location. Spaced or punctuated keys are normalized.
// @Tags         fiscal-notes
// @Produce      json
// @Param        locationID path string true "Location ID"
// @Param        accessKey path string true "44-digit access key"
// @Success      200 {object} APIResponse[FiscalNoteResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /fiscal/locations/{locationID}/notes/{accessKey} [get]
func (h *FiscalNoteHandler) Get(c *gin.Context) {
	var params NoteKeyURI
	if err := c.ShouldBindUri(&params); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	locationID, err := uuid.Parse(params.LocationID)
	if err != nil {
		h.BadRequest(c, "Invalid location ID")
		return
	}

	note, err := h.noteService.GetByAccessKey(c.Request.Context(), locationID, params.AccessKey)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ToFiscalNoteResponse(note))
}

// ListUnrecognized godoc
// @ID           listUnrecognizedDocuments
// @Summary      List unrecognized document stubs
// @Description  Returns the stubs stored for distribution documents that matched no known schema, newest first. Each stub retains the raw payload.
// @Tags         fiscal-notes
// @Produce      json
// @Param        locationID path string true "Location ID"
// @Success      200 {object} APIResponse[[]UnrecognizedDocumentResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /fiscal/locations/{locationID}/unrecognized [get]
func (h *FiscalNoteHandler) ListUnrecognized(c *gin.Context) {
	locationID, err := getLocationID(c)
	if err != nil {
		h.BadRequest(c, "Invalid location ID")
		return
	}

	stubs, err := h.noteService.UnrecognizedDocuments(c.Request.Context(), locationID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ToUnrecognizedDocumentResponses(stubs))
}

// Summary godoc
// @ID           getCategorySummary
// @Summary      Per-category spend summary
// @Description  Aggregates note count and total value per expense category for a location within a date range. Only active categorized notes are counted.
// @Tags         fiscal-notes
// @Produce      json
// @Param        locationID path string true "Location ID"
// @Param        from query string false "Issue date lower bound (YYYY-MM-DD)"
// @Param        to query string false "Issue date upper bound (YYYY-MM-DD)"
// @Success      200 {object} APIResponse[[]fiscalapp.CategorySummary]
// @Failure      400 {object} ErrorResponse
// @Router       /fiscal/locations/{locationID}/summary [get]
func (h *FiscalNoteHandler) Summary(c *gin.Context) {
	locationID, err := getLocationID(c)
	if err != nil {
		h.BadRequest(c, "Invalid location ID")
		return
	}

	var req SummaryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	from, to, err := parseDateRange(req.From, req.To)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	summaries, err := h.noteService.CategorySummary(c.Request.Context(), locationID, from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summaries)
}

// RegisterRoutes registers fiscal note routes
func (h *FiscalNoteHandler) RegisterRoutes(rg *gin.RouterGroup) {
	locations := rg.Group("/fiscal/locations")
	{
		locations.GET("/:locationID/notes", h.List)
		locations.GET("/:locationID/notes/:accessKey", h.Get)
		locations.GET("/:locationID/summary", h.Summary)
		locations.GET("/:locationID/unrecognized", h.ListUnrecognized)
	}
}

func (r *ListNotesRequest) toFilter() (fiscal.FiscalNoteFilter, error) {
	filter := fiscal.FiscalNoteFilter{
		Linked:   r.Linked,
		Search:   r.Search,
		Page:     r.Page,
		PageSize: r.PageSize,
	}
	if r.Status != "" {
		status := fiscal.NoteStatus(r.Status)
		filter.Status = &status
	}
	if r.Category != "" {
		category := fiscal.CategoryID(r.Category)
		filter.Category = &category
	}
	from, to, err := parseDateRange(r.From, r.To)
	if err != nil {
		return fiscal.FiscalNoteFilter{}, err
	}
	if !from.IsZero() {
		filter.FromDate = &from
	}
	if !to.IsZero() {
		filter.ToDate = &to
	}
	return filter, nil
}

// parseDateRange parses YYYY-MM-DD bounds; the upper bound is inclusive of
// the whole day.
func parseDateRange(fromStr, toStr string) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error
	if fromStr != "" {
		from, err = time.Parse("2006-01-02", fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if toStr != "" {
		to, err = time.Parse("2006-01-02", toStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = to.Add(24*time.Hour - time.Nanosecond)
	}
	return from, to, nil
}
