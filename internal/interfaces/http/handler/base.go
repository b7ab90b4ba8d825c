package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fiscalflow/backend/internal/domain/fiscal"
	"github.com/fiscalflow/backend/internal/domain/shared"
	"github.com/fiscalflow/backend/internal/infrastructure/logger"
	"github.com/fiscalflow/backend/internal/interfaces/http/dto"
)

// RequestIDKey is the context key for request ID
const RequestIDKey = "X-Request-ID"

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	if id := c.GetHeader(RequestIDKey); id != "" {
		return id
	}
	return logger.GetRequestID(c.Request.Context())
}

// getLocationID extracts and parses the location ID path parameter. A
// resolved location is stamped onto the request context so the access log
// and downstream calls carry it.
func getLocationID(c *gin.Context) (uuid.UUID, error) {
	locationID, err := uuid.Parse(c.Param("locationID"))
	if err != nil {
		return uuid.Nil, err
	}
	ctx, _ := logger.WithLocationID(c.Request.Context(), logger.FromContext(c.Request.Context()), locationID.String())
	c.Request = c.Request.WithContext(ctx)
	return locationID, nil
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Accepted sends a 202 accepted response
func (h *BaseHandler) Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	requestID := getRequestID(c)
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, requestID))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	statusCode := dto.GetHTTPStatus(code)
	requestID := getRequestID(c)
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, requestID))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Conflict sends a 409 conflict response
func (h *BaseHandler) Conflict(c *gin.Context, code, message string) {
	h.Error(c, http.StatusConflict, code, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleError converts domain, sync and distribution errors to HTTP
// responses. Unknown error types degrade to a 500 without leaking internals.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		h.ErrorWithCode(c, code, domainErr.Message)
		return
	}

	var rejected *fiscal.ServiceRejectedError
	if errors.As(err, &rejected) {
		h.ErrorWithCode(c, dto.ErrCodeUpstreamRejected,
			"Distribution service rejected the request: "+rejected.StatusCode+" - "+rejected.StatusText)
		return
	}

	switch {
	case errors.Is(err, fiscal.ErrSyncInFlight):
		h.ErrorWithCode(c, dto.ErrCodeOperationInFlight, "A sync is already running for this location")
	case errors.Is(err, fiscal.ErrDistributionUnavailable):
		h.ErrorWithCode(c, dto.ErrCodeUpstreamUnavailable, "Distribution service is unreachable")
	case errors.Is(err, fiscal.ErrInvalidResponse):
		h.ErrorWithCode(c, dto.ErrCodeUpstreamInvalidResponse, "Distribution service returned an unreadable response")
	case errors.Is(err, fiscal.ErrChannelNotConfigured):
		h.ErrorWithCode(c, dto.ErrCodeInvalidState, "No distribution channel is configured for this location")
	case errors.Is(err, fiscal.ErrInvalidAccessKey):
		h.ErrorWithCode(c, dto.ErrCodeInvalidInput, "Access key must be a valid 44-digit key")
	case errors.Is(err, fiscal.ErrInvalidNSU):
		h.ErrorWithCode(c, dto.ErrCodeInvalidInput, "NSU must be a numeric sequence number")
	default:
		h.InternalError(c, "An unexpected error occurred")
	}
}
