package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/HSL-KM/class-registration-service/internal/services"
	"github.com/HSL-KM/class-registration-service/internal/utils"
	"github.com/HSL-KM/class-registration-service/internal/validator"
)

// BaseHandler carries the pieces every handler shares.
type BaseHandler struct {
	logger utils.Logger
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// handleServiceError maps service errors onto HTTP status codes. Sentinel
// errors are expected outcomes; everything else is a server error and gets
// logged with full detail but returned opaque.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors

	switch {
	case errors.As(err, &validationErrors):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_failed",
			Message: "Validation failed",
			Details: validationErrors,
		})

	case errors.Is(err, services.ErrClassNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrAdminNotFound),
		errors.Is(err, services.ErrRequestNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: err.Error()})

	case errors.Is(err, services.ErrClassFull),
		errors.Is(err, services.ErrAlreadyRegistered),
		errors.Is(err, services.ErrNotRegistered),
		errors.Is(err, services.ErrClassNotOpen),
		errors.Is(err, services.ErrEvaluationExists),
		errors.Is(err, services.ErrEvaluationNotClosed),
		errors.Is(err, services.ErrLastAdmin),
		errors.Is(err, services.ErrSelfRevoke),
		errors.Is(err, services.ErrEmailTaken):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "conflict", Message: err.Error()})

	case errors.Is(err, services.ErrUserInactive):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden", Message: err.Error()})

	case services.IsPermissionError(err):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden", Message: err.Error()})

	default:
		logger := utils.LoggerFromContext(c.Request.Context(), h.logger)
		logger.Error("Request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "something went wrong"})
	}
}

// badRequest responds with a 400 carrying the validation message.
func (h *BaseHandler) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: err.Error()})
}

// parseIDParam parses a numeric path parameter.
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: name + " must be a positive integer"})
		return 0, false
	}
	return uint(id), true
}

// parsePagination reads limit/offset query params with sane bounds.
func parsePagination(c *gin.Context, defaultLimit, maxLimit int) (limit, offset int) {
	limit = defaultLimit
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if raw := c.Query("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}
