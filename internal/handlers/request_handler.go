package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HSL-KM/class-registration-service/internal/models"
	"github.com/HSL-KM/class-registration-service/internal/repositories"
	"github.com/HSL-KM/class-registration-service/internal/services"
	"github.com/HSL-KM/class-registration-service/internal/utils"
	"github.com/HSL-KM/class-registration-service/internal/validator"
)

// RequestHandler serves the class-opening request endpoints.
type RequestHandler struct {
	BaseHandler
	requestService services.ClassRequestService
}

func NewRequestHandler(requestService services.ClassRequestService, logger utils.Logger) *RequestHandler {
	return &RequestHandler{
		BaseHandler:    BaseHandler{logger: logger},
		requestService: requestService,
	}
}

func (h *RequestHandler) Submit(c *gin.Context) {
	var req services.SubmitClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	identity, ok := IdentityFromContext(c)
	if !ok {
		abortUnauthorized(c, "not authenticated")
		return
	}

	request, err := h.requestService.Submit(c.Request.Context(), &req, identity)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

func (h *RequestHandler) Update(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateClassRequestPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	identity, _ := IdentityFromContext(c)

	if err := h.requestService.Update(c.Request.Context(), id, &req, identity); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Request updated"})
}

func (h *RequestHandler) Delete(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	identity, _ := IdentityFromContext(c)

	if err := h.requestService.Delete(c.Request.Context(), id, identity); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Request deleted"})
}

// List returns requests. Non-admins only see their own.
func (h *RequestHandler) List(c *gin.Context) {
	identity, ok := IdentityFromContext(c)
	if !ok {
		abortUnauthorized(c, "not authenticated")
		return
	}

	limit, offset := parsePagination(c, 20, 100)
	filters := repositories.RequestFilters{Limit: limit, Offset: offset}
	if raw := c.Query("status"); raw != "" {
		status := models.RequestStatus(raw)
		filters.Status = &status
	}
	if !identity.IsAdmin() {
		filters.UserEmail = &identity.Email
	} else if email := c.Query("user_email"); email != "" {
		filters.UserEmail = &email
	}

	requests, total, err := h.requestService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests, "total": total})
}

// Resolve approves or rejects a request.
func (h *RequestHandler) Resolve(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	var req validator.RequestActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	identity, _ := IdentityFromContext(c)

	if err := h.requestService.Resolve(c.Request.Context(), id, req.Action, req.Reason, identity); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Request " + req.Action + "d"})
}
