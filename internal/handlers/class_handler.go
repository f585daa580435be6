package handlers

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/HSL-KM/class-registration-service/internal/models"
	"github.com/HSL-KM/class-registration-service/internal/repositories"
	"github.com/HSL-KM/class-registration-service/internal/services"
	"github.com/HSL-KM/class-registration-service/internal/utils"
	"github.com/HSL-KM/class-registration-service/internal/validator"
)

var classIDParamPattern = regexp.MustCompile(`^\d{6}$`)

// ClassHandler serves the class catalog and the registration endpoints.
type ClassHandler struct {
	BaseHandler
	classService        services.ClassService
	registrationService services.RegistrationService
}

func NewClassHandler(classService services.ClassService, registrationService services.RegistrationService, logger utils.Logger) *ClassHandler {
	return &ClassHandler{
		BaseHandler:         BaseHandler{logger: logger},
		classService:        classService,
		registrationService: registrationService,
	}
}

// Register handles POST /classes/:class_id/register.
func (h *ClassHandler) Register(c *gin.Context) {
	classID, ok := h.classIDParam(c)
	if !ok {
		return
	}
	identity, ok := IdentityFromContext(c)
	if !ok {
		abortUnauthorized(c, "not authenticated")
		return
	}

	result, err := h.registrationService.Register(c.Request.Context(), classID, identity)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": result.Message})
}

// Cancel handles POST /classes/:class_id/cancel.
func (h *ClassHandler) Cancel(c *gin.Context) {
	classID, ok := h.classIDParam(c)
	if !ok {
		return
	}
	identity, ok := IdentityFromContext(c)
	if !ok {
		abortUnauthorized(c, "not authenticated")
		return
	}

	result, err := h.registrationService.Cancel(c.Request.Context(), classID, identity)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": result.Message})
}

func (h *ClassHandler) CreateClass(c *gin.Context) {
	var req services.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	identity, _ := IdentityFromContext(c)

	class, err := h.classService.Create(c.Request.Context(), &req, identity)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, class)
}

func (h *ClassHandler) UpdateClass(c *gin.Context) {
	classID, ok := h.classIDParam(c)
	if !ok {
		return
	}
	var req services.UpdateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	identity, _ := IdentityFromContext(c)

	class, err := h.classService.Update(c.Request.Context(), classID, &req, identity)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, class)
}

func (h *ClassHandler) DeleteClass(c *gin.Context) {
	classID, ok := h.classIDParam(c)
	if !ok {
		return
	}
	identity, _ := IdentityFromContext(c)

	if err := h.classService.Delete(c.Request.Context(), classID, identity); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Class deleted successfully"})
}

func (h *ClassHandler) CloseClass(c *gin.Context) {
	classID, ok := h.classIDParam(c)
	if !ok {
		return
	}
	var req services.CloseClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	identity, _ := IdentityFromContext(c)

	if err := h.classService.Close(c.Request.Context(), classID, &req, identity); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Class closed successfully"})
}

func (h *ClassHandler) SetPromoted(c *gin.Context) {
	classID, ok := h.classIDParam(c)
	if !ok {
		return
	}
	var req validator.PromoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	identity, _ := IdentityFromContext(c)

	if err := h.classService.SetPromoted(c.Request.Context(), classID, req.Promoted, identity); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Class promotion updated"})
}

func (h *ClassHandler) GetClass(c *gin.Context) {
	classID, ok := h.classIDParam(c)
	if !ok {
		return
	}
	class, err := h.classService.GetByClassID(c.Request.Context(), classID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, class)
}

func (h *ClassHandler) ListClasses(c *gin.Context) {
	identity, _ := IdentityFromContext(c)

	limit, offset := parsePagination(c, 20, 100)
	filters := repositories.ClassFilters{
		Search:    c.Query("search"),
		Limit:     limit,
		Offset:    offset,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if raw := c.Query("status"); raw != "" {
		status := models.ClassStatus(raw)
		filters.Status = &status
	}
	if raw := c.Query("promoted"); raw != "" {
		if promoted, err := strconv.ParseBool(raw); err == nil {
			filters.Promoted = &promoted
		}
	}

	resp, err := h.classService.List(c.Request.Context(), filters, identity)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ClassHandler) ListPromoted(c *gin.Context) {
	classes, err := h.classService.ListPromoted(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"classes": classes})
}

// MyClosedClasses lists the caller's attended, closed classes for the
// evaluation view.
func (h *ClassHandler) MyClosedClasses(c *gin.Context) {
	identity, ok := IdentityFromContext(c)
	if !ok {
		abortUnauthorized(c, "not authenticated")
		return
	}
	classes, err := h.classService.ListClosedRegisteredBy(c.Request.Context(), identity.Email)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"classes": classes})
}

func (h *ClassHandler) Registrants(c *gin.Context) {
	classID, ok := h.classIDParam(c)
	if !ok {
		return
	}
	registrants, err := h.classService.Registrants(c.Request.Context(), classID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"registrants": registrants, "count": len(registrants)})
}

// ExportRegistrants streams the roster as an xlsx attachment.
func (h *ClassHandler) ExportRegistrants(c *gin.Context) {
	classID, ok := h.classIDParam(c)
	if !ok {
		return
	}
	data, err := h.classService.ExportRegistrants(c.Request.Context(), classID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("registrants-%s.xlsx", classID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// classIDParam validates the public 6-digit class id. A malformed id can
// never match a class, so it answers 404 like a missing one.
func (h *ClassHandler) classIDParam(c *gin.Context) (string, bool) {
	classID := c.Param("class_id")
	if !classIDParamPattern.MatchString(classID) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "class not found"})
		return "", false
	}
	return classID, true
}
