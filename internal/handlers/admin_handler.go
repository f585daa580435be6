package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/HSL-KM/class-registration-service/internal/repositories"
	"github.com/HSL-KM/class-registration-service/internal/services"
	"github.com/HSL-KM/class-registration-service/internal/utils"
	"github.com/HSL-KM/class-registration-service/internal/validator"
)

// AdminHandler serves admin management and the audit-trail view.
type AdminHandler struct {
	BaseHandler
	userService     services.UserService
	activityService services.ActivityService
}

func NewAdminHandler(userService services.UserService, activityService services.ActivityService, logger utils.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler:     BaseHandler{logger: logger},
		userService:     userService,
		activityService: activityService,
	}
}

func (h *AdminHandler) ListAdmins(c *gin.Context) {
	admins, err := h.userService.ListAdmins(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"admins": admins})
}

func (h *AdminHandler) AppointAdmin(c *gin.Context) {
	var req services.AppointAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	identity, _ := IdentityFromContext(c)

	if err := h.userService.AppointAdmin(c.Request.Context(), &req, identity); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Admin appointed"})
}

func (h *AdminHandler) ChangeAdminLevel(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	var req validator.AdminLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	identity, _ := IdentityFromContext(c)

	if err := h.userService.ChangeAdminLevel(c.Request.Context(), id, req.AdminLevel, identity); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Admin level updated"})
}

func (h *AdminHandler) RevokeAdmin(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	identity, _ := IdentityFromContext(c)

	if err := h.userService.RevokeAdmin(c.Request.Context(), id, identity); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Admin revoked"})
}

func (h *AdminHandler) ListActivityLogs(c *gin.Context) {
	page, err := h.activityService.List(c.Request.Context(), activityFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// ExportActivityLogs streams the filtered audit trail as an xlsx attachment.
func (h *AdminHandler) ExportActivityLogs(c *gin.Context) {
	data, err := h.activityService.ExportXLSX(c.Request.Context(), activityFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("activity-logs-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func activityFilters(c *gin.Context) repositories.ActivityLogFilters {
	limit, offset := parsePagination(c, 50, 200)
	filters := repositories.ActivityLogFilters{
		Search:     c.Query("search"),
		ActionType: c.Query("action_type"),
		Limit:      limit,
		Offset:     offset,
	}
	if raw := c.Query("date_from"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			filters.DateFrom = &t
		}
	}
	if raw := c.Query("date_to"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			// Inclusive end of day
			end := t.Add(24*time.Hour - time.Nanosecond)
			filters.DateTo = &end
		}
	}
	return filters
}
