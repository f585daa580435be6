package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/HSL-KM/class-registration-service/internal/repositories"
	"github.com/HSL-KM/class-registration-service/internal/services"
	"github.com/HSL-KM/class-registration-service/internal/utils"
	"github.com/HSL-KM/class-registration-service/internal/validator"
)

// UserHandler serves profile and user management endpoints.
type UserHandler struct {
	BaseHandler
	userService services.UserService
}

func NewUserHandler(userService services.UserService, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: BaseHandler{logger: logger},
		userService: userService,
	}
}

// CheckOrCreate handles the first authenticated call after the OAuth
// callback: it provisions the user row when needed and reports whether the
// profile still needs completion.
func (h *UserHandler) CheckOrCreate(c *gin.Context) {
	var req validator.CheckOrCreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	// The email must match the token; callers cannot provision other accounts.
	identity, ok := IdentityFromContext(c)
	if !ok {
		abortUnauthorized(c, "not authenticated")
		return
	}
	if !strings.EqualFold(req.Email, identity.Email) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden", Message: "email does not match the authenticated user"})
		return
	}

	result, err := h.userService.CheckOrCreate(c.Request.Context(), req.Email)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Me returns the caller's own profile.
func (h *UserHandler) Me(c *gin.Context) {
	identity, ok := IdentityFromContext(c)
	if !ok {
		abortUnauthorized(c, "not authenticated")
		return
	}
	user, err := h.userService.GetByEmail(c.Request.Context(), identity.Email)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateProfile completes or edits the caller's own profile.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req services.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	identity, ok := IdentityFromContext(c)
	if !ok {
		abortUnauthorized(c, "not authenticated")
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), &req, identity)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	limit, offset := parsePagination(c, 20, 100)
	filters := repositories.UserFilters{
		Search: c.Query("search"),
		Limit:  limit,
		Offset: offset,
	}
	if raw := c.Query("is_active"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filters.IsActive = &active
		}
	}

	users, total, err := h.userService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "total": total})
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	user, err := h.userService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateRoles(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	var req validator.RolesUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	identity, _ := IdentityFromContext(c)

	user, err := h.userService.UpdateRoles(c.Request.Context(), id, req.Roles, identity)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateStatus(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	var req validator.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if req.IsActive == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "is_active is required"})
		return
	}
	identity, _ := IdentityFromContext(c)

	if err := h.userService.UpdateStatus(c.Request.Context(), id, *req.IsActive, identity); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User status updated"})
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	identity, _ := IdentityFromContext(c)

	if err := h.userService.Delete(c.Request.Context(), id, identity); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
