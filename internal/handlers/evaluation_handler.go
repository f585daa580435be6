package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HSL-KM/class-registration-service/internal/services"
	"github.com/HSL-KM/class-registration-service/internal/utils"
)

// EvaluationHandler serves post-class evaluation endpoints.
type EvaluationHandler struct {
	BaseHandler
	evaluationService services.EvaluationService
}

func NewEvaluationHandler(evaluationService services.EvaluationService, logger utils.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		BaseHandler:       BaseHandler{logger: logger},
		evaluationService: evaluationService,
	}
}

func (h *EvaluationHandler) Submit(c *gin.Context) {
	var req services.SubmitEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	identity, ok := IdentityFromContext(c)
	if !ok {
		abortUnauthorized(c, "not authenticated")
		return
	}

	if err := h.evaluationService.Submit(c.Request.Context(), &req, identity); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Evaluation submitted"})
}

// MyEvaluatedClasses lists the class ids the caller has already evaluated so
// the frontend can hide their evaluation forms.
func (h *EvaluationHandler) MyEvaluatedClasses(c *gin.Context) {
	identity, ok := IdentityFromContext(c)
	if !ok {
		abortUnauthorized(c, "not authenticated")
		return
	}

	ids, err := h.evaluationService.EvaluatedClassIDs(c.Request.Context(), identity.Email)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"class_ids": ids})
}

// Summary returns all evaluations of a class for the admin view.
func (h *EvaluationHandler) Summary(c *gin.Context) {
	classID := c.Param("class_id")
	if !classIDParamPattern.MatchString(classID) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "class not found"})
		return
	}

	summary, err := h.evaluationService.SummaryByClass(c.Request.Context(), classID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
