package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/assesshub/assesshub-backend/internal/middleware"
	"github.com/assesshub/assesshub-backend/internal/model"
	"github.com/assesshub/assesshub-backend/internal/response"
	"github.com/assesshub/assesshub-backend/internal/service"
	"github.com/assesshub/assesshub-backend/internal/validator"
)

// AssessmentHandler handles admin assessment management endpoints.
type AssessmentHandler struct {
	assessmentService *service.AssessmentService
	attemptService    *service.AttemptService
}

// NewAssessmentHandler creates a new AssessmentHandler.
func NewAssessmentHandler(assessmentService *service.AssessmentService, attemptService *service.AttemptService) *AssessmentHandler {
	return &AssessmentHandler{assessmentService: assessmentService, attemptService: attemptService}
}

func paginationParams(c *gin.Context) (page, perPage int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}

func buildPagination(page, perPage, total int) *response.Pagination {
	totalPages := (total + perPage - 1) / perPage
	return &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	}
}

// List godoc
// GET /api/v1/admin/assessments
func (h *AssessmentHandler) List(c *gin.Context) {
	page, perPage := paginationParams(c)
	assessments, total, err := h.assessmentService.ListPaginated(c.Request.Context(), perPage, (page-1)*perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"assessments": assessments}, buildPagination(page, perPage, total))
}

// Get godoc
// GET /api/v1/admin/assessments/:id
func (h *AssessmentHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	assessment, err := h.assessmentService.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"assessment": assessment})
}

// Create godoc
// POST /api/v1/admin/assessments
func (h *AssessmentHandler) Create(c *gin.Context) {
	var req model.CreateAssessmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	assessment := &model.Assessment{
		CompanyID:       req.CompanyID,
		Name:            req.Name,
		Description:     req.Description,
		CreatedBy:       strconv.FormatInt(claims.UserID, 10),
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		Structure:       req.Structure,
	}
	err := h.assessmentService.Create(c.Request.Context(), assessment)
	switch {
	case err == nil:
		response.Success(c, http.StatusCreated, gin.H{"assessment": assessment})
	case errors.Is(err, service.ErrEmptyStructure):
		response.Fail(c, http.StatusBadRequest, response.ErrEmptyStructure)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// Update godoc
// PUT /api/v1/admin/assessments/:id
func (h *AssessmentHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req model.UpdateAssessmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	existing, err := h.assessmentService.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if req.Name != "" {
		existing.Name = req.Name
	}
	if req.Description != "" {
		existing.Description = req.Description
	}
	if req.ScheduledAt != nil {
		existing.ScheduledAt = req.ScheduledAt
	}
	if req.DurationMinutes > 0 {
		existing.DurationMinutes = req.DurationMinutes
	}
	if len(req.Structure) > 0 {
		existing.Structure = req.Structure
	}

	err = h.assessmentService.Update(c.Request.Context(), existing)
	switch {
	case err == nil:
		response.Success(c, http.StatusOK, gin.H{"assessment": existing})
	case errors.Is(err, service.ErrEmptyStructure):
		response.Fail(c, http.StatusBadRequest, response.ErrEmptyStructure)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// Delete godoc
// DELETE /api/v1/admin/assessments/:id
func (h *AssessmentHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	err := h.assessmentService.Delete(c.Request.Context(), id)
	switch {
	case err == nil:
		response.Success(c, http.StatusOK, gin.H{})
	case errors.Is(err, service.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// RefreshCache godoc
// POST /api/v1/admin/assessments/:id/refresh-cache
// Rebuilds the Redis answer key and duration entries from PostgreSQL.
func (h *AssessmentHandler) RefreshCache(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	assessment, err := h.assessmentService.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if err := h.assessmentService.WarmAssessmentCache(c.Request.Context(), assessment); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"refreshed": true})
}

// ListAttempts godoc
// GET /api/v1/admin/assessments/:id/attempts
// Returns candidate attempts on one assessment for result screens.
func (h *AssessmentHandler) ListAttempts(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	page, perPage := paginationParams(c)
	attempts, total, err := h.attemptService.ListByAssessment(c.Request.Context(), id, perPage, (page-1)*perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"attempts": attempts}, buildPagination(page, perPage, total))
}
