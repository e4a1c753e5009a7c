package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/assesshub/assesshub-backend/internal/middleware"
	"github.com/assesshub/assesshub-backend/internal/model"
	"github.com/assesshub/assesshub-backend/internal/response"
	"github.com/assesshub/assesshub-backend/internal/sandbox"
	"github.com/assesshub/assesshub-backend/internal/service"
	"github.com/assesshub/assesshub-backend/internal/session"
	"github.com/assesshub/assesshub-backend/internal/validator"
)

// PortalHandler handles the candidate-facing assessment flow: browsing
// companies, running a live session and reviewing past attempts.
type PortalHandler struct {
	companyService    *service.CompanyService
	assessmentService *service.AssessmentService
	attemptService    *service.AttemptService
	sessions          *session.Manager
	sandbox           *sandbox.Client
}

// NewPortalHandler creates a new PortalHandler.
func NewPortalHandler(
	companyService *service.CompanyService,
	assessmentService *service.AssessmentService,
	attemptService *service.AttemptService,
	sessions *session.Manager,
	sandboxClient *sandbox.Client,
) *PortalHandler {
	return &PortalHandler{
		companyService:    companyService,
		assessmentService: assessmentService,
		attemptService:    attemptService,
		sessions:          sessions,
		sandbox:           sandboxClient,
	}
}

// ListCompanies godoc
// GET /api/v1/portal/companies
func (h *PortalHandler) ListCompanies(c *gin.Context) {
	companies, err := h.companyService.List(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"companies": companies})
}

// ListCompanyAssessments godoc
// GET /api/v1/portal/companies/:id/assessments
func (h *PortalHandler) ListCompanyAssessments(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	assessments, err := h.companyService.Assessments(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"assessments": assessments})
}

// GetAssessment godoc
// GET /api/v1/portal/assessments/:id
// Returns the assessment's landing data: name, duration, schedule and the
// candidate's attempt status if one exists.
func (h *PortalHandler) GetAssessment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	claims := middleware.GetClaims(c)

	assessment, err := h.assessmentService.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	payload := gin.H{
		"assessment": gin.H{
			"assessment_id":    assessment.ID,
			"name":             assessment.Name,
			"description":      assessment.Description,
			"scheduled_at":     assessment.ScheduledAt,
			"duration_minutes": assessment.DurationMinutes,
		},
		"available": h.assessmentService.IsAvailable(assessment),
	}
	if attempt, err := h.attemptService.GetAttempt(c.Request.Context(), id, claims.UserID); err == nil {
		payload["attempt_status"] = attempt.Status
	}
	response.Success(c, http.StatusOK, payload)
}

// StartSession godoc
// POST /api/v1/portal/assessments/:id/start
// Opens (or resumes) the attempt and brings a live session up. The response
// carries the full session snapshot: sections, questions, answers, cursor
// and countdown.
func (h *PortalHandler) StartSession(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	claims := middleware.GetClaims(c)

	_, err := h.attemptService.Start(c.Request.Context(), id, claims.UserID, c.ClientIP())
	switch {
	case err == nil:
	case errors.Is(err, service.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	case errors.Is(err, service.ErrAssessmentUnavailable):
		response.Fail(c, http.StatusForbidden, response.ErrAssessmentUnavailable)
		return
	case errors.Is(err, service.ErrAttemptCompleted):
		response.Fail(c, http.StatusConflict, response.ErrAttemptCompleted)
		return
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	sess, err := h.sessions.Start(c.Request.Context(), id, claims.UserID, c.GetHeader("User-Agent"))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	// Anchor the in-memory countdown to the persisted start time so a
	// process restart does not hand back the full duration.
	if remaining, err := h.attemptService.RemainingSeconds(c.Request.Context(), id, claims.UserID); err == nil {
		sess.SyncRemaining(remaining)
	}

	response.Success(c, http.StatusOK, sess.Snapshot())
}

// GetState godoc
// GET /api/v1/portal/assessments/:id/state
// Returns the live session snapshot for resume-after-refresh.
func (h *PortalHandler) GetState(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	claims := middleware.GetClaims(c)

	sess, live := h.sessions.Get(id, claims.UserID)
	if !live {
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveSession)
		return
	}
	response.Success(c, http.StatusOK, sess.Snapshot())
}

// RecordAnswer godoc
// POST /api/v1/portal/assessments/:id/answer
// Upserts one answer in the live session; last write wins.
func (h *PortalHandler) RecordAnswer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	claims := middleware.GetClaims(c)

	var req model.AnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sess, live := h.sessions.Get(id, claims.UserID)
	if !live {
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveSession)
		return
	}
	if err := sess.RecordAnswer(req.QuestionID, req.Answer); err != nil {
		response.Fail(c, http.StatusConflict, response.ErrNoActiveSession)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"saved": true})
}

// Navigate godoc
// POST /api/v1/portal/assessments/:id/navigate
// Moves the cursor forward or back, crossing section boundaries.
func (h *PortalHandler) Navigate(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	claims := middleware.GetClaims(c)

	var req model.NavigateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sess, live := h.sessions.Get(id, claims.UserID)
	if !live {
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveSession)
		return
	}

	if req.Direction == "next" {
		sess.Advance()
	} else {
		sess.Retreat()
	}

	secIdx, qIdx := sess.Position()
	payload := gin.H{
		"section_index":  secIdx,
		"question_index": qIdx,
	}
	if q, ok := sess.CurrentQuestion(); ok {
		payload["question"] = q
	}
	response.Success(c, http.StatusOK, payload)
}

// Submit godoc
// POST /api/v1/portal/assessments/:id/submit
// Finishes the attempt by hand. Racing the expiry timer is safe: only the
// first submission goes through.
func (h *PortalHandler) Submit(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	claims := middleware.GetClaims(c)

	var req model.SubmitRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sess, live := h.sessions.Get(id, claims.UserID)
	if !live {
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveSession)
		return
	}

	err := sess.Submit(c.Request.Context(), session.SubmitManual)
	switch {
	case err == nil:
		response.Success(c, http.StatusOK, gin.H{"submitted": true})
	case errors.Is(err, session.ErrSubmitInFlight), errors.Is(err, session.ErrNotActive):
		response.Fail(c, http.StatusConflict, response.ErrSubmissionFailed)
	case errors.Is(err, service.ErrAttemptCompleted):
		response.Fail(c, http.StatusConflict, response.ErrAttemptCompleted)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrSubmissionFailed)
	}
}

// RunCode godoc
// POST /api/v1/portal/run-code
// Executes a candidate's program in the sandbox. Output is advisory; it is
// never consumed by grading.
func (h *PortalHandler) RunCode(c *gin.Context) {
	var req model.RunCodeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	version := req.Version
	if version == "" {
		version = "*"
	}
	result, err := h.sandbox.Execute(c.Request.Context(), &sandbox.ExecuteRequest{
		Language: req.Language,
		Version:  version,
		Files:    []sandbox.File{{Content: req.Code}},
		Stdin:    req.Stdin,
	})
	if err != nil {
		response.Fail(c, http.StatusBadGateway, response.ErrSandboxUnavailable)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// ListRuntimes godoc
// GET /api/v1/portal/runtimes
func (h *PortalHandler) ListRuntimes(c *gin.Context) {
	runtimes, err := h.sandbox.Runtimes(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusBadGateway, response.ErrSandboxUnavailable)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"runtimes": runtimes})
}

// MyAttempts godoc
// GET /api/v1/portal/my-attempts
func (h *PortalHandler) MyAttempts(c *gin.Context) {
	claims := middleware.GetClaims(c)
	attempts, err := h.attemptService.ListMyAttempts(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"attempts": attempts})
}

// GetResult godoc
// GET /api/v1/portal/assessments/:id/result
// Returns the candidate's own finished attempt with its score once the
// grading worker has run.
func (h *PortalHandler) GetResult(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	claims := middleware.GetClaims(c)

	attempt, err := h.attemptService.GetAttempt(c.Request.Context(), id, claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}
