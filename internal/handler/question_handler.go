package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/assesshub/assesshub-backend/internal/model"
	"github.com/assesshub/assesshub-backend/internal/response"
	"github.com/assesshub/assesshub-backend/internal/service"
	"github.com/assesshub/assesshub-backend/internal/validator"
)

// QuestionHandler handles admin question bank endpoints.
type QuestionHandler struct {
	questionService *service.QuestionService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// Get godoc
// GET /api/v1/admin/questions/:id
func (h *QuestionHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	question, err := h.questionService.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question": question})
}

// Create godoc
// POST /api/v1/admin/questions
func (h *QuestionHandler) Create(c *gin.Context) {
	var req model.CreateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question := questionFromCreate(&req)
	err := h.questionService.Create(c.Request.Context(), question)
	switch {
	case err == nil:
		response.Success(c, http.StatusCreated, gin.H{"question": question})
	case errors.Is(err, service.ErrNoCorrectOption):
		response.Fail(c, http.StatusBadRequest, response.ErrNoCorrectOption)
	case errors.Is(err, service.ErrNoTestCases):
		response.Fail(c, http.StatusBadRequest, response.ErrNoTestCases)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// Update godoc
// PUT /api/v1/admin/questions/:id
func (h *QuestionHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req model.UpdateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question := questionFromUpdate(id, &req)
	err := h.questionService.Update(c.Request.Context(), question)
	switch {
	case err == nil:
		response.Success(c, http.StatusOK, gin.H{"question": question})
	case errors.Is(err, service.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNoCorrectOption):
		response.Fail(c, http.StatusBadRequest, response.ErrNoCorrectOption)
	case errors.Is(err, service.ErrNoTestCases):
		response.Fail(c, http.StatusBadRequest, response.ErrNoTestCases)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// Delete godoc
// DELETE /api/v1/admin/questions/:id
func (h *QuestionHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	err := h.questionService.Delete(c.Request.Context(), id)
	switch {
	case err == nil:
		response.Success(c, http.StatusOK, gin.H{})
	case errors.Is(err, service.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

func questionFromCreate(req *model.CreateQuestionRequest) *model.Question {
	q := &model.Question{
		SectionID:           req.SectionID,
		QuestionText:        req.QuestionText,
		Type:                model.QuestionType(req.Type),
		DifficultyLevel:     model.DifficultyLevel(req.DifficultyLevel),
		Points:              req.Points,
		TimeLimitMinutes:    req.TimeLimitMinutes,
		CodeTemplate:        req.CodeTemplate,
		ProgrammingLanguage: req.ProgrammingLanguage,
	}
	if q.DifficultyLevel == "" {
		q.DifficultyLevel = model.DifficultyMedium
	}
	if q.Points == 0 {
		q.Points = 1
	}
	applyChildren(q, req.MCQOptions, req.TestCases)
	return q
}

func questionFromUpdate(id int64, req *model.UpdateQuestionRequest) *model.Question {
	q := &model.Question{
		ID:                  id,
		QuestionText:        req.QuestionText,
		DifficultyLevel:     model.DifficultyLevel(req.DifficultyLevel),
		Points:              req.Points,
		TimeLimitMinutes:    req.TimeLimitMinutes,
		CodeTemplate:        req.CodeTemplate,
		ProgrammingLanguage: req.ProgrammingLanguage,
	}
	if q.DifficultyLevel == "" {
		q.DifficultyLevel = model.DifficultyMedium
	}
	if q.Points == 0 {
		q.Points = 1
	}
	applyChildren(q, req.MCQOptions, req.TestCases)
	return q
}

func applyChildren(q *model.Question, options []model.MCQOptionInput, cases []model.TestCaseInput) {
	for _, o := range options {
		q.MCQOptions = append(q.MCQOptions, model.MCQOption{
			OptionText: o.OptionText,
			IsCorrect:  o.IsCorrect,
		})
	}
	for _, tc := range cases {
		q.TestCases = append(q.TestCases, model.TestCase{
			Input:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
			Hidden:         tc.Hidden,
		})
	}
}
