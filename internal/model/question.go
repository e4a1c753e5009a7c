package model

import "time"

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	QuestionTypeMCQ    QuestionType = "MCQ"
	QuestionTypeCoding QuestionType = "CODING"
)

// DifficultyLevel grades a question for analytics breakdowns.
type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "EASY"
	DifficultyMedium DifficultyLevel = "MEDIUM"
	DifficultyHard   DifficultyLevel = "HARD"
)

// Question is an MCQ or CODING item belonging to a section.
type Question struct {
	ID               int64           `json:"question_id"`
	SectionID        int64           `json:"section_id"`
	QuestionText     string          `json:"question_text"`
	Type             QuestionType    `json:"type"`
	DifficultyLevel  DifficultyLevel `json:"difficulty_level"`
	Points           int             `json:"points"`
	TimeLimitMinutes *int            `json:"time_limit_minutes,omitempty"`
	// Coding questions only.
	CodeTemplate        string    `json:"code_template,omitempty"`
	ProgrammingLanguage string    `json:"programming_language,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`

	MCQOptions []MCQOption `json:"mcq_options,omitempty"`
	TestCases  []TestCase  `json:"test_cases,omitempty"`
}

// MCQOption is one answer choice. IsCorrect never reaches candidates; the
// candidate-facing view strips it.
type MCQOption struct {
	ID         int64  `json:"option_id"`
	QuestionID int64  `json:"question_id"`
	OptionText string `json:"option_text"`
	IsCorrect  bool   `json:"is_correct"`
}

// TestCase is one input/output pair for a coding question. Hidden cases are
// used for grading only; candidates see samples.
type TestCase struct {
	ID             int64  `json:"test_case_id"`
	QuestionID     int64  `json:"question_id"`
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	Hidden         bool   `json:"hidden"`
}

// CandidateOption is the candidate-facing projection of an MCQOption.
type CandidateOption struct {
	ID         int64  `json:"option_id"`
	OptionText string `json:"option_text"`
}

// CandidateQuestion is a question as served to a candidate during a session:
// no correctness flags, sample test cases only.
type CandidateQuestion struct {
	ID                  int64             `json:"question_id"`
	SectionID           int64             `json:"section_id"`
	QuestionText        string            `json:"question_text"`
	Type                QuestionType      `json:"type"`
	Points              int               `json:"points"`
	CodeTemplate        string            `json:"code_template,omitempty"`
	ProgrammingLanguage string            `json:"programming_language,omitempty"`
	MCQOptions          []CandidateOption `json:"mcq_options,omitempty"`
	SampleTestCases     []TestCase        `json:"sample_test_cases,omitempty"`
}

// ForCandidate strips grading data from a question.
func (q *Question) ForCandidate() CandidateQuestion {
	cq := CandidateQuestion{
		ID:                  q.ID,
		SectionID:           q.SectionID,
		QuestionText:        q.QuestionText,
		Type:                q.Type,
		Points:              q.Points,
		CodeTemplate:        q.CodeTemplate,
		ProgrammingLanguage: q.ProgrammingLanguage,
	}
	for _, opt := range q.MCQOptions {
		cq.MCQOptions = append(cq.MCQOptions, CandidateOption{ID: opt.ID, OptionText: opt.OptionText})
	}
	for _, tc := range q.TestCases {
		if !tc.Hidden {
			cq.SampleTestCases = append(cq.SampleTestCases, tc)
		}
	}
	return cq
}

// MCQOptionInput is one option inside a question create/update payload.
type MCQOptionInput struct {
	OptionText string `json:"option_text" binding:"required,min=1,max=1000"`
	IsCorrect  bool   `json:"is_correct"`
}

// TestCaseInput is one test case inside a question create/update payload.
type TestCaseInput struct {
	Input          string `json:"input" binding:"omitempty,max=10000"`
	ExpectedOutput string `json:"expected_output" binding:"required,max=10000"`
	Hidden         bool   `json:"hidden"`
}

// CreateQuestionRequest is the payload for creating a question with its
// type-specific children. MCQ questions must carry at least one correct
// option and coding questions at least one test case, enforced in the service.
type CreateQuestionRequest struct {
	SectionID           int64            `json:"section_id" binding:"required"`
	QuestionText        string           `json:"question_text" binding:"required,min=1,max=5000"`
	Type                string           `json:"type" binding:"required,oneof=MCQ CODING"`
	DifficultyLevel     string           `json:"difficulty_level" binding:"omitempty,oneof=EASY MEDIUM HARD"`
	Points              int              `json:"points" binding:"omitempty,min=1,max=100"`
	TimeLimitMinutes    *int             `json:"time_limit_minutes" binding:"omitempty,min=1,max=120"`
	CodeTemplate        string           `json:"code_template" binding:"omitempty,max=10000"`
	ProgrammingLanguage string           `json:"programming_language" binding:"omitempty,max=50"`
	MCQOptions          []MCQOptionInput `json:"mcq_options" binding:"omitempty,dive"`
	TestCases           []TestCaseInput  `json:"test_cases" binding:"omitempty,dive"`
}

// UpdateQuestionRequest replaces a question's fields and children.
type UpdateQuestionRequest struct {
	QuestionText        string           `json:"question_text" binding:"required,min=1,max=5000"`
	DifficultyLevel     string           `json:"difficulty_level" binding:"omitempty,oneof=EASY MEDIUM HARD"`
	Points              int              `json:"points" binding:"omitempty,min=1,max=100"`
	TimeLimitMinutes    *int             `json:"time_limit_minutes" binding:"omitempty,min=1,max=120"`
	CodeTemplate        string           `json:"code_template" binding:"omitempty,max=10000"`
	ProgrammingLanguage string           `json:"programming_language" binding:"omitempty,max=50"`
	MCQOptions          []MCQOptionInput `json:"mcq_options" binding:"omitempty,dive"`
	TestCases           []TestCaseInput  `json:"test_cases" binding:"omitempty,dive"`
}
