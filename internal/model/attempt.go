package model

import (
	"encoding/json"
	"time"
)

// AttemptStatus enumerates attempt states.
type AttemptStatus string

const (
	AttemptStatusInvited    AttemptStatus = "INVITED"
	AttemptStatusInProgress AttemptStatus = "IN_PROGRESS"
	AttemptStatusCompleted  AttemptStatus = "COMPLETED"
	AttemptStatusEvaluated  AttemptStatus = "EVALUATED"
)

// SubmissionMethod records how an attempt was finished.
type SubmissionMethod string

const (
	SubmissionManual      SubmissionMethod = "MANUAL_SUBMIT"
	SubmissionTimeExpired SubmissionMethod = "TIME_EXPIRED"
	SubmissionAuto        SubmissionMethod = "AUTO_SUBMIT"
)

// Attempt is one candidate's run at one assessment, keyed by
// (assessment, user ref).
type Attempt struct {
	ID               int64             `json:"id"`
	AssessmentID     int64             `json:"assessment_id"`
	UserRef          int64             `json:"user_ref"`
	Status           AttemptStatus     `json:"status"`
	StartedAt        *time.Time        `json:"started_at,omitempty"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
	TimeTakenMinutes *int              `json:"time_taken_minutes,omitempty"`
	SubmissionMethod *SubmissionMethod `json:"submission_method,omitempty"`
	BrowserInfo      string            `json:"browser_info,omitempty"`
	IPAddress        string            `json:"ip_address,omitempty"`
	Answers          json.RawMessage   `json:"answers,omitempty"`
	// Analytics, filled by the scoring worker.
	AttemptedQuestions *int     `json:"attempted_questions,omitempty"`
	CorrectAnswers     *int     `json:"correct_answers,omitempty"`
	TotalScore         *float64 `json:"total_score,omitempty"`
}

// AttemptSummary is the candidate-facing row in "my attempts".
type AttemptSummary struct {
	AttemptID        int64             `json:"attempt_id"`
	AssessmentID     int64             `json:"assessment_id"`
	AssessmentName   string            `json:"assessment_name"`
	CompanyName      string            `json:"company_name"`
	Status           AttemptStatus     `json:"status"`
	StartedAt        *time.Time        `json:"started_at,omitempty"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
	SubmissionMethod *SubmissionMethod `json:"submission_method,omitempty"`
	TotalScore       *float64          `json:"total_score,omitempty"`
}
