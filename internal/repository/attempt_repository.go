package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/assesshub/assesshub-backend/internal/model"
)

// AttemptRepository handles attempt data access.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

const attemptColumns = `id, assessment_id, user_ref, status, started_at, completed_at,
	time_taken_minutes, submission_method, browser_info, ip_address, answers,
	attempted_questions, correct_answers, total_score`

func scanAttempt(row interface{ Scan(...any) error }) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := row.Scan(&a.ID, &a.AssessmentID, &a.UserRef, &a.Status, &a.StartedAt,
		&a.CompletedAt, &a.TimeTakenMinutes, &a.SubmissionMethod, &a.BrowserInfo,
		&a.IPAddress, &a.Answers, &a.AttemptedQuestions, &a.CorrectAnswers, &a.TotalScore)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetByAssessmentAndUser retrieves the attempt for one candidate on one
// assessment.
func (r *AttemptRepository) GetByAssessmentAndUser(ctx context.Context, assessmentID, userRef int64) (*model.Attempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM attempts
		 WHERE assessment_id = $1 AND user_ref = $2`, assessmentID, userRef))
}

// Create inserts a new IN_PROGRESS attempt. The unique (assessment, user)
// constraint makes concurrent starts collapse to one row.
func (r *AttemptRepository) Create(ctx context.Context, a *model.Attempt) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO attempts (assessment_id, user_ref, status, ip_address, started_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (assessment_id, user_ref) DO NOTHING
		 RETURNING id, started_at`,
		a.AssessmentID, a.UserRef, model.AttemptStatusInProgress, a.IPAddress,
	).Scan(&a.ID, &a.StartedAt)
}

// Complete stores the final submission for an attempt.
func (r *AttemptRepository) Complete(ctx context.Context, assessmentID, userRef int64,
	answers json.RawMessage, method model.SubmissionMethod, browserInfo, ipAddress string,
	timeTakenMinutes int) error {

	now := time.Now()
	_, err := r.pool.Exec(ctx,
		`UPDATE attempts
		 SET status = $1, completed_at = $2, answers = $3, submission_method = $4,
		     browser_info = $5, ip_address = $6, time_taken_minutes = $7,
		     attempted_questions = $8
		 WHERE assessment_id = $9 AND user_ref = $10`,
		model.AttemptStatusCompleted, now, answers, method,
		browserInfo, ipAddress, timeTakenMinutes, countAnswers(answers),
		assessmentID, userRef)
	return err
}

func countAnswers(answers json.RawMessage) int {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(answers, &m); err != nil {
		return 0
	}
	return len(m)
}

// UpdateProgress autosaves the in-flight answer map without finishing the
// attempt.
func (r *AttemptRepository) UpdateProgress(ctx context.Context, assessmentID, userRef int64, answers json.RawMessage) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE attempts SET answers = $1, attempted_questions = $2
		 WHERE assessment_id = $3 AND user_ref = $4 AND status = 'IN_PROGRESS'`,
		answers, countAnswers(answers), assessmentID, userRef)
	return err
}

// ListByUser retrieves a candidate's attempts newest first, joined with
// assessment and company display data.
func (r *AttemptRepository) ListByUser(ctx context.Context, userRef int64) ([]model.AttemptSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT t.id, t.assessment_id, a.name, c.name, t.status, t.started_at,
		        t.completed_at, t.submission_method, t.total_score
		 FROM attempts t
		 JOIN assessments a ON a.id = t.assessment_id
		 JOIN companies c ON c.id = a.company_id
		 WHERE t.user_ref = $1
		 ORDER BY t.started_at DESC NULLS LAST`, userRef)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []model.AttemptSummary
	for rows.Next() {
		var s model.AttemptSummary
		if err := rows.Scan(&s.AttemptID, &s.AssessmentID, &s.AssessmentName, &s.CompanyName,
			&s.Status, &s.StartedAt, &s.CompletedAt, &s.SubmissionMethod, &s.TotalScore); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// ListByAssessment retrieves all attempts on one assessment for admin result
// screens, with pagination.
func (r *AttemptRepository) ListByAssessment(ctx context.Context, assessmentID int64, limit, offset int) ([]model.Attempt, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM attempts WHERE assessment_id = $1`, assessmentID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+attemptColumns+` FROM attempts
		 WHERE assessment_id = $1
		 ORDER BY started_at DESC NULLS LAST
		 LIMIT $2 OFFSET $3`, assessmentID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, 0, err
		}
		attempts = append(attempts, *a)
	}
	return attempts, total, rows.Err()
}
