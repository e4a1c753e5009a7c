package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/assesshub/assesshub-backend/internal/model"
)

// DashboardRepository aggregates metrics for the admin dashboard.
type DashboardRepository struct {
	pool *pgxpool.Pool
}

// NewDashboardRepository creates a new DashboardRepository.
func NewDashboardRepository(pool *pgxpool.Pool) *DashboardRepository {
	return &DashboardRepository{pool: pool}
}

// GetSummaryCounts returns candidate, company, assessment and question
// totals in one round trip.
func (r *DashboardRepository) GetSummaryCounts(ctx context.Context) (candidates, companies, assessments, questions int, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users WHERE role = 'CANDIDATE'),
			(SELECT COUNT(*) FROM companies),
			(SELECT COUNT(*) FROM assessments),
			(SELECT COUNT(*) FROM questions)`,
	).Scan(&candidates, &companies, &assessments, &questions)
	return
}

// GetAttemptStatusCounts returns attempt totals grouped by status.
func (r *DashboardRepository) GetAttemptStatusCounts(ctx context.Context) (map[model.AttemptStatus]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM attempts GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.AttemptStatus]int)
	for rows.Next() {
		var status model.AttemptStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// DashboardUpcomingAssessment is one row in the upcoming schedule widget.
type DashboardUpcomingAssessment struct {
	AssessmentID int64     `json:"assessment_id"`
	Name         string    `json:"name"`
	CompanyName  string    `json:"company_name"`
	ScheduledAt  time.Time `json:"scheduled_at"`
}

// GetUpcomingAssessments returns the next scheduled assessments.
func (r *DashboardRepository) GetUpcomingAssessments(ctx context.Context, limit int) ([]DashboardUpcomingAssessment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.name, c.name, a.scheduled_at
		 FROM assessments a
		 JOIN companies c ON c.id = a.company_id
		 WHERE a.scheduled_at > NOW()
		 ORDER BY a.scheduled_at ASC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DashboardUpcomingAssessment
	for rows.Next() {
		var u DashboardUpcomingAssessment
		if err := rows.Scan(&u.AssessmentID, &u.Name, &u.CompanyName, &u.ScheduledAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// DashboardRecentSubmission is one row in the recent submissions widget.
type DashboardRecentSubmission struct {
	AttemptID      int64      `json:"attempt_id"`
	AssessmentName string     `json:"assessment_name"`
	CandidateEmail string     `json:"candidate_email"`
	CompletedAt    *time.Time `json:"completed_at"`
	TotalScore     *float64   `json:"total_score"`
}

// GetRecentSubmissions returns the latest completed attempts.
func (r *DashboardRepository) GetRecentSubmissions(ctx context.Context, limit int) ([]DashboardRecentSubmission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT t.id, a.name, u.email, t.completed_at, t.total_score
		 FROM attempts t
		 JOIN assessments a ON a.id = t.assessment_id
		 JOIN users u ON u.id = t.user_ref
		 WHERE t.status IN ('COMPLETED', 'EVALUATED')
		 ORDER BY t.completed_at DESC NULLS LAST
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DashboardRecentSubmission
	for rows.Next() {
		var s DashboardRecentSubmission
		if err := rows.Scan(&s.AttemptID, &s.AssessmentName, &s.CandidateEmail, &s.CompletedAt, &s.TotalScore); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
