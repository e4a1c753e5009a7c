package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/assesshub/assesshub-backend/internal/model"
)

// AssessmentRepository handles assessment data access.
type AssessmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssessmentRepository creates a new AssessmentRepository.
func NewAssessmentRepository(pool *pgxpool.Pool) *AssessmentRepository {
	return &AssessmentRepository{pool: pool}
}

const assessmentColumns = `id, company_id, name, description, created_by,
	scheduled_at, duration_minutes, structure, created_at, updated_at`

func scanAssessment(row interface{ Scan(...any) error }) (*model.Assessment, error) {
	a := &model.Assessment{}
	err := row.Scan(&a.ID, &a.CompanyID, &a.Name, &a.Description, &a.CreatedBy,
		&a.ScheduledAt, &a.DurationMinutes, &a.Structure, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetByID retrieves an assessment by ID.
func (r *AssessmentRepository) GetByID(ctx context.Context, id int64) (*model.Assessment, error) {
	return scanAssessment(r.pool.QueryRow(ctx,
		`SELECT `+assessmentColumns+` FROM assessments WHERE id = $1`, id))
}

// ListByCompany retrieves assessments published under one company.
func (r *AssessmentRepository) ListByCompany(ctx context.Context, companyID int64) ([]model.Assessment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+assessmentColumns+` FROM assessments
		 WHERE company_id = $1 ORDER BY created_at DESC`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assessments []model.Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		assessments = append(assessments, *a)
	}
	return assessments, rows.Err()
}

// ListPaginated retrieves assessments across companies for admin screens.
func (r *AssessmentRepository) ListPaginated(ctx context.Context, limit, offset int) ([]model.Assessment, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM assessments`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+assessmentColumns+` FROM assessments
		 ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var assessments []model.Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, 0, err
		}
		assessments = append(assessments, *a)
	}
	return assessments, total, rows.Err()
}

// Create inserts a new assessment.
func (r *AssessmentRepository) Create(ctx context.Context, a *model.Assessment) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO assessments (company_id, name, description, created_by, scheduled_at, duration_minutes, structure)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		a.CompanyID, a.Name, a.Description, a.CreatedBy, a.ScheduledAt, a.DurationMinutes, a.Structure,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

// Update modifies an existing assessment.
func (r *AssessmentRepository) Update(ctx context.Context, a *model.Assessment) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE assessments
		 SET name = $1, description = $2, scheduled_at = $3, duration_minutes = $4, structure = $5, updated_at = NOW()
		 WHERE id = $6`,
		a.Name, a.Description, a.ScheduledAt, a.DurationMinutes, a.Structure, a.ID)
	return err
}

// Delete removes an assessment.
func (r *AssessmentRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM assessments WHERE id = $1`, id)
	return err
}
