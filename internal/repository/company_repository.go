package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/assesshub/assesshub-backend/internal/model"
)

// CompanyRepository handles company data access.
type CompanyRepository struct {
	pool *pgxpool.Pool
}

// NewCompanyRepository creates a new CompanyRepository.
func NewCompanyRepository(pool *pgxpool.Pool) *CompanyRepository {
	return &CompanyRepository{pool: pool}
}

// GetByID retrieves a company by ID.
func (r *CompanyRepository) GetByID(ctx context.Context, id int64) (*model.Company, error) {
	c := &model.Company{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, logo_url, created_at, updated_at
		 FROM companies WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Description, &c.LogoURL, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// List retrieves all companies ordered by name.
func (r *CompanyRepository) List(ctx context.Context) ([]model.Company, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, logo_url, created_at, updated_at
		 FROM companies ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []model.Company
	for rows.Next() {
		var c model.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.LogoURL, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// Create inserts a new company.
func (r *CompanyRepository) Create(ctx context.Context, c *model.Company) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO companies (name, description, logo_url)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		c.Name, c.Description, c.LogoURL,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// Update modifies an existing company.
func (r *CompanyRepository) Update(ctx context.Context, c *model.Company) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE companies SET name = $1, description = $2, logo_url = $3, updated_at = NOW()
		 WHERE id = $4`,
		c.Name, c.Description, c.LogoURL, c.ID)
	return err
}

// Delete removes a company. Fails on FK violation while assessments exist.
func (r *CompanyRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	return err
}
