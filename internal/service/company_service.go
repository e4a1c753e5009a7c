package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/assesshub/assesshub-backend/internal/model"
	"github.com/assesshub/assesshub-backend/internal/repository"
)

// Common resource errors shared across services.
var (
	ErrNotFound         = errors.New("resource not found")
	ErrDependencyExists = errors.New("resource is still referenced by other records")
)

// CompanyService handles company business logic.
type CompanyService struct {
	companyRepo    *repository.CompanyRepository
	assessmentRepo *repository.AssessmentRepository
}

// NewCompanyService creates a new CompanyService.
func NewCompanyService(companyRepo *repository.CompanyRepository, assessmentRepo *repository.AssessmentRepository) *CompanyService {
	return &CompanyService{companyRepo: companyRepo, assessmentRepo: assessmentRepo}
}

// GetByID retrieves a company.
func (s *CompanyService) GetByID(ctx context.Context, id int64) (*model.Company, error) {
	company, err := s.companyRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return company, nil
}

// List retrieves all companies.
func (s *CompanyService) List(ctx context.Context) ([]model.Company, error) {
	return s.companyRepo.List(ctx)
}

// Create registers a new company.
func (s *CompanyService) Create(ctx context.Context, company *model.Company) error {
	return s.companyRepo.Create(ctx, company)
}

// Update modifies an existing company.
func (s *CompanyService) Update(ctx context.Context, company *model.Company) error {
	if _, err := s.GetByID(ctx, company.ID); err != nil {
		return err
	}
	return s.companyRepo.Update(ctx, company)
}

// Delete removes a company. Companies with published assessments cannot be
// removed.
func (s *CompanyService) Delete(ctx context.Context, id int64) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.companyRepo.Delete(ctx, id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrDependencyExists
		}
		return fmt.Errorf("delete company: %w", err)
	}
	return nil
}

// Assessments lists the assessments published under one company.
func (s *CompanyService) Assessments(ctx context.Context, companyID int64) ([]model.Assessment, error) {
	if _, err := s.GetByID(ctx, companyID); err != nil {
		return nil, err
	}
	return s.assessmentRepo.ListByCompany(ctx, companyID)
}
