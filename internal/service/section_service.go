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

// SectionService handles question bank section business logic.
type SectionService struct {
	sectionRepo *repository.SectionRepository
}

// NewSectionService creates a new SectionService.
func NewSectionService(sectionRepo *repository.SectionRepository) *SectionService {
	return &SectionService{sectionRepo: sectionRepo}
}

// GetByID retrieves a section.
func (s *SectionService) GetByID(ctx context.Context, id int64) (*model.Section, error) {
	section, err := s.sectionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get section: %w", err)
	}
	return section, nil
}

// List retrieves all sections in display order.
func (s *SectionService) List(ctx context.Context) ([]model.Section, error) {
	return s.sectionRepo.List(ctx)
}

// Create registers a new section.
func (s *SectionService) Create(ctx context.Context, section *model.Section) error {
	return s.sectionRepo.Create(ctx, section)
}

// Update modifies an existing section.
func (s *SectionService) Update(ctx context.Context, section *model.Section) error {
	if _, err := s.GetByID(ctx, section.ID); err != nil {
		return err
	}
	return s.sectionRepo.Update(ctx, section)
}

// Delete removes a section. Sections that still own questions cannot be
// removed.
func (s *SectionService) Delete(ctx context.Context, id int64) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.sectionRepo.Delete(ctx, id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrDependencyExists
		}
		return fmt.Errorf("delete section: %w", err)
	}
	return nil
}
