package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/assesshub/assesshub-backend/internal/model"
	"github.com/assesshub/assesshub-backend/internal/repository"
)

// Question validation errors.
var (
	ErrNoCorrectOption = errors.New("an MCQ question needs at least one correct option")
	ErrNoTestCases     = errors.New("a coding question needs at least one test case")
)

// QuestionService handles question bank business logic.
type QuestionService struct {
	questionRepo *repository.QuestionRepository
	sectionRepo  *repository.SectionRepository
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questionRepo *repository.QuestionRepository, sectionRepo *repository.SectionRepository) *QuestionService {
	return &QuestionService{questionRepo: questionRepo, sectionRepo: sectionRepo}
}

// GetByID retrieves a question with its options or test cases.
func (s *QuestionService) GetByID(ctx context.Context, id int64) (*model.Question, error) {
	q, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

// ListBySection retrieves a section's questions.
func (s *QuestionService) ListBySection(ctx context.Context, sectionID int64) ([]model.Question, error) {
	if _, err := s.sectionRepo.GetByID(ctx, sectionID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get section: %w", err)
	}
	return s.questionRepo.ListBySection(ctx, sectionID)
}

// Create validates and inserts a question with its children.
func (s *QuestionService) Create(ctx context.Context, q *model.Question) error {
	if err := validateQuestion(q); err != nil {
		return err
	}
	return s.questionRepo.Create(ctx, q)
}

// Update validates and replaces a question and its children. The question
// type is immutable after creation.
func (s *QuestionService) Update(ctx context.Context, q *model.Question) error {
	existing, err := s.GetByID(ctx, q.ID)
	if err != nil {
		return err
	}
	q.Type = existing.Type
	q.SectionID = existing.SectionID
	if err := validateQuestion(q); err != nil {
		return err
	}
	return s.questionRepo.Update(ctx, q)
}

// Delete removes a question; its options and test cases cascade.
func (s *QuestionService) Delete(ctx context.Context, id int64) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return s.questionRepo.Delete(ctx, id)
}

// validateQuestion enforces the per-type shape: MCQ questions are gradable
// only with a correct option, coding questions are runnable only with test
// cases.
func validateQuestion(q *model.Question) error {
	switch q.Type {
	case model.QuestionTypeMCQ:
		hasCorrect := false
		for _, o := range q.MCQOptions {
			if o.IsCorrect {
				hasCorrect = true
				break
			}
		}
		if !hasCorrect {
			return ErrNoCorrectOption
		}
	case model.QuestionTypeCoding:
		if len(q.TestCases) == 0 {
			return ErrNoTestCases
		}
	default:
		return fmt.Errorf("unknown question type %q", q.Type)
	}
	return nil
}
