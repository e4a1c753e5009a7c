package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/assesshub/assesshub-backend/internal/config"
	"github.com/assesshub/assesshub-backend/internal/model"
	"github.com/assesshub/assesshub-backend/internal/repository"
)

// ErrEmptyStructure is returned when an assessment declares no sections.
var ErrEmptyStructure = errors.New("assessment structure declares no sections")

// AssessmentService handles assessment business logic and the Redis fast
// lane: MCQ answer keys and durations are cached so grading and timer math
// never touch PostgreSQL on the hot path.
type AssessmentService struct {
	assessmentRepo *repository.AssessmentRepository
	sectionRepo    *repository.SectionRepository
	questionRepo   *repository.QuestionRepository
	rdb            *redis.Client
	log            zerolog.Logger
}

// NewAssessmentService creates a new AssessmentService.
func NewAssessmentService(
	assessmentRepo *repository.AssessmentRepository,
	sectionRepo *repository.SectionRepository,
	questionRepo *repository.QuestionRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *AssessmentService {
	return &AssessmentService{
		assessmentRepo: assessmentRepo,
		sectionRepo:    sectionRepo,
		questionRepo:   questionRepo,
		rdb:            rdb,
		log:            log.With().Str("component", "assessment_service").Logger(),
	}
}

// GetByID retrieves an assessment.
func (s *AssessmentService) GetByID(ctx context.Context, id int64) (*model.Assessment, error) {
	assessment, err := s.assessmentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get assessment: %w", err)
	}
	return assessment, nil
}

// ListPaginated retrieves assessments for admin screens.
func (s *AssessmentService) ListPaginated(ctx context.Context, limit, offset int) ([]model.Assessment, int, error) {
	return s.assessmentRepo.ListPaginated(ctx, limit, offset)
}

// ListByCompany retrieves assessments under one company.
func (s *AssessmentService) ListByCompany(ctx context.Context, companyID int64) ([]model.Assessment, error) {
	return s.assessmentRepo.ListByCompany(ctx, companyID)
}

// Create validates and inserts an assessment, then warms its cache.
func (s *AssessmentService) Create(ctx context.Context, assessment *model.Assessment) error {
	if len(assessment.SectionRefs()) == 0 {
		return ErrEmptyStructure
	}
	if err := s.assessmentRepo.Create(ctx, assessment); err != nil {
		return fmt.Errorf("create assessment: %w", err)
	}
	if err := s.WarmAssessmentCache(ctx, assessment); err != nil {
		s.log.Warn().Err(err).Int64("assessment_id", assessment.ID).Msg("Failed to warm cache after create")
	}
	return nil
}

// Update modifies an assessment and refreshes its cache.
func (s *AssessmentService) Update(ctx context.Context, assessment *model.Assessment) error {
	if _, err := s.GetByID(ctx, assessment.ID); err != nil {
		return err
	}
	if len(assessment.SectionRefs()) == 0 {
		return ErrEmptyStructure
	}
	if err := s.assessmentRepo.Update(ctx, assessment); err != nil {
		return fmt.Errorf("update assessment: %w", err)
	}
	if err := s.WarmAssessmentCache(ctx, assessment); err != nil {
		s.log.Warn().Err(err).Int64("assessment_id", assessment.ID).Msg("Failed to warm cache after update")
	}
	return nil
}

// Delete removes an assessment and drops its cache entries.
func (s *AssessmentService) Delete(ctx context.Context, id int64) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.assessmentRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete assessment: %w", err)
	}
	s.rdb.Del(ctx,
		config.CacheKey.AssessmentAnswerKey(id),
		config.CacheKey.AssessmentDurationKey(id))
	return nil
}

// WarmAssessmentCache loads an assessment's MCQ answer key and duration from
// PostgreSQL into Redis so the grading worker and timer math stay in RAM.
func (s *AssessmentService) WarmAssessmentCache(ctx context.Context, assessment *model.Assessment) error {
	sectionIDs, err := s.resolveSectionIDs(ctx, assessment)
	if err != nil {
		return err
	}

	answerKey, err := s.questionRepo.CorrectOptionsBySections(ctx, sectionIDs)
	if err != nil {
		return fmt.Errorf("build answer key: %w", err)
	}

	keyName := config.CacheKey.AssessmentAnswerKey(assessment.ID)
	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, keyName)
	if len(answerKey) > 0 {
		flat := make(map[string]interface{}, len(answerKey))
		for qid, text := range answerKey {
			flat[fmt.Sprintf("%d", qid)] = text
		}
		pipe.HSet(ctx, keyName, flat)
	}
	pipe.Set(ctx, config.CacheKey.AssessmentDurationKey(assessment.ID), assessment.DurationMinutes, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}

	s.log.Debug().
		Int64("assessment_id", assessment.ID).
		Int("key_entries", len(answerKey)).
		Msg("Cache warmed")
	return nil
}

// PrewarmAllCaches loads every assessment's answer key into Redis at
// startup so the first submission never waits on a cold cache.
func (s *AssessmentService) PrewarmAllCaches(ctx context.Context) error {
	const batch = 200
	warmed, offset := 0, 0
	for {
		assessments, total, err := s.assessmentRepo.ListPaginated(ctx, batch, offset)
		if err != nil {
			return fmt.Errorf("list assessments: %w", err)
		}
		for i := range assessments {
			if err := s.WarmAssessmentCache(ctx, &assessments[i]); err != nil {
				s.log.Warn().Err(err).
					Int64("assessment_id", assessments[i].ID).
					Msg("Failed to warm assessment, skipping")
				continue
			}
			warmed++
		}
		offset += len(assessments)
		if offset >= total || len(assessments) == 0 {
			break
		}
	}
	s.log.Info().Int("warmed", warmed).Msg("Prewarming complete")
	return nil
}

// GetAnswerKey retrieves the MCQ answer key from Redis, rebuilding it from
// PostgreSQL on a cache miss.
func (s *AssessmentService) GetAnswerKey(ctx context.Context, assessmentID int64) (map[string]string, error) {
	key := config.CacheKey.AssessmentAnswerKey(assessmentID)
	result, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("get answer key: %w", err)
	}
	if len(result) > 0 {
		return result, nil
	}

	// Self heal on miss.
	assessment, err := s.GetByID(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	if err := s.WarmAssessmentCache(ctx, assessment); err != nil {
		return nil, err
	}
	return s.rdb.HGetAll(ctx, key).Result()
}

// IsAvailable reports whether an assessment's scheduled window has opened.
func (s *AssessmentService) IsAvailable(assessment *model.Assessment) bool {
	if assessment.ScheduledAt == nil {
		return true
	}
	return !assessment.ScheduledAt.After(time.Now())
}

// resolveSectionIDs maps the declared structure onto concrete section IDs,
// using the same name fallback the session loader applies.
func (s *AssessmentService) resolveSectionIDs(ctx context.Context, assessment *model.Assessment) ([]int64, error) {
	refs := assessment.SectionRefs()
	ids := make([]int64, 0, len(refs))

	var all []model.Section
	for _, ref := range refs {
		if ref.ID != 0 {
			ids = append(ids, ref.ID)
			continue
		}
		if all == nil {
			list, err := s.sectionRepo.List(ctx)
			if err != nil {
				return nil, fmt.Errorf("list sections: %w", err)
			}
			all = list
		}
		for i := range all {
			if ref.Name != "" && strings.EqualFold(all[i].Name, ref.Name) {
				ids = append(ids, all[i].ID)
				break
			}
		}
	}
	return ids, nil
}
