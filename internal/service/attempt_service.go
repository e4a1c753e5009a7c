package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/assesshub/assesshub-backend/internal/config"
	"github.com/assesshub/assesshub-backend/internal/model"
	"github.com/assesshub/assesshub-backend/internal/repository"
	"github.com/assesshub/assesshub-backend/internal/session"
)

// Attempt flow errors.
var (
	ErrAssessmentUnavailable = errors.New("assessment is not open yet")
	ErrAttemptCompleted      = errors.New("attempt has already been submitted")
	ErrNoActiveSession       = errors.New("no active session for this assessment")
)

// AttemptService handles the candidate attempt lifecycle: starting an
// attempt, autosaving answers through Redis, and persisting the final
// submission. It also backs the live session engine as its Loader and
// Submitter.
type AttemptService struct {
	attemptRepo    *repository.AttemptRepository
	assessmentRepo *repository.AssessmentRepository
	sectionRepo    *repository.SectionRepository
	questionRepo   *repository.QuestionRepository
	assessmentSvc  *AssessmentService
	rdb            *redis.Client
	log            zerolog.Logger
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(
	attemptRepo *repository.AttemptRepository,
	assessmentRepo *repository.AssessmentRepository,
	sectionRepo *repository.SectionRepository,
	questionRepo *repository.QuestionRepository,
	assessmentSvc *AssessmentService,
	rdb *redis.Client,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		attemptRepo:    attemptRepo,
		assessmentRepo: assessmentRepo,
		sectionRepo:    sectionRepo,
		questionRepo:   questionRepo,
		assessmentSvc:  assessmentSvc,
		rdb:            rdb,
		log:            log.With().Str("component", "attempt_service").Logger(),
	}
}

// Start opens (or resumes) an attempt. Concurrent starts collapse to one row
// through the unique (assessment, candidate) constraint; a finished attempt
// cannot be restarted.
func (s *AttemptService) Start(ctx context.Context, assessmentID, userRef int64, ipAddress string) (*model.Attempt, error) {
	assessment, err := s.assessmentSvc.GetByID(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	if !s.assessmentSvc.IsAvailable(assessment) {
		return nil, ErrAssessmentUnavailable
	}

	existing, err := s.attemptRepo.GetByAssessmentAndUser(ctx, assessmentID, userRef)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check existing attempt: %w", err)
	}
	if existing != nil {
		if existing.Status == model.AttemptStatusCompleted || existing.Status == model.AttemptStatusEvaluated {
			return nil, ErrAttemptCompleted
		}
		s.cacheStart(ctx, existing)
		return existing, nil
	}

	attempt := &model.Attempt{
		AssessmentID: assessmentID,
		UserRef:      userRef,
		Status:       model.AttemptStatusInProgress,
		IPAddress:    ipAddress,
	}
	if err := s.attemptRepo.Create(ctx, attempt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost the race against a concurrent start on another tab.
			existing, fetchErr := s.attemptRepo.GetByAssessmentAndUser(ctx, assessmentID, userRef)
			if fetchErr != nil {
				return nil, fmt.Errorf("concurrent start detected, fetch failed: %w", fetchErr)
			}
			s.cacheStart(ctx, existing)
			return existing, nil
		}
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	s.cacheStart(ctx, attempt)
	return attempt, nil
}

// cacheStart records the attempt start time and the candidate's active
// assessment in Redis. Failures degrade to the PostgreSQL fallback.
func (s *AttemptService) cacheStart(ctx context.Context, attempt *model.Attempt) {
	if attempt.StartedAt == nil {
		return
	}
	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.SessionStartKey(attempt.AssessmentID, attempt.UserRef), attempt.StartedAt.Unix(), 0)
	pipe.Set(ctx, config.CacheKey.UserActiveAssessmentKey(attempt.UserRef), attempt.AssessmentID, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Failed to cache attempt start time")
	}
}

// VerifyActive checks that a candidate holds an unfinished attempt on the
// given assessment.
func (s *AttemptService) VerifyActive(ctx context.Context, assessmentID, userRef int64) error {
	attempt, err := s.attemptRepo.GetByAssessmentAndUser(ctx, assessmentID, userRef)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNoActiveSession
		}
		return fmt.Errorf("get attempt: %w", err)
	}
	if attempt.Status == model.AttemptStatusCompleted || attempt.Status == model.AttemptStatusEvaluated {
		return ErrAttemptCompleted
	}
	return nil
}

// RemainingSeconds computes the countdown for an attempt from the cached
// start time, falling back to PostgreSQL when the cache entry was evicted.
func (s *AttemptService) RemainingSeconds(ctx context.Context, assessmentID, userRef int64) (int, error) {
	durationStr, err := s.rdb.Get(ctx, config.CacheKey.AssessmentDurationKey(assessmentID)).Result()
	var durationMinutes int
	if err == nil {
		durationMinutes, err = strconv.Atoi(durationStr)
	}
	if err != nil {
		assessment, dbErr := s.assessmentSvc.GetByID(ctx, assessmentID)
		if dbErr != nil {
			return 0, dbErr
		}
		durationMinutes = assessment.DurationMinutes
	}

	var startUnix int64
	startKey := config.CacheKey.SessionStartKey(assessmentID, userRef)
	val, err := s.rdb.Get(ctx, startKey).Result()
	switch {
	case errors.Is(err, redis.Nil):
		attempt, dbErr := s.attemptRepo.GetByAssessmentAndUser(ctx, assessmentID, userRef)
		if dbErr != nil || attempt.StartedAt == nil {
			return 0, ErrNoActiveSession
		}
		startUnix = attempt.StartedAt.Unix()
		_ = s.rdb.Set(ctx, startKey, startUnix, 0).Err()
	case err != nil:
		return 0, fmt.Errorf("get start time: %w", err)
	default:
		startUnix, err = strconv.ParseInt(val, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid start time in cache: %w", err)
		}
	}

	deadline := time.Unix(startUnix, 0).Add(time.Duration(durationMinutes) * time.Minute)
	remaining := int(time.Until(deadline).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// EnqueueAnswer buffers one answer in Redis and queues it for background
// persistence. It is the session engine's answer sink and must not block
// the request path on PostgreSQL.
func (s *AttemptService) EnqueueAnswer(assessmentID, userRef, questionID int64, answer string) {
	ctx := context.Background()
	qid := strconv.FormatInt(questionID, 10)

	if err := s.rdb.HSet(ctx, config.CacheKey.SessionAnswersKey(assessmentID, userRef), qid, answer).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to buffer answer in Redis")
	}

	raw, err := json.Marshal(model.AnswerJob{
		UserRef:      userRef,
		AssessmentID: assessmentID,
		QuestionID:   questionID,
		Answer:       answer,
	})
	if err != nil {
		return
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, raw).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to enqueue answer job")
	}
}

// Submit persists a finished attempt and queues it for grading. It is the
// session engine's submitter; an error here keeps the session alive.
func (s *AttemptService) Submit(ctx context.Context, sub session.Submission) error {
	attempt, err := s.attemptRepo.GetByAssessmentAndUser(ctx, sub.AssessmentID, sub.UserRef)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNoActiveSession
		}
		return fmt.Errorf("get attempt: %w", err)
	}
	if attempt.Status == model.AttemptStatusCompleted || attempt.Status == model.AttemptStatusEvaluated {
		return ErrAttemptCompleted
	}

	flat := make(map[string]string, len(sub.Answers))
	for qid, answer := range sub.Answers {
		flat[strconv.FormatInt(qid, 10)] = answer
	}
	raw, err := json.Marshal(flat)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}

	timeTaken := 0
	if attempt.StartedAt != nil {
		timeTaken = int(time.Since(*attempt.StartedAt).Minutes())
	}

	if err := s.attemptRepo.Complete(ctx, sub.AssessmentID, sub.UserRef,
		raw, sub.Reason.Method(), sub.BrowserInfo, attempt.IPAddress, timeTaken); err != nil {
		return fmt.Errorf("complete attempt: %w", err)
	}

	job, err := json.Marshal(model.SubmissionJob{
		UserRef:      sub.UserRef,
		AssessmentID: sub.AssessmentID,
		Answers:      flat,
	})
	if err == nil {
		if err := s.rdb.RPush(ctx, config.WorkerKey.PersistSubmissionsQueue, job).Err(); err != nil {
			s.log.Error().Err(err).Msg("Failed to enqueue grading job")
		}
	}

	// The attempt is final; drop the session scratch state.
	s.rdb.Del(ctx,
		config.CacheKey.SessionStartKey(sub.AssessmentID, sub.UserRef),
		config.CacheKey.SessionAnswersKey(sub.AssessmentID, sub.UserRef),
		config.CacheKey.UserActiveAssessmentKey(sub.UserRef))

	s.log.Info().
		Int64("assessment_id", sub.AssessmentID).
		Int64("user_ref", sub.UserRef).
		Str("method", string(sub.Reason.Method())).
		Int("answers", len(flat)).
		Msg("Attempt submitted")
	return nil
}

// GetAttempt retrieves one candidate's attempt on an assessment.
func (s *AttemptService) GetAttempt(ctx context.Context, assessmentID, userRef int64) (*model.Attempt, error) {
	attempt, err := s.attemptRepo.GetByAssessmentAndUser(ctx, assessmentID, userRef)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	return attempt, nil
}

// ListMyAttempts retrieves a candidate's attempt history.
func (s *AttemptService) ListMyAttempts(ctx context.Context, userRef int64) ([]model.AttemptSummary, error) {
	return s.attemptRepo.ListByUser(ctx, userRef)
}

// ListByAssessment retrieves attempts on one assessment for admin result
// screens.
func (s *AttemptService) ListByAssessment(ctx context.Context, assessmentID int64, limit, offset int) ([]model.Attempt, int, error) {
	return s.attemptRepo.ListByAssessment(ctx, assessmentID, limit, offset)
}

// SessionLoader adapts the repositories to the live session engine. All
// questions cross this boundary in their candidate-safe projection.
type SessionLoader struct {
	assessmentRepo *repository.AssessmentRepository
	sectionRepo    *repository.SectionRepository
	questionRepo   *repository.QuestionRepository
}

// NewSessionLoader creates a loader over the persistence layer.
func NewSessionLoader(
	assessmentRepo *repository.AssessmentRepository,
	sectionRepo *repository.SectionRepository,
	questionRepo *repository.QuestionRepository,
) *SessionLoader {
	return &SessionLoader{
		assessmentRepo: assessmentRepo,
		sectionRepo:    sectionRepo,
		questionRepo:   questionRepo,
	}
}

// Assessment loads the assessment record.
func (l *SessionLoader) Assessment(ctx context.Context, id int64) (*model.Assessment, error) {
	return l.assessmentRepo.GetByID(ctx, id)
}

// SectionByID loads one section.
func (l *SessionLoader) SectionByID(ctx context.Context, id int64) (*model.Section, error) {
	return l.sectionRepo.GetByID(ctx, id)
}

// Sections loads the full section list for fallback resolution.
func (l *SessionLoader) Sections(ctx context.Context) ([]model.Section, error) {
	return l.sectionRepo.List(ctx)
}

// QuestionsBySection loads a section's questions stripped of correct
// options and hidden test case data.
func (l *SessionLoader) QuestionsBySection(ctx context.Context, sectionID int64) ([]model.CandidateQuestion, error) {
	questions, err := l.questionRepo.ListBySection(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	out := make([]model.CandidateQuestion, len(questions))
	for i := range questions {
		out[i] = questions[i].ForCandidate()
	}
	return out, nil
}
