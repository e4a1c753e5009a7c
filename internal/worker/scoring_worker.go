package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/assesshub/assesshub-backend/internal/config"
	"github.com/assesshub/assesshub-backend/internal/model"
)

const (
	ScoreBatchSize    = 50
	ScoreBatchTimeout = 2 * time.Second
	ScorePollTimeout  = 1 * time.Second
)

// AnswerKeySource provides an assessment's MCQ answer key, rebuilding it
// from PostgreSQL when the cache entry is missing.
type AnswerKeySource interface {
	GetAnswerKey(ctx context.Context, assessmentID int64) (map[string]string, error)
}

// ScoringWorker consumes persist_submissions_queue, grades MCQ answers in
// RAM against the cached answer key and batch-writes scores to PostgreSQL.
// Coding questions are outside its scope; sandbox output is advisory only.
type ScoringWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	keys AnswerKeySource
	log  zerolog.Logger
}

// NewScoringWorker creates a new ScoringWorker.
func NewScoringWorker(pool *pgxpool.Pool, rdb *redis.Client, keys AnswerKeySource, log zerolog.Logger) *ScoringWorker {
	return &ScoringWorker{
		pool: pool,
		rdb:  rdb,
		keys: keys,
		log:  log.With().Str("component", "scoring_worker").Logger(),
	}
}

// graded is one scored submission awaiting persistence.
type graded struct {
	job     *model.SubmissionJob
	correct int
	score   float64
}

// Start begins the batching worker loop. Call in a goroutine.
func (w *ScoringWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	batch := make([]*graded, 0, ScoreBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= ScoreBatchSize || time.Since(lastFlush) >= ScoreBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, ScorePollTimeout, config.WorkerKey.PersistSubmissionsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if len(item) < 2 {
				continue
			}

			var job model.SubmissionJob
			if err := json.Unmarshal([]byte(item[1]), &job); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			g, err := w.grade(ctx, &job)
			if err != nil {
				w.log.Error().Err(err).
					Int64("assessment_id", job.AssessmentID).
					Int64("user_ref", job.UserRef).
					Msg("Grading failed, requeueing")
				w.rdb.RPush(ctx, config.WorkerKey.PersistSubmissionsQueue, item[1])
				time.Sleep(time.Second)
				continue
			}
			batch = append(batch, g)
		}
	}
}

// grade scores one submission against the MCQ answer key. The key source
// self-heals a lost cache entry from PostgreSQL, so a Redis restart between
// prewarm and submission cannot silently zero a score. The score is the
// share of key questions answered correctly, on a 0-100 scale.
func (w *ScoringWorker) grade(ctx context.Context, job *model.SubmissionJob) (*graded, error) {
	answerKey, err := w.keys.GetAnswerKey(ctx, job.AssessmentID)
	if err != nil {
		return nil, err
	}

	correct := 0
	for qid, expected := range answerKey {
		if got, ok := job.Answers[qid]; ok && got == expected {
			correct++
		}
	}

	score := 0.0
	if len(answerKey) > 0 {
		score = float64(correct) / float64(len(answerKey)) * 100
	}

	return &graded{job: job, correct: correct, score: score}, nil
}

func (w *ScoringWorker) flushSafe(ctx context.Context, batch []*graded) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkUpdateScores(ctx, batch); err != nil {
		w.log.Warn().Err(err).Msg("Bulk score update failed, using fallback")

		for _, g := range batch {
			if err := w.persistSingle(ctx, g); err != nil {
				w.log.Error().Err(err).Msg("Single score update failed, requeueing")
				raw, _ := json.Marshal(g.job)
				w.rdb.RPush(ctx, config.WorkerKey.PersistSubmissionsQueue, raw)
			}
		}
		return
	}

	w.clearAutosaveBuffers(ctx, batch)
	w.log.Debug().Int("count", len(batch)).Msg("Batch scored")
}

// bulkUpdateScores writes a whole batch with one UNNEST UPDATE.
func (w *ScoringWorker) bulkUpdateScores(ctx context.Context, batch []*graded) error {
	n := len(batch)

	assessmentIDs := make([]int64, 0, n)
	userRefs := make([]int64, 0, n)
	corrects := make([]int, 0, n)
	scores := make([]float64, 0, n)

	for _, g := range batch {
		assessmentIDs = append(assessmentIDs, g.job.AssessmentID)
		userRefs = append(userRefs, g.job.UserRef)
		corrects = append(corrects, g.correct)
		scores = append(scores, g.score)
	}

	_, err := w.pool.Exec(ctx, `
		UPDATE attempts AS a
		SET status = 'EVALUATED',
		    correct_answers = t.correct,
		    total_score = t.score
		FROM (
			SELECT
				u.assessment_id,
				u.user_ref,
				u.correct,
				u.score
			FROM UNNEST($1::bigint[], $2::bigint[], $3::int[], $4::float8[])
				AS u(assessment_id, user_ref, correct, score)
		) AS t
		WHERE a.assessment_id = t.assessment_id
		  AND a.user_ref = t.user_ref
		  AND a.status = 'COMPLETED'`,
		assessmentIDs, userRefs, corrects, scores)
	return err
}

func (w *ScoringWorker) persistSingle(ctx context.Context, g *graded) error {
	_, err := w.pool.Exec(ctx,
		`UPDATE attempts
		 SET status = 'EVALUATED', correct_answers = $1, total_score = $2
		 WHERE assessment_id = $3 AND user_ref = $4 AND status = 'COMPLETED'`,
		g.correct, g.score, g.job.AssessmentID, g.job.UserRef)
	return err
}

// clearAutosaveBuffers drops the per-candidate answer hashes once scores
// are durable.
func (w *ScoringWorker) clearAutosaveBuffers(ctx context.Context, batch []*graded) {
	keys := make([]string, 0, len(batch))
	for _, g := range batch {
		keys = append(keys, config.CacheKey.SessionAnswersKey(g.job.AssessmentID, g.job.UserRef))
	}
	if err := w.rdb.Del(ctx, keys...).Err(); err != nil {
		w.log.Warn().Err(err).Msg("Failed to clear autosave buffers")
	}
}
