package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/assesshub/assesshub-backend/internal/model"
)

// fakeKeySource serves a fixed answer key, standing in for the service-level
// source that rebuilds lost cache entries from PostgreSQL.
type fakeKeySource struct {
	key   map[string]string
	err   error
	calls int
}

func (f *fakeKeySource) GetAnswerKey(ctx context.Context, assessmentID int64) (map[string]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.key, nil
}

func TestGradeScoresAgainstAnswerKey(t *testing.T) {
	keys := &fakeKeySource{key: map[string]string{
		"1": "A", "2": "B", "3": "C", "4": "D",
	}}
	w := &ScoringWorker{keys: keys, log: zerolog.Nop()}

	g, err := w.grade(context.Background(), &model.SubmissionJob{
		AssessmentID: 5,
		UserRef:      7,
		Answers:      map[string]string{"1": "A", "2": "B", "3": "X"},
	})
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if g.correct != 2 {
		t.Fatalf("correct = %d, want 2", g.correct)
	}
	if g.score != 50 {
		t.Fatalf("score = %v, want 50", g.score)
	}
	if keys.calls != 1 {
		t.Fatalf("key source called %d times, want 1", keys.calls)
	}
}

func TestGradeEmptyKeyScoresZero(t *testing.T) {
	// All-coding assessments have no MCQ key; the attempt still evaluates.
	w := &ScoringWorker{keys: &fakeKeySource{key: map[string]string{}}, log: zerolog.Nop()}

	g, err := w.grade(context.Background(), &model.SubmissionJob{
		AssessmentID: 5,
		UserRef:      7,
		Answers:      map[string]string{"9": "print(42)"},
	})
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if g.correct != 0 || g.score != 0 {
		t.Fatalf("correct = %d score = %v, want 0 and 0", g.correct, g.score)
	}
}

func TestGradeFailsWhenKeyUnavailable(t *testing.T) {
	// A failed key load must surface so the job is requeued instead of
	// being evaluated with a silent zero.
	keys := &fakeKeySource{err: errors.New("redis down")}
	w := &ScoringWorker{keys: keys, log: zerolog.Nop()}

	if _, err := w.grade(context.Background(), &model.SubmissionJob{
		AssessmentID: 5,
		UserRef:      7,
		Answers:      map[string]string{"1": "A"},
	}); err == nil {
		t.Fatal("grade should fail when the answer key cannot be loaded")
	}
}
