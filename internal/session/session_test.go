package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/assesshub/assesshub-backend/internal/model"
)

// fakeLoader serves a fixed catalog from memory.
type fakeLoader struct {
	assessment    *model.Assessment
	assessmentErr error
	sections      []model.Section
	questions     map[int64][]model.CandidateQuestion
	questionErrs  map[int64]error
}

func (f *fakeLoader) Assessment(ctx context.Context, id int64) (*model.Assessment, error) {
	if f.assessmentErr != nil {
		return nil, f.assessmentErr
	}
	return f.assessment, nil
}

func (f *fakeLoader) SectionByID(ctx context.Context, id int64) (*model.Section, error) {
	for i := range f.sections {
		if f.sections[i].ID == id {
			return &f.sections[i], nil
		}
	}
	return nil, errors.New("section not found")
}

func (f *fakeLoader) Sections(ctx context.Context) ([]model.Section, error) {
	return f.sections, nil
}

func (f *fakeLoader) QuestionsBySection(ctx context.Context, sectionID int64) ([]model.CandidateQuestion, error) {
	if err, ok := f.questionErrs[sectionID]; ok {
		return nil, err
	}
	return f.questions[sectionID], nil
}

// fakeSubmitter counts deliveries and can fail the first N calls.
type fakeSubmitter struct {
	mu       sync.Mutex
	calls    int32
	failNext int
	last     Submission
}

func (f *fakeSubmitter) Submit(ctx context.Context, sub Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext > 0 {
		f.failNext--
		return errors.New("persistence down")
	}
	atomic.AddInt32(&f.calls, 1)
	f.last = sub
	return nil
}

func (f *fakeSubmitter) count() int32 {
	return atomic.LoadInt32(&f.calls)
}

func structureOf(refs ...interface{}) json.RawMessage {
	doc := map[string]interface{}{"sections": refs}
	raw, _ := json.Marshal(doc)
	return raw
}

func questionsFor(sectionID int64, n int) []model.CandidateQuestion {
	qs := make([]model.CandidateQuestion, n)
	for i := range qs {
		qs[i] = model.CandidateQuestion{
			ID:           sectionID*100 + int64(i),
			SectionID:    sectionID,
			QuestionText: fmt.Sprintf("q%d", i),
			Type:         model.QuestionTypeMCQ,
		}
	}
	return qs
}

func newTestLoader() *fakeLoader {
	return &fakeLoader{
		assessment: &model.Assessment{
			ID:              1,
			Name:            "Screening",
			DurationMinutes: 1,
			Structure:       structureOf(10, 20),
		},
		sections: []model.Section{
			{ID: 10, Name: "Aptitude"},
			{ID: 20, Name: "Coding"},
		},
		questions: map[int64][]model.CandidateQuestion{
			10: questionsFor(10, 2),
			20: questionsFor(20, 3),
		},
	}
}

func newTestSession(t *testing.T, loader *fakeLoader, submitter Submitter, sink AnswerSink) *Session {
	t.Helper()
	s := New(1, 7, "test-browser", loader, submitter, sink, zerolog.Nop())
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if got := s.State(); got != StateActive {
		t.Fatalf("state after init = %s, want %s", got, StateActive)
	}
	return s
}

func TestInitializeResolvesOnlyDeclaredSections(t *testing.T) {
	loader := newTestLoader()
	loader.sections = append(loader.sections, model.Section{ID: 30, Name: "Unlisted"})

	s := newTestSession(t, loader, &fakeSubmitter{}, nil)

	ids := s.SectionIDs()
	if len(ids) != 2 || ids[0] != 10 || ids[1] != 20 {
		t.Fatalf("resolved sections = %v, want [10 20]", ids)
	}
}

func TestInitializeResolvesMixedRefFormats(t *testing.T) {
	loader := newTestLoader()
	loader.assessment.Structure = structureOf(
		10,                                     // bare number
		"20",                                   // numeric string
		"Aptitude",                             // legacy name, duplicate of 10
		map[string]interface{}{"id": 20},       // object form, duplicate of 20
		map[string]interface{}{"name": "CODING"}, // case-insensitive name
		999, // unknown, dropped
	)

	s := newTestSession(t, loader, &fakeSubmitter{}, nil)

	ids := s.SectionIDs()
	if len(ids) != 2 || ids[0] != 10 || ids[1] != 20 {
		t.Fatalf("resolved sections = %v, want [10 20]", ids)
	}
}

func TestInitializeAssessmentErrorIsFatal(t *testing.T) {
	loader := newTestLoader()
	loader.assessmentErr = errors.New("db down")

	s := New(1, 7, "", loader, &fakeSubmitter{}, nil, zerolog.Nop())
	if err := s.Initialize(context.Background()); err == nil {
		t.Fatal("Initialize should fail when the assessment cannot be fetched")
	}
	if got := s.State(); got != StateLoading {
		t.Fatalf("state = %s, want %s", got, StateLoading)
	}
}

func TestInitializeQuestionFetchFailureKeepsSectionEmpty(t *testing.T) {
	loader := newTestLoader()
	loader.questionErrs = map[int64]error{10: errors.New("timeout")}

	s := newTestSession(t, loader, &fakeSubmitter{}, nil)

	// Section 10 survives with zero questions; the cursor lands on the
	// first section that actually has one.
	if ids := s.SectionIDs(); len(ids) != 2 {
		t.Fatalf("sections = %v, want both kept", ids)
	}
	q, ok := s.CurrentQuestion()
	if !ok || q.SectionID != 20 {
		t.Fatalf("cursor question = %+v (ok=%v), want a section 20 question", q, ok)
	}
}

func TestRecordAnswerLastWriteWins(t *testing.T) {
	var sunk []string
	sink := func(assessmentID, userRef, questionID int64, value string) {
		sunk = append(sunk, value)
	}
	s := newTestSession(t, newTestLoader(), &fakeSubmitter{}, sink)

	if err := s.RecordAnswer(1000, "A"); err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}
	if err := s.RecordAnswer(1000, "B"); err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}

	if v, ok := s.Answer(1000); !ok || v != "B" {
		t.Fatalf("answer = %q (ok=%v), want B", v, ok)
	}
	if len(sunk) != 2 {
		t.Fatalf("sink saw %d writes, want 2", len(sunk))
	}
}

func TestAnswersSurviveNavigation(t *testing.T) {
	s := newTestSession(t, newTestLoader(), &fakeSubmitter{}, nil)

	_ = s.RecordAnswer(1000, "first")
	s.Advance()
	s.Advance()
	_ = s.RecordAnswer(2000, "second")
	s.Retreat()
	s.Retreat()

	if v, _ := s.Answer(1000); v != "first" {
		t.Fatalf("answer 1000 = %q, want first", v)
	}
	if v, _ := s.Answer(2000); v != "second" {
		t.Fatalf("answer 2000 = %q, want second", v)
	}
}

func TestNavigationClampsAndCrossesSections(t *testing.T) {
	s := newTestSession(t, newTestLoader(), &fakeSubmitter{}, nil)

	// 2 questions in section 10, 3 in section 20: five advances must land
	// and stay on the last question.
	for i := 0; i < 10; i++ {
		s.Advance()
	}
	if sec, q := s.Position(); sec != 1 || q != 2 {
		t.Fatalf("position after advances = (%d,%d), want (1,2)", sec, q)
	}

	for i := 0; i < 10; i++ {
		s.Retreat()
	}
	if sec, q := s.Position(); sec != 0 || q != 0 {
		t.Fatalf("position after retreats = (%d,%d), want (0,0)", sec, q)
	}
}

func TestNavigationSkipsEmptySection(t *testing.T) {
	loader := newTestLoader()
	loader.assessment.Structure = structureOf(10, 20, 30)
	loader.sections = append(loader.sections, model.Section{ID: 30, Name: "Extra"})
	loader.questions[20] = nil // middle section is empty
	loader.questions[30] = questionsFor(30, 1)

	s := newTestSession(t, loader, &fakeSubmitter{}, nil)

	s.Advance() // 10/0 -> 10/1
	s.Advance() // 10/1 -> 30/0, skipping empty 20
	q, ok := s.CurrentQuestion()
	if !ok || q.SectionID != 30 {
		t.Fatalf("cursor question = %+v (ok=%v), want section 30", q, ok)
	}

	s.Retreat() // back over the empty section
	q, _ = s.CurrentQuestion()
	if q.SectionID != 10 {
		t.Fatalf("cursor question after retreat in section %d, want 10", q.SectionID)
	}
}

func TestTickAutoSubmitsExactlyOnce(t *testing.T) {
	submitter := &fakeSubmitter{}
	s := newTestSession(t, newTestLoader(), submitter, nil)
	_ = s.RecordAnswer(1000, "A")

	ctx := context.Background()
	// DurationMinutes is 1, so the 60th tick crosses zero.
	for i := 0; i < 59; i++ {
		s.Tick(ctx)
	}
	if got := submitter.count(); got != 0 {
		t.Fatalf("submitter called %d times before expiry", got)
	}
	if got := s.Remaining(); got != 1 {
		t.Fatalf("remaining = %d, want 1", got)
	}

	s.Tick(ctx)
	if got := submitter.count(); got != 1 {
		t.Fatalf("submitter called %d times at expiry, want 1", got)
	}
	if submitter.last.Reason != SubmitTimeExpired {
		t.Fatalf("reason = %s, want %s", submitter.last.Reason, SubmitTimeExpired)
	}
	if submitter.last.Answers[1000] != "A" {
		t.Fatal("expiry submission lost the recorded answer")
	}

	// Late ticks change nothing.
	s.Tick(ctx)
	s.Tick(ctx)
	if got := submitter.count(); got != 1 {
		t.Fatalf("submitter called %d times after expiry, want 1", got)
	}
	if got := s.State(); got != StateTerminated {
		t.Fatalf("state = %s, want %s", got, StateTerminated)
	}
}

func TestConcurrentSubmitDeliversOnce(t *testing.T) {
	submitter := &fakeSubmitter{}
	s := newTestSession(t, newTestLoader(), submitter, nil)

	const racers = 16
	var wg sync.WaitGroup
	var successes, rejected int32
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Submit(context.Background(), SubmitManual)
			switch {
			case err == nil:
				atomic.AddInt32(&successes, 1)
			case errors.Is(err, ErrSubmitInFlight) || errors.Is(err, ErrNotActive):
				atomic.AddInt32(&rejected, 1)
			default:
				t.Errorf("unexpected submit error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("successes = %d, want exactly 1", successes)
	}
	if rejected != racers-1 {
		t.Fatalf("rejected = %d, want %d", rejected, racers-1)
	}
	if got := submitter.count(); got != 1 {
		t.Fatalf("submitter called %d times, want 1", got)
	}
}

func TestSubmitFailureKeepsSessionActive(t *testing.T) {
	submitter := &fakeSubmitter{failNext: 1}
	s := newTestSession(t, newTestLoader(), submitter, nil)
	_ = s.RecordAnswer(1000, "kept")

	if err := s.Submit(context.Background(), SubmitManual); err == nil {
		t.Fatal("first submit should fail")
	}
	if got := s.State(); got != StateActive {
		t.Fatalf("state after failed submit = %s, want %s", got, StateActive)
	}
	if v, ok := s.Answer(1000); !ok || v != "kept" {
		t.Fatalf("answer after failed submit = %q (ok=%v), want kept", v, ok)
	}

	// Retry succeeds and carries the same answers.
	if err := s.Submit(context.Background(), SubmitManual); err != nil {
		t.Fatalf("retry submit: %v", err)
	}
	if submitter.last.Answers[1000] != "kept" {
		t.Fatal("retry submission lost the recorded answer")
	}
	if got := s.State(); got != StateTerminated {
		t.Fatalf("state = %s, want %s", got, StateTerminated)
	}
}

func TestSubmitAfterTerminationRejected(t *testing.T) {
	submitter := &fakeSubmitter{}
	s := newTestSession(t, newTestLoader(), submitter, nil)

	if err := s.Submit(context.Background(), SubmitManual); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := s.Submit(context.Background(), SubmitManual); !errors.Is(err, ErrNotActive) {
		t.Fatalf("second submit err = %v, want %v", err, ErrNotActive)
	}
	if got := submitter.count(); got != 1 {
		t.Fatalf("submitter called %d times, want 1", got)
	}
}

// stallingSubmitter blocks inside Submit until released so tests can observe
// the SUBMITTING window.
type stallingSubmitter struct {
	entered chan struct{}
	release chan struct{}
}

func (f *stallingSubmitter) Submit(ctx context.Context, sub Submission) error {
	close(f.entered)
	<-f.release
	return nil
}

func TestSubmitWhileInFlightReportsInFlight(t *testing.T) {
	submitter := &stallingSubmitter{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := newTestSession(t, newTestLoader(), submitter, nil)

	firstErr := make(chan error, 1)
	go func() {
		firstErr <- s.Submit(context.Background(), SubmitManual)
	}()
	<-submitter.entered

	// The first submission is still running, so the loser sees the race,
	// not a dead session.
	if err := s.Submit(context.Background(), SubmitManual); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("racing submit err = %v, want %v", err, ErrSubmitInFlight)
	}

	close(submitter.release)
	if err := <-firstErr; err != nil {
		t.Fatalf("first submit: %v", err)
	}

	// Once the session finished, late callers get the terminal error.
	if err := s.Submit(context.Background(), SubmitManual); !errors.Is(err, ErrNotActive) {
		t.Fatalf("late submit err = %v, want %v", err, ErrNotActive)
	}
}

func TestSyncRemainingOnlyShortens(t *testing.T) {
	s := newTestSession(t, newTestLoader(), &fakeSubmitter{}, nil)

	s.SyncRemaining(3600)
	if got := s.Remaining(); got != 60 {
		t.Fatalf("remaining after longer sync = %d, want 60", got)
	}

	s.SyncRemaining(5)
	if got := s.Remaining(); got != 5 {
		t.Fatalf("remaining after shorter sync = %d, want 5", got)
	}
}

func TestSyncRemainingZeroStillExpires(t *testing.T) {
	submitter := &fakeSubmitter{}
	s := newTestSession(t, newTestLoader(), submitter, nil)

	// A restarted process may compute zero seconds left; the session must
	// still go through the normal expiry submit on the next tick.
	s.SyncRemaining(0)
	if got := s.Remaining(); got != 1 {
		t.Fatalf("remaining after zero sync = %d, want 1", got)
	}

	s.Tick(context.Background())
	if got := submitter.count(); got != 1 {
		t.Fatalf("submitter called %d times, want 1", got)
	}
	if submitter.last.Reason != SubmitTimeExpired {
		t.Fatalf("reason = %s, want %s", submitter.last.Reason, SubmitTimeExpired)
	}
}

func TestRecordAnswerRejectedWhenNotActive(t *testing.T) {
	s := newTestSession(t, newTestLoader(), &fakeSubmitter{}, nil)
	s.Terminate()

	if err := s.RecordAnswer(1000, "late"); !errors.Is(err, ErrNotActive) {
		t.Fatalf("err = %v, want %v", err, ErrNotActive)
	}
}

func TestSnapshotCopiesAnswers(t *testing.T) {
	s := newTestSession(t, newTestLoader(), &fakeSubmitter{}, nil)
	_ = s.RecordAnswer(1000, "A")

	snap := s.Snapshot()
	snap.Answers[1000] = "mutated"

	if v, _ := s.Answer(1000); v != "A" {
		t.Fatalf("session answer = %q, snapshot mutation leaked", v)
	}
	if snap.RemainingSecond != 60 || snap.DurationMinutes != 1 {
		t.Fatalf("snapshot timer fields = (%d, %d), want (60, 1)",
			snap.RemainingSecond, snap.DurationMinutes)
	}
}
