package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/assesshub/assesshub-backend/internal/model"
)

// State is the lifecycle phase of a live session.
type State string

const (
	StateLoading    State = "LOADING"
	StateActive     State = "ACTIVE"
	StateSubmitting State = "SUBMITTING"
	StateTerminated State = "TERMINATED"
)

// SubmitReason records what triggered a submission.
type SubmitReason string

const (
	SubmitManual      SubmitReason = "MANUAL"
	SubmitTimeExpired SubmitReason = "TIME_EXPIRED"
)

// Method maps a submit reason onto the persisted submission method.
func (r SubmitReason) Method() model.SubmissionMethod {
	if r == SubmitTimeExpired {
		return model.SubmissionTimeExpired
	}
	return model.SubmissionManual
}

var (
	// ErrSubmitInFlight is returned to callers that lose the submission race.
	ErrSubmitInFlight = errors.New("submission already in flight")
	// ErrNotActive is returned for operations that need an ACTIVE session.
	ErrNotActive = errors.New("session is not active")
)

// Loader resolves an assessment's structure into sections and questions.
// Implementations sit on top of the question/assessment stores.
type Loader interface {
	Assessment(ctx context.Context, id int64) (*model.Assessment, error)
	SectionByID(ctx context.Context, id int64) (*model.Section, error)
	Sections(ctx context.Context) ([]model.Section, error)
	QuestionsBySection(ctx context.Context, sectionID int64) ([]model.CandidateQuestion, error)
}

// Submission is the package handed to the Submitter exactly once per attempt.
type Submission struct {
	AssessmentID int64
	UserRef      int64
	Answers      map[int64]string
	Reason       SubmitReason
	BrowserInfo  string
}

// Submitter delivers a finished attempt. A returned error keeps the session
// alive so the candidate can retry without losing answers.
type Submitter interface {
	Submit(ctx context.Context, sub Submission) error
}

// AnswerSink observes every recorded answer, e.g. to feed the autosave lane.
// It must not block.
type AnswerSink func(assessmentID, userRef, questionID int64, value string)

// Session is the single source of truth for one candidate's in-progress run
// at one assessment: cursor position, answer map and countdown. All methods
// are safe for concurrent use; the submit guard is a plain check-and-set.
type Session struct {
	AssessmentID int64
	UserRef      int64

	loader    Loader
	submitter Submitter
	sink      AnswerSink
	log       zerolog.Logger

	mu         sync.Mutex
	state      State
	assessment *model.Assessment
	sections   []model.Section
	questions  map[int64][]model.CandidateQuestion
	secIdx     int
	qIdx       int
	answers    map[int64]string
	remaining  int
	expired    bool // the zero-crossing auto submit has fired
	delivered  bool // the submitter accepted the attempt
	browser    string

	inFlight atomic.Bool
}

// New creates a session in the LOADING state.
func New(assessmentID, userRef int64, browserInfo string, loader Loader, submitter Submitter, sink AnswerSink, log zerolog.Logger) *Session {
	return &Session{
		AssessmentID: assessmentID,
		UserRef:      userRef,
		loader:       loader,
		submitter:    submitter,
		sink:         sink,
		browser:      browserInfo,
		log: log.With().
			Str("component", "session").
			Int64("assessment_id", assessmentID).
			Int64("user_ref", userRef).
			Logger(),
		state:     StateLoading,
		questions: make(map[int64][]model.CandidateQuestion),
		answers:   make(map[int64]string),
	}
}

// Initialize loads the assessment, resolves its declared sections and fetches
// questions. Failing to fetch the assessment itself is fatal; everything else
// degrades: unresolvable section refs are dropped with a warning and a
// section whose questions cannot be fetched is kept with zero questions.
// If ctx is cancelled mid-load the partial results are discarded.
func (s *Session) Initialize(ctx context.Context) error {
	assessment, err := s.loader.Assessment(ctx, s.AssessmentID)
	if err != nil {
		return err
	}

	sections := s.resolveSections(ctx, assessment.SectionRefs())

	// Fetch each section's questions concurrently; order is restored from
	// the resolved section list, so no ordering guarantee is needed here.
	questions := make(map[int64][]model.CandidateQuestion, len(sections))
	var qmu sync.Mutex
	var wg sync.WaitGroup
	for _, sec := range sections {
		wg.Add(1)
		go func(sec model.Section) {
			defer wg.Done()
			qs, err := s.loader.QuestionsBySection(ctx, sec.ID)
			if err != nil {
				s.log.Warn().Err(err).
					Int64("section_id", sec.ID).
					Msg("Failed to fetch section questions, continuing with empty section")
				qs = nil
			}
			qmu.Lock()
			questions[sec.ID] = qs
			qmu.Unlock()
		}(sec)
	}
	wg.Wait()

	// A teardown during load must not resurrect the session.
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateLoading {
		return ErrNotActive
	}
	s.assessment = assessment
	s.sections = sections
	s.questions = questions
	s.remaining = assessment.DurationMinutes * 60
	s.secIdx, s.qIdx = 0, 0
	s.state = StateActive
	s.normalizeCursorLocked(+1)
	return nil
}

// resolveSections maps declared refs to full section records. Direct lookup
// first, then a scan over the full section list matching id, name or a
// case-insensitive code-ish name. Refs that resolve to nothing are dropped.
func (s *Session) resolveSections(ctx context.Context, refs []model.SectionRef) []model.Section {
	var all []model.Section
	allLoaded := false
	loadAll := func() []model.Section {
		if !allLoaded {
			list, err := s.loader.Sections(ctx)
			if err != nil {
				s.log.Warn().Err(err).Msg("Failed to list sections for fallback resolution")
			}
			all = list
			allLoaded = true
		}
		return all
	}

	resolved := make([]model.Section, 0, len(refs))
	seen := make(map[int64]bool, len(refs))

	for _, ref := range refs {
		var match *model.Section

		if ref.ID != 0 {
			if sec, err := s.loader.SectionByID(ctx, ref.ID); err == nil {
				match = sec
			}
		}
		if match == nil {
			for i := range loadAll() {
				sec := &all[i]
				if ref.ID != 0 && sec.ID == ref.ID {
					match = sec
					break
				}
				if ref.Name != "" && strings.EqualFold(sec.Name, ref.Name) {
					match = sec
					break
				}
			}
		}

		if match == nil {
			s.log.Warn().
				Int64("ref_id", ref.ID).
				Str("ref_name", ref.Name).
				Msg("Declared section did not resolve, dropping")
			continue
		}
		if seen[match.ID] {
			continue
		}
		seen[match.ID] = true
		resolved = append(resolved, *match)
	}
	return resolved
}

// RecordAnswer upserts the candidate's response for a question.
// Last write wins; answers are never removed during the session.
func (s *Session) RecordAnswer(questionID int64, value string) error {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return ErrNotActive
	}
	s.answers[questionID] = value
	s.mu.Unlock()

	if s.sink != nil {
		s.sink(s.AssessmentID, s.UserRef, questionID, value)
	}
	return nil
}

// Advance moves the cursor one question forward, crossing into the next
// non-empty section at a section's end. Clamps at the last question.
func (s *Session) Advance() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return
	}

	cur := s.questions[s.currentSectionIDLocked()]
	if s.qIdx < len(cur)-1 {
		s.qIdx++
		return
	}
	for i := s.secIdx + 1; i < len(s.sections); i++ {
		if len(s.questions[s.sections[i].ID]) > 0 {
			s.secIdx, s.qIdx = i, 0
			return
		}
	}
}

// Retreat moves the cursor one question back, landing on the previous
// non-empty section's last question. No-op at the very first question.
func (s *Session) Retreat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return
	}

	if s.qIdx > 0 {
		s.qIdx--
		return
	}
	for i := s.secIdx - 1; i >= 0; i-- {
		if n := len(s.questions[s.sections[i].ID]); n > 0 {
			s.secIdx, s.qIdx = i, n-1
			return
		}
	}
}

// normalizeCursorLocked places the cursor on an existing question if any
// section has one. dir is +1 to search forward.
func (s *Session) normalizeCursorLocked(dir int) {
	if s.secIdx < len(s.sections) && s.qIdx < len(s.questions[s.sections[s.secIdx].ID]) {
		return
	}
	if dir >= 0 {
		for i := 0; i < len(s.sections); i++ {
			if len(s.questions[s.sections[i].ID]) > 0 {
				s.secIdx, s.qIdx = i, 0
				return
			}
		}
	}
	s.secIdx, s.qIdx = 0, 0
}

func (s *Session) currentSectionIDLocked() int64 {
	if s.secIdx >= len(s.sections) {
		return 0
	}
	return s.sections[s.secIdx].ID
}

// SyncRemaining re-anchors the countdown to an externally computed value,
// e.g. the persisted start time after a process restart. It only ever
// shortens the countdown. A value of zero is clamped to one second so the
// next tick still fires the expiry submit.
func (s *Session) SyncRemaining(seconds int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive || s.expired {
		return
	}
	if seconds < 1 {
		seconds = 1
	}
	if seconds < s.remaining {
		s.remaining = seconds
	}
}

// Tick advances the countdown by one second. When the countdown reaches
// zero it fires Submit(TIME_EXPIRED) exactly once; further calls are no-ops.
func (s *Session) Tick(ctx context.Context) {
	s.mu.Lock()
	if s.state != StateActive || s.remaining <= 0 || s.expired {
		s.mu.Unlock()
		return
	}
	s.remaining--
	fire := s.remaining == 0
	if fire {
		s.expired = true
	}
	s.mu.Unlock()

	if fire {
		if err := s.Submit(ctx, SubmitTimeExpired); err != nil && !errors.Is(err, ErrSubmitInFlight) {
			s.log.Error().Err(err).Msg("Timer-expired submission failed")
		}
	}
}

// Submit finishes the session. The in-flight flag is a check-and-set: the
// first caller (manual click or timer expiry) proceeds; callers racing a
// still-running submission get ErrSubmitInFlight, callers arriving after the
// session finished get ErrNotActive. On delivery failure the session returns
// to ACTIVE with all answers intact.
func (s *Session) Submit(ctx context.Context, reason SubmitReason) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		if s.State() == StateTerminated {
			return ErrNotActive
		}
		return ErrSubmitInFlight
	}

	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		s.inFlight.Store(false)
		return ErrNotActive
	}
	s.state = StateSubmitting
	answers := make(map[int64]string, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}
	sub := Submission{
		AssessmentID: s.AssessmentID,
		UserRef:      s.UserRef,
		Answers:      answers,
		Reason:       reason,
		BrowserInfo:  s.browser,
	}
	s.mu.Unlock()

	if err := s.submitter.Submit(ctx, sub); err != nil {
		s.mu.Lock()
		s.state = StateActive
		s.mu.Unlock()
		s.inFlight.Store(false)
		s.log.Warn().Err(err).Str("reason", string(reason)).Msg("Submission failed, session stays active")
		return err
	}

	s.mu.Lock()
	s.state = StateTerminated
	s.delivered = true
	s.mu.Unlock()
	s.log.Info().Str("reason", string(reason)).Int("answers", len(answers)).Msg("Session submitted")
	return nil
}

// Terminate discards the session on navigation-away or shutdown.
func (s *Session) Terminate() {
	s.mu.Lock()
	s.state = StateTerminated
	s.mu.Unlock()
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Submitted reports whether the attempt was delivered to the submitter.
// A terminated session with Submitted() == false was torn down, not finished.
func (s *Session) Submitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delivered
}

// Remaining returns the countdown in seconds.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// Answer returns the recorded response for a question, if any.
func (s *Session) Answer(questionID int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.answers[questionID]
	return v, ok
}

// Position returns the cursor as (section index, question index).
func (s *Session) Position() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.secIdx, s.qIdx
}

// CurrentQuestion returns the question under the cursor, or false if the
// session has no questions at all.
func (s *Session) CurrentQuestion() (model.CandidateQuestion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.secIdx >= len(s.sections) {
		return model.CandidateQuestion{}, false
	}
	qs := s.questions[s.sections[s.secIdx].ID]
	if s.qIdx >= len(qs) {
		return model.CandidateQuestion{}, false
	}
	return qs[s.qIdx], true
}

// Snapshot is the wire-facing view of a session used by resume and the
// WebSocket stream.
type Snapshot struct {
	AssessmentID    int64                               `json:"assessment_id"`
	State           State                               `json:"state"`
	Sections        []model.Section                     `json:"sections"`
	Questions       map[int64][]model.CandidateQuestion `json:"questions"`
	SectionIndex    int                                 `json:"section_index"`
	QuestionIndex   int                                 `json:"question_index"`
	Answers         map[int64]string                    `json:"answers"`
	RemainingSecond int                                 `json:"remaining_seconds"`
	DurationMinutes int                                 `json:"duration_minutes"`
	AssessmentName  string                              `json:"assessment_name"`
}

// Snapshot returns a consistent copy of the session for serialization.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	answers := make(map[int64]string, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}

	snap := Snapshot{
		AssessmentID:    s.AssessmentID,
		State:           s.state,
		Sections:        s.sections,
		Questions:       s.questions,
		SectionIndex:    s.secIdx,
		QuestionIndex:   s.qIdx,
		Answers:         answers,
		RemainingSecond: s.remaining,
	}
	if s.assessment != nil {
		snap.DurationMinutes = s.assessment.DurationMinutes
		snap.AssessmentName = s.assessment.Name
	}
	return snap
}

// SectionIDs lists the resolved section identifiers in order.
func (s *Session) SectionIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, len(s.sections))
	for i, sec := range s.sections {
		ids[i] = sec.ID
	}
	return ids
}
