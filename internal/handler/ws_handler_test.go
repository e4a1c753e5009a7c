package handler

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"

	"github.com/assesshub/assesshub-backend/internal/model"
	sess "github.com/assesshub/assesshub-backend/internal/session"
	ws "github.com/assesshub/assesshub-backend/internal/websocket"
)

// streamLoader serves a one-section assessment from memory.
type streamLoader struct{}

func (streamLoader) Assessment(ctx context.Context, id int64) (*model.Assessment, error) {
	return &model.Assessment{
		ID:              id,
		Name:            "Screening",
		DurationMinutes: 1,
		Structure:       json.RawMessage(`{"sections":[10]}`),
	}, nil
}

func (streamLoader) SectionByID(ctx context.Context, id int64) (*model.Section, error) {
	return &model.Section{ID: id, Name: "Aptitude"}, nil
}

func (streamLoader) Sections(ctx context.Context) ([]model.Section, error) {
	return []model.Section{{ID: 10, Name: "Aptitude"}}, nil
}

func (streamLoader) QuestionsBySection(ctx context.Context, sectionID int64) ([]model.CandidateQuestion, error) {
	return []model.CandidateQuestion{{ID: 1000, SectionID: sectionID, Type: model.QuestionTypeMCQ}}, nil
}

type streamSubmitter struct{}

func (streamSubmitter) Submit(ctx context.Context, sub sess.Submission) error { return nil }

func newStreamSession(t *testing.T) *sess.Session {
	t.Helper()
	s := sess.New(1, 7, "", streamLoader{}, streamSubmitter{}, nil, zerolog.Nop())
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return s
}

func TestTerminalEventAfterManualSubmit(t *testing.T) {
	s := newStreamSession(t)
	if err := s.Submit(context.Background(), sess.SubmitManual); err != nil {
		t.Fatalf("submit: %v", err)
	}

	ev, ok := terminalEvent(s).(ws.SubmittedResponse)
	if !ok {
		t.Fatalf("event = %T, want SubmittedResponse", terminalEvent(s))
	}
	if ev.Event != ws.EventSubmitted {
		t.Fatalf("event = %s, want %s", ev.Event, ws.EventSubmitted)
	}
}

func TestTerminalEventAfterExpiry(t *testing.T) {
	s := newStreamSession(t)
	for i := 0; i < 60; i++ {
		s.Tick(context.Background())
	}
	if got := s.State(); got != sess.StateTerminated {
		t.Fatalf("state = %s, want %s", got, sess.StateTerminated)
	}

	if _, ok := terminalEvent(s).(ws.ExpiredResponse); !ok {
		t.Fatalf("event = %T, want ExpiredResponse", terminalEvent(s))
	}
}

func TestTerminalEventAfterTeardown(t *testing.T) {
	s := newStreamSession(t)
	s.Terminate()

	if _, ok := terminalEvent(s).(ws.ErrorResponse); !ok {
		t.Fatalf("event = %T, want ErrorResponse", terminalEvent(s))
	}
}
