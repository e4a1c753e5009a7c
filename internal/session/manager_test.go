package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/assesshub/assesshub-backend/internal/model"
)

// gatedLoader stalls the first Assessment fetch until released, exposing the
// window where a session exists but has not finished initializing.
type gatedLoader struct {
	*fakeLoader
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (l *gatedLoader) Assessment(ctx context.Context, id int64) (*model.Assessment, error) {
	l.once.Do(func() { close(l.entered) })
	<-l.release
	return l.fakeLoader.Assessment(ctx, id)
}

func TestManagerStartIsIdempotent(t *testing.T) {
	m := NewManager(newTestLoader(), &fakeSubmitter{}, nil, zerolog.Nop())
	defer m.Shutdown(context.Background())

	first, err := m.Start(context.Background(), 1, 7, "browser-a")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	_ = first.RecordAnswer(1000, "A")

	// A second start resumes the same session rather than resetting it.
	second, err := m.Start(context.Background(), 1, 7, "browser-b")
	if err != nil {
		t.Fatalf("Start again: %v", err)
	}
	if first != second {
		t.Fatal("second Start returned a different session")
	}
	if v, _ := second.Answer(1000); v != "A" {
		t.Fatal("resumed session lost recorded answer")
	}
	if m.Count() != 1 {
		t.Fatalf("Count = %d, want 1", m.Count())
	}
}

func TestManagerStartWaitsForInitialization(t *testing.T) {
	loader := &gatedLoader{
		fakeLoader: newTestLoader(),
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	m := NewManager(loader, &fakeSubmitter{}, nil, zerolog.Nop())
	defer m.Shutdown(context.Background())

	type result struct {
		s   *Session
		err error
	}
	first := make(chan result, 1)
	go func() {
		s, err := m.Start(context.Background(), 1, 7, "")
		first <- result{s, err}
	}()
	<-loader.entered

	second := make(chan result, 1)
	go func() {
		s, err := m.Start(context.Background(), 1, 7, "")
		second <- result{s, err}
	}()

	// The second caller must wait on the in-flight load rather than hand
	// out a half-built session.
	select {
	case <-second:
		t.Fatal("second Start returned before initialization finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(loader.release)
	r1, r2 := <-first, <-second
	if r1.err != nil || r2.err != nil {
		t.Fatalf("Start errors: %v, %v", r1.err, r2.err)
	}
	if r1.s != r2.s {
		t.Fatal("racing Starts produced different sessions")
	}
	if got := r2.s.State(); got != StateActive {
		t.Fatalf("state = %s, want %s", got, StateActive)
	}
}

func TestManagerKeysByCandidate(t *testing.T) {
	m := NewManager(newTestLoader(), &fakeSubmitter{}, nil, zerolog.Nop())
	defer m.Shutdown(context.Background())

	a, err := m.Start(context.Background(), 1, 7, "")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	b, err := m.Start(context.Background(), 1, 8, "")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if a == b {
		t.Fatal("different candidates share one session")
	}
	if m.Count() != 2 {
		t.Fatalf("Count = %d, want 2", m.Count())
	}
}

func TestManagerStartFailureLeavesNoSession(t *testing.T) {
	loader := newTestLoader()
	loader.assessmentErr = errors.New("db down")
	m := NewManager(loader, &fakeSubmitter{}, nil, zerolog.Nop())
	defer m.Shutdown(context.Background())

	if _, err := m.Start(context.Background(), 1, 7, ""); err == nil {
		t.Fatal("Start should fail when loading fails")
	}
	if m.Count() != 0 {
		t.Fatalf("Count = %d, want 0", m.Count())
	}
	if _, ok := m.Get(1, 7); ok {
		t.Fatal("failed session still retrievable")
	}
}

func TestManagerTeardownTerminates(t *testing.T) {
	m := NewManager(newTestLoader(), &fakeSubmitter{}, nil, zerolog.Nop())
	defer m.Shutdown(context.Background())

	s, err := m.Start(context.Background(), 1, 7, "")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	m.Teardown(1, 7)
	if got := s.State(); got != StateTerminated {
		t.Fatalf("state = %s, want %s", got, StateTerminated)
	}

	// The ticker goroutine removes the entry; give it a moment.
	deadline := time.After(3 * time.Second)
	for m.Count() != 0 {
		select {
		case <-deadline:
			t.Fatalf("Count = %d after teardown, want 0", m.Count())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestManagerShutdownTerminatesAll(t *testing.T) {
	m := NewManager(newTestLoader(), &fakeSubmitter{}, nil, zerolog.Nop())

	s1, err := m.Start(context.Background(), 1, 7, "")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	s2, err := m.Start(context.Background(), 1, 8, "")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	m.Shutdown(ctx)

	if s1.State() != StateTerminated || s2.State() != StateTerminated {
		t.Fatal("sessions still live after shutdown")
	}
}
