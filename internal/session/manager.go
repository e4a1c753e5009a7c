package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Manager owns every live session in the process, keyed by assessment and
// candidate. It drives countdowns with one ticker goroutine per session and
// tears sessions down on submit, disconnect and shutdown.
type Manager struct {
	loader    Loader
	submitter Submitter
	sink      AnswerSink
	log       zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*entry

	baseCtx    context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup
}

type entry struct {
	session *Session
	cancel  context.CancelFunc
	// ready closes once Initialize finished; initErr is written before the
	// close, so waiters may read it after <-ready.
	ready   chan struct{}
	initErr error
}

func sessionKey(assessmentID, userRef int64) string {
	return fmt.Sprintf("%d:%d", assessmentID, userRef)
}

// NewManager creates a session manager. Shutdown must be called to stop
// ticker goroutines.
func NewManager(loader Loader, submitter Submitter, sink AnswerSink, log zerolog.Logger) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		loader:     loader,
		submitter:  submitter,
		sink:       sink,
		log:        log.With().Str("component", "session_manager").Logger(),
		sessions:   make(map[string]*entry),
		baseCtx:    ctx,
		baseCancel: cancel,
	}
}

// Start returns the live session for (assessment, candidate), creating and
// initializing one when none exists. A second Start while a session is live
// resumes it instead of resetting the countdown; one racing an in-flight
// load waits for initialization so callers never see a half-built session.
func (m *Manager) Start(ctx context.Context, assessmentID, userRef int64, browserInfo string) (*Session, error) {
	key := sessionKey(assessmentID, userRef)

	m.mu.Lock()
	if e, ok := m.sessions[key]; ok {
		m.mu.Unlock()
		select {
		case <-e.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if e.initErr != nil {
			return nil, e.initErr
		}
		return e.session, nil
	}

	sessCtx, cancel := context.WithCancel(m.baseCtx)
	s := New(assessmentID, userRef, browserInfo, m.loader, m.submitter, m.sink, m.log)
	e := &entry{session: s, cancel: cancel, ready: make(chan struct{})}
	m.sessions[key] = e
	m.mu.Unlock()

	// Load on the caller's deadline but bail out if the session was torn
	// down while fetching.
	loadCtx, loadCancel := context.WithCancel(ctx)
	defer loadCancel()
	go func() {
		<-sessCtx.Done()
		loadCancel()
	}()

	if err := s.Initialize(loadCtx); err != nil {
		e.initErr = err
		close(e.ready)
		m.remove(key)
		return nil, err
	}
	close(e.ready)

	m.wg.Add(1)
	go m.run(sessCtx, key, s)

	m.log.Info().
		Int64("assessment_id", assessmentID).
		Int64("user_ref", userRef).
		Int("remaining_seconds", s.Remaining()).
		Msg("Session started")
	return s, nil
}

// Get returns the live session for (assessment, candidate), if any.
func (m *Manager) Get(assessmentID, userRef int64) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[sessionKey(assessmentID, userRef)]
	if !ok {
		return nil, false
	}
	return e.session, true
}

// run drives one session's countdown at one tick per second until the
// session leaves the ACTIVE state or the manager shuts down.
func (m *Manager) run(ctx context.Context, key string, s *Session) {
	defer m.wg.Done()
	defer m.remove(key)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Terminate()
			return
		case <-ticker.C:
			s.Tick(ctx)
			if s.State() == StateTerminated {
				return
			}
		}
	}
}

// Teardown discards the session for (assessment, candidate) without
// submitting, e.g. after an admin invalidation.
func (m *Manager) Teardown(assessmentID, userRef int64) {
	key := sessionKey(assessmentID, userRef)
	m.mu.Lock()
	e, ok := m.sessions[key]
	m.mu.Unlock()
	if !ok {
		return
	}
	e.session.Terminate()
	e.cancel()
}

func (m *Manager) remove(key string) {
	m.mu.Lock()
	e, ok := m.sessions[key]
	if ok {
		delete(m.sessions, key)
	}
	m.mu.Unlock()
	if ok {
		e.cancel()
	}
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown terminates every live session and waits for ticker goroutines to
// exit or the context to expire.
func (m *Manager) Shutdown(ctx context.Context) {
	m.baseCancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		m.log.Warn().Msg("Session manager shutdown timed out")
	}
}
