package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/wardbuddy/wardbuddy/internal/llm"
	"github.com/wardbuddy/wardbuddy/internal/session"
	"github.com/wardbuddy/wardbuddy/internal/store"
	"github.com/wardbuddy/wardbuddy/internal/tutor"
)

// TranscriptStore persists session transcripts between runs. May be left
// nil for memory-only operation.
type TranscriptStore interface {
	SaveTranscript(ctx context.Context, id string, turns []session.Turn, prefs tutor.Preferences) error
	LoadTranscript(ctx context.Context, id string) (*store.Transcript, error)
	DeleteTranscript(ctx context.Context, id string) error
}

// turnQueueSize bounds how many overlapping submissions a session can hold
// before further submitters block. Blocked senders drain in FIFO order, so
// transcript ordering follows submission ordering either way.
const turnQueueSize = 16

type turnRequest struct {
	message string
	prefs   *tutor.Preferences
	reply   chan turnResult
}

type turnResult struct {
	turns  []session.Turn
	failed bool
}

// Session binds one browser session to its transcript and tutor. All turns
// flow through a single worker goroutine: overlapping submissions queue and
// their (user, assistant) pairs append in submission order, never
// interleaved.
type Session struct {
	id       string
	history  *session.History
	tutor    *tutor.Tutor
	requests chan turnRequest

	logger      *slog.Logger
	transcripts TranscriptStore
}

func newSession(id string, tut *tutor.Tutor, logger *slog.Logger, transcripts TranscriptStore) *Session {
	s := &Session{
		id:          id,
		history:     session.NewHistory(),
		tutor:       tut,
		requests:    make(chan turnRequest, turnQueueSize),
		logger:      logger.With("session_id", id),
		transcripts: transcripts,
	}
	go s.run()
	return s
}

// SubmitTurn enqueues one tutoring turn and blocks until it completes.
// The caller has already rejected empty input. A nil prefs keeps the
// session's current preference set.
func (s *Session) SubmitTurn(message string, prefs *tutor.Preferences) turnResult {
	req := turnRequest{
		message: message,
		prefs:   prefs,
		reply:   make(chan turnResult, 1),
	}
	s.requests <- req
	return <-req.reply
}

// run drains the turn queue one request at a time. Turns run detached from
// the HTTP request context so a dropped connection can't abandon a turn
// mid-append; the tutor's own timeout still bounds each call.
func (s *Session) run() {
	for req := range s.requests {
		if req.prefs != nil {
			s.tutor.UpdatePreferences(*req.prefs)
		}

		ctx := context.Background()
		raw, err := s.tutor.ProcessInteraction(ctx, req.message, s.history.Turns())

		// On failure raw already carries the generic error text; the user
		// turn is kept so context is not silently lost.
		s.history.Append(
			session.Turn{Role: session.RoleUser, Content: req.message},
			session.Turn{Role: session.RoleAssistant, Content: tutor.Format(raw)},
		)

		s.persist(ctx)

		req.reply <- turnResult{
			turns:  s.history.Turns(),
			failed: err != nil,
		}
	}
}

// History exposes the session transcript.
func (s *Session) History() *session.History {
	return s.history
}

// Tutor exposes the session's tutor for preference updates.
func (s *Session) Tutor() *tutor.Tutor {
	return s.tutor
}

func (s *Session) persist(ctx context.Context) {
	if s.transcripts == nil {
		return
	}
	if err := s.transcripts.SaveTranscript(ctx, s.id, s.history.Turns(), s.tutor.Preferences()); err != nil {
		s.logger.Warn("failed to persist transcript", "error", err)
	}
}

func (s *Session) deletePersisted(ctx context.Context) {
	if s.transcripts == nil {
		return
	}
	if err := s.transcripts.DeleteTranscript(ctx, s.id); err != nil {
		s.logger.Warn("failed to delete persisted transcript", "error", err)
	}
}

// Manager tracks live sessions by ID. The provider and its configuration
// are shared read-only across sessions; each session owns its own
// preferences and transcript.
type Manager struct {
	provider    llm.Provider
	logger      *slog.Logger
	timeout     time.Duration
	transcripts TranscriptStore

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager. transcripts may be nil.
func NewManager(provider llm.Provider, logger *slog.Logger, timeout time.Duration, transcripts TranscriptStore) *Manager {
	return &Manager{
		provider:    provider,
		logger:      logger,
		timeout:     timeout,
		transcripts: transcripts,
		sessions:    make(map[string]*Session),
	}
}

// Get returns the session for id, creating it on first sight and restoring
// any persisted transcript.
func (m *Manager) Get(ctx context.Context, id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		return s
	}

	tut := tutor.New(m.provider, m.logger, m.timeout)
	s := newSession(id, tut, m.logger, m.transcripts)
	m.restore(ctx, s)
	m.sessions[id] = s
	return s
}

func (m *Manager) restore(ctx context.Context, s *Session) {
	if m.transcripts == nil {
		return
	}
	t, err := m.transcripts.LoadTranscript(ctx, s.id)
	if err != nil {
		s.logger.Warn("failed to restore transcript", "error", err)
		return
	}
	if t == nil {
		return
	}
	s.history.Replace(t.Turns)
	s.tutor.UpdatePreferences(t.Preferences)
	s.logger.Info("restored persisted session", "turns", len(t.Turns))
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
