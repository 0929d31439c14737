package tutor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/wardbuddy/wardbuddy/internal/llm"
	"github.com/wardbuddy/wardbuddy/internal/session"
)

// Fixed user-visible messages. Backend detail never reaches the user; it is
// logged for operators instead.
const (
	EmptyInputMessage   = "Please provide your case or question."
	GenericErrorMessage = "An error occurred. Please try again."
)

// ErrBackend marks a failed exchange. The reply text returned alongside it
// already carries the user-facing message.
var ErrBackend = errors.New("backend exchange failed")

const (
	// historyWindow bounds how many prior turns are replayed to the model.
	historyWindow = 12

	defaultMaxTokens   = 1024
	defaultTemperature = 0.7
)

// Tutor converts one inbound user message plus the current preferences into
// one outbound assistant message via a single LLM call per turn.
// It is stateless with respect to the transcript: history is received per
// call and never retained.
type Tutor struct {
	provider llm.Provider
	logger   *slog.Logger
	timeout  time.Duration

	mu    sync.Mutex
	prefs Preferences
}

// New creates a Tutor with default preferences. timeout bounds each
// outbound call; zero falls back to 30s.
func New(provider llm.Provider, logger *slog.Logger, timeout time.Duration) *Tutor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Tutor{
		provider: provider,
		logger:   logger,
		timeout:  timeout,
		prefs:    DefaultPreferences(),
	}
}

// UpdatePreferences clamps and stores a whole new preference set, replacing
// the previous one, and returns the stored values.
func (t *Tutor) UpdatePreferences(p Preferences) Preferences {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prefs = p.Clamp()
	return t.prefs
}

// Preferences returns the currently stored preference set.
func (t *Tutor) Preferences() Preferences {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.prefs
}

// ProcessInteraction issues exactly one LLM call for the given message and
// returns the raw reply text (formatting is the caller's concern).
//
// On any backend failure the full error is logged and the fixed
// GenericErrorMessage is returned together with ErrBackend so callers can
// branch without ever surfacing the underlying error to the user. No
// automatic retry is performed; the user resubmits.
func (t *Tutor) ProcessInteraction(ctx context.Context, message string, history []session.Turn) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	ctx = llm.WithPurpose(ctx, "case-feedback")

	req := llm.Request{
		System:      buildSystemPrompt(t.Preferences()),
		Messages:    buildMessages(message, history),
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
	}

	resp, err := t.provider.Generate(ctx, req)
	if err != nil {
		t.logger.Error("tutoring exchange failed",
			"model", t.provider.ModelID(),
			"error", err,
		)
		return GenericErrorMessage, ErrBackend
	}

	return resp.Text, nil
}

// buildMessages replays a bounded window of prior turns and appends the new
// user message.
func buildMessages(message string, history []session.Turn) []llm.Message {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	msgs := make([]llm.Message, 0, len(history)+1)
	for _, turn := range history {
		role := llm.RoleUser
		if turn.Role == session.RoleAssistant {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: turn.Content})
	}

	return append(msgs, llm.Message{Role: llm.RoleUser, Content: message})
}
