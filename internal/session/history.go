// Package session holds the per-session conversation transcript.
package session

import "sync"

// Role tags a transcript entry as coming from the user or the assistant.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one role-tagged message in a session transcript.
// Immutable once created.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// History is the ordered transcript of a session. Turns are appended in
// strict (user, assistant) pairs; display order is chronological order.
// Safe for concurrent use.
type History struct {
	mu    sync.Mutex
	turns []Turn
}

// NewHistory creates an empty History.
func NewHistory() *History {
	return &History{}
}

// Append adds turns to the end of the transcript. Never reorders.
func (h *History) Append(turns ...Turn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, turns...)
}

// Turns returns a copy of the transcript in chronological order.
func (h *History) Turns() []Turn {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Len returns the number of turns.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.turns)
}

// Clear empties the transcript, returning the session to its initial state.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = nil
}

// RetryLast removes the trailing (user, assistant) pair and returns the
// removed user message content for re-editing. On an empty history it is a
// no-op returning "".
func (h *History) RetryLast() string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.turns) < 2 {
		return ""
	}

	last := h.turns[len(h.turns)-1]
	prev := h.turns[len(h.turns)-2]
	if prev.Role != RoleUser || last.Role != RoleAssistant {
		return ""
	}

	h.turns = h.turns[:len(h.turns)-2]
	return prev.Content
}

// Replace swaps the whole transcript, used when restoring a persisted
// session.
func (h *History) Replace(turns []Turn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = make([]Turn, len(turns))
	copy(h.turns, turns)
}
