package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/wardbuddy/wardbuddy/internal/session"
	"github.com/wardbuddy/wardbuddy/internal/tutor"
)

const sessionCookie = "wardbuddy_session"

// Handler serves the JSON API binding browser actions to tutor operations.
type Handler struct {
	manager *Manager
	logger  *slog.Logger
}

// NewHandler creates the API handler.
func NewHandler(manager *Manager, logger *slog.Logger) *Handler {
	return &Handler{manager: manager, logger: logger}
}

type chatRequest struct {
	Message string `json:"message"`
	// Preferences ride along with every submission, mirroring the slider
	// state. Absent means keep the session's current set.
	Preferences *tutor.Preferences `json:"preferences"`
}

type chatResponse struct {
	History []session.Turn `json:"history"`
	Notice  string         `json:"notice,omitempty"`
}

// Chat handles one tutoring turn: validate input, queue the exchange,
// return the updated transcript.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)

	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Empty or whitespace-only input: instructional message, no backend
	// call, transcript untouched.
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusOK, chatResponse{
			History: sess.History().Turns(),
			Notice:  tutor.EmptyInputMessage,
		})
		return
	}

	result := sess.SubmitTurn(req.Message, req.Preferences)

	resp := chatResponse{History: result.turns}
	if result.failed {
		resp.Notice = tutor.GenericErrorMessage
	}
	writeJSON(w, http.StatusOK, resp)
}

type preferencesRequest struct {
	Preferences tutor.Preferences `json:"preferences"`
}

type preferencesResponse struct {
	Preferences tutor.Preferences `json:"preferences"`
}

// UpdatePreferences replaces the session's preference set wholesale and
// returns the stored, clamped values.
func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)

	var req preferencesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	stored := sess.Tutor().UpdatePreferences(req.Preferences)
	sess.persist(r.Context())

	writeJSON(w, http.StatusOK, preferencesResponse{Preferences: stored})
}

// ClearSession empties the transcript, returning the interface to its
// initial state.
func (h *Handler) ClearSession(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	sess.History().Clear()
	sess.deletePersisted(r.Context())

	writeJSON(w, http.StatusOK, chatResponse{History: []session.Turn{}})
}

type retryResponse struct {
	Message string         `json:"message"`
	History []session.Turn `json:"history"`
}

// RetryLast removes the trailing (user, assistant) pair and hands the user
// message back for re-editing.
func (h *Handler) RetryLast(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	msg := sess.History().RetryLast()
	sess.persist(r.Context())

	writeJSON(w, http.StatusOK, retryResponse{
		Message: msg,
		History: sess.History().Turns(),
	})
}

type historyResponse struct {
	History     []session.Turn    `json:"history"`
	Preferences tutor.Preferences `json:"preferences"`
}

// GetHistory returns the current transcript and preference set, used by the
// UI on page load.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)

	writeJSON(w, http.StatusOK, historyResponse{
		History:     sess.History().Turns(),
		Preferences: sess.Tutor().Preferences(),
	})
}

// Healthz reports liveness.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// session resolves the browser session from its cookie, minting a new one
// when absent.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *Session {
	var id string
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		id = c.Value
	} else {
		id = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return h.manager.Get(r.Context(), id)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	// Preference payloads are fixed-shape; reject key typos outright.
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
