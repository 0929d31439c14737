package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/wardbuddy/wardbuddy/internal/session"
	"github.com/wardbuddy/wardbuddy/internal/tutor"
)

// Transcript is a persisted session: its turns and the preference set in
// effect when it was last saved.
type Transcript struct {
	SessionID   string
	Turns       []session.Turn
	Preferences tutor.Preferences
	UpdatedAt   time.Time
}

// SaveTranscript upserts the transcript for a session.
func (s *Store) SaveTranscript(ctx context.Context, id string, turns []session.Turn, prefs tutor.Preferences) error {
	turnsJSON, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("marshal turns: %w", err)
	}
	prefsJSON, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transcripts (session_id, turns_json, preferences_json, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			turns_json = excluded.turns_json,
			preferences_json = excluded.preferences_json,
			updated_at = excluded.updated_at`,
		id, string(turnsJSON), string(prefsJSON), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert transcript: %w", err)
	}
	return nil
}

// LoadTranscript fetches a persisted session, or nil when none exists.
func (s *Store) LoadTranscript(ctx context.Context, id string) (*Transcript, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT turns_json, preferences_json, updated_at
		FROM transcripts WHERE session_id = ?`, id)

	var turnsJSON, prefsJSON string
	var updatedAt int64
	err := row.Scan(&turnsJSON, &prefsJSON, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan transcript: %w", err)
	}

	t := &Transcript{
		SessionID: id,
		UpdatedAt: time.Unix(updatedAt, 0),
	}
	if err := json.Unmarshal([]byte(turnsJSON), &t.Turns); err != nil {
		return nil, fmt.Errorf("unmarshal turns: %w", err)
	}
	if err := json.Unmarshal([]byte(prefsJSON), &t.Preferences); err != nil {
		return nil, fmt.Errorf("unmarshal preferences: %w", err)
	}
	// Stored values predate any bound change; never hand out-of-range
	// weights back to the tutor.
	t.Preferences = t.Preferences.Clamp()

	return t, nil
}

// DeleteTranscript removes a persisted session. Used when the user clears
// their transcript.
func (s *Store) DeleteTranscript(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM transcripts WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("delete transcript: %w", err)
	}
	return nil
}
