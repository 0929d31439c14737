package store

import (
	"context"
	"fmt"
	"time"

	"github.com/wardbuddy/wardbuddy/internal/llm"
)

// LLMEvent is a persisted record of one LLM exchange.
type LLMEvent struct {
	ID           int64
	Timestamp    time.Time
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// RecordLLMEvent appends an LLM exchange record. Implements llm.EventRecorder.
func (s *Store) RecordLLMEvent(ctx context.Context, ev llm.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO llm_events
			(created_at, provider, model, purpose, input_tokens, output_tokens, latency_ms, success, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().Unix(),
		ev.Provider,
		ev.Model,
		ev.Purpose,
		ev.InputTokens,
		ev.OutputTokens,
		ev.LatencyMs,
		boolToInt(ev.Success),
		ev.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("insert llm event: %w", err)
	}
	return nil
}

// QueryLLMEvents returns the most recent events, newest first.
// limit <= 0 means no limit.
func (s *Store) QueryLLMEvents(ctx context.Context, limit int) ([]LLMEvent, error) {
	query := `
		SELECT id, created_at, provider, model, purpose,
		       input_tokens, output_tokens, latency_ms, success, error_message
		FROM llm_events
		ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query llm events: %w", err)
	}
	defer rows.Close()

	var events []LLMEvent
	for rows.Next() {
		var ev LLMEvent
		var createdAt int64
		var success int
		if err := rows.Scan(
			&ev.ID, &createdAt, &ev.Provider, &ev.Model, &ev.Purpose,
			&ev.InputTokens, &ev.OutputTokens, &ev.LatencyMs, &success, &ev.ErrorMessage,
		); err != nil {
			return nil, fmt.Errorf("scan llm event: %w", err)
		}
		ev.Timestamp = time.Unix(createdAt, 0)
		ev.Success = success != 0
		events = append(events, ev)
	}
	return events, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
