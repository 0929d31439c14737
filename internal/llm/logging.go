package llm

import (
	"context"
	"log/slog"
	"time"
)

// Event is the record of a single LLM exchange.
type Event struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// EventRecorder persists LLM exchange records for later inspection.
type EventRecorder interface {
	RecordLLMEvent(ctx context.Context, ev Event) error
}

// LoggingProvider is a decorator that logs every LLM call and, when a
// recorder is configured, persists it as an event. Failures on the backend
// call are logged in full here; user-facing layers only ever see a generic
// message.
type LoggingProvider struct {
	inner    Provider
	logger   *slog.Logger
	recorder EventRecorder
}

// WithLogging wraps a Provider with call logging. recorder may be nil.
func WithLogging(p Provider, logger *slog.Logger, recorder EventRecorder) Provider {
	return &LoggingProvider{inner: p, logger: logger, recorder: recorder}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)

	latencyMs := time.Since(start).Milliseconds()

	ev := Event{
		Provider:  l.inner.ModelID(),
		Model:     l.inner.ModelID(),
		Purpose:   purpose,
		LatencyMs: latencyMs,
		Success:   err == nil,
	}

	if resp != nil {
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
		ev.Model = resp.Model
	}

	if err != nil {
		ev.ErrorMessage = err.Error()
		l.logger.Error("llm call failed",
			"model", ev.Model,
			"purpose", purpose,
			"latency_ms", latencyMs,
			"error", err,
		)
	} else {
		l.logger.Info("llm call completed",
			"model", ev.Model,
			"purpose", purpose,
			"latency_ms", latencyMs,
			"input_tokens", ev.InputTokens,
			"output_tokens", ev.OutputTokens,
		)
	}

	// Record the event but don't fail the request if recording fails.
	if l.recorder != nil {
		if recErr := l.recorder.RecordLLMEvent(ctx, ev); recErr != nil {
			l.logger.Warn("failed to record llm event", "error", recErr)
		}
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}
