package llm

import (
	"context"
	"fmt"
	"log/slog"
)

// NewProvider creates a Provider from configuration, wrapped with call
// logging. recorder may be nil when event persistence is disabled.
//
// No retry middleware is applied: each tutoring turn is a single
// best-effort exchange and the user resubmits on failure.
func NewProvider(ctx context.Context, cfg Config, logger *slog.Logger, recorder EventRecorder) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "mock":
		base = NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	return WithLogging(base, logger, recorder), nil
}
