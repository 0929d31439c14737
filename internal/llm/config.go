package llm

import (
	"fmt"
	"os"
	"time"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which LLM provider to use.
	// Values: "openrouter", "openai", "anthropic", "gemini", "mock"
	Provider string

	OpenRouter OpenRouterConfig
	OpenAI     OpenAIConfig
	Anthropic  AnthropicConfig
	Gemini     GeminiConfig

	// Timeout is the maximum duration for a single LLM request.
	// A hung backend surfaces as a timeout error instead of blocking the
	// session's turn indefinitely. Default: 30s.
	Timeout time.Duration
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string
	Model   string // Default: "google/gemini-2.0-flash-exp"
	BaseURL string // Default: "https://openrouter.ai/api/v1"
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o-mini"
	BaseURL string // Optional. Override for OpenAI-compatible APIs.
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string // Default: "claude-haiku"
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string // Default: "gemini-flash"
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: "openrouter",
		OpenRouter: OpenRouterConfig{
			Model:   "google/gemini-2.0-flash-exp",
			BaseURL: defaultOpenRouterBaseURL,
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		Timeout: 30 * time.Second,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if p := os.Getenv("WARDBUDDY_LLM_PROVIDER"); p != "" {
		cfg.Provider = p
	}

	if k := os.Getenv("OPENROUTER_API_KEY"); k != "" {
		cfg.OpenRouter.APIKey = k
	}
	if u := os.Getenv("OPENROUTER_BASE_URL"); u != "" {
		cfg.OpenRouter.BaseURL = u
	}

	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		cfg.OpenAI.APIKey = k
	}
	if u := os.Getenv("OPENAI_BASE_URL"); u != "" {
		cfg.OpenAI.BaseURL = u
	}

	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		cfg.Anthropic.APIKey = k
	}

	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		cfg.Gemini.APIKey = k
	}

	if m := os.Getenv("WARDBUDDY_MODEL"); m != "" {
		switch cfg.Provider {
		case "openrouter":
			cfg.OpenRouter.Model = m
		case "openai":
			cfg.OpenAI.Model = m
		case "anthropic":
			cfg.Anthropic.Model = m
		case "gemini":
			cfg.Gemini.Model = m
		}
	}

	if t := os.Getenv("WARDBUDDY_LLM_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	return cfg
}

// MissingSettings returns the names of required settings that are unset for
// the selected provider. An empty slice means the config is servable.
func (c Config) MissingSettings() []string {
	var missing []string
	switch c.Provider {
	case "openrouter":
		if c.OpenRouter.APIKey == "" {
			missing = append(missing, "OPENROUTER_API_KEY")
		}
		if c.OpenRouter.BaseURL == "" {
			missing = append(missing, "OPENROUTER_BASE_URL")
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			missing = append(missing, "ANTHROPIC_API_KEY")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			missing = append(missing, "GEMINI_API_KEY")
		}
	case "mock":
		// No settings needed.
	}
	return missing
}

// Validate checks that the provider is known and fully configured.
func (c Config) Validate() error {
	switch c.Provider {
	case "openrouter", "openai", "anthropic", "gemini", "mock":
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if missing := c.MissingSettings(); len(missing) > 0 {
		return fmt.Errorf("missing required settings: %v", missing)
	}
	return nil
}
