// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/wardbuddy/wardbuddy/internal/llm"
)

// DefaultPort matches the port the hosted variant has always served on.
const DefaultPort = "7860"

// Config holds all application configuration.
type Config struct {
	// Port the web UI listens on.
	Port string

	// Share controls the bind address: true serves on all interfaces,
	// false keeps the UI local-only.
	Share bool

	// DBPath enables transcript and LLM-event persistence when non-empty.
	DBPath string

	LLM llm.Config
}

// Load reads configuration from environment variables. Missing required
// settings are reported together so the operator fixes them in one pass;
// the process must not serve in that state.
func Load() (*Config, error) {
	cfg := &Config{
		Port:   getEnv("PORT", DefaultPort),
		Share:  getEnvBool("WARDBUDDY_SHARE", false),
		DBPath: os.Getenv("WARDBUDDY_DB"),
		LLM:    llm.ConfigFromEnv(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the config, enumerating every missing required setting.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if missing := c.LLM.MissingSettings(); len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s — set them in the environment or a .env file",
			strings.Join(missing, ", "))
	}
	return c.LLM.Validate()
}

// Addr returns the listen address for the web server.
func (c *Config) Addr() string {
	host := "127.0.0.1"
	if c.Share {
		host = "0.0.0.0"
	}
	return host + ":" + c.Port
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
