package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Model provider
	Provider    string
	ModelSize   string
	MaxTokens   int
	Temperature float64

	OpenAIAPIKey    string
	OpenAIModel     string // overrides the size table when set
	AnthropicAPIKey string
	AnthropicModel  string // overrides the size table when set

	// Expansion
	CommandTimeout       time.Duration
	PDFFallbackPdftotext bool

	// HTTP server
	Port         string
	APIKey       string
	DocumentRoot string
	StatsWindow  time.Duration
}

func Load() Config {
	cfg := Config{
		Provider:    envOr("PROMPTMD_PROVIDER", "openai"),
		ModelSize:   envOr("PROMPTMD_MODEL_SIZE", "default"),
		MaxTokens:   envInt("PROMPTMD_MAX_TOKENS", 1024),
		Temperature: envFloat("PROMPTMD_TEMPERATURE", 0.7),

		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     os.Getenv("OPENAI_MODEL"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  os.Getenv("ANTHROPIC_MODEL"),

		CommandTimeout:       envDuration("PROMPTMD_COMMAND_TIMEOUT", 30*time.Second),
		PDFFallbackPdftotext: envBool("PROMPTMD_PDFTOTEXT", true),

		Port:         envOr("PORT", "8091"),
		APIKey:       os.Getenv("PROMPTMD_API_KEY"),
		DocumentRoot: os.Getenv("PROMPTMD_ROOT"),
		StatsWindow:  envDuration("PROMPTMD_STATS_WINDOW", 1*time.Hour),
	}

	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.Temperature < 0 {
		cfg.Temperature = 0.7
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = 30 * time.Second
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}

	return cfg
}

// APIKeyFor returns the credential for provider, or an error naming the
// missing environment variable.
func (c Config) APIKeyFor(provider string) (string, error) {
	switch provider {
	case "openai":
		if c.OpenAIAPIKey == "" {
			return "", fmt.Errorf("missing OPENAI_API_KEY environment variable")
		}
		return c.OpenAIAPIKey, nil
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return "", fmt.Errorf("missing ANTHROPIC_API_KEY environment variable")
		}
		return c.AnthropicAPIKey, nil
	default:
		return "", fmt.Errorf("unknown provider %q", provider)
	}
}

// ModelOverride returns the explicitly configured model for provider, if any.
func (c Config) ModelOverride(provider string) string {
	switch provider {
	case "openai":
		return c.OpenAIModel
	case "anthropic":
		return c.AnthropicModel
	}
	return ""
}

// ValidateServer checks the settings the HTTP server cannot run without.
func (c Config) ValidateServer() error {
	if c.APIKey == "" {
		return fmt.Errorf("PROMPTMD_API_KEY is required")
	}
	if c.DocumentRoot == "" {
		return fmt.Errorf("PROMPTMD_ROOT is required")
	}
	info, err := os.Stat(c.DocumentRoot)
	if err != nil {
		return fmt.Errorf("PROMPTMD_ROOT: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("PROMPTMD_ROOT %s is not a directory", c.DocumentRoot)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
