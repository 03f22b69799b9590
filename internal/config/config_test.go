package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"PROMPTMD_PROVIDER", "PROMPTMD_MODEL_SIZE", "PROMPTMD_MAX_TOKENS", "PROMPTMD_TEMPERATURE",
		"PROMPTMD_COMMAND_TIMEOUT", "PROMPTMD_PDFTOTEXT", "PORT", "PROMPTMD_STATS_WINDOW",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Provider != "openai" {
		t.Errorf("expected provider openai, got %q", cfg.Provider)
	}
	if cfg.ModelSize != "default" {
		t.Errorf("expected size default, got %q", cfg.ModelSize)
	}
	if cfg.MaxTokens != 1024 {
		t.Errorf("expected max tokens 1024, got %d", cfg.MaxTokens)
	}
	if cfg.Temperature != 0.7 {
		t.Errorf("expected temperature 0.7, got %v", cfg.Temperature)
	}
	if cfg.CommandTimeout != 30*time.Second {
		t.Errorf("expected command timeout 30s, got %v", cfg.CommandTimeout)
	}
	if !cfg.PDFFallbackPdftotext {
		t.Error("expected pdftotext fallback enabled by default")
	}
	if cfg.Port != "8091" {
		t.Errorf("expected port 8091, got %q", cfg.Port)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PROMPTMD_PROVIDER", "anthropic")
	t.Setenv("PROMPTMD_COMMAND_TIMEOUT", "5s")
	t.Setenv("PROMPTMD_MAX_TOKENS", "-3")
	t.Setenv("PROMPTMD_PDFTOTEXT", "false")
	t.Setenv("ANTHROPIC_MODEL", "claude-custom")

	cfg := Load()
	if cfg.Provider != "anthropic" {
		t.Errorf("expected provider anthropic, got %q", cfg.Provider)
	}
	if cfg.CommandTimeout != 5*time.Second {
		t.Errorf("expected 5s, got %v", cfg.CommandTimeout)
	}
	if cfg.MaxTokens != 1024 {
		t.Errorf("expected invalid max tokens to fall back to 1024, got %d", cfg.MaxTokens)
	}
	if cfg.PDFFallbackPdftotext {
		t.Error("expected pdftotext fallback disabled")
	}
	if got := cfg.ModelOverride("anthropic"); got != "claude-custom" {
		t.Errorf("expected model override, got %q", got)
	}
}

func TestAPIKeyFor(t *testing.T) {
	cfg := Config{OpenAIAPIKey: "sk-test"}
	if key, err := cfg.APIKeyFor("openai"); err != nil || key != "sk-test" {
		t.Errorf("expected openai key, got %q, %v", key, err)
	}
	if _, err := cfg.APIKeyFor("anthropic"); err == nil {
		t.Error("expected error for missing anthropic key")
	}
	if _, err := cfg.APIKeyFor("other"); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestValidateServer(t *testing.T) {
	dir := t.TempDir()
	if err := (Config{APIKey: "k", DocumentRoot: dir}).ValidateServer(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (Config{DocumentRoot: dir}).ValidateServer(); err == nil {
		t.Error("expected error without api key")
	}
	if err := (Config{APIKey: "k"}).ValidateServer(); err == nil {
		t.Error("expected error without document root")
	}
	if err := (Config{APIKey: "k", DocumentRoot: dir + "/missing"}).ValidateServer(); err == nil {
		t.Error("expected error for missing document root")
	}
}
