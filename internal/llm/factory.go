package llm

import (
	"github.com/dgallion1/promptmd/internal/config"
)

// NewClient builds the client for provider. The model comes from the
// provider's override variable when set, otherwise from the size table.
func NewClient(cfg config.Config, provider Provider, size string) (Client, error) {
	apiKey, err := cfg.APIKeyFor(string(provider))
	if err != nil {
		return nil, err
	}
	model := cfg.ModelOverride(string(provider))
	if model == "" {
		if model, err = ModelFor(provider, size); err != nil {
			return nil, err
		}
	}

	cc := ClientConfig{
		APIKey:      apiKey,
		Model:       model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}
	if provider == Anthropic {
		return NewAnthropicClient(cc), nil
	}
	return NewOpenAIClient(cc), nil
}
