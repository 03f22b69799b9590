package llm

import (
	"fmt"
	"strings"
)

// Provider names a model vendor.
type Provider string

const (
	OpenAI    Provider = "openai"
	Anthropic Provider = "anthropic"
)

// Model sizes accepted by ModelFor.
const (
	SizeSmall   = "small"
	SizeMedium  = "medium"
	SizeLarge   = "large"
	SizeDefault = "default"
)

var models = map[Provider]map[string]string{
	OpenAI: {
		SizeSmall:   "gpt-4.1-mini",
		SizeMedium:  "gpt-4o",
		SizeLarge:   "gpt-4.1",
		SizeDefault: "gpt-4.1",
	},
	Anthropic: {
		SizeSmall:   "claude-3-5-haiku-latest",
		SizeMedium:  "claude-3-5-haiku-latest",
		SizeLarge:   "claude-sonnet-4-20250514",
		SizeDefault: "claude-sonnet-4-20250514",
	},
}

// ParseProvider validates a provider name, case-insensitively.
func ParseProvider(name string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := models[p]; !ok {
		return "", fmt.Errorf("unknown provider %q (want openai or anthropic)", name)
	}
	return p, nil
}

// ModelFor returns the model for a provider and size. An empty size means
// SizeDefault.
func ModelFor(p Provider, size string) (string, error) {
	sizes, ok := models[p]
	if !ok {
		return "", fmt.Errorf("unknown provider %q", p)
	}
	if size == "" {
		size = SizeDefault
	}
	model, ok := sizes[strings.ToLower(size)]
	if !ok {
		return "", fmt.Errorf("unknown model size %q (want small, medium, large or default)", size)
	}
	return model, nil
}

// SystemPrompt is sent with every request.
const SystemPrompt = `You are an expert programmer answering code questions from collaborators.
In all your replies, wrap code in markdown code fences that include the
file extension for syntax highlighting.
You only provide the relevant surgical pieces of code change required
to answer the question with clear way of identifying the location of the
change in a code file.`
