package doctree

import "strings"

// EstimateTokens gives a rough token count from the word count.
// Exact tokenization differs per model; this is for sizing prompts only.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	// Roughly 0.75 words per token for English text and code.
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
