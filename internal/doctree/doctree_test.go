package doctree

import (
	"strings"
	"testing"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"   ", 1},
		{"one", 1},
		{"one two three", 3},
		{strings.Repeat("word ", 100), 133},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestDocTree_TokensSumsSections(t *testing.T) {
	tree := &DocTree{
		Title: "doc",
		Children: []*DocNode{
			{
				Title: "Intro",
				Text:  strings.Repeat("word ", 30),
				Children: []*DocNode{
					{Title: "Detail", Text: strings.Repeat("word ", 60)},
				},
			},
			{Text: strings.Repeat("word ", 3)},
		},
	}

	intro := tree.Children[0]
	want := EstimateTokens("Intro") + EstimateTokens(intro.Text) + intro.Children[0].Tokens()
	if got := intro.Tokens(); got != want {
		t.Errorf("expected intro tokens %d, got %d", want, got)
	}
	if got := tree.Tokens(); got != want+EstimateTokens(tree.Children[1].Text) {
		t.Errorf("unexpected tree tokens %d", got)
	}
}

func TestDocTree_PlainText(t *testing.T) {
	tree := &DocTree{
		Children: []*DocNode{
			{Title: "Page 1", Text: "first page"},
			{Title: "Page 2", Text: "second page", Children: []*DocNode{{Text: "nested"}}},
		},
	}
	want := "Page 1\n\nfirst page\n\nPage 2\n\nsecond page\n\nnested"
	if got := tree.PlainText(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestDocTree_PlainTextEmpty(t *testing.T) {
	if got := (&DocTree{}).PlainText(); got != "" {
		t.Errorf("expected empty text, got %q", got)
	}
}
