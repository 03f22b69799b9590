package parser

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var htmlRenderer = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderHTML converts an expanded markdown document to an HTML fragment.
func RenderHTML(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := htmlRenderer.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}
