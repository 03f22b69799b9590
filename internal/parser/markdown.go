package parser

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/promptmd/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser builds a heading outline of a markdown document using
// goldmark. Non-heading blocks, code included, become the text of the
// nearest preceding heading.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	tree := &doctree.DocTree{
		Title: strings.TrimSuffix(filename, filepath.Ext(filename)),
	}

	type stackEntry struct {
		node  *doctree.DocNode
		level int
	}

	// Level 0 is the document itself; every heading nests under it.
	root := &doctree.DocNode{Title: tree.Title}
	stack := []stackEntry{{node: root, level: 0}}

	var pending []string
	flush := func() {
		if len(pending) == 0 {
			return
		}
		top := stack[len(stack)-1].node
		joined := strings.Join(pending, "\n\n")
		if top.Text != "" {
			top.Text += "\n\n" + joined
		} else {
			top.Text = joined
		}
		pending = pending[:0]
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		heading, ok := n.(*ast.Heading)
		if !ok {
			if t := blockText(n, src); t != "" {
				pending = append(pending, t)
			}
			continue
		}

		flush()
		node := &doctree.DocNode{Title: string(heading.Text(src))}
		for len(stack) > 1 && stack[len(stack)-1].level >= heading.Level {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1].node
		parent.Children = append(parent.Children, node)
		stack = append(stack, stackEntry{node: node, level: heading.Level})
	}
	flush()

	tree.Children = root.Children
	// Text before the first heading gets its own untitled section.
	if root.Text != "" {
		tree.Children = append([]*doctree.DocNode{{Text: root.Text}}, tree.Children...)
	}

	return tree, nil
}

// blockText returns the raw source lines of a leaf block such as a
// paragraph or code block, and the joined text of container blocks.
func blockText(n ast.Node, src []byte) string {
	if n.Type() != ast.TypeBlock {
		return ""
	}
	if lines := n.Lines(); lines.Len() > 0 {
		var buf bytes.Buffer
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}

	var parts []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t := blockText(c, src); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}
