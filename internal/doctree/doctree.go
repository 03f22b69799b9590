package doctree

import "strings"

// DocTree is the root of a parsed document.
type DocTree struct {
	Title    string     // Document title (from metadata or filename)
	Children []*DocNode // Top-level sections
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     // Section heading (empty for leaf text)
	Text     string     // Text content of this node (may be empty for container nodes)
	Page     int        // Source page (0 if N/A)
	Children []*DocNode // Subsections
}

// Tokens estimates the tokens of the section including its subsections.
func (n *DocNode) Tokens() int {
	total := EstimateTokens(n.Title) + EstimateTokens(n.Text)
	for _, c := range n.Children {
		total += c.Tokens()
	}
	return total
}

// Tokens estimates the tokens of the whole tree.
func (t *DocTree) Tokens() int {
	total := 0
	for _, c := range t.Children {
		total += c.Tokens()
	}
	return total
}

// PlainText flattens the tree back into text, one block per node, with
// headings on their own line.
func (t *DocTree) PlainText() string {
	var blocks []string
	var walk func(n *DocNode)
	walk = func(n *DocNode) {
		if n.Title != "" {
			blocks = append(blocks, n.Title)
		}
		if n.Text != "" {
			blocks = append(blocks, n.Text)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, c := range t.Children {
		walk(c)
	}
	return strings.Join(blocks, "\n\n")
}
