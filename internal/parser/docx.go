package parser

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/promptmd/internal/doctree"
	"github.com/fumiama/go-docx"
)

// DOCXParser builds a heading tree from .docx paragraphs.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	var doc *docx.Docx
	err := withLocalFile(r, "promptmd-docx-*.docx", func(f *os.File, size int64) error {
		var err error
		doc, err = docx.Parse(f, size)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	tree := &doctree.DocTree{
		Title: strings.TrimSuffix(filename, filepath.Ext(filename)),
	}

	type stackEntry struct {
		node  *doctree.DocNode
		level int
	}
	root := &doctree.DocNode{Title: tree.Title}
	stack := []stackEntry{{node: root, level: 0}}

	var pending []string
	flush := func() {
		if len(pending) == 0 {
			return
		}
		top := stack[len(stack)-1].node
		if top.Text != "" {
			pending = append([]string{top.Text}, pending...)
		}
		top.Text = strings.Join(pending, "\n\n")
		pending = pending[:0]
	}

	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		if text == "" {
			continue
		}

		level := docxHeadingLevel(para)
		if level == 0 {
			pending = append(pending, text)
			continue
		}

		flush()
		node := &doctree.DocNode{Title: text}
		for len(stack) > 1 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1].node
		parent.Children = append(parent.Children, node)
		stack = append(stack, stackEntry{node: node, level: level})
	}
	flush()

	tree.Children = root.Children
	if root.Text != "" {
		tree.Children = append([]*doctree.DocNode{{Text: root.Text}}, tree.Children...)
	}
	return tree, nil
}

// docxHeadingLevel reads the level from styles named "Heading1" or
// "heading 1". Other paragraphs are level 0.
func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	rest, ok := strings.CutPrefix(style, "heading")
	if !ok {
		return 0
	}
	level, err := strconv.Atoi(rest)
	if err != nil || level < 1 || level > 6 {
		return 0
	}
	return level
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
