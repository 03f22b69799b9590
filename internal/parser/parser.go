package parser

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/promptmd/internal/doctree"
)

// Parser converts raw document bytes into a DocTree.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.DocTree, error)
}

// binaryExtensions are formats that cannot be pasted into a prompt as-is
// and are converted to text first.
var binaryExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, pdfFallback bool) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: pdfFallback}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// Extractor turns PDF and DOCX files into plain text so they can be
// referenced from file directives.
type Extractor struct {
	PDFFallback bool // shell out to pdftotext when the Go reader fails
}

// Handles reports whether path needs text extraction.
func (x Extractor) Handles(path string) bool {
	return binaryExtensions[strings.ToLower(filepath.Ext(path))]
}

// Convert parses the file at path and flattens it to text.
func (x Extractor) Convert(path string) (string, error) {
	p, err := ForFile(path, x.PDFFallback)
	if err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	tree, err := p.Parse(f, filepath.Base(path))
	if err != nil {
		return "", err
	}
	return tree.PlainText(), nil
}
