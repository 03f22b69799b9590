package parser

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dgallion1/promptmd/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser extracts page text from PDF files. It tries the Go reader
// first and, if FallbackPdftotext is set, retries with pdftotext.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	var text string
	err := withLocalFile(r, "promptmd-pdf-*.pdf", func(f *os.File, size int64) error {
		var err error
		text, err = extractPDFText(f, size)
		if err != nil && p.FallbackPdftotext {
			text, err = extractPdftotext(f.Name())
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	tree := &doctree.DocTree{
		Title: strings.TrimSuffix(filename, filepath.Ext(filename)),
	}
	for i, page := range strings.Split(text, "\f") {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		tree.Children = append(tree.Children, &doctree.DocNode{
			Title: fmt.Sprintf("Page %d", i+1),
			Text:  page,
			Page:  i + 1,
		})
	}
	return tree, nil
}

// extractPDFText joins page text with form feeds. The reader panics on
// some malformed files; that is reported as an error.
func extractPDFText(ra io.ReaderAt, size int64) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read pdf: %v", r)
		}
	}()

	reader, err := pdflib.NewReader(ra, size)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if i > 1 {
			buf.WriteString("\f")
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		buf.WriteString(pageText)
	}
	return buf.String(), nil
}

func extractPdftotext(path string) (string, error) {
	out, err := exec.Command("pdftotext", "-layout", path, "-").Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}
