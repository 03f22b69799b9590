package expand

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
)

// Document is a template file read for one expansion.
type Document struct {
	Path    string // absolute, symlinks resolved
	Dir     string // directory holding the document; include paths start here
	BaseDir string // parent of Dir; file and command paths start here
	Text    string
}

// LoadDocument canonicalizes path and reads it. A path that does not exist
// yields an error wrapping ErrDocumentNotFound.
func LoadDocument(path string) (*Document, error) {
	canonical, err := canonicalize(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(canonical)
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", canonical, err)
	}
	dir := filepath.Dir(canonical)
	return &Document{
		Path:    canonical,
		Dir:     dir,
		BaseDir: filepath.Dir(dir),
		Text:    string(data),
	}, nil
}

func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	// A component that is a regular file fails with ENOTDIR.
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
		return "", &ExpandError{Kind: ErrDocumentNotFound, Document: abs}
	}
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", abs, err)
	}
	return resolved, nil
}
