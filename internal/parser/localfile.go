package parser

import (
	"fmt"
	"io"
	"os"
)

// withLocalFile hands fn a seekable file with r's contents. Readers that
// are already regular files are used in place; anything else is spooled to
// a temp file matching pattern, removed afterwards.
func withLocalFile(r io.Reader, pattern string, fn func(f *os.File, size int64) error) error {
	if f, ok := r.(*os.File); ok {
		if info, err := f.Stat(); err == nil && info.Mode().IsRegular() {
			return fn(f, info.Size())
		}
	}

	tmp, err := os.CreateTemp("", pattern)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	size, err := io.Copy(tmp, r)
	if err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek temp file: %w", err)
	}
	return fn(tmp, size)
}
