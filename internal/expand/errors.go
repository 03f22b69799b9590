package expand

import (
	"errors"
	"fmt"
)

// Fatal expansion failures. Each aborts the whole top-level call; test with
// errors.Is.
var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrIncludeCycle     = errors.New("include cycle detected")
	ErrUnsafeCommand    = errors.New("unsafe command")
)

// ExpandError describes a fatal failure and where it was found.
type ExpandError struct {
	Kind     error  // one of the Err* sentinels
	Document string // canonical path of the document being expanded
	Expr     string // offending directive expression, if any
	Detail   string
}

func (e *ExpandError) Error() string {
	msg := e.Kind.Error()
	if e.Document != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Document)
	}
	if e.Expr != "" {
		msg = fmt.Sprintf("%s: {{ %s }}", msg, e.Expr)
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Detail)
	}
	return msg
}

func (e *ExpandError) Unwrap() error { return e.Kind }

// isFatal reports whether err must stop expansion instead of being rendered
// inline where the directive was.
func isFatal(err error) bool {
	return errors.Is(err, ErrIncludeCycle) || errors.Is(err, ErrUnsafeCommand)
}
