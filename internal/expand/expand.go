// Package expand materializes markdown templates. Placeholders of the form
// {{ ... }} outside fenced code blocks are replaced with file contents,
// recursively expanded documents, or the output of a tree command.
package expand

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultCommandTimeout bounds a single command directive.
const DefaultCommandTimeout = 30 * time.Second

// Converter extracts plain text from document formats that cannot be
// included verbatim, such as PDF or DOCX.
type Converter interface {
	Handles(path string) bool
	Convert(path string) (string, error)
}

// Expander expands template documents. It holds no per-call state and is
// safe for concurrent use.
type Expander struct {
	log       *slog.Logger
	runner    Runner
	converter Converter
	timeout   time.Duration
}

// Option configures an Expander.
type Option func(*Expander)

func WithLogger(log *slog.Logger) Option {
	return func(e *Expander) { e.log = log }
}

func WithRunner(r Runner) Option {
	return func(e *Expander) { e.runner = r }
}

func WithConverter(c Converter) Option {
	return func(e *Expander) { e.converter = c }
}

// WithCommandTimeout sets the per-command ceiling. Non-positive values keep
// the default.
func WithCommandTimeout(d time.Duration) Option {
	return func(e *Expander) {
		if d > 0 {
			e.timeout = d
		}
	}
}

func New(opts ...Option) *Expander {
	e := &Expander{
		runner:  ExecRunner{},
		timeout: DefaultCommandTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e
}

// Expand reads the document at path and returns it with every directive
// resolved. Failures local to one directive are rendered inline; a missing
// root document, an include cycle or a chained command returns an error and
// no output.
func (e *Expander) Expand(ctx context.Context, path string) (string, error) {
	return e.expand(ctx, path, make(map[string]bool))
}

// expand runs the pipeline for one document. inProgress holds the documents
// on the current include path; an entry is dropped once its document is
// finished, so including the same file twice from one parent is allowed.
func (e *Expander) expand(ctx context.Context, path string, inProgress map[string]bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	doc, err := LoadDocument(path)
	if err != nil {
		return "", err
	}
	if inProgress[doc.Path] {
		return "", &ExpandError{Kind: ErrIncludeCycle, Document: doc.Path}
	}
	inProgress[doc.Path] = true
	defer delete(inProgress, doc.Path)

	var out strings.Builder
	out.Grow(len(doc.Text))
	for _, seg := range SplitFences(doc.Text) {
		if seg.Kind == Fenced {
			out.WriteString(seg.Text)
			continue
		}
		expanded, err := e.expandProse(ctx, doc, seg.Text, inProgress)
		if err != nil {
			return "", err
		}
		out.WriteString(expanded)
	}
	return out.String(), nil
}

// expandProse replaces each directive span in prose and copies everything
// between them unchanged.
func (e *Expander) expandProse(ctx context.Context, doc *Document, prose string, inProgress map[string]bool) (string, error) {
	directives := ParseDirectives(prose)
	if len(directives) == 0 {
		return prose, nil
	}

	var out strings.Builder
	last := 0
	for _, d := range directives {
		out.WriteString(prose[last:d.Start])
		replacement, err := e.resolve(ctx, doc, d, inProgress)
		if err != nil {
			return "", err
		}
		out.WriteString(replacement)
		last = d.End
	}
	out.WriteString(prose[last:])
	return out.String(), nil
}

func (e *Expander) resolve(ctx context.Context, doc *Document, d Directive, inProgress map[string]bool) (string, error) {
	switch d.Kind {
	case KindInclude:
		return e.resolveInclude(ctx, doc, d, inProgress)
	case KindCommand:
		return e.resolveCommand(ctx, doc, d)
	default:
		return e.resolveFile(doc, d), nil
	}
}

func (e *Expander) resolveInclude(ctx context.Context, doc *Document, d Directive, inProgress map[string]bool) (string, error) {
	rel := d.Arg()
	if rel == "" {
		e.warn(doc, d, errors.New("missing include path"))
		return errorBlock("txt", "include directive has no path", ""), nil
	}

	child, err := e.expand(ctx, filepath.Join(doc.Dir, rel), inProgress)
	switch {
	case err == nil:
		return child, nil
	case isFatal(err), ctx.Err() != nil:
		var expErr *ExpandError
		if errors.As(err, &expErr) && expErr.Expr == "" {
			expErr.Expr = d.Expr
		}
		return "", err
	case errors.Is(err, ErrDocumentNotFound):
		e.warn(doc, d, err)
		return errorBlock("txt", rel+" not found", ""), nil
	default:
		e.warn(doc, d, err)
		return errorBlock("txt", "cannot include "+rel, err.Error()), nil
	}
}

func (e *Expander) resolveCommand(ctx context.Context, doc *Document, d Directive) (string, error) {
	if err := checkCommand(d.Expr); err != nil {
		return "", &ExpandError{Kind: ErrUnsafeCommand, Document: doc.Path, Expr: d.Expr, Detail: err.Error()}
	}

	argv, err := splitArgs(d.Expr)
	if err != nil {
		e.warn(doc, d, err)
		return errorBlock("bash", fmt.Sprintf("cannot run `%s`: %v", d.Expr, err), ""), nil
	}

	cmdCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	res, err := e.runner.Run(cmdCtx, doc.BaseDir, argv)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s", e.timeout)
		}
		e.warn(doc, d, err)
		return errorBlock("bash", fmt.Sprintf("running `%s`: %v", d.Expr, err), res.Stderr), nil
	}
	if res.ExitCode != 0 {
		e.warn(doc, d, fmt.Errorf("exit status %d", res.ExitCode))
		return errorBlock("bash", fmt.Sprintf("`%s` exited with status %d", d.Expr, res.ExitCode), res.Stderr), nil
	}

	body := "$ " + d.Expr
	if out := trimRight(res.Stdout); out != "" {
		body += "\n" + out
	}
	return fence("bash", body), nil
}

func (e *Expander) resolveFile(doc *Document, d Directive) string {
	rel := d.Expr
	target := filepath.Join(doc.BaseDir, rel)

	info, err := os.Stat(target)
	if errors.Is(err, fs.ErrNotExist) {
		e.warn(doc, d, err)
		return errorBlock("txt", rel+" not found", "")
	}
	if err == nil && info.IsDir() {
		err = fmt.Errorf("%s is a directory", rel)
	}
	if err != nil {
		e.warn(doc, d, err)
		return errorBlock("txt", "cannot read "+rel, err.Error())
	}

	lang := LanguageFor(rel)
	var content string
	if e.converter != nil && e.converter.Handles(target) {
		lang = PlainText
		content, err = e.converter.Convert(target)
	} else {
		var data []byte
		data, err = os.ReadFile(target)
		content = string(data)
	}
	if err != nil {
		e.warn(doc, d, err)
		return errorBlock("txt", "cannot read "+rel, err.Error())
	}

	return fence(lang.Tag, lang.Comment(rel)+"\n"+trimRight(content))
}

func (e *Expander) warn(doc *Document, d Directive, err error) {
	e.log.Warn("directive failed",
		"kind", d.Kind.String(),
		"expr", d.Expr,
		"document", doc.Path,
		"error", err,
	)
}

func fence(tag, body string) string {
	return "```" + tag + "\n" + body + "\n```"
}

// errorBlock renders a recoverable failure in place of a directive.
func errorBlock(tag, msg, detail string) string {
	body := "ERROR: " + msg
	if detail = trimRight(detail); detail != "" {
		body += "\n" + detail
	}
	return fence(tag, body)
}

func trimRight(s string) string {
	return strings.TrimRight(s, " \t\r\n")
}
