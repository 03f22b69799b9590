package expand

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// project lays out files under a temp root. Documents live in root/prompts,
// so file and command directives resolve against root.
type project struct {
	t    *testing.T
	root string
}

func newProject(t *testing.T) *project {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return &project{t: t, root: root}
}

func (p *project) write(rel, content string) string {
	p.t.Helper()
	path := filepath.Join(p.root, rel)
	require.NoError(p.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(p.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

type fakeRunner struct {
	res   CommandResult
	err   error
	block bool
	calls int
	dir   string
	argv  []string
}

func (f *fakeRunner) Run(ctx context.Context, dir string, argv []string) (CommandResult, error) {
	f.calls++
	f.dir = dir
	f.argv = argv
	if f.block {
		<-ctx.Done()
		return CommandResult{}, ctx.Err()
	}
	return f.res, f.err
}

type fakeConverter struct{ text string }

func (c fakeConverter) Handles(path string) bool { return strings.HasSuffix(path, ".pdf") }

func (c fakeConverter) Convert(path string) (string, error) { return c.text, nil }

func TestExpand_NoDirectivesIsIdentity(t *testing.T) {
	p := newProject(t)
	input := "# Title\n\nSome text with { braces } and }} stray {{ markers.\n\n```go\nx := map[string]int{}\n```\n"
	doc := p.write("prompts/plain.md", input)

	out, err := New().Expand(context.Background(), doc)
	require.NoError(t, err)
	require.Equal(t, input, out)
}

func TestExpand_SkipsDirectivesInsideFences(t *testing.T) {
	p := newProject(t)
	p.write("main.go", "package main\n")
	input := "```md\n{{ main.go }}\n{{ tree -L 1 }}\n```\n"
	doc := p.write("prompts/fenced.md", input)

	runner := &fakeRunner{}
	out, err := New(WithRunner(runner)).Expand(context.Background(), doc)
	require.NoError(t, err)
	require.Equal(t, input, out)
	require.Zero(t, runner.calls)
}

func TestExpand_FileDirective(t *testing.T) {
	p := newProject(t)
	p.write("src/main.go", "package main\n\nfunc main() {}\n\n")
	doc := p.write("prompts/q.md", "Look at:\n{{ src/main.go }}\nThanks.")

	out, err := New().Expand(context.Background(), doc)
	require.NoError(t, err)
	want := "Look at:\n```go\n// src/main.go\npackage main\n\nfunc main() {}\n```\nThanks."
	require.Equal(t, want, out)
}

func TestExpand_FileDirectiveUnknownExtension(t *testing.T) {
	p := newProject(t)
	p.write("NOTES", "remember this")
	doc := p.write("prompts/q.md", "{{ NOTES }}")

	out, err := New().Expand(context.Background(), doc)
	require.NoError(t, err)
	require.Equal(t, "```txt\n# NOTES\nremember this\n```", out)
}

func TestExpand_MissingFileIsInline(t *testing.T) {
	p := newProject(t)
	p.write("a.py", "print(1)")
	doc := p.write("prompts/q.md", "{{ nope.txt }}\n{{ a.py }}")

	out, err := New().Expand(context.Background(), doc)
	require.NoError(t, err)
	require.Contains(t, out, "```txt\nERROR: nope.txt not found\n```")
	require.Contains(t, out, "```py\n# a.py\nprint(1)\n```")
}

func TestExpand_DirectoryAsFileIsInline(t *testing.T) {
	p := newProject(t)
	p.write("src/a.go", "package a")
	doc := p.write("prompts/q.md", "{{ src }}")

	out, err := New().Expand(context.Background(), doc)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "```txt\nERROR: cannot read src"), out)
}

func TestExpand_ConverterHandlesBinaryFormats(t *testing.T) {
	p := newProject(t)
	p.write("docs/report.pdf", "%PDF-binary")
	doc := p.write("prompts/q.md", "{{ docs/report.pdf }}")

	out, err := New(WithConverter(fakeConverter{text: "Quarterly numbers\n"})).Expand(context.Background(), doc)
	require.NoError(t, err)
	require.Equal(t, "```txt\n# docs/report.pdf\nQuarterly numbers\n```", out)
}

func TestExpand_IncludeIsRelativeToDocument(t *testing.T) {
	p := newProject(t)
	p.write("lib/util.go", "package lib")
	p.write("prompts/part.md", "Part with {{ lib/util.go }}")
	doc := p.write("prompts/main.md", "Start\n{{ include part.md }}\nEnd")

	out, err := New().Expand(context.Background(), doc)
	require.NoError(t, err)
	require.Equal(t, "Start\nPart with ```go\n// lib/util.go\npackage lib\n```\nEnd", out)
}

func TestExpand_NestedIncludeUsesChildBaseDir(t *testing.T) {
	p := newProject(t)
	p.write("prompts/data.txt", "child base")
	p.write("prompts/sub/child.md", "{{ data.txt }}")
	doc := p.write("prompts/main.md", "{{ include sub/child.md }}")

	out, err := New().Expand(context.Background(), doc)
	require.NoError(t, err)
	require.Equal(t, "```txt\n# data.txt\nchild base\n```", out)
}

func TestExpand_MissingIncludeIsInline(t *testing.T) {
	p := newProject(t)
	doc := p.write("prompts/main.md", "a {{ include gone.md }} b")

	out, err := New().Expand(context.Background(), doc)
	require.NoError(t, err)
	require.Equal(t, "a ```txt\nERROR: gone.md not found\n``` b", out)
}

func TestExpand_IncludeCycleIsFatal(t *testing.T) {
	p := newProject(t)
	p.write("prompts/b.md", "B {{ include a.md }}")
	doc := p.write("prompts/a.md", "A {{ include b.md }}")

	out, err := New().Expand(context.Background(), doc)
	require.ErrorIs(t, err, ErrIncludeCycle)
	require.Empty(t, out)

	var expErr *ExpandError
	require.True(t, errors.As(err, &expErr))
	require.Equal(t, doc, expErr.Document)
	require.Equal(t, "include a.md", expErr.Expr)
}

func TestExpand_SelfIncludeIsFatal(t *testing.T) {
	p := newProject(t)
	doc := p.write("prompts/a.md", "{{ include ./a.md }}")

	_, err := New().Expand(context.Background(), doc)
	require.ErrorIs(t, err, ErrIncludeCycle)
}

func TestExpand_RepeatedIncludeIsAllowed(t *testing.T) {
	p := newProject(t)
	p.write("prompts/c.md", "C")
	doc := p.write("prompts/a.md", "{{ include c.md }}-{{ include c.md }}")

	out, err := New().Expand(context.Background(), doc)
	require.NoError(t, err)
	require.Equal(t, "C-C", out)
}

func TestExpand_MissingRootIsFatal(t *testing.T) {
	p := newProject(t)
	_, err := New().Expand(context.Background(), filepath.Join(p.root, "prompts", "absent.md"))
	require.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestExpand_RootThroughRegularFileIsNotFound(t *testing.T) {
	p := newProject(t)
	p.write("a.go", "package a\n")
	_, err := New().Expand(context.Background(), filepath.Join(p.root, "a.go", "q.md"))
	require.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestExpand_ChainedCommandIsFatal(t *testing.T) {
	exprs := []string{"tree; rm -rf ~", "tree -L 1 && echo done", "tree;ls", "tree&&ls"}
	for _, expr := range exprs {
		p := newProject(t)
		doc := p.write("prompts/q.md", "ok {{ main.go }}\n{{ "+expr+" }}")

		runner := &fakeRunner{}
		out, err := New(WithRunner(runner)).Expand(context.Background(), doc)
		require.ErrorIs(t, err, ErrUnsafeCommand, expr)
		require.Empty(t, out)
		require.Zero(t, runner.calls)
	}
}

func TestExpand_ChainedCommandInIncludeIsFatal(t *testing.T) {
	p := newProject(t)
	p.write("prompts/child.md", "{{ tree && ls }}")
	doc := p.write("prompts/main.md", "{{ include child.md }}")

	_, err := New(WithRunner(&fakeRunner{})).Expand(context.Background(), doc)
	require.ErrorIs(t, err, ErrUnsafeCommand)
}

func TestExpand_CommandRunsInBaseDir(t *testing.T) {
	p := newProject(t)
	doc := p.write("prompts/q.md", "Layout:\n{{ tree -L 1 }}\n")

	runner := &fakeRunner{res: CommandResult{Stdout: ".\n├── a.txt\n└── prompts\n\n"}}
	out, err := New(WithRunner(runner)).Expand(context.Background(), doc)
	require.NoError(t, err)
	require.Equal(t, p.root, runner.dir)
	require.Equal(t, []string{"tree", "-L", "1"}, runner.argv)
	require.Equal(t, "Layout:\n```bash\n$ tree -L 1\n.\n├── a.txt\n└── prompts\n```\n", out)
}

func TestExpand_CommandFailureIsInline(t *testing.T) {
	p := newProject(t)
	doc := p.write("prompts/q.md", "{{ tree missing }} after")

	runner := &fakeRunner{res: CommandResult{Stderr: "missing [error opening dir]\n", ExitCode: 2}}
	out, err := New(WithRunner(runner)).Expand(context.Background(), doc)
	require.NoError(t, err)
	require.Equal(t, "```bash\nERROR: `tree missing` exited with status 2\nmissing [error opening dir]\n``` after", out)
}

func TestExpand_CommandSpawnFailureIsInline(t *testing.T) {
	p := newProject(t)
	doc := p.write("prompts/q.md", "{{ tree }}")

	runner := &fakeRunner{err: exec.ErrNotFound}
	out, err := New(WithRunner(runner)).Expand(context.Background(), doc)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "```bash\nERROR: running `tree`"), out)
}

func TestExpand_CommandTimeoutIsInline(t *testing.T) {
	p := newProject(t)
	doc := p.write("prompts/q.md", "{{ tree -a }}")

	runner := &fakeRunner{block: true}
	e := New(WithRunner(runner), WithCommandTimeout(20*time.Millisecond))
	out, err := e.Expand(context.Background(), doc)
	require.NoError(t, err)
	require.Contains(t, out, "timed out after 20ms")
}

func TestExpand_UnsupportedShellSyntaxIsInline(t *testing.T) {
	p := newProject(t)
	doc := p.write("prompts/q.md", "{{ tree $(whoami) }}")

	runner := &fakeRunner{}
	out, err := New(WithRunner(runner)).Expand(context.Background(), doc)
	require.NoError(t, err)
	require.Zero(t, runner.calls)
	require.True(t, strings.HasPrefix(out, "```bash\nERROR: cannot run"), out)
}

func TestExpand_CancelledContext(t *testing.T) {
	p := newProject(t)
	doc := p.write("prompts/q.md", "text")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Expand(ctx, doc)
	require.ErrorIs(t, err, context.Canceled)
}

func TestExpand_RealTree(t *testing.T) {
	if _, err := exec.LookPath("tree"); err != nil {
		t.Skip("tree not installed")
	}
	p := newProject(t)
	p.write("a.txt", "a")
	doc := p.write("prompts/q.md", "{{ tree -L 1 }}")

	out, err := New().Expand(context.Background(), doc)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "```bash\n$ tree -L 1\n"), out)
	require.Contains(t, out, "a.txt")
}

func TestExpand_ConcurrentCallsAreIndependent(t *testing.T) {
	p := newProject(t)
	p.write("prompts/c.md", "C")
	doc := p.write("prompts/a.md", "{{ include c.md }}")

	e := New()
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			out, err := e.Expand(context.Background(), doc)
			if err == nil && out != "C" {
				err = errors.New("unexpected output " + out)
			}
			errs <- err
		}()
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-errs)
	}
}
