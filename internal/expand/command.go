package expand

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// chainDelimiters are rejected anywhere in a command expression, quoted or not.
var chainDelimiters = []string{";", "&&"}

// CommandResult is the captured outcome of a command that ran to completion.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes argv with dir as the working directory. A process that
// starts and exits non-zero is reported through ExitCode; err is reserved
// for spawn failures, timeouts and cancellation.
type Runner interface {
	Run(ctx context.Context, dir string, argv []string) (CommandResult, error)
}

// ExecRunner runs commands directly with os/exec. No shell is involved.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir string, argv []string) (CommandResult, error) {
	if len(argv) == 0 {
		return CommandResult{}, fmt.Errorf("empty command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return CommandResult{Stderr: stderr.String()}, ctxErr
	}
	res := CommandResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, err
	}
	return res, nil
}

// checkCommand rejects expressions that try to sequence more than one
// command. It runs on the raw string before any tokenizing.
func checkCommand(expr string) error {
	for _, d := range chainDelimiters {
		if strings.Contains(expr, d) {
			return fmt.Errorf("command contains %q", d)
		}
	}
	return nil
}

// splitArgs tokenizes expr with POSIX shell quoting rules. Only a single
// simple command made of literal words is accepted: variables, command
// substitution, pipes and redirects are refused because nothing would
// interpret them.
func splitArgs(expr string) ([]string, error) {
	parser := syntax.NewParser(
		syntax.Variant(syntax.LangBash),
		syntax.KeepComments(false),
	)
	file, err := parser.Parse(strings.NewReader(expr), "")
	if err != nil {
		return nil, fmt.Errorf("parse command: %w", err)
	}
	if len(file.Stmts) != 1 {
		return nil, fmt.Errorf("expected a single command, got %d", len(file.Stmts))
	}
	stmt := file.Stmts[0]
	if stmt.Negated || stmt.Background || stmt.Coprocess || len(stmt.Redirs) > 0 {
		return nil, fmt.Errorf("unsupported shell syntax")
	}
	call, ok := stmt.Cmd.(*syntax.CallExpr)
	if !ok || len(call.Assigns) > 0 || len(call.Args) == 0 {
		return nil, fmt.Errorf("unsupported shell syntax")
	}

	args := make([]string, 0, len(call.Args))
	for _, word := range call.Args {
		arg, err := literalWord(word)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}

func literalWord(word *syntax.Word) (string, error) {
	var sb strings.Builder
	for _, part := range word.Parts {
		switch p := part.(type) {
		case *syntax.Lit:
			sb.WriteString(unescape(p.Value, false))
		case *syntax.SglQuoted:
			if p.Dollar {
				return "", fmt.Errorf("unsupported quoting $'...'")
			}
			sb.WriteString(p.Value)
		case *syntax.DblQuoted:
			if p.Dollar {
				return "", fmt.Errorf("unsupported quoting $\"...\"")
			}
			for _, qp := range p.Parts {
				lit, ok := qp.(*syntax.Lit)
				if !ok {
					return "", fmt.Errorf("expansion inside double quotes is not supported")
				}
				sb.WriteString(unescape(lit.Value, true))
			}
		default:
			return "", fmt.Errorf("expansion is not supported")
		}
	}
	return sb.String(), nil
}

// unescape drops the backslashes the shell would consume. Inside double
// quotes only \$ \` \" \\ and line continuations are escapes.
func unescape(s string, quoted bool) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			sb.WriteByte(c)
			continue
		}
		next := s[i+1]
		switch {
		case next == '\n':
			i++
		case !quoted || strings.IndexByte("$`\"\\", next) >= 0:
			sb.WriteByte(next)
			i++
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
