package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/dgallion1/promptmd/internal/config"
	"github.com/dgallion1/promptmd/internal/doctree"
	"github.com/dgallion1/promptmd/internal/llm"
	"github.com/dgallion1/promptmd/internal/parser"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Seams for tests.
var (
	clipboardWriteAll = clipboard.WriteAll
	newLLMClient      = llm.NewClient
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed)
)

type expandOptions struct {
	send     bool
	provider string
	size     string
	noCopy   bool
	printOut bool
	html     bool
}

func newRootCmd(cfg config.Config, log *slog.Logger) *cobra.Command {
	var opts expandOptions

	cmd := &cobra.Command{
		Use:   "promptmd <file.md>",
		Short: "Expand {{ ... }} directives in a markdown prompt",
		Long: `Expand a markdown prompt by replacing directives outside code fences:

  {{ path/to/file }}      file contents, path relative to the parent of the document's directory
  {{ include part.md }}   another prompt, path relative to the document's directory
  {{ tree -L 2 }}         output of tree run in the parent of the document's directory

The result is copied to the clipboard and can be sent to a model with --send.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpand(cmd, cfg, log, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.send, "send", false, "send the expanded prompt to the model and save the answer")
	cmd.Flags().StringVar(&opts.provider, "provider", cfg.Provider, "model provider: openai or anthropic")
	cmd.Flags().StringVar(&opts.size, "size", cfg.ModelSize, "model size: small, medium, large or default")
	cmd.Flags().BoolVar(&opts.noCopy, "no-copy", false, "do not copy the result to the clipboard")
	cmd.Flags().BoolVarP(&opts.printOut, "print", "p", false, "write the result to stdout")
	cmd.Flags().BoolVar(&opts.html, "html", false, "render the result as HTML")
	return cmd
}

func runExpand(cmd *cobra.Command, cfg config.Config, log *slog.Logger, mdfile string, opts expandOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	stderr := cmd.ErrOrStderr()

	// Validate send settings before doing any work.
	var client llm.Client
	if opts.send {
		provider, err := llm.ParseProvider(opts.provider)
		if err != nil {
			return err
		}
		if client, err = newLLMClient(cfg, provider, opts.size); err != nil {
			return err
		}
	}

	prompt, err := newExpander(cfg, log).Expand(ctx, mdfile)
	if err != nil {
		return err
	}

	result := prompt
	if opts.html {
		out, err := parser.RenderHTML([]byte(prompt))
		if err != nil {
			return err
		}
		result = string(out)
	}

	copied := false
	switch {
	case opts.noCopy:
	case clipboard.Unsupported:
		warnColor.Fprintln(stderr, "clipboard not available, copy skipped")
	default:
		if err := clipboardWriteAll(result); err != nil {
			warnColor.Fprintf(stderr, "clipboard copy failed: %v\n", err)
		} else {
			copied = true
			okColor.Fprintf(stderr, "Copied to clipboard (~%d tokens).\n", doctree.EstimateTokens(prompt))
		}
	}
	if opts.printOut || !copied && !opts.send {
		fmt.Fprint(cmd.OutOrStdout(), result)
		if !strings.HasSuffix(result, "\n") {
			fmt.Fprintln(cmd.OutOrStdout())
		}
	}

	if client == nil {
		return nil
	}

	fmt.Fprintf(stderr, "sending to %s (%s)...\n", client.Provider(), client.Model())
	answer, err := llm.SendWithRetry(ctx, client, prompt, nil, log)
	if err != nil {
		errColor.Fprintf(stderr, "Failed to send prompt: %v\n", err)
		return err
	}

	out := answerPath(mdfile)
	if err := os.WriteFile(out, []byte(answer.Content), 0o644); err != nil {
		return fmt.Errorf("write answer: %w", err)
	}
	okColor.Fprintf(stderr, "Response saved to %s (%d in / %d out tokens)\n", out, answer.InputTokens, answer.OutputTokens)
	return nil
}

// answerPath places the answer next to the prompt: notes/q.md becomes
// notes/q-ans.md.
func answerPath(mdfile string) string {
	ext := filepath.Ext(mdfile)
	stem := strings.TrimSuffix(filepath.Base(mdfile), ext)
	return filepath.Join(filepath.Dir(mdfile), stem+"-ans"+ext)
}
