package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/dgallion1/promptmd/internal/config"
	"github.com/dgallion1/promptmd/internal/doctree"
	"github.com/dgallion1/promptmd/internal/parser"
	"github.com/spf13/cobra"
)

func newOutlineCmd(cfg config.Config, log *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "outline <file.md>",
		Short: "Show the section outline of the expanded prompt with token estimates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			prompt, err := newExpander(cfg, log).Expand(ctx, args[0])
			if err != nil {
				return err
			}
			tree, err := (&parser.MarkdownParser{}).Parse(strings.NewReader(prompt), filepath.Base(args[0]))
			if err != nil {
				return err
			}
			writeOutline(cmd.OutOrStdout(), tree)
			return nil
		},
	}
}

func writeOutline(w io.Writer, tree *doctree.DocTree) {
	fmt.Fprintf(w, "%s (~%d tokens)\n", tree.Title, tree.Tokens())
	var walk func(n *doctree.DocNode, depth int)
	walk = func(n *doctree.DocNode, depth int) {
		title := n.Title
		if title == "" {
			title = "(preamble)"
		}
		fmt.Fprintf(w, "%s%s (~%d tokens)\n", strings.Repeat("  ", depth), title, n.Tokens())
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	for _, c := range tree.Children {
		walk(c, 1)
	}
}
