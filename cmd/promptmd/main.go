package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgallion1/promptmd/internal/config"
	"github.com/dgallion1/promptmd/internal/expand"
	"github.com/dgallion1/promptmd/internal/parser"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg := config.Load()

	root := newRootCmd(cfg, log)
	root.AddCommand(newOutlineCmd(cfg, log))
	root.AddCommand(newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "promptmd 0.1.0")
		},
	}
}

func newExpander(cfg config.Config, log *slog.Logger) *expand.Expander {
	return expand.New(
		expand.WithLogger(log),
		expand.WithCommandTimeout(cfg.CommandTimeout),
		expand.WithConverter(parser.Extractor{PDFFallback: cfg.PDFFallbackPdftotext}),
	)
}

// exitCode gives each fatal expansion failure its own status so scripts can
// tell them apart.
func exitCode(err error) int {
	switch {
	case errors.Is(err, expand.ErrDocumentNotFound):
		return 2
	case errors.Is(err, expand.ErrIncludeCycle):
		return 3
	case errors.Is(err, expand.ErrUnsafeCommand):
		return 4
	default:
		return 1
	}
}
