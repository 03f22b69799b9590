package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/promptmd/internal/api"
	"github.com/dgallion1/promptmd/internal/config"
	"github.com/dgallion1/promptmd/internal/expand"
	"github.com/dgallion1/promptmd/internal/llm"
	"github.com/dgallion1/promptmd/internal/parser"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.ValidateServer(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	exp := expand.New(
		expand.WithLogger(log),
		expand.WithCommandTimeout(cfg.CommandTimeout),
		expand.WithConverter(parser.Extractor{PDFFallback: cfg.PDFFallbackPdftotext}),
	)
	stats := llm.NewLatencyStats(cfg.StatsWindow)

	srv := api.NewServer(exp, stats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting promptmd server", "port", cfg.Port, "root", cfg.DocumentRoot)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
