package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/wardbuddy/wardbuddy/internal/config"
	"github.com/wardbuddy/wardbuddy/internal/llm"
	"github.com/wardbuddy/wardbuddy/internal/server"
	"github.com/wardbuddy/wardbuddy/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tutoring web interface",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

// runServe loads configuration, wires dependencies, and serves the web UI
// until interrupted. Configuration failures are fatal before any socket is
// bound.
func runServe(cmd *cobra.Command) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	var st *store.Store
	var recorder llm.EventRecorder
	var transcripts server.TranscriptStore
	if dbPath := persistencePath(cmd); dbPath != "" {
		st, err = store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()
		recorder = st
		transcripts = st
		logger.Info("persistence enabled", "db", dbPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := llm.NewProvider(ctx, cfg.LLM, logger, recorder)
	if err != nil {
		return fmt.Errorf("initialize LLM provider: %w", err)
	}

	manager := server.NewManager(provider, logger, cfg.LLM.Timeout, transcripts)
	handler := server.NewHandler(manager, logger)
	srv := server.New(cfg.Addr(), handler, logger)

	logger.Info("starting wardbuddy",
		"addr", cfg.Addr(),
		"provider", cfg.LLM.Provider,
		"model", provider.ModelID(),
		"share", cfg.Share,
	)

	return srv.Run(ctx)
}
