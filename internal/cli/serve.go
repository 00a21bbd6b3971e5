package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ngenohkevin/devhub-agent/config"
	"github.com/ngenohkevin/devhub-agent/internal/app"
	"github.com/ngenohkevin/devhub-agent/internal/logger"
	"github.com/ngenohkevin/devhub-agent/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the DevHub agent.

Configuration comes from the environment and an optional .env file
(see ENV_FILE). Without an API_KEY the agent starts in setup mode and only
exposes /health and /setup.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogEncoding,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	a, err := app.New(cfg, app.WithLogger(log))
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, a, log, cmd.Root().Version)
	return srv.Run(ctx)
}
