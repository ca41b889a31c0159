package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"eventflow-relay/internal/api"
	"eventflow-relay/internal/api/handlers"
	"eventflow-relay/internal/events"
	"eventflow-relay/internal/repository"
	"eventflow-relay/internal/service"
	"eventflow-relay/pkg/config"
	"eventflow-relay/pkg/logger"
	"eventflow-relay/pkg/metrics"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// @title EventFlow Relay API
// @version 1.0
// @description Webhook relay that transcribes, stores and categorizes event-planning inquiries

// @contact.name API Support

// @host localhost:5000
// @BasePath /

// exitCodeError carries a process exit code out of a command without printing anything extra.
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var exitErr *exitCodeError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "eventflow-relay",
		Short:         "EventFlow webhook relay",
		Long:          "Receives voice and SMS webhooks, transcribes recordings, stores transcripts and tags them with event categories.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newValidateConfigCmd())

	return rootCmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
}

func newValidateConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-config",
		Short: "Check that every required environment variable is set",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if code := config.Report(cmd.OutOrStdout(), cfg); code != 0 {
				return &exitCodeError{code: code}
			}
			return nil
		},
	}
}

func runServe(cmd *cobra.Command) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		config.Report(cmd.ErrOrStderr(), cfg)
		return &exitCodeError{code: 1}
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting EventFlow relay")

	m := metrics.New()

	// Outbound clients
	transcriptRepo := repository.NewTranscriptRepository(&cfg.Airtable, logger.WithComponent("airtable"))
	transcriber := service.NewTranscriptionService(&cfg.AssemblyAI, logger.WithComponent("assemblyai"))
	publisher := events.New(&cfg.Kafka, logger.WithComponent("events"))
	defer func() {
		if err := publisher.Close(); err != nil {
			appLogger.Error("Failed to close event publisher", zap.Error(err))
		}
	}()

	// Services and handlers
	ingestion := service.NewIngestionService(transcriptRepo, transcriber, publisher, m, logger.WithComponent("ingestion"))
	webhookHandler := handlers.NewWebhookHandler(ingestion, api.VoiceRoutes(), m, appLogger)

	app := api.SetupRouter(&cfg.Server, webhookHandler, m, appLogger)

	// Start server
	serverErr := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		serverErr <- app.Listen(addr)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		appLogger.Error("Server failed", zap.Error(err))
		return err
	case <-quit:
	}

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
	return nil
}
