package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Scarage1/API-Watch/internal/infra/history"
	"github.com/Scarage1/API-Watch/internal/infra/webhook"
)

var (
	webhookAddr string
	webhookDir  string
)

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Run the local webhook receiver",
	Long: `Starts an HTTP server that captures anything POSTed to /hooks/* so
callback flows can be inspected while testing an API.`,
	Run: runWebhook,
}

func init() {
	rootCmd.AddCommand(webhookCmd)

	webhookCmd.Flags().StringVar(&webhookAddr, "addr", "", "listen address (overrides config)")
	webhookCmd.Flags().StringVar(&webhookDir, "capture-dir", "", "capture directory (overrides config)")
}

func runWebhook(cmd *cobra.Command, args []string) {
	cfg := setup()

	if webhookAddr != "" {
		cfg.Webhook.Addr = webhookAddr
	}
	if webhookDir != "" {
		cfg.Webhook.CaptureDir = webhookDir
	}

	srv := webhook.NewServer(cfg.Webhook, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The receiver is the only long-running mode, so history retention is
	// enforced here.
	if cfg.History.Enabled {
		store, err := history.OpenSQLite(ctx, cfg.History)
		if err != nil {
			slog.Error("Failed to open history store", "error", err)
			os.Exit(1)
		}
		defer func() {
			_ = store.Close()
		}()

		pruner := history.NewPruner(store, cfg.History.Retention)
		go pruner.Start(ctx)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	slog.Info("Webhook receiver started", "addr", cfg.Webhook.Addr)

	select {
	case err := <-errChan:
		if err != nil {
			slog.Error("Webhook receiver failed", "error", err)
			os.Exit(1)
		}
		return
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		slog.Error("Error during shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("Webhook receiver stopped")
}
