package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/smartinstall/field-reports/internal/core/events"
	"github.com/smartinstall/field-reports/internal/notification"
	"github.com/smartinstall/field-reports/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start worker pools for various services",
	Long:  `Start and manage worker pools for background services like Telegram notification delivery.`,
}

// Notification worker command
var notifyWorkerCmd = &cobra.Command{
	Use:   "notify",
	Short: "Start Telegram notification worker pool",
	Long:  `Start the Telegram notification worker pool for delivering report status messages`,
	Run: func(cmd *cobra.Command, args []string) {
		startNotifyWorker()
	},
}

// Event Bus worker command
var eventWorkerCmd = &cobra.Command{
	Use:   "events",
	Short: "Start an event bus monitor",
	Long:  `Start a local event bus that logs every report workflow event it receives.`,
	Run: func(cmd *cobra.Command, args []string) {
		startEventWorker()
	},
}

var (
	maxWorkers   int
	jobQueueSize int
	botToken     string
	apiBaseURL   string
)

func startNotifyWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logger.LoggerWrapper()

	// Use command line flags if provided, otherwise use config values
	notifyConfig := notification.Config{
		BotToken:    getStringFlag(botToken, config.Telegram.BotToken),
		APIBaseURL:  getStringFlag(apiBaseURL, config.Telegram.APIBaseURL),
		SendTimeout: config.Telegram.SendTimeout,
		MaxWorkers:  getIntFlag(maxWorkers, config.Telegram.MaxWorkers),
		QueueSize:   getIntFlag(jobQueueSize, config.Telegram.QueueSize),
	}

	logger.Info("starting notification worker",
		"max_workers", notifyConfig.MaxWorkers,
		"queue_size", notifyConfig.QueueSize,
		"api_base_url", notifyConfig.APIBaseURL)

	notifier := notification.NewNotifier(notifyConfig, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("notification worker is running. Press Ctrl+C to stop.")

	// wait for shutdown signal
	sig := <-sigChan
	logger.Info("received signal, shutting down notification worker", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shutdownDone := make(chan struct{})
	go func() {
		notifier.Shutdown()
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		logger.Info("notification worker pool shutdown complete")
	case <-ctx.Done():
		logger.Warn("shutdown timeout reached, forcing exit")
	}
}

func startEventWorker() {
	_, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logger.LoggerWrapper()

	eventBus := events.NewEventBus(logger)

	reportEventTypes := []string{
		events.EventTypeReportSubmitted,
		events.EventTypeReportApproved,
		events.EventTypeReportRejected,
		events.EventTypeReportPaid,
		events.EventTypeReportConfirmed,
	}
	for _, eventType := range reportEventTypes {
		eventBus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
			logger.Info("received report event",
				"event_id", event.EventID(),
				"event_type", event.EventType(),
				"payload", event.Payload())
			return nil
		})
	}

	logger.Info("event bus worker started. Waiting for events...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("event bus is running. Press Ctrl+C to stop.")

	sig := <-sigChan
	logger.Info("received signal, shutting down event bus", "signal", sig)
	logger.Info("event bus shutdown complete")
}

func getStringFlag(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func getIntFlag(flagValue, configValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func init() {
	notifyWorkerCmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "Maximum number of workers (overrides config)")
	notifyWorkerCmd.Flags().IntVar(&jobQueueSize, "job-queue-size", 0, "Job queue buffer size (overrides config)")
	notifyWorkerCmd.Flags().StringVar(&botToken, "bot-token", "", "Telegram bot token (overrides config)")
	notifyWorkerCmd.Flags().StringVar(&apiBaseURL, "api-base-url", "", "Telegram API base URL (overrides config)")

	workerCmd.AddCommand(notifyWorkerCmd)
	workerCmd.AddCommand(eventWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
