package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/smartinstall/field-reports/internal/core/events"
	"github.com/smartinstall/field-reports/internal/report"
	"github.com/smartinstall/field-reports/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event bus debugging commands",
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a synthetic report event",
	Long: `Publish a synthetic report workflow event to a local event bus with a
logging subscriber attached. Useful for checking what the notifier would
receive on a given transition, e.g.:

  field-reports event publish report.approved --report-id 7 --earnings 1500`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishReportEvent(args[0])
	},
}

var (
	eventReportID int64
	eventUserID   int64
	eventDate     string
	eventEarnings int64
)

func publishReportEvent(eventType string) error {
	log := logger.LoggerWrapper()

	status, ok := statusForEventType(eventType)
	if !ok {
		return fmt.Errorf("unknown event type %q", eventType)
	}

	bus := events.NewEventBus(log)
	bus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
		log.Info("subscriber received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	ev := &events.ReportEvent{
		BaseEvent: events.BaseEvent{
			ID:        fmt.Sprintf("cli-%d", time.Now().Unix()),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"report_id": eventReportID,
				"user_id":   eventUserID,
				"date":      eventDate,
				"status":    status,
				"earnings":  eventEarnings,
			},
		},
		ReportID: eventReportID,
		UserID:   eventUserID,
		Date:     eventDate,
		Status:   status,
		Earnings: eventEarnings,
	}

	// Synchronous delivery so the command exits after the subscriber ran.
	if err := bus.PublishSync(context.Background(), ev); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func statusForEventType(eventType string) (string, bool) {
	switch eventType {
	case events.EventTypeReportSubmitted:
		return report.StatusPendingApproval, true
	case events.EventTypeReportApproved:
		return report.StatusApprovedWaitingPayment, true
	case events.EventTypeReportRejected:
		return report.StatusDraft, true
	case events.EventTypeReportPaid:
		return report.StatusPaidWaitingConfirmation, true
	case events.EventTypeReportConfirmed:
		return report.StatusCompleted, true
	}
	return "", false
}

func init() {
	publishEventCmd.Flags().Int64Var(&eventReportID, "report-id", 1, "Report id carried by the event")
	publishEventCmd.Flags().Int64Var(&eventUserID, "user-id", 1, "Installer id carried by the event")
	publishEventCmd.Flags().StringVar(&eventDate, "date", time.Now().Format("2006-01-02"), "Report date (YYYY-MM-DD)")
	publishEventCmd.Flags().Int64Var(&eventEarnings, "earnings", 0, "Earnings carried by the event")

	eventCmd.AddCommand(publishEventCmd)
	rootCmd.AddCommand(eventCmd)
}
