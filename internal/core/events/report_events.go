package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeReportSubmitted = "report.submitted"
	EventTypeReportApproved  = "report.approved"
	EventTypeReportRejected  = "report.rejected"
	EventTypeReportPaid      = "report.paid"
	EventTypeReportConfirmed = "report.confirmed"
)

// ReportEvent is published on every workflow transition; the notifier turns
// these into Telegram messages for the installer or the admin.
type ReportEvent struct {
	BaseEvent
	ReportID int64  `json:"report_id"`
	UserID   int64  `json:"user_id"`
	Date     string `json:"date"`
	Status   string `json:"status"`
	Earnings int64  `json:"earnings"`
}

func newReportEvent(eventType string, reportID, userID int64, date, status string, earnings int64) *ReportEvent {
	return &ReportEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"report_id": reportID,
				"user_id":   userID,
				"date":      date,
				"status":    status,
				"earnings":  earnings,
			},
		},
		ReportID: reportID,
		UserID:   userID,
		Date:     date,
		Status:   status,
		Earnings: earnings,
	}
}

func NewReportSubmittedEvent(reportID, userID int64, date, status string, earnings int64) *ReportEvent {
	return newReportEvent(EventTypeReportSubmitted, reportID, userID, date, status, earnings)
}

func NewReportApprovedEvent(reportID, userID int64, date, status string, earnings int64) *ReportEvent {
	return newReportEvent(EventTypeReportApproved, reportID, userID, date, status, earnings)
}

func NewReportRejectedEvent(reportID, userID int64, date, status string, earnings int64) *ReportEvent {
	return newReportEvent(EventTypeReportRejected, reportID, userID, date, status, earnings)
}

func NewReportPaidEvent(reportID, userID int64, date, status string, earnings int64) *ReportEvent {
	return newReportEvent(EventTypeReportPaid, reportID, userID, date, status, earnings)
}

func NewReportConfirmedEvent(reportID, userID int64, date, status string, earnings int64) *ReportEvent {
	return newReportEvent(EventTypeReportConfirmed, reportID, userID, date, status, earnings)
}
