package editor

import (
	"context"
	"time"

	"github.com/smartinstall/field-reports/internal/report"
)

// Snapshot is the server's view of one report, as adopted by the
// editing session.
type Snapshot struct {
	ReportID int64
	Status   string
	Earnings int64
	ObjectID *int64
	WorkLog  report.WorkLog
}

// Hash returns the normalized fingerprint of the snapshot's work log.
func (s *Snapshot) Hash() string {
	if s == nil {
		return report.WorkLog(nil).Fingerprint()
	}
	return s.WorkLog.Fingerprint()
}

// Store is the remote side of an editing session. Fetch returns
// (nil, nil) when no report exists for the date yet.
type Store interface {
	Fetch(ctx context.Context, date string) (*Snapshot, error)
	Save(ctx context.Context, date, status string, objectID *int64, workLog report.WorkLog) (*Snapshot, error)
	Transition(ctx context.Context, reportID int64, action string) (*Snapshot, error)
}

// Manual transition actions accepted by Session.Transition.
const (
	ActionApprove        = "approve"
	ActionReject         = "reject"
	ActionMarkPaid       = "mark-paid"
	ActionConfirmPayment = "confirm-payment"
)

// SaveState is the indicator shown next to the report editor.
type SaveState int

const (
	SaveIdle SaveState = iota
	SaveSaving
	SaveSaved
	SaveError
)

func (s SaveState) String() string {
	switch s {
	case SaveSaving:
		return "saving"
	case SaveSaved:
		return "saved"
	case SaveError:
		return "error"
	default:
		return "idle"
	}
}

// Config carries the session timings. Zero values fall back to the
// production defaults.
type Config struct {
	PollInterval      time.Duration
	EditCooldown      time.Duration
	AutosaveDelay     time.Duration
	SavedIndicatorTTL time.Duration
}

const (
	defaultPollInterval      = 10 * time.Second
	defaultEditCooldown      = 2000 * time.Millisecond
	defaultAutosaveDelay     = 2500 * time.Millisecond
	defaultSavedIndicatorTTL = 3 * time.Second
)

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.EditCooldown <= 0 {
		c.EditCooldown = defaultEditCooldown
	}
	if c.AutosaveDelay <= 0 {
		c.AutosaveDelay = defaultAutosaveDelay
	}
	if c.SavedIndicatorTTL <= 0 {
		c.SavedIndicatorTTL = defaultSavedIndicatorTTL
	}
	return c
}
