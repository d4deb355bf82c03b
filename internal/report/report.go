package report

import (
	"regexp"
	"time"

	"github.com/smartinstall/field-reports/internal"
	reportDatamodel "github.com/smartinstall/field-reports/internal/core/datamodel/report"
)

// Workflow statuses. Reports move strictly forward through this sequence,
// with the single back edge pending_approval → draft on rejection.
const (
	StatusDraft                   = "draft"
	StatusPendingApproval         = "pending_approval"
	StatusApprovedWaitingPayment  = "approved_waiting_payment"
	StatusPaidWaitingConfirmation = "paid_waiting_confirmation"
	StatusCompleted               = "completed"
)

var validStatuses = map[string]struct{}{
	StatusDraft:                   {},
	StatusPendingApproval:         {},
	StatusApprovedWaitingPayment:  {},
	StatusPaidWaitingConfirmation: {},
	StatusCompleted:               {},
}

func IsValidStatus(status string) bool {
	_, ok := validStatuses[status]
	return ok
}

// IsEditable reports whether an installer may still change the work log and
// site assignment in this status.
func IsEditable(status string) bool {
	return status == StatusDraft || status == StatusPendingApproval
}

// IsAccrued reports whether earnings in this status count as confirmed income.
// pending_approval money is "awaiting review" and is never in this set.
func IsAccrued(status string) bool {
	switch status {
	case StatusApprovedWaitingPayment, StatusPaidWaitingConfirmation, StatusCompleted:
		return true
	}
	return false
}

var dateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidDate checks the YYYY-MM-DD wire format and that the day actually exists.
func ValidDate(date string) bool {
	if !dateRegex.MatchString(date) {
		return false
	}
	_, err := time.ParseInLocation("2006-01-02", date, time.Local)
	return err == nil
}

// IsPastDate compares calendar days in local time; the hour does not matter.
func IsPastDate(date string, now time.Time) bool {
	d, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	return d.Before(today)
}

type Report struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Date      string    `json:"date"`
	ObjectID  *int64    `json:"object_id,omitempty"`
	Completed bool      `json:"completed"`
	Status    string    `json:"status"`
	Earnings  int64     `json:"earnings"`
	WorkLog   WorkLog   `json:"work_log"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Report) IsEditable() bool {
	return IsEditable(r.Status)
}

func (r *Report) IsAccrued() bool {
	return IsAccrued(r.Status)
}

func (r *Report) IsOwnedBy(userID int64) bool {
	return r.UserID == userID
}

func (r *Report) CanBeApproved() bool {
	return r.Status == StatusPendingApproval
}

func (r *Report) CanBeRejected() bool {
	return r.Status == StatusPendingApproval
}

func (r *Report) CanBeMarkedPaid() bool {
	return r.Status == StatusApprovedWaitingPayment
}

func (r *Report) CanConfirmPayment() bool {
	return r.Status == StatusPaidWaitingConfirmation
}

// syncCompleted keeps the legacy boolean derivable from status.
func (r *Report) syncCompleted() {
	r.Completed = r.Status == StatusCompleted
}

// Submit forces the report into pending_approval. Allowed from draft and from
// pending_approval itself (resubmitting replaces the work log).
func (r *Report) Submit() error {
	if !r.IsEditable() {
		return internal.NewInvalidTransitionError("submit", StatusDraft, r.Status)
	}
	r.Status = StatusPendingApproval
	r.syncCompleted()
	r.UpdatedAt = time.Now()
	return nil
}

func (r *Report) Approve() error {
	if !r.CanBeApproved() {
		return internal.NewInvalidTransitionError("approve", StatusPendingApproval, r.Status)
	}
	r.Status = StatusApprovedWaitingPayment
	r.syncCompleted()
	r.UpdatedAt = time.Now()
	return nil
}

// Reject sends a pending report back to draft. The work log stays untouched
// so the installer can fix and resubmit.
func (r *Report) Reject() error {
	if !r.CanBeRejected() {
		return internal.NewInvalidTransitionError("reject", StatusPendingApproval, r.Status)
	}
	r.Status = StatusDraft
	r.syncCompleted()
	r.UpdatedAt = time.Now()
	return nil
}

func (r *Report) MarkPaid() error {
	if !r.CanBeMarkedPaid() {
		return internal.NewInvalidTransitionError("mark paid", StatusApprovedWaitingPayment, r.Status)
	}
	r.Status = StatusPaidWaitingConfirmation
	r.syncCompleted()
	r.UpdatedAt = time.Now()
	return nil
}

func (r *Report) ConfirmPayment() error {
	if !r.CanConfirmPayment() {
		return internal.NewInvalidTransitionError("confirm payment", StatusPaidWaitingConfirmation, r.Status)
	}
	r.Status = StatusCompleted
	r.syncCompleted()
	r.UpdatedAt = time.Now()
	return nil
}

// EffectiveStatus reconciles a partially populated record: old producers wrote
// only the completed flag, old consumers only read it. Whichever field is
// present wins; both come out agreeing.
func EffectiveStatus(status string, completed bool) string {
	if status != "" && IsValidStatus(status) {
		return status
	}
	if completed {
		return StatusCompleted
	}
	return StatusDraft
}

func FromDataModel(d *reportDatamodel.ScheduledDay) *Report {
	workLog := make(WorkLog, 0, len(d.WorkLog))
	for _, item := range d.WorkLog {
		workLog = append(workLog, Entry{
			ItemID:      item.PriceItemID,
			Quantity:    item.Quantity,
			Coefficient: item.Coefficient,
		})
	}

	status := EffectiveStatus(d.Status, d.Completed)
	return &Report{
		ID:        d.ID,
		UserID:    d.UserID,
		Date:      d.Date,
		ObjectID:  d.ObjectID,
		Completed: status == StatusCompleted,
		Status:    status,
		Earnings:  d.Earnings,
		WorkLog:   workLog,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func ToDataModel(r *Report) *reportDatamodel.ScheduledDay {
	items := make([]reportDatamodel.WorkLogItem, 0, len(r.WorkLog))
	for _, entry := range r.WorkLog {
		// Coefficient stays zero when the line never set one, so the
		// catalog fallback survives the round-trip.
		items = append(items, reportDatamodel.WorkLogItem{
			ScheduledDayID: r.ID,
			PriceItemID:    entry.ItemID,
			Quantity:       entry.Quantity,
			Coefficient:    entry.Coefficient,
		})
	}

	return &reportDatamodel.ScheduledDay{
		ID:        r.ID,
		UserID:    r.UserID,
		Date:      r.Date,
		ObjectID:  r.ObjectID,
		Completed: r.Status == StatusCompleted,
		Status:    r.Status,
		Earnings:  r.Earnings,
		WorkLog:   items,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func FromDataModelSlice(days []*reportDatamodel.ScheduledDay) []*Report {
	result := make([]*Report, len(days))
	for i, d := range days {
		result[i] = FromDataModel(d)
	}
	return result
}
