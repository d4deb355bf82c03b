package report

import (
	"context"
	"log/slog"
	"time"

	"github.com/smartinstall/field-reports/internal"
	"github.com/smartinstall/field-reports/internal/core/events"
	reportDatamodel "github.com/smartinstall/field-reports/internal/core/datamodel/report"
)

// Domain errors surfaced to handlers.
var (
	ErrReportNotFound = internal.NewNotFoundError("report not found", internal.ErrCodeReportNotFound)
	ErrAccessDenied   = internal.NewForbiddenError("access denied", internal.ErrCodeUnauthorizedAccess)
	ErrNotEditable    = internal.NewForbiddenError("cannot edit this report", internal.ErrCodeReportNotEditable)
	ErrPastDateReport = internal.NewValidationError("cannot create a report for a past date without an existing assignment", internal.ErrCodePastDateReport)
)

// Actor is the resolved principal acting on a report. The state machine only
// needs identity and the admin flag; everything else stays in the auth layer.
type Actor struct {
	ID    int64
	Admin bool
}

// RepositoryAPI defines data access for reports.
type RepositoryAPI interface {
	GetByID(id int64) (*reportDatamodel.ScheduledDay, error)
	// GetByUserDate returns (nil, nil) when no row exists for the pair.
	GetByUserDate(userID int64, date string) (*reportDatamodel.ScheduledDay, error)
	List() ([]*reportDatamodel.ScheduledDay, error)
	ListByUser(userID int64) ([]*reportDatamodel.ScheduledDay, error)
	ListByStatus(status string) ([]*reportDatamodel.ScheduledDay, error)
	Create(day *reportDatamodel.ScheduledDay) error
	// Update persists the row and replaces its work log lines atomically.
	Update(day *reportDatamodel.ScheduledDay) error
}

// CatalogAPI supplies the current price table for earnings computation.
type CatalogAPI interface {
	PriceTable() (PriceTable, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	repo    RepositoryAPI
	catalog CatalogAPI
	bus     EventPublisher
	logger  *slog.Logger
}

func NewService(repo RepositoryAPI, catalog CatalogAPI, bus EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		catalog: catalog,
		bus:     bus,
		logger:  logger,
	}
}

// ListReports returns reports visible to the actor, optionally narrowed to
// one date. Installers only ever see their own rows regardless of the
// requested filter.
func (s *Service) ListReports(actor Actor, filterUserID *int64, date string) ([]*Report, error) {
	if !actor.Admin {
		own := actor.ID
		filterUserID = &own
	}

	var (
		days []*reportDatamodel.ScheduledDay
		err  error
	)
	if filterUserID != nil {
		days, err = s.repo.ListByUser(*filterUserID)
	} else {
		days, err = s.repo.List()
	}
	if err != nil {
		s.logger.Error("failed to list reports", "error", err)
		return nil, err
	}

	if date != "" {
		filtered := days[:0]
		for _, day := range days {
			if day.Date == date {
				filtered = append(filtered, day)
			}
		}
		days = filtered
	}

	return FromDataModelSlice(days), nil
}

// ListPending returns all reports awaiting review. Admin only.
func (s *Service) ListPending(actor Actor) ([]*Report, error) {
	if !actor.Admin {
		s.logger.Warn("list pending denied: admin required", "user_id", actor.ID)
		return nil, ErrAccessDenied
	}

	days, err := s.repo.ListByStatus(StatusPendingApproval)
	if err != nil {
		s.logger.Error("failed to list pending reports", "error", err)
		return nil, err
	}

	return FromDataModelSlice(days), nil
}

func (s *Service) GetReport(actor Actor, reportID int64) (*Report, error) {
	day, err := s.repo.GetByID(reportID)
	if err != nil {
		return nil, ErrReportNotFound
	}
	rep := FromDataModel(day)
	if !actor.Admin && !rep.IsOwnedBy(actor.ID) {
		s.logger.Warn("unauthorized report access", "report_id", reportID, "user_id", actor.ID)
		return nil, ErrAccessDenied
	}
	return rep, nil
}

// canEdit mirrors the editability gate: admins always, installers only their
// own reports while the status still allows changes.
func (s *Service) canEdit(rep *Report, actor Actor) bool {
	if actor.Admin {
		return true
	}
	if !rep.IsOwnedBy(actor.ID) {
		return false
	}
	return rep.IsEditable()
}

// Upsert creates or updates the report for (userId, date) as a draft or a
// submission. Earnings are always recomputed server-side; a client-supplied
// earnings value is never trusted.
func (s *Service) Upsert(ctx context.Context, actor Actor, dto UpsertReportDTO) (*Report, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("report upsert validation failed", "error", err, "user_id", actor.ID)
		return nil, err
	}

	if !actor.Admin && actor.ID != dto.UserID {
		s.logger.Warn("upsert denied: not report owner", "actor_id", actor.ID, "target_user_id", dto.UserID)
		return nil, ErrAccessDenied
	}

	workLog, err := ParseWorkLog(dto.WorkLog)
	if err != nil {
		return nil, err
	}

	status := dto.Status
	if status == "" {
		status = StatusDraft
	}

	prices, err := s.catalog.PriceTable()
	if err != nil {
		s.logger.Error("failed to load price table", "error", err)
		return nil, err
	}

	objectID := ParseObjectID(dto.ObjectID)

	existing, err := s.repo.GetByUserDate(dto.UserID, dto.Date)
	if err != nil {
		s.logger.Error("failed to look up report", "error", err, "user_id", dto.UserID, "date", dto.Date)
		return nil, err
	}

	if existing == nil {
		// No row yet: back-dated creation from nothing is a fraud vector,
		// so installers may only start reports for today or later.
		if !actor.Admin && IsPastDate(dto.Date, time.Now()) {
			s.logger.Warn("rejected past-date report creation",
				"user_id", dto.UserID, "date", dto.Date)
			return nil, ErrPastDateReport
		}

		rep := &Report{
			UserID:   dto.UserID,
			Date:     dto.Date,
			ObjectID: objectID,
			Status:   status,
			WorkLog:  workLog.Filtered(),
		}
		rep.Earnings = rep.WorkLog.Earnings(prices)
		rep.syncCompleted()

		day := ToDataModel(rep)
		if err := s.repo.Create(day); err != nil {
			s.logger.Error("failed to create report", "error", err, "user_id", dto.UserID, "date", dto.Date)
			return nil, err
		}

		created := FromDataModel(day)
		s.logger.Info("report created",
			"report_id", created.ID,
			"user_id", created.UserID,
			"date", created.Date,
			"status", created.Status,
			"earnings", created.Earnings)
		s.publishOnSubmit(ctx, created)
		return created, nil
	}

	rep := FromDataModel(existing)
	if !s.canEdit(rep, actor) {
		s.logger.Warn("upsert denied: report not editable",
			"report_id", rep.ID, "status", rep.Status, "actor_id", actor.ID)
		return nil, ErrNotEditable
	}

	rep.ObjectID = objectID
	rep.Status = status
	rep.WorkLog = workLog.Filtered()
	rep.Earnings = rep.WorkLog.Earnings(prices)
	rep.syncCompleted()

	day := ToDataModel(rep)
	day.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(day); err != nil {
		s.logger.Error("failed to update report", "error", err, "report_id", rep.ID)
		return nil, err
	}

	updated := FromDataModel(day)
	s.logger.Info("report updated",
		"report_id", updated.ID,
		"user_id", updated.UserID,
		"status", updated.Status,
		"earnings", updated.Earnings)
	s.publishOnSubmit(ctx, updated)
	return updated, nil
}

// EditReport patches an existing report by id. Installers may touch their
// own reports while editable; admins may edit any report, set earnings
// directly and move the status anywhere valid.
func (s *Service) EditReport(ctx context.Context, actor Actor, reportID int64, dto EditReportDTO) (*Report, error) {
	if err := dto.Validate(actor.Admin); err != nil {
		return nil, err
	}

	day, err := s.repo.GetByID(reportID)
	if err != nil {
		s.logger.Error("report not found for edit", "error", err, "report_id", reportID)
		return nil, ErrReportNotFound
	}

	rep := FromDataModel(day)
	if !s.canEdit(rep, actor) {
		s.logger.Warn("edit denied",
			"report_id", reportID, "status", rep.Status, "actor_id", actor.ID)
		return nil, ErrNotEditable
	}
	wasPending := rep.Status == StatusPendingApproval

	if dto.ObjectID != nil {
		rep.ObjectID = ParseObjectID(dto.ObjectID)
	}

	if dto.WorkLog != nil {
		workLog, err := ParseWorkLog(dto.WorkLog)
		if err != nil {
			return nil, err
		}
		rep.WorkLog = workLog.Filtered()

		prices, err := s.catalog.PriceTable()
		if err != nil {
			s.logger.Error("failed to load price table", "error", err)
			return nil, err
		}
		rep.Earnings = rep.WorkLog.Earnings(prices)
	}

	if actor.Admin && dto.Earnings != nil {
		rep.Earnings = *dto.Earnings
	}

	if dto.Status != nil {
		rep.Status = *dto.Status
		rep.syncCompleted()
	}

	updated := ToDataModel(rep)
	updated.CreatedAt = day.CreatedAt
	if err := s.repo.Update(updated); err != nil {
		s.logger.Error("failed to persist edit", "error", err, "report_id", reportID)
		return nil, err
	}

	edited := FromDataModel(updated)
	s.logger.Info("report edited",
		"report_id", edited.ID,
		"actor_id", actor.ID,
		"status", edited.Status,
		"earnings", edited.Earnings)
	if !wasPending {
		s.publishOnSubmit(ctx, edited)
	}
	return edited, nil
}

func (s *Service) publishOnSubmit(ctx context.Context, rep *Report) {
	if s.bus == nil || rep.Status != StatusPendingApproval {
		return
	}
	event := events.NewReportSubmittedEvent(rep.ID, rep.UserID, rep.Date, rep.Status, rep.Earnings)
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish submit event", "error", err, "report_id", rep.ID)
	}
}

// Approve moves pending_approval → approved_waiting_payment. The admin may
// rewrite the work log and adjust per-line coefficients first; earnings are
// recomputed from whatever log ends up approved.
func (s *Service) Approve(ctx context.Context, actor Actor, reportID int64, dto ApproveReportDTO) (*Report, error) {
	if !actor.Admin {
		s.logger.Warn("approve denied: admin required", "report_id", reportID, "user_id", actor.ID)
		return nil, ErrAccessDenied
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	day, err := s.repo.GetByID(reportID)
	if err != nil {
		s.logger.Error("report not found for approval", "error", err, "report_id", reportID)
		return nil, ErrReportNotFound
	}

	rep := FromDataModel(day)
	if !rep.CanBeApproved() {
		s.logger.Warn("cannot approve report in current status",
			"report_id", reportID, "current_status", rep.Status)
		return nil, internal.NewInvalidTransitionError("approve", StatusPendingApproval, rep.Status)
	}

	if dto.WorkLog != nil {
		workLog, err := ParseWorkLog(dto.WorkLog)
		if err != nil {
			return nil, err
		}
		rep.WorkLog = workLog.Filtered()
	}
	if overrides := dto.ParseCoefficients(); overrides != nil {
		for i, entry := range rep.WorkLog {
			if coefficient, ok := overrides[entry.ItemID]; ok {
				rep.WorkLog[i].Coefficient = coefficient
			}
		}
	}

	prices, err := s.catalog.PriceTable()
	if err != nil {
		s.logger.Error("failed to load price table", "error", err)
		return nil, err
	}
	rep.Earnings = rep.WorkLog.Earnings(prices)

	if err := rep.Approve(); err != nil {
		return nil, err
	}

	updated := ToDataModel(rep)
	updated.CreatedAt = day.CreatedAt
	if err := s.repo.Update(updated); err != nil {
		s.logger.Error("failed to persist approval", "error", err, "report_id", reportID)
		return nil, err
	}

	s.logger.Info("report approved",
		"report_id", reportID,
		"admin_id", actor.ID,
		"earnings", rep.Earnings)
	s.publish(ctx, events.NewReportApprovedEvent(rep.ID, rep.UserID, rep.Date, rep.Status, rep.Earnings))
	return FromDataModel(updated), nil
}

// Reject sends pending_approval back to draft with the work log untouched.
func (s *Service) Reject(ctx context.Context, actor Actor, reportID int64) (*Report, error) {
	if !actor.Admin {
		s.logger.Warn("reject denied: admin required", "report_id", reportID, "user_id", actor.ID)
		return nil, ErrAccessDenied
	}

	day, err := s.repo.GetByID(reportID)
	if err != nil {
		s.logger.Error("report not found for rejection", "error", err, "report_id", reportID)
		return nil, ErrReportNotFound
	}

	rep := FromDataModel(day)
	if err := rep.Reject(); err != nil {
		s.logger.Warn("cannot reject report in current status",
			"report_id", reportID, "current_status", day.Status)
		return nil, err
	}

	updated := ToDataModel(rep)
	updated.CreatedAt = day.CreatedAt
	if err := s.repo.Update(updated); err != nil {
		s.logger.Error("failed to persist rejection", "error", err, "report_id", reportID)
		return nil, err
	}

	s.logger.Info("report rejected", "report_id", reportID, "admin_id", actor.ID)
	s.publish(ctx, events.NewReportRejectedEvent(rep.ID, rep.UserID, rep.Date, rep.Status, rep.Earnings))
	return FromDataModel(updated), nil
}

// MarkPaid moves approved_waiting_payment → paid_waiting_confirmation.
func (s *Service) MarkPaid(ctx context.Context, actor Actor, reportID int64) (*Report, error) {
	if !actor.Admin {
		s.logger.Warn("mark paid denied: admin required", "report_id", reportID, "user_id", actor.ID)
		return nil, ErrAccessDenied
	}

	day, err := s.repo.GetByID(reportID)
	if err != nil {
		return nil, ErrReportNotFound
	}

	rep := FromDataModel(day)
	if err := rep.MarkPaid(); err != nil {
		s.logger.Warn("cannot mark report paid in current status",
			"report_id", reportID, "current_status", day.Status)
		return nil, err
	}

	updated := ToDataModel(rep)
	updated.CreatedAt = day.CreatedAt
	if err := s.repo.Update(updated); err != nil {
		s.logger.Error("failed to persist paid status", "error", err, "report_id", reportID)
		return nil, err
	}

	s.logger.Info("report marked paid", "report_id", reportID, "admin_id", actor.ID)
	s.publish(ctx, events.NewReportPaidEvent(rep.ID, rep.UserID, rep.Date, rep.Status, rep.Earnings))
	return FromDataModel(updated), nil
}

// ConfirmPayment is the one stage owned by the installer: only the report
// owner (or an admin stepping in) can close the loop.
func (s *Service) ConfirmPayment(ctx context.Context, actor Actor, reportID int64) (*Report, error) {
	day, err := s.repo.GetByID(reportID)
	if err != nil {
		return nil, ErrReportNotFound
	}

	rep := FromDataModel(day)
	if !actor.Admin && !rep.IsOwnedBy(actor.ID) {
		s.logger.Warn("confirm payment denied: not report owner",
			"report_id", reportID, "actor_id", actor.ID, "owner_id", rep.UserID)
		return nil, ErrAccessDenied
	}

	if err := rep.ConfirmPayment(); err != nil {
		s.logger.Warn("cannot confirm payment in current status",
			"report_id", reportID, "current_status", day.Status)
		return nil, err
	}

	updated := ToDataModel(rep)
	updated.CreatedAt = day.CreatedAt
	if err := s.repo.Update(updated); err != nil {
		s.logger.Error("failed to persist payment confirmation", "error", err, "report_id", reportID)
		return nil, err
	}

	s.logger.Info("payment confirmed", "report_id", reportID, "user_id", actor.ID)
	s.publish(ctx, events.NewReportConfirmedEvent(rep.ID, rep.UserID, rep.Date, rep.Status, rep.Earnings))
	return FromDataModel(updated), nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish event", "error", err, "event_type", event.EventType())
	}
}
