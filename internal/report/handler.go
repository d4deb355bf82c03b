package report

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/smartinstall/field-reports/internal/auth"
	"github.com/smartinstall/field-reports/internal/transport"
	"github.com/smartinstall/field-reports/pkg/logger"
)

type ServiceAPI interface {
	ListReports(actor Actor, filterUserID *int64, date string) ([]*Report, error)
	ListPending(actor Actor) ([]*Report, error)
	GetReport(actor Actor, reportID int64) (*Report, error)
	Upsert(ctx context.Context, actor Actor, dto UpsertReportDTO) (*Report, error)
	EditReport(ctx context.Context, actor Actor, reportID int64, dto EditReportDTO) (*Report, error)
	Approve(ctx context.Context, actor Actor, reportID int64, dto ApproveReportDTO) (*Report, error)
	Reject(ctx context.Context, actor Actor, reportID int64) (*Report, error)
	MarkPaid(ctx context.Context, actor Actor, reportID int64) (*Report, error)
	ConfirmPayment(ctx context.Context, actor Actor, reportID int64) (*Report, error)
}

type Handler struct {
	*transport.BaseHandler
	Service  ServiceAPI
	Exporter *Exporter
}

func NewHandler(service ServiceAPI, exporter *Exporter) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
		Exporter:    exporter,
	}
}

func actorFromUser(user *auth.User) Actor {
	return Actor{ID: user.ID, Admin: user.IsAdmin()}
}

// GetSchedule lists reports, optionally filtered by userId.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var filterUserID *int64
	if userIDStr := r.URL.Query().Get("userId"); userIDStr != "" {
		userID, err := strconv.ParseInt(userIDStr, 10, 64)
		if err != nil || userID <= 0 {
			h.WriteError(w, http.StatusBadRequest, "invalid userId")
			return
		}
		filterUserID = &userID
	}

	date := r.URL.Query().Get("date")
	if date != "" && !ValidDate(date) {
		h.WriteError(w, http.StatusBadRequest, "invalid date format, use YYYY-MM-DD")
		return
	}

	reports, err := h.Service.ListReports(actorFromUser(user), filterUserID, date)
	if err != nil {
		h.Logger.Error("GetSchedule: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToDTOSlice(reports))
}

// GetPending lists reports awaiting approval. Admin only.
func (h *Handler) GetPending(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	reports, err := h.Service.ListPending(actorFromUser(user))
	if err != nil {
		h.Logger.Error("GetPending: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToDTOSlice(reports))
}

// SaveDraft upserts the report for (userId, date) keeping draft semantics
// unless the payload explicitly submits.
func (h *Handler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	h.upsert(w, r, StatusDraft)
}

// SubmitReport upserts the report and forces it into pending_approval.
func (h *Handler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	h.upsert(w, r, StatusPendingApproval)
}

func (h *Handler) upsert(w http.ResponseWriter, r *http.Request, defaultStatus string) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto UpsertReportDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("upsert: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if dto.Status == "" {
		dto.Status = defaultStatus
	}
	// The WebApp saves its own schedule without repeating the user id;
	// the authenticated identity is authoritative for it anyway.
	if dto.UserID == 0 {
		dto.UserID = user.ID
	}

	rep, err := h.Service.Upsert(r.Context(), actorFromUser(user), dto)
	if err != nil {
		h.Logger.Error("upsert: service error", "error", err, "user_id", user.ID, "date", dto.Date)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("upsert: report saved",
		"report_id", rep.ID,
		"user_id", rep.UserID,
		"status", rep.Status,
		"earnings", rep.Earnings)
	h.WriteJSON(w, http.StatusOK, ToDTO(rep))
}

// EditReport patches a report in place. Installers reach it for their own
// editable reports, admins for any report.
func (h *Handler) EditReport(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	reportID, ok := h.reportID(r)
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid report ID")
		return
	}

	var dto EditReportDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("EditReport: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rep, err := h.Service.EditReport(r.Context(), actorFromUser(user), reportID, dto)
	if err != nil {
		h.Logger.Error("EditReport: service error", "error", err, "report_id", reportID, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("EditReport: report edited", "report_id", reportID, "user_id", user.ID, "status", rep.Status)
	h.WriteJSON(w, http.StatusOK, ToDTO(rep))
}

func (h *Handler) reportID(r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "reportID")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	reportID, ok := h.reportID(r)
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid report ID")
		return
	}

	// The body is optional: an approval may carry work log rewrites and
	// coefficient overrides, or nothing at all.
	var dto ApproveReportDTO
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	rep, err := h.Service.Approve(r.Context(), actorFromUser(user), reportID, dto)
	if err != nil {
		h.Logger.Error("Approve: service error", "error", err, "report_id", reportID, "admin_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("Approve: report approved", "report_id", reportID, "admin_id", user.ID)
	h.WriteJSON(w, http.StatusOK, ToDTO(rep))
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Reject", func(actor Actor, reportID int64, req *http.Request) (*Report, error) {
		return h.Service.Reject(req.Context(), actor, reportID)
	})
}

func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "MarkPaid", func(actor Actor, reportID int64, req *http.Request) (*Report, error) {
		return h.Service.MarkPaid(req.Context(), actor, reportID)
	})
}

func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "ConfirmPayment", func(actor Actor, reportID int64, req *http.Request) (*Report, error) {
		return h.Service.ConfirmPayment(req.Context(), actor, reportID)
	})
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, name string, fn func(Actor, int64, *http.Request) (*Report, error)) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	reportID, ok := h.reportID(r)
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid report ID")
		return
	}

	rep, err := fn(actorFromUser(user), reportID, r)
	if err != nil {
		h.Logger.Error(name+": service error", "error", err, "report_id", reportID, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info(name+": transition applied", "report_id", reportID, "user_id", user.ID, "status", rep.Status)
	h.WriteJSON(w, http.StatusOK, ToDTO(rep))
}

// ExportUserReport streams the XLSX earnings history for one installer.
// Admin only.
func (h *Handler) ExportUserReport(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if !user.IsAdmin() {
		h.WriteError(w, http.StatusForbidden, "admin access required")
		return
	}

	userIDStr := chi.URLParam(r, "userID")
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil || userID <= 0 {
		h.WriteError(w, http.StatusBadRequest, "invalid userId")
		return
	}

	summary, err := h.Exporter.BuildUserSummary(userID)
	if err != nil {
		h.Logger.Error("ExportUserReport: failed to build summary", "error", err, "user_id", userID)
		h.HandleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="earnings-report.xlsx"`)
	if err := h.Exporter.WriteXLSX(w, summary); err != nil {
		h.Logger.Error("ExportUserReport: failed to write workbook", "error", err, "user_id", userID)
	}
}
