package site

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/smartinstall/field-reports/internal/auth"
	"github.com/smartinstall/field-reports/internal/transport"
	"github.com/smartinstall/field-reports/pkg/logger"
)

type ServiceAPI interface {
	List(status string) ([]*ClientObject, error)
	Get(id int64) (*ClientObject, error)
	Create(dto CreateObjectDTO) (*ClientObject, error)
	Update(id int64, dto UpdateObjectDTO) (*ClientObject, error)
	Delete(id int64) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// ListObjects handles GET /objects with an optional status filter.
func (h *Handler) ListObjects(w http.ResponseWriter, r *http.Request) {
	objects, err := h.Service.List(r.URL.Query().Get("status"))
	if err != nil {
		h.writeSiteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, objects)
}

// GetObject handles GET /objects/{objectID}
func (h *Handler) GetObject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.objectID(w, r)
	if !ok {
		return
	}

	o, err := h.Service.Get(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, o)
}

// CreateObject handles POST /objects. Admin only.
func (h *Handler) CreateObject(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var dto CreateObjectDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.Service.Create(dto)
	if err != nil {
		h.writeSiteError(w, err)
		return
	}

	h.Logger.Info("CreateObject: object created", "object_id", o.ID, "name", o.Name)
	h.WriteJSON(w, http.StatusCreated, o)
}

// UpdateObject handles PUT /objects/{objectID}. Admin only.
func (h *Handler) UpdateObject(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	id, ok := h.objectID(w, r)
	if !ok {
		return
	}

	var dto UpdateObjectDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.Service.Update(id, dto)
	if err != nil {
		h.writeSiteError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, o)
}

// DeleteObject handles DELETE /objects/{objectID}. Admin only.
func (h *Handler) DeleteObject(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	id, ok := h.objectID(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("DeleteObject: object deleted", "object_id", id)
	h.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) objectID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "objectID"), 10, 64)
	if err != nil || id <= 0 {
		h.WriteError(w, http.StatusBadRequest, "invalid object id")
		return 0, false
	}
	return id, true
}

func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return false
	}
	if !user.IsAdmin() {
		h.WriteError(w, http.StatusForbidden, "admin access required")
		return false
	}
	return true
}

func (h *Handler) writeSiteError(w http.ResponseWriter, err error) {
	var vErr ValidationError
	if errors.As(err, &vErr) {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.HandleServiceError(w, err)
}
