package document

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/smartinstall/field-reports/internal/auth"
	"github.com/smartinstall/field-reports/internal/transport"
	"github.com/smartinstall/field-reports/pkg/logger"
)

type ServiceAPI interface {
	List(objectID *int64, generalOnly bool) ([]*DocItem, error)
	Get(id int64) (*DocItem, error)
	Create(dto CreateDocDTO) (*DocItem, error)
	Upload(originalName, title string, objectID *int64, file io.Reader) (*DocItem, error)
	Update(id int64, dto UpdateDocDTO) (*DocItem, error)
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

// ListDocs handles GET /docs with optional objectId and generalOnly
// filters.
func (h *Handler) ListDocs(w http.ResponseWriter, r *http.Request) {
	var objectID *int64
	if raw := r.URL.Query().Get("objectId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			h.WriteError(w, http.StatusBadRequest, "invalid objectId")
			return
		}
		objectID = &id
	}
	generalOnly := r.URL.Query().Get("generalOnly") == "true"

	docs, err := h.Service.List(objectID, generalOnly)
	if err != nil {
		h.writeDocError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, docs)
}

// ListGeneralDocs handles GET /docs/general.
func (h *Handler) ListGeneralDocs(w http.ResponseWriter, r *http.Request) {
	docs, err := h.Service.List(nil, true)
	if err != nil {
		h.writeDocError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, docs)
}

// GetDoc handles GET /docs/{docID}
func (h *Handler) GetDoc(w http.ResponseWriter, r *http.Request) {
	id, ok := h.docID(w, r)
	if !ok {
		return
	}

	d, err := h.Service.Get(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, d)
}

// CreateDoc handles POST /docs. Admin only.
func (h *Handler) CreateDoc(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var dto CreateDocDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := h.Service.Create(dto)
	if err != nil {
		h.writeDocError(w, err)
		return
	}

	h.Logger.Info("CreateDoc: document created", "doc_id", d.ID, "type", d.Type)
	h.WriteJSON(w, http.StatusCreated, d)
}

// UploadDoc handles POST /docs/upload. Admin only, multipart form with
// a "file" part and optional "title" and "objectId" fields.
func (h *Handler) UploadDoc(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	var objectID *int64
	if raw := r.FormValue("objectId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			h.WriteError(w, http.StatusBadRequest, "invalid objectId")
			return
		}
		objectID = &id
	}

	d, err := h.Service.Upload(header.Filename, r.FormValue("title"), objectID, file)
	if err != nil {
		var uErr UploadError
		if errors.As(err, &uErr) {
			h.WriteError(w, http.StatusBadRequest, uErr.Msg)
			return
		}
		h.writeDocError(w, err)
		return
	}

	h.Logger.Info("UploadDoc: file uploaded", "doc_id", d.ID, "type", d.Type)
	h.WriteJSON(w, http.StatusCreated, d)
}

// UpdateDoc handles PUT /docs/{docID}. Admin only.
func (h *Handler) UpdateDoc(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	id, ok := h.docID(w, r)
	if !ok {
		return
	}

	var dto UpdateDocDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := h.Service.Update(id, dto)
	if err != nil {
		h.writeDocError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, d)
}

// DeleteDoc handles DELETE /docs/{docID}. Admin only.
func (h *Handler) DeleteDoc(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	id, ok := h.docID(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("DeleteDoc: document deleted", "doc_id", id)
	h.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) docID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "docID"), 10, 64)
	if err != nil || id <= 0 {
		h.WriteError(w, http.StatusBadRequest, "invalid document id")
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

func (h *Handler) writeDocError(w http.ResponseWriter, err error) {
	var vErr ValidationError
	if errors.As(err, &vErr) {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.HandleServiceError(w, err)
}
