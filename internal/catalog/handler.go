package catalog

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
	List() ([]*PriceItem, error)
	Get(id int64) (*PriceItem, error)
	Create(dto CreatePriceItemDTO) (*PriceItem, error)
	Update(id int64, dto UpdatePriceItemDTO) (*PriceItem, error)
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

// ListPrices handles GET /prices
func (h *Handler) ListPrices(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.List()
	if err != nil {
		h.Logger.Error("ListPrices: failed", "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, items)
}

// GetPrice handles GET /prices/{priceID}
func (h *Handler) GetPrice(w http.ResponseWriter, r *http.Request) {
	id, ok := h.priceID(w, r)
	if !ok {
		return
	}

	item, err := h.Service.Get(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, item)
}

// CreatePrice handles POST /prices. Admin only.
func (h *Handler) CreatePrice(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var dto CreatePriceItemDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Service.Create(dto)
	if err != nil {
		h.writeCatalogError(w, err)
		return
	}

	h.Logger.Info("CreatePrice: item created", "price_id", item.ID, "name", item.Name)
	h.WriteJSON(w, http.StatusCreated, item)
}

// UpdatePrice handles PUT /prices/{priceID}. Admin only.
func (h *Handler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	id, ok := h.priceID(w, r)
	if !ok {
		return
	}

	var dto UpdatePriceItemDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Service.Update(id, dto)
	if err != nil {
		h.writeCatalogError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, item)
}

// DeletePrice handles DELETE /prices/{priceID}. Admin only.
func (h *Handler) DeletePrice(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	id, ok := h.priceID(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("DeletePrice: item deleted", "price_id", id)
	h.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) priceID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "priceID"), 10, 64)
	if err != nil || id <= 0 {
		h.WriteError(w, http.StatusBadRequest, "invalid price id")
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

func (h *Handler) writeCatalogError(w http.ResponseWriter, err error) {
	var vErr ValidationError
	if errors.As(err, &vErr) {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.HandleServiceError(w, err)
}
