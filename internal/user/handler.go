package user

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
	GetByID(userID int64) (*User, error)
	List() ([]*User, error)
	Register(actorIsAdmin bool, dto CreateUserDTO) (*User, error)
	Update(userID int64, dto UpdateUserDTO) (*User, error)
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

// GetCurrentUser handles GET /user/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	authUser, ok := auth.UserFromContext(r.Context())
	if !ok || authUser == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	u, err := h.Service.GetByID(authUser.ID)
	if err != nil {
		h.Logger.Error("GetCurrentUser: lookup failed", "user_id", authUser.ID, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

// ListUsers handles GET /users. Admin only.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	authUser, ok := auth.UserFromContext(r.Context())
	if !ok || authUser == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if !authUser.IsAdmin() {
		h.WriteError(w, http.StatusForbidden, "admin access required")
		return
	}

	users, err := h.Service.List()
	if err != nil {
		h.Logger.Error("ListUsers: failed", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, users)
}

// CreateUser handles POST /users. Works with or without a token; only
// an admin token can grant a non-installer role.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var dto CreateUserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actorIsAdmin := false
	if authUser, ok := auth.UserFromContext(r.Context()); ok && authUser != nil {
		actorIsAdmin = authUser.IsAdmin()
	}

	u, err := h.Service.Register(actorIsAdmin, dto)
	if err != nil {
		if errors.Is(err, ErrUserAlreadyExists) {
			h.WriteJSON(w, http.StatusConflict, map[string]interface{}{
				"message": "user already exists",
				"user":    u,
			})
			return
		}
		var vErr ValidationError
		if errors.As(err, &vErr) {
			h.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.Logger.Error("CreateUser: failed", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateUser: user registered", "user_id", u.ID, "telegram_id", u.TelegramID, "role", u.Role)
	h.WriteJSON(w, http.StatusCreated, u)
}

// UpdateUser handles PUT /users/{userID}. Admin only.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	authUser, ok := auth.UserFromContext(r.Context())
	if !ok || authUser == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if !authUser.IsAdmin() {
		h.WriteError(w, http.StatusForbidden, "admin access required")
		return
	}

	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		h.WriteError(w, http.StatusBadRequest, "invalid userId")
		return
	}

	var dto UpdateUserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.Service.Update(userID, dto)
	if err != nil {
		var vErr ValidationError
		if errors.As(err, &vErr) {
			h.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.Logger.Error("UpdateUser: failed", "user_id", userID, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("UpdateUser: user updated", "user_id", u.ID, "role", u.Role)
	h.WriteJSON(w, http.StatusOK, u)
}
