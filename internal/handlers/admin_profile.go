package handlers

import (
	"log/slog"
	"net/http"

	"github.com/diewo77/go-dealership/internal/authz"
	"github.com/diewo77/go-dealership/internal/httpx"
	"github.com/diewo77/go-dealership/internal/logger"
	"github.com/diewo77/go-dealership/internal/models"
	"github.com/diewo77/go-dealership/internal/store"
	"github.com/diewo77/go-dealership/internal/validation"
)

// AdminProfileHandler serves the signed-in user's own profile.
type AdminProfileHandler struct {
	gate  *authz.Gate
	users *store.UserStore
	log   *slog.Logger
}

func NewAdminProfileHandler(gate *authz.Gate, users *store.UserStore, log *slog.Logger) *AdminProfileHandler {
	return &AdminProfileHandler{gate: gate, users: users, log: logger.OrDiscard(log)}
}

func (h *AdminProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	me, err := h.gate.RequireAuthenticated(r)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, me)
}

type updateMeRequest struct {
	FullName *string `json:"full_name"`
}

// UpdateMe changes the display name only; role and activation are managed
// by administrators.
func (h *AdminProfileHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	me, err := h.gate.RequireAuthenticated(r)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	var req updateMeRequest
	if !decode(w, r, &req) {
		return
	}
	if req.FullName != nil {
		v := make(validation.Violations)
		validation.MaxLength("full_name", *req.FullName, models.MaxFullNameLength, v)
		if !v.Empty() {
			invalid(w, r, v)
			return
		}
	}
	updated, err := h.users.Update(r.Context(), me.ID, store.UserChanges{FullName: req.FullName})
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}
