package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/diewo77/go-dealership/internal/auth"
	"github.com/diewo77/go-dealership/internal/authz"
	"github.com/diewo77/go-dealership/internal/httpx"
	"github.com/diewo77/go-dealership/internal/logger"
	"github.com/diewo77/go-dealership/internal/models"
	"github.com/diewo77/go-dealership/internal/store"
	"github.com/diewo77/go-dealership/internal/validation"
)

// UsersResource is the Gate resource name for staff accounts.
const UsersResource = "users"

// Accounts creates credentials and revokes sessions.
type Accounts interface {
	CreateIdentity(ctx context.Context, tx *gorm.DB, email, password string) (auth.Identity, error)
	RevokeIdentity(ctx context.Context, identityID string) error
}

// AdminUserProfileHandler lets administrators provision staff accounts and
// change their role or activation. Profiles are never deleted; deactivation
// takes their place and signs the user out everywhere.
type AdminUserProfileHandler struct {
	gate     *authz.Gate
	users    *store.UserStore
	accounts Accounts
	log      *slog.Logger
}

func NewAdminUserProfileHandler(gate *authz.Gate, users *store.UserStore, accounts Accounts, log *slog.Logger) *AdminUserProfileHandler {
	return &AdminUserProfileHandler{gate: gate, users: users, accounts: accounts, log: logger.OrDiscard(log)}
}

func (h *AdminUserProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, err := h.gate.Authorize(r, UsersResource, authz.ActionList); err != nil {
		fail(w, r, h.log, err)
		return
	}
	users, err := h.users.List(r.Context())
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": users, "total": len(users)})
}

func (h *AdminUserProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, err := h.gate.Authorize(r, UsersResource, authz.ActionView); err != nil {
		fail(w, r, h.log, err)
		return
	}
	u, err := h.users.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

type createUserRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	FullName string      `json:"full_name"`
	Role     models.Role `json:"role"`
}

// Create provisions an identity and its profile in one transaction.
func (h *AdminUserProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := h.gate.Authorize(r, UsersResource, authz.ActionCreate)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	var req createUserRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Role == "" {
		req.Role = models.RoleStaff
	}
	v := make(validation.Violations)
	validation.Required("email", req.Email, v)
	validation.Email("email", req.Email, v)
	validation.MinLength("password", req.Password, auth.MinPasswordLength, v)
	if len(req.Password) > auth.MaxPasswordLength {
		v["password"] = "max"
	}
	validation.MaxLength("full_name", req.FullName, models.MaxFullNameLength, v)
	if !req.Role.Valid() {
		v["role"] = "oneof"
	}
	if !v.Empty() {
		invalid(w, r, v)
		return
	}

	var profile models.UserProfile
	err = h.users.DB().WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		id, err := h.accounts.CreateIdentity(r.Context(), tx, req.Email, req.Password)
		if err != nil {
			return err
		}
		profile = models.UserProfile{ID: id.ID, Email: id.Email, Role: req.Role, IsActive: true}
		if name := strings.TrimSpace(req.FullName); name != "" {
			profile.FullName = &name
		}
		return h.users.Create(r.Context(), tx, &profile)
	})
	switch {
	case errors.Is(err, auth.ErrEmailTaken), errors.Is(err, store.ErrConflict):
		failCode(w, r, http.StatusConflict, "email_taken")
		return
	case errors.Is(err, auth.ErrPasswordTooShort):
		invalid(w, r, validation.Violations{"password": "too_short"})
		return
	case errors.Is(err, auth.ErrPasswordTooLong):
		invalid(w, r, validation.Violations{"password": "max"})
		return
	case err != nil:
		fail(w, r, h.log, err)
		return
	}
	h.log.Info("user provisioned", "user_id", profile.ID, "role", profile.Role, "by", actor.ID)
	httpx.JSON(w, http.StatusCreated, profile)
}

type updateUserRequest struct {
	FullName *string      `json:"full_name"`
	Role     *models.Role `json:"role"`
	IsActive *bool        `json:"is_active"`
}

// Update edits name, role or activation. An administrator cannot demote or
// deactivate themselves, and the last active administrator cannot be removed.
func (h *AdminUserProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, err := h.gate.Authorize(r, UsersResource, authz.ActionUpdate)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	var req updateUserRequest
	if !decode(w, r, &req) {
		return
	}
	v := make(validation.Violations)
	if req.Role != nil && !req.Role.Valid() {
		v["role"] = "oneof"
	}
	if req.FullName != nil {
		validation.MaxLength("full_name", *req.FullName, models.MaxFullNameLength, v)
	}
	if !v.Empty() {
		invalid(w, r, v)
		return
	}

	id := r.PathValue("id")
	target, err := h.users.Get(r.Context(), id)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}

	demoted := req.Role != nil && *req.Role != models.RoleAdministrator
	deactivated := req.IsActive != nil && !*req.IsActive
	if demoted || deactivated {
		if target.ID == actor.ID {
			failCode(w, r, http.StatusConflict, "cannot_modify_self")
			return
		}
		if target.IsActive && target.IsAdministrator() {
			n, err := h.users.CountActiveAdministrators(r.Context())
			if err != nil {
				fail(w, r, h.log, err)
				return
			}
			if n <= 1 {
				failCode(w, r, http.StatusConflict, "last_administrator")
				return
			}
		}
	}

	updated, err := h.users.Update(r.Context(), id, store.UserChanges{FullName: req.FullName, Role: req.Role, IsActive: req.IsActive})
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	if target.IsActive && !updated.IsActive {
		if err := h.accounts.RevokeIdentity(r.Context(), updated.ID); err != nil {
			h.log.Error("revoke sessions", "user_id", updated.ID, "err", err)
		}
	}
	h.log.Info("user updated", "user_id", updated.ID, "role", updated.Role, "active", updated.IsActive, "by", actor.ID)
	httpx.JSON(w, http.StatusOK, updated)
}
