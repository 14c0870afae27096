package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/diewo77/go-dealership/internal/auth"
	"github.com/diewo77/go-dealership/internal/authz"
	"github.com/diewo77/go-dealership/internal/httpx"
	"github.com/diewo77/go-dealership/internal/logger"
)

// SignInProvider is the slice of auth.Provider the sign-in flow needs.
type SignInProvider interface {
	authz.SessionProvider
	Authenticate(ctx context.Context, email, password string) (auth.Identity, error)
	StartSession(ctx context.Context, w http.ResponseWriter, id auth.Identity) (auth.Identity, error)
}

type AuthHandler struct {
	sessions SignInProvider
	gate     *authz.Gate
	profiles authz.ProfileLoader
	view     Renderer
	limiter  *LoginLimiter
	home     string
	log      *slog.Logger
}

// NewAuthHandler builds the sign-in handler. home is where a successful
// page sign-in lands.
func NewAuthHandler(sessions SignInProvider, gate *authz.Gate, profiles authz.ProfileLoader, view Renderer, limiter *LoginLimiter, home string, log *slog.Logger) *AuthHandler {
	if home == "" {
		home = "/admin"
	}
	return &AuthHandler{sessions: sessions, gate: gate, profiles: profiles, view: view, limiter: limiter, home: home, log: logger.OrDiscard(log)}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginPage shows the form, or skips it for a user the gate already lets
// in. A session whose profile is missing or deactivated is dropped first so
// the form is not bounced back to the back office.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	_, err := h.gate.RequireAuthenticated(r)
	if err == nil {
		http.Redirect(w, r, h.home, http.StatusSeeOther)
		return
	}
	switch kind, _ := authz.KindOf(err); kind {
	case authz.KindProfileMissing, authz.KindDeactivated:
		h.sessions.InvalidateSession(w, r)
	}
	h.page(w, r, "", "")
}

// Login checks credentials and opens a session. Deactivated profiles are
// refused before any session exists.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	asJSON := httpx.WantsJSON(r) || httpx.IsJSONBody(r)

	var req loginRequest
	if httpx.IsJSONBody(r) {
		if !decode(w, r, &req) {
			return
		}
	} else {
		req.Email = r.FormValue("email")
		req.Password = r.FormValue("password")
	}

	if h.limiter != nil && !h.limiter.AllowRequest(r) {
		h.log.Warn("login throttled", "ip", h.limiter.ClientIP(r))
		h.refuse(w, r, asJSON, http.StatusTooManyRequests, "too_many_requests", req.Email)
		return
	}

	id, err := h.sessions.Authenticate(r.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		h.log.Info("login failed", "email", auth.NormalizeEmail(req.Email))
		h.refuse(w, r, asJSON, http.StatusUnauthorized, "invalid_credentials", req.Email)
		return
	}
	if err != nil {
		h.log.Error("authenticate", "err", err)
		h.refuse(w, r, asJSON, http.StatusInternalServerError, "internal_error", req.Email)
		return
	}

	if p, found := h.profiles.Load(r.Context(), id.ID); found && !p.IsActive {
		h.log.Info("login refused for deactivated user", "user_id", id.ID)
		h.refuse(w, r, asJSON, authz.KindDeactivated.Status(), authz.KindDeactivated.Code(), req.Email)
		return
	}

	id, err = h.sessions.StartSession(r.Context(), w, id)
	if err != nil {
		h.log.Error("start session", "err", err)
		h.refuse(w, r, asJSON, http.StatusInternalServerError, "internal_error", req.Email)
		return
	}
	h.log.Info("user signed in", "user_id", id.ID)
	if asJSON {
		httpx.JSON(w, http.StatusOK, map[string]any{"id": id.ID, "email": id.Email, "expires_at": id.ExpiresAt})
		return
	}
	http.Redirect(w, r, h.home, http.StatusSeeOther)
}

// Logout drops the session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.InvalidateSession(w, r)
	if httpx.WantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) refuse(w http.ResponseWriter, r *http.Request, asJSON bool, status int, code, email string) {
	if asJSON {
		failCode(w, r, status, code)
		return
	}
	h.page(w, r, code, email)
}

func (h *AuthHandler) page(w http.ResponseWriter, r *http.Request, errCode, email string) {
	data := map[string]any{"Email": email}
	if errCode != "" {
		data["Error"] = errCode
	}
	if err := h.view.Render(w, r, "login.html", data); err != nil {
		h.log.Error("render failed", "template", "login.html", "err", err)
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}
