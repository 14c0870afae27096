package authz

import (
	"log/slog"
	"net/http"
	"strings"
)

// SessionProvider resolves and revokes the session behind a request.
type SessionProvider interface {
	SessionResolver
	InvalidateSession(w http.ResponseWriter, r *http.Request)
}

// Outcome is the EdgeGuard verdict for one request.
type Outcome int

const (
	Allow Outcome = iota
	Redirect
)

func (o Outcome) String() string {
	if o == Redirect {
		return "redirect"
	}
	return "allow"
}

// EdgeGuard runs before routing on admin-scoped paths only.
type EdgeGuard struct {
	sessions  SessionProvider
	profiles  ProfileLoader
	prefixes  []string
	loginPath string
	log       *slog.Logger
}

func NewEdgeGuard(sessions SessionProvider, profiles ProfileLoader, loginPath string, prefixes []string, log *slog.Logger) *EdgeGuard {
	if log == nil {
		log = slog.Default()
	}
	clean := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if p = strings.TrimRight(p, "/"); p != "" {
			clean = append(clean, p)
		}
	}
	return &EdgeGuard{sessions: sessions, profiles: profiles, prefixes: clean, loginPath: loginPath, log: log}
}

// Scoped reports whether path falls under an admin prefix. The login page is
// never scoped.
func (g *EdgeGuard) Scoped(path string) bool {
	if path == g.loginPath {
		return false
	}
	for _, p := range g.prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// Check decides one request. Unscoped paths are allowed without any lookup.
// A scoped request without identity is redirected; one whose profile is
// explicitly inactive is signed out, then redirected. A missing profile is
// allowed through and left to the Gate.
func (g *EdgeGuard) Check(w http.ResponseWriter, r *http.Request) Outcome {
	if !g.Scoped(r.URL.Path) {
		return Allow
	}
	id, ok := g.sessions.Identity(r)
	if !ok {
		return Redirect
	}
	p, found := g.profiles.Load(r.Context(), id.ID)
	if found && !p.IsActive {
		g.log.Info("signing out deactivated user", "user_id", id.ID, "path", r.URL.Path)
		g.sessions.InvalidateSession(w, r)
		return Redirect
	}
	return Allow
}

func (g *EdgeGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.Check(w, r) == Redirect {
			http.Redirect(w, r, g.loginPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
