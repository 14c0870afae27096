package handlers

import (
	"log/slog"
	"net/http"

	"github.com/diewo77/go-dealership/internal/authz"
	"github.com/diewo77/go-dealership/internal/httpx"
	"github.com/diewo77/go-dealership/internal/logger"
	"github.com/diewo77/go-dealership/internal/store"
)

// Renderer executes a named page template.
type Renderer interface {
	Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error
}

// Pages serves the public catalog and the back-office dashboard.
type Pages struct {
	gate      *authz.Gate
	catalog   *store.Catalog
	view      Renderer
	loginPath string
	log       *slog.Logger
}

func NewPages(gate *authz.Gate, catalog *store.Catalog, view Renderer, loginPath string, log *slog.Logger) *Pages {
	if loginPath == "" {
		loginPath = "/login"
	}
	return &Pages{gate: gate, catalog: catalog, view: view, loginPath: loginPath, log: logger.OrDiscard(log)}
}

func (h *Pages) render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	if err := h.view.Render(w, r, name, data); err != nil {
		h.log.Error("render failed", "template", name, "err", err)
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

// Index is the public home page.
func (h *Pages) Index(w http.ResponseWriter, r *http.Request) {
	banners, err := h.catalog.ActiveBanners(r.Context())
	if err != nil {
		h.log.Error("load banners", "err", err)
	}
	models, err := h.catalog.PublishedModels(r.Context(), r.URL.Query().Get("brand"))
	if err != nil {
		h.log.Error("load models", "err", err)
	}
	h.render(w, r, "index.html", map[string]any{"Banners": banners, "Models": models})
}

// Dashboard is the back-office landing page. Any Gate failure sends the
// visitor to the login page.
func (h *Pages) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, err := h.gate.RequireAuthenticated(r)
	if err != nil {
		kind, _ := authz.KindOf(err)
		h.log.Debug("dashboard refused", "reason", string(kind))
		http.Redirect(w, r, h.loginPath, http.StatusSeeOther)
		return
	}
	counts, err := h.catalog.Counts(r.Context())
	if err != nil {
		h.log.Error("load counts", "err", err)
	}
	h.render(w, r, "admin/dashboard.html", map[string]any{"User": &user, "Counts": counts})
}

// Stats is the JSON form of the dashboard counters.
func (h *Pages) Stats(w http.ResponseWriter, r *http.Request) {
	if _, err := h.gate.RequireAuthenticated(r); err != nil {
		fail(w, r, h.log, err)
		return
	}
	counts, err := h.catalog.Counts(r.Context())
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, counts)
}

// PublicCatalog exposes the published catalog as JSON for the storefront.
type PublicCatalog struct {
	catalog *store.Catalog
	log     *slog.Logger
}

func NewPublicCatalog(catalog *store.Catalog, log *slog.Logger) *PublicCatalog {
	return &PublicCatalog{catalog: catalog, log: logger.OrDiscard(log)}
}

func (h *PublicCatalog) Models(w http.ResponseWriter, r *http.Request) {
	models, err := h.catalog.PublishedModels(r.Context(), r.URL.Query().Get("brand"))
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, models)
}

func (h *PublicCatalog) Model(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	m, err := h.catalog.PublishedModel(r.Context(), id)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *PublicCatalog) Brands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.catalog.Brands(r.Context())
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, brands)
}

func (h *PublicCatalog) Banners(w http.ResponseWriter, r *http.Request) {
	banners, err := h.catalog.ActiveBanners(r.Context())
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, banners)
}
