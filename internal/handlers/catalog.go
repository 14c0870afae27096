package handlers

import (
	"log/slog"
	"net/http"

	"github.com/diewo77/go-dealership/internal/authz"
	"github.com/diewo77/go-dealership/internal/httpx"
	"github.com/diewo77/go-dealership/internal/logger"
	"github.com/diewo77/go-dealership/internal/store"
)

// Row is satisfied by pointers to catalog models.
type Row[T any] interface {
	*T
	GetID() uint
	SetID(uint)
}

// Resource serves JSON CRUD for one catalog table under /api/admin/<name>.
type Resource[T any, PT Row[T]] struct {
	name string
	gate *authz.Gate
	repo *store.Repo[T]
	log  *slog.Logger
}

func NewResource[T any, PT Row[T]](name string, gate *authz.Gate, repo *store.Repo[T], log *slog.Logger) *Resource[T, PT] {
	return &Resource[T, PT]{name: name, gate: gate, repo: repo, log: logger.OrDiscard(log)}
}

func (h *Resource[T, PT]) Name() string { return h.name }

func (h *Resource[T, PT]) List(w http.ResponseWriter, r *http.Request) {
	if _, err := h.gate.Authorize(r, h.name, authz.ActionList); err != nil {
		fail(w, r, h.log, err)
		return
	}
	opts := store.ListOptions{Limit: queryInt(r, "limit"), Offset: queryInt(r, "offset")}
	items, total, err := h.repo.List(r.Context(), opts)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total": total})
}

func (h *Resource[T, PT]) Get(w http.ResponseWriter, r *http.Request) {
	if _, err := h.gate.Authorize(r, h.name, authz.ActionView); err != nil {
		fail(w, r, h.log, err)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	item, err := h.repo.Get(r.Context(), id)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Resource[T, PT]) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := h.gate.Authorize(r, h.name, authz.ActionCreate)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	item := PT(new(T))
	if !decode(w, r, item) {
		return
	}
	item.SetID(0)
	if v := check(item); !v.Empty() {
		invalid(w, r, v)
		return
	}
	if err := h.repo.Create(r.Context(), (*T)(item)); err != nil {
		fail(w, r, h.log, err)
		return
	}
	h.log.Info("catalog item created", "resource", h.name, "by", actor.ID)
	h.respondFresh(w, r, item, http.StatusCreated)
}

// Update decodes the payload over the stored row, so omitted fields keep
// their current value.
func (h *Resource[T, PT]) Update(w http.ResponseWriter, r *http.Request) {
	actor, err := h.gate.Authorize(r, h.name, authz.ActionUpdate)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	current, err := h.repo.Get(r.Context(), id)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	item := PT(current)
	if !decode(w, r, item) {
		return
	}
	item.SetID(id)
	if v := check(item); !v.Empty() {
		invalid(w, r, v)
		return
	}
	if err := h.repo.Update(r.Context(), current); err != nil {
		fail(w, r, h.log, err)
		return
	}
	h.log.Info("catalog item updated", "resource", h.name, "id", id, "by", actor.ID)
	h.respondFresh(w, r, item, http.StatusOK)
}

func (h *Resource[T, PT]) Delete(w http.ResponseWriter, r *http.Request) {
	actor, err := h.gate.Authorize(r, h.name, authz.ActionDelete)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		fail(w, r, h.log, err)
		return
	}
	h.log.Info("catalog item deleted", "resource", h.name, "id", id, "by", actor.ID)
	w.WriteHeader(http.StatusNoContent)
}

// Register mounts the five routes under prefix.
func (h *Resource[T, PT]) Register(mux *http.ServeMux, prefix string) {
	base := prefix + "/" + h.name
	mux.HandleFunc("GET "+base, h.List)
	mux.HandleFunc("POST "+base, h.Create)
	mux.HandleFunc("GET "+base+"/{id}", h.Get)
	mux.HandleFunc("PUT "+base+"/{id}", h.Update)
	mux.HandleFunc("DELETE "+base+"/{id}", h.Delete)
}

// respondFresh re-reads the row so associations reflect the stored keys.
func (h *Resource[T, PT]) respondFresh(w http.ResponseWriter, r *http.Request, item PT, status int) {
	if id := item.GetID(); id != 0 {
		if fresh, err := h.repo.Get(r.Context(), id); err == nil {
			httpx.JSON(w, status, fresh)
			return
		}
	}
	httpx.JSON(w, status, item)
}

// VersionColors replaces the colors offered for a version.
type VersionColors struct {
	gate    *authz.Gate
	catalog *store.Catalog
	log     *slog.Logger
}

func NewVersionColors(gate *authz.Gate, catalog *store.Catalog, log *slog.Logger) *VersionColors {
	return &VersionColors{gate: gate, catalog: catalog, log: logger.OrDiscard(log)}
}

type versionColorsRequest struct {
	ColorIDs []uint `json:"color_ids"`
}

func (h *VersionColors) Replace(w http.ResponseWriter, r *http.Request) {
	if _, err := h.gate.Authorize(r, "versions", authz.ActionUpdate); err != nil {
		fail(w, r, h.log, err)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req versionColorsRequest
	if !decode(w, r, &req) {
		return
	}
	v, err := h.catalog.ReplaceVersionColors(r.Context(), id, req.ColorIDs)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}
