// Package handlers holds the HTTP handlers for the public site, the sign-in
// flow and the back-office API. Every back-office handler asks the authz.Gate
// before touching data.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/diewo77/go-dealership/internal/authz"
	"github.com/diewo77/go-dealership/internal/httpx"
	"github.com/diewo77/go-dealership/internal/i18n"
	"github.com/diewo77/go-dealership/internal/store"
	"github.com/diewo77/go-dealership/internal/validation"
)

// fail answers an API request with the JSON error matching err.
func fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	lang := i18n.LangFrom(r.Context())
	if kind, ok := authz.KindOf(err); ok {
		httpx.JSONErrorMessage(w, kind.Status(), kind.Code(), i18n.T(lang, kind.Code()), nil)
		return
	}
	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, store.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, store.ErrConflict):
		status, code = http.StatusConflict, "conflict"
	default:
		log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	httpx.JSONErrorMessage(w, status, code, i18n.T(lang, code), nil)
}

// failCode answers with a fixed status and code.
func failCode(w http.ResponseWriter, r *http.Request, status int, code string) {
	httpx.JSONErrorMessage(w, status, code, i18n.T(i18n.LangFrom(r.Context()), code), nil)
}

func invalid(w http.ResponseWriter, r *http.Request, v validation.Violations) {
	httpx.JSONErrorMessage(w, http.StatusUnprocessableEntity, "validation_failed",
		i18n.T(i18n.LangFrom(r.Context()), "validation_failed"), v)
}

// decode reads a JSON body, answering 400 itself on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(w, r, dst); err != nil {
		failCode(w, r, http.StatusBadRequest, "invalid_json")
		return false
	}
	return true
}

// pathID parses the {id} path segment as a positive integer.
func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	n, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || n == 0 {
		failCode(w, r, http.StatusBadRequest, "invalid_id")
		return 0, false
	}
	return uint(n), true
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

// check runs struct tags and, when item has one, its Check method.
func check(item any) validation.Violations {
	v := validation.Struct(item)
	if c, ok := item.(interface{ Check(validation.Violations) }); ok {
		c.Check(v)
	}
	return v
}
