package main

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"gorm.io/gorm"

	"github.com/diewo77/go-dealership/internal/auth"
	"github.com/diewo77/go-dealership/internal/authz"
	"github.com/diewo77/go-dealership/internal/config"
	"github.com/diewo77/go-dealership/internal/handlers"
	"github.com/diewo77/go-dealership/internal/httpx"
	"github.com/diewo77/go-dealership/internal/i18n"
	"github.com/diewo77/go-dealership/internal/logger"
	"github.com/diewo77/go-dealership/internal/models"
	"github.com/diewo77/go-dealership/internal/store"
	"github.com/diewo77/go-dealership/internal/view"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux     *http.ServeMux
	handler http.Handler
	db      *gorm.DB
	redis   *redis.Client
	edge    *authz.EdgeGuard
	limiter *handlers.LoginLimiter
	log     *slog.Logger
}

// Deps are the long-lived services the routes are built from.
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Sessions *auth.Provider
	Redis    *redis.Client // nil unless sessions live in redis
	Log      *slog.Logger
}

// NewApp creates a new application with all routes configured.
func NewApp(d Deps) *App {
	log := logger.OrDiscard(d.Log)
	cfg := d.Config
	loader := authz.NewDBProfileLoader(d.DB, log)
	proxies, err := cfg.Auth.TrustedProxyPrefixes()
	if err != nil {
		log.Warn("ignoring trusted proxies", "err", err)
		proxies = nil
	}

	app := &App{
		mux:     http.NewServeMux(),
		db:      d.DB,
		redis:   d.Redis,
		edge:    authz.NewEdgeGuard(d.Sessions, loader, cfg.Auth.LoginPath, cfg.Auth.AdminPathPrefixes, log),
		limiter: handlers.NewLoginLimiter(cfg.Auth.LoginRatePerMin, cfg.Auth.LoginRateBurst, proxies...),
		log:     log,
	}
	gate := authz.NewGate(d.Sessions, loader, handlers.UsersResource)
	app.setupRoutes(cfg, gate, d.Sessions, loader)

	var h http.Handler = app.mux
	h = app.edge.Middleware(h)
	h = withPreferences(h)
	h = withLogging(log, h)
	h = withRecover(log, h)
	app.handler = otelhttp.NewHandler(h, "http.server",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string { return r.Method + " " + r.URL.Path }))
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes(cfg *config.Config, gate *authz.Gate, sessions *auth.Provider, loader authz.ProfileLoader) {
	log := a.log
	renderer := view.New(cfg.App.Dev)
	catalog := store.NewCatalog(a.db)
	users := store.NewUserStore(a.db)

	// ─────────────────────────────────────────────────────────────────────────
	// Public routes (no auth required)
	// ─────────────────────────────────────────────────────────────────────────
	pages := handlers.NewPages(gate, catalog, renderer, cfg.Auth.LoginPath, log)
	ah := handlers.NewAuthHandler(sessions, gate, loader, renderer, a.limiter, "/admin", log)
	pc := handlers.NewPublicCatalog(catalog, log)

	a.mux.HandleFunc("GET /{$}", pages.Index)
	a.mux.HandleFunc("GET /healthz", a.healthz)
	a.mux.HandleFunc("GET "+cfg.Auth.LoginPath, ah.LoginPage)
	a.mux.HandleFunc("POST "+cfg.Auth.LoginPath, ah.Login)
	a.mux.HandleFunc("POST /logout", ah.Logout)

	a.mux.HandleFunc("GET /api/catalog/models", pc.Models)
	a.mux.HandleFunc("GET /api/catalog/models/{id}", pc.Model)
	a.mux.HandleFunc("GET /api/catalog/brands", pc.Brands)
	a.mux.HandleFunc("GET /api/catalog/banners", pc.Banners)

	// ─────────────────────────────────────────────────────────────────────────
	// Back office. Pages sit behind the edge guard; every handler still asks
	// the gate.
	// ─────────────────────────────────────────────────────────────────────────
	me := handlers.NewAdminProfileHandler(gate, users, log)
	a.mux.HandleFunc("GET /admin", pages.Dashboard)
	a.mux.HandleFunc("GET /api/me", me.Me)
	a.mux.HandleFunc("PATCH /api/me", me.UpdateMe)
	a.mux.HandleFunc("GET /api/admin/stats", pages.Stats)

	const api = "/api/admin"
	handlers.NewResource[models.Brand]("brands", gate, store.NewRepo[models.Brand](a.db, "name"), log).Register(a.mux, api)
	handlers.NewResource[models.Category]("categories", gate, store.NewRepo[models.Category](a.db, "name"), log).Register(a.mux, api)
	handlers.NewResource[models.FuelType]("fuel-types", gate, store.NewRepo[models.FuelType](a.db, "name"), log).Register(a.mux, api)
	handlers.NewResource[models.Color]("colors", gate, store.NewRepo[models.Color](a.db, "name"), log).Register(a.mux, api)
	handlers.NewResource[models.CarModel]("models", gate,
		store.NewRepo[models.CarModel](a.db, "name", "Brand", "Category", "FuelType"), log).Register(a.mux, api)
	handlers.NewResource[models.Version]("versions", gate, store.NewRepo[models.Version](a.db, "car_model_id, price", "Colors"), log).Register(a.mux, api)
	handlers.NewResource[models.Banner]("banners", gate, store.NewRepo[models.Banner](a.db, "position, id"), log).Register(a.mux, api)
	a.mux.HandleFunc("PUT "+api+"/versions/{id}/colors", handlers.NewVersionColors(gate, catalog, log).Replace)

	uh := handlers.NewAdminUserProfileHandler(gate, users, sessions, log)
	a.mux.HandleFunc("GET "+api+"/users", uh.List)
	a.mux.HandleFunc("POST "+api+"/users", uh.Create)
	a.mux.HandleFunc("GET "+api+"/users/{id}", uh.Get)
	a.mux.HandleFunc("PATCH "+api+"/users/{id}", uh.Update)
}

// healthz reports whether the database and, when used, redis answer.
func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	status := map[string]string{"database": "ok"}
	healthy := true
	if sqlDB, err := a.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		status["database"] = "down"
		healthy = false
	}
	if a.redis != nil {
		status["redis"] = "ok"
		if err := a.redis.Ping(ctx).Err(); err != nil {
			status["redis"] = "down"
			healthy = false
		}
	}
	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	httpx.JSON(w, code, status)
}

// ─────────────────────────────────────────────────────────────────────────────
// Middleware
// ─────────────────────────────────────────────────────────────────────────────

// withPreferences stores the request language in the context: the lang query
// parameter (remembered in a cookie), then the cookie, then Accept-Language.
func withPreferences(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := i18n.DetectLanguage(r.Header.Get("Accept-Language"))
		if c, err := r.Cookie("lang"); err == nil && i18n.Supported(c.Value) {
			lang = c.Value
		}
		if q := r.URL.Query().Get("lang"); i18n.Supported(q) {
			lang = q
			http.SetCookie(w, &http.Cookie{
				Name:     "lang",
				Value:    lang,
				Path:     "/",
				MaxAge:   86400 * 365,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(i18n.WithLang(r.Context(), lang)))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// withLogging adds request logging middleware.
func withLogging(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start),
		)
	})
}

func withRecover(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error("panic", "path", r.URL.Path, "panic", rec, "stack", string(debug.Stack()))
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
