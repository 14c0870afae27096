package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/diewo77/go-dealership/internal/auth"
	"github.com/diewo77/go-dealership/internal/config"
	"github.com/diewo77/go-dealership/internal/db"
	"github.com/diewo77/go-dealership/internal/logger"
	"github.com/diewo77/go-dealership/internal/telemetry"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

const janitorInterval = time.Hour

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := telemetry.Setup(ctx, cfg.Telemetry, log)
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracing shutdown", "err", err)
		}
	}()

	conn, err := db.Open(cfg.Database, log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	if *migrateOnlyFlag {
		if err := migrateDB(cfg, conn, log); err != nil {
			return err
		}
		log.Info("migrations completed")
		return nil
	}
	if cfg.App.Migrations {
		if err := migrateDB(cfg, conn, log); err != nil {
			return err
		}
	}
	if cfg.App.AutoMigrate {
		if err := db.AutoMigrate(conn); err != nil {
			return fmt.Errorf("automigrate: %w", err)
		}
	}

	sessionStore, redisClient, err := openSessionStore(ctx, cfg, conn)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	provider := auth.NewProvider(conn, sessionStore, auth.Options{
		Secret: cfg.Auth.SessionSecret,
		TTL:    cfg.Auth.SessionTTL,
		Cookie: auth.CookieOptions{Secure: cfg.Auth.CookieSecure},
		Logger: log,
	})

	if err := seed(ctx, cfg, conn, provider, log); err != nil {
		return err
	}
	if *seedOnlyFlag {
		log.Info("seeding completed")
		return nil
	}

	app := NewApp(Deps{Config: cfg, DB: conn, Sessions: provider, Redis: redisClient, Log: log})
	go janitor(ctx, sessionStore, app, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      app,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Server.Port, "dev", cfg.App.Dev, "session_store", cfg.Auth.SessionStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	// Graceful shutdown with timeout
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error("error during shutdown", "err", err)
	}
	log.Info("server stopped gracefully")
	return nil
}

// migrateDB runs the embedded SQL migrations on postgres; sqlite has no SQL
// migration set and uses AutoMigrate.
func migrateDB(cfg *config.Config, conn *gorm.DB, log *slog.Logger) error {
	if cfg.Database.Driver == "sqlite" {
		log.Info("sqlite: applying gorm automigrate")
		return db.AutoMigrate(conn)
	}
	if err := db.RunSQLMigrations(cfg.Database.URL()); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	log.Info("sql migrations applied")
	return nil
}

func openSessionStore(ctx context.Context, cfg *config.Config, conn *gorm.DB) (auth.Store, *redis.Client, error) {
	if cfg.Auth.SessionStore != "redis" {
		return auth.NewGormStore(conn), nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
	}
	return auth.NewRedisStore(client), client, nil
}

func seed(ctx context.Context, cfg *config.Config, conn *gorm.DB, provider *auth.Provider, log *slog.Logger) error {
	if err := db.SeedCatalog(ctx, conn); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	if err := db.SeedAdministrator(ctx, conn, provider, cfg.App.BootstrapAdminEmail, cfg.App.BootstrapAdminPassword, log); err != nil {
		return fmt.Errorf("seed administrator: %w", err)
	}
	return nil
}

// janitor purges expired database sessions and idle login buckets. Redis
// expires sessions on its own.
func janitor(ctx context.Context, sessions auth.Store, app *App, log *slog.Logger) {
	purger, _ := sessions.(interface {
		PurgeExpired(ctx context.Context, now time.Time) (int64, error)
	})
	t := time.NewTicker(janitorInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			app.limiter.Sweep(janitorInterval)
			if purger == nil {
				continue
			}
			n, err := purger.PurgeExpired(ctx, now)
			if err != nil {
				log.Warn("purge expired sessions", "err", err)
				continue
			}
			if n > 0 {
				log.Info("purged expired sessions", "count", n)
			}
		}
	}
}
