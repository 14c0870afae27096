// Package db opens the database, applies migrations and seeds bootstrap data.
package db

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/go-dealership/internal/config"
)

const (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second
)

func gormConfig(debug bool) *gorm.Config {
	level := logger.Silent
	if debug {
		level = logger.Info
	}
	return &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	}
}

// Open connects using cfg.Driver. Postgres connections are retried to give
// the database time to start.
func Open(cfg config.DatabaseConfig, log *slog.Logger) (*gorm.DB, error) {
	if cfg.Driver == "sqlite" {
		log.Info("using sqlite database", "path", cfg.SQLitePath)
		return OpenSQLite(cfg.SQLitePath, cfg.Debug)
	}

	dsn := NormalizeDSN(cfg.DSN())
	var (
		conn *gorm.DB
		err  error
	)
	for i := 1; i <= connectAttempts; i++ {
		conn, err = gorm.Open(postgres.Open(dsn), gormConfig(cfg.Debug))
		if err == nil {
			break
		}
		log.Warn("database connection failed", "attempt", i, "of", connectAttempts, "err", err)
		if i < connectAttempts {
			time.Sleep(connectBackoff)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect database after %d attempts: %w", connectAttempts, err)
	}
	if err := conn.Exec("SELECT 1").Error; err != nil {
		return nil, fmt.Errorf("db ping failed: %w", err)
	}
	log.Info("connected to database", "dsn", MaskDSN(dsn))
	return conn, nil
}

// OpenSQLite opens a sqlite database on a single connection: in-memory
// databases exist per connection and the foreign_keys pragma is per connection.
func OpenSQLite(path string, debug bool) (*gorm.DB, error) {
	conn, err := gorm.Open(sqlite.Open(path), gormConfig(debug))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if err := conn.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
	}
	return conn, nil
}
