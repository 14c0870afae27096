package db

import (
	"embed"
	"errors"
	"fmt"

	migrate "github.com/golang-migrate/migrate/v4"
	// registers the postgres driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"

	"github.com/diewo77/go-dealership/internal/auth"
	"github.com/diewo77/go-dealership/internal/models"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Models lists every table managed by AutoMigrate, parents first.
func Models() []any {
	return []any{
		&auth.Credential{},
		&auth.Session{},
		&models.UserProfile{},
		&models.Brand{},
		&models.Category{},
		&models.FuelType{},
		&models.Color{},
		&models.CarModel{},
		&models.Version{},
		&models.Banner{},
	}
}

// AutoMigrate creates or updates tables from the gorm models. It is the
// development and test path; production runs the SQL migrations.
func AutoMigrate(conn *gorm.DB) error {
	for _, m := range Models() {
		if err := conn.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	for _, table := range []string{"auth_identities", "users"} {
		if !conn.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// RunSQLMigrations applies the embedded migrations to the postgres database at url.
func RunSQLMigrations(url string) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}
