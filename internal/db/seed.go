package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/diewo77/go-dealership/internal/auth"
	"github.com/diewo77/go-dealership/internal/models"
)

// IdentityCreator registers sign-in credentials inside a transaction.
type IdentityCreator interface {
	CreateIdentity(ctx context.Context, tx *gorm.DB, email, password string) (auth.Identity, error)
}

// SeedAdministrator makes sure an active administrator exists for email.
// It is a no-op when email is empty or a profile already uses it; an identity
// left without a profile gets one.
func SeedAdministrator(ctx context.Context, conn *gorm.DB, creator IdentityCreator, email, password string, log *slog.Logger) error {
	if email == "" {
		return nil
	}
	email = auth.NormalizeEmail(email)
	return conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.UserProfile
		err := tx.Where("email = ?", email).First(&existing).Error
		if err == nil {
			log.Info("bootstrap administrator already present", "email", email)
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var cred auth.Credential
		err = tx.Where("email = ?", email).First(&cred).Error
		var identityID string
		switch {
		case err == nil:
			identityID = cred.ID
		case errors.Is(err, gorm.ErrRecordNotFound):
			id, err := creator.CreateIdentity(ctx, tx, email, password)
			if err != nil {
				return fmt.Errorf("create bootstrap identity: %w", err)
			}
			identityID = id.ID
		default:
			return err
		}

		profile := models.UserProfile{
			ID:       identityID,
			Email:    email,
			Role:     models.RoleAdministrator,
			IsActive: true,
		}
		if err := tx.Create(&profile).Error; err != nil {
			return fmt.Errorf("create bootstrap profile: %w", err)
		}
		log.Info("bootstrap administrator created", "email", email)
		return nil
	})
}

// SeedCatalog inserts the reference fuel types when missing.
func SeedCatalog(ctx context.Context, conn *gorm.DB) error {
	for _, name := range []string{"Gasoline", "Diesel", "Hybrid", "Electric"} {
		ft := models.FuelType{Name: name}
		if err := conn.WithContext(ctx).Where("name = ?", name).FirstOrCreate(&ft).Error; err != nil {
			return fmt.Errorf("seed fuel type %s: %w", name, err)
		}
	}
	return nil
}
