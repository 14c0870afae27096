package authz

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"github.com/diewo77/go-dealership/internal/models"
)

// ProfileLoader maps an identity id to its user profile. found is false when
// no profile exists or the lookup could not be completed.
type ProfileLoader interface {
	Load(ctx context.Context, identityID string) (profile models.UserProfile, found bool)
}

// DBProfileLoader reads profiles from the users table.
type DBProfileLoader struct {
	DB  *gorm.DB
	Log *slog.Logger
}

func NewDBProfileLoader(db *gorm.DB, log *slog.Logger) *DBProfileLoader {
	if log == nil {
		log = slog.Default()
	}
	return &DBProfileLoader{DB: db, Log: log}
}

// Load fails closed: lookup errors are logged and reported as not found.
func (l *DBProfileLoader) Load(ctx context.Context, identityID string) (models.UserProfile, bool) {
	var p models.UserProfile
	err := l.DB.WithContext(ctx).Where("id = ?", identityID).First(&p).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			l.Log.Warn("profile lookup failed", "identity_id", identityID, "err", err)
		}
		return models.UserProfile{}, false
	}
	return p, true
}
