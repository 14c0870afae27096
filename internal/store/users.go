package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/diewo77/go-dealership/internal/models"
)

// UserStore reads and edits user profiles. Profiles are never deleted.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// DB exposes the handle so callers can open a transaction spanning
// identity and profile creation.
func (s *UserStore) DB() *gorm.DB { return s.db }

func (s *UserStore) List(ctx context.Context) ([]models.UserProfile, error) {
	users := make([]models.UserProfile, 0)
	err := s.db.WithContext(ctx).Order("email").Find(&users).Error
	return users, err
}

func (s *UserStore) Get(ctx context.Context, id string) (models.UserProfile, error) {
	var u models.UserProfile
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	return u, translate(err)
}

// Create inserts a profile using tx when given.
func (s *UserStore) Create(ctx context.Context, tx *gorm.DB, u *models.UserProfile) error {
	if tx == nil {
		tx = s.db
	}
	return translate(tx.WithContext(ctx).Create(u).Error)
}

// UserChanges lists the editable profile fields; nil leaves a field unchanged.
type UserChanges struct {
	FullName *string
	Role     *models.Role
	IsActive *bool
}

// Update applies changes and returns the updated profile.
func (s *UserStore) Update(ctx context.Context, id string, c UserChanges) (models.UserProfile, error) {
	updates := map[string]any{}
	if c.FullName != nil {
		if *c.FullName == "" {
			updates["full_name"] = nil
		} else {
			updates["full_name"] = *c.FullName
		}
	}
	if c.Role != nil {
		updates["role"] = string(*c.Role)
	}
	if c.IsActive != nil {
		updates["is_active"] = *c.IsActive
	}
	if len(updates) > 0 {
		res := s.db.WithContext(ctx).Model(&models.UserProfile{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return models.UserProfile{}, translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.UserProfile{}, ErrNotFound
		}
	}
	return s.Get(ctx, id)
}

// CountActiveAdministrators counts profiles that can still administer the site.
func (s *UserStore) CountActiveAdministrators(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.UserProfile{}).
		Where("role = ? AND is_active = ?", models.RoleAdministrator, true).
		Count(&n).Error
	return n, err
}
