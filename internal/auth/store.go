package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Store persists sessions. Get returns ErrSessionNotFound for unknown ids.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	DeleteByIdentity(ctx context.Context, identityID string) error
}

// GormStore keeps sessions in the auth_sessions table.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Create(ctx context.Context, sess Session) error {
	if sess.ID == "" || sess.IdentityID == "" {
		return fmt.Errorf("auth: session missing id or identity")
	}
	return s.db.WithContext(ctx).Create(&sess).Error
}

func (s *GormStore) Get(ctx context.Context, id string) (*Session, error) {
	var sess Session
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *GormStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&Session{}).Error
}

func (s *GormStore) DeleteByIdentity(ctx context.Context, identityID string) error {
	return s.db.WithContext(ctx).Where("identity_id = ?", identityID).Delete(&Session{}).Error
}

// PurgeExpired removes sessions that expired before now.
func (s *GormStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&Session{})
	return res.RowsAffected, res.Error
}
