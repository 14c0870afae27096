// Package auth is the identity and session subsystem: credentials, opaque
// session tokens carried in a signed cookie, and the session stores behind them.
package auth

import (
	"errors"
	"time"
)

// Identity is an authenticated principal as seen by the rest of the app.
type Identity struct {
	ID        string
	Email     string
	ExpiresAt time.Time
}

// Credential is the sign-in record for an identity. Its ID is shared with the
// matching users profile row.
type Credential struct {
	ID           string    `gorm:"primaryKey;type:uuid"`
	Email        string    `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string    `gorm:"size:255;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Credential) TableName() string { return "auth_identities" }

// Session binds an opaque token to an identity until ExpiresAt.
type Session struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	IdentityID string    `gorm:"index;type:uuid;not null" json:"identity_id"`
	Email      string    `gorm:"size:255" json:"email"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `gorm:"index;not null" json:"expires_at"`
}

func (Session) TableName() string { return "auth_sessions" }

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

var (
	ErrSessionNotFound    = errors.New("auth: session not found")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrEmailTaken         = errors.New("auth: email already registered")
	ErrPasswordTooShort   = errors.New("auth: password too short")
	ErrPasswordTooLong    = errors.New("auth: password too long")
)
