package models

import (
	"strings"
	"time"
)

// Role is the back-office role of a user profile.
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleStaff         Role = "staff"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdministrator || r == RoleStaff
}

// MaxFullNameLength bounds display names, in characters.
const MaxFullNameLength = 150

// UserProfile is the application-side record attached to an auth identity.
// ID is the identity id; profiles are never hard-deleted, only deactivated.
type UserProfile struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FullName  *string   `gorm:"size:255" json:"full_name"`
	Role      Role      `gorm:"size:20;not null" json:"role"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
}

// TableName keeps the profile table name stable regardless of the struct name.
func (UserProfile) TableName() string { return "users" }

// IsAdministrator reports whether the profile holds the administrator role.
func (u UserProfile) IsAdministrator() bool {
	return u.Role == RoleAdministrator
}

// DisplayName returns the full name when set, else the email.
func (u UserProfile) DisplayName() string {
	if u.FullName != nil && strings.TrimSpace(*u.FullName) != "" {
		return *u.FullName
	}
	return u.Email
}
