package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID                  int64      `json:"id" db:"id" example:"1"`
	Username            string     `json:"username" db:"username" example:"kari_nordmann"`
	Email               string     `json:"email" db:"email" example:"kari@example.com"`
	PasswordHash        string     `json:"-" db:"password_hash"`
	FullName            *string    `json:"fullName,omitempty" db:"full_name" example:"Kari Nordmann"`
	Phone               *string    `json:"phone,omitempty" db:"phone" example:"12345678"`
	Role                RoleType   `json:"role" db:"role" example:"student"`
	IsActive            bool       `json:"isActive" db:"is_active" example:"true"`
	FailedAttempts      int        `json:"-" db:"failed_attempts"`
	LockoutUntil        *time.Time `json:"-" db:"lockout_until"`
	ResetToken          *string    `json:"-" db:"reset_token"` // SHA-256 digest, never the raw token
	ResetTokenExpiresAt *time.Time `json:"-" db:"reset_token_expires_at"`
	CreatedAt           time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt           time.Time  `json:"updatedAt" db:"updated_at"`
}

// IsLocked reports whether the account is locked at the given instant
func (u *User) IsLocked(now time.Time) bool {
	return u.LockoutUntil != nil && u.LockoutUntil.After(now)
}

// DisplayName returns the full name when set, otherwise the username
func (u *User) DisplayName() string {
	if u.FullName != nil && *u.FullName != "" {
		return *u.FullName
	}
	return u.Username
}
