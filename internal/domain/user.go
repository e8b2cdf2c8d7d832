// Package domain contains the core business entities for the product manager.
// These are pure Go structs with no external dependencies, representing
// users, their login session, and the products they own.
package domain

import (
	"strings"
	"time"
)

// User represents a registered user in the system.
// Users own products and authenticate with an email and password.
type User struct {
	// ID is the unique identifier for the user (user_<uuid>).
	ID string `json:"id"`

	// Username is the display name. Defaults to the local part of the email.
	Username string `json:"username"`

	// Email is the unique, lowercased email address used for login.
	Email string `json:"email"`

	// PasswordHash is the hex-encoded 32-byte PBKDF2-HMAC-SHA256 derived key.
	// This should never be exposed outside the auth service.
	PasswordHash string `json:"passwordHash,omitempty"`

	// Salt is the 16-byte random salt mixed into PasswordHash.
	Salt []byte `json:"salt,omitempty"`

	// IsActive indicates whether the user account is active.
	// Inactive users cannot log in.
	IsActive bool `json:"isActive"`

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the timestamp when the user was last updated.
	UpdatedAt time.Time `json:"updatedAt"`

	// LastLoginAt is the timestamp of the last successful login, if any.
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// NewUser creates a new active User with a normalized email.
// The username falls back to the local part of the email when empty.
func NewUser(id, username, email, passwordHash string, salt []byte) *User {
	now := time.Now().UTC()
	email = NormalizeEmail(email)
	if username == "" {
		username, _, _ = strings.Cut(email, "@")
	}
	return &User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Salt:         salt,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// CanAuthenticate returns true if the user is allowed to authenticate.
func (u *User) CanAuthenticate() bool {
	return u.IsActive
}

// Public returns a copy of the user without credential material.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.PasswordHash = ""
	cp.Salt = nil
	return &cp
}

// NormalizeEmail lowercases and trims an email address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
