package domain

import "time"

// Session is the single persisted login session.
// Only one session exists at a time; a new login overwrites the previous one.
type Session struct {
	UserID     string    `json:"userId"`
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expiresAt"`
	CreatedAt  time.Time `json:"createdAt"`
	RememberMe bool      `json:"rememberMe"`
}

// NewSession creates a session for the user that expires after ttl.
func NewSession(user *User, token string, now time.Time, ttl time.Duration, rememberMe bool) *Session {
	now = now.UTC()
	return &Session{
		UserID:     user.ID,
		Email:      user.Email,
		Username:   user.Username,
		Token:      token,
		ExpiresAt:  now.Add(ttl),
		CreatedAt:  now,
		RememberMe: rememberMe,
	}
}

// IsExpired reports whether the session is past its expiry at the given instant.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// User returns the identity carried by the session.
// Credential fields are not part of a session and stay empty.
func (s *Session) User() *User {
	return &User{
		ID:       s.UserID,
		Username: s.Username,
		Email:    s.Email,
		IsActive: true,
	}
}
