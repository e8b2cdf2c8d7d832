package sqlite

import (
	"context"
	"fmt"

	"github.com/prn-tf/product-manager/internal/domain"
	"github.com/prn-tf/product-manager/internal/repository"
)

// currentSessionID is the fixed row id of the single active session.
const currentSessionID = "session"

// sessionStore implements repository.SessionStore on the sessions table.
// It keeps one row, mirroring the single-session model of the KV store.
type sessionStore struct {
	db *DB
}

// NewSessionStore creates a SQLite session store.
func NewSessionStore(db *DB) repository.SessionStore {
	return &sessionStore{db: db}
}

// Load returns the persisted session.
func (s *sessionStore) Load(ctx context.Context) (*domain.Session, error) {
	row, err := s.db.QueryRowContext(ctx, `
		SELECT user_id, email, username, token, remember_me, expires_at, created_at
		FROM sessions WHERE id = ?
	`, currentSessionID)
	if err != nil {
		return nil, err
	}

	session := &domain.Session{}
	var rememberMe int
	var expiresAt, createdAt string
	err = row.Scan(
		&session.UserID,
		&session.Email,
		&session.Username,
		&session.Token,
		&rememberMe,
		&expiresAt,
		&createdAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	session.RememberMe = rememberMe != 0
	if session.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, fmt.Errorf("%w: expires_at: %v", repository.ErrCorruptSession, err)
	}
	if session.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("%w: created_at: %v", repository.ErrCorruptSession, err)
	}
	return session, nil
}

// Save persists the session, replacing any previous one.
func (s *sessionStore) Save(ctx context.Context, session *domain.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, email, username, token, remember_me, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			user_id = excluded.user_id,
			email = excluded.email,
			username = excluded.username,
			token = excluded.token,
			remember_me = excluded.remember_me,
			expires_at = excluded.expires_at,
			created_at = excluded.created_at
	`,
		currentSessionID,
		session.UserID,
		session.Email,
		session.Username,
		session.Token,
		boolToInt(session.RememberMe),
		formatTime(session.ExpiresAt),
		formatTime(session.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes the persisted session.
func (s *sessionStore) Delete(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Clear removes all sessions.
func (s *sessionStore) Clear(ctx context.Context) error {
	return s.Delete(ctx)
}

// Ensure sessionStore implements repository.SessionStore.
var _ repository.SessionStore = (*sessionStore)(nil)
