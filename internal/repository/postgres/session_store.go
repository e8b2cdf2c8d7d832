package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/product-manager/internal/domain"
	"github.com/prn-tf/product-manager/internal/repository"
)

// currentSessionID is the fixed row id of the single active session.
const currentSessionID = "session"

// sessionStore implements repository.SessionStore on the sessions table.
type sessionStore struct {
	db *DB
}

// NewSessionStore creates a PostgreSQL session store.
func NewSessionStore(db *DB) repository.SessionStore {
	return &sessionStore{db: db}
}

// Load returns the persisted session.
func (s *sessionStore) Load(ctx context.Context) (*domain.Session, error) {
	pool, err := s.db.Pool()
	if err != nil {
		return nil, err
	}

	session := &domain.Session{}
	err = pool.QueryRow(ctx, `
		SELECT user_id, email, username, token, remember_me, expires_at, created_at
		FROM sessions WHERE id = $1
	`, currentSessionID).Scan(
		&session.UserID,
		&session.Email,
		&session.Username,
		&session.Token,
		&session.RememberMe,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return session, nil
}

// Save persists the session, replacing any previous one.
func (s *sessionStore) Save(ctx context.Context, session *domain.Session) error {
	pool, err := s.db.Pool()
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO sessions (id, user_id, email, username, token, remember_me, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			email = EXCLUDED.email,
			username = EXCLUDED.username,
			token = EXCLUDED.token,
			remember_me = EXCLUDED.remember_me,
			expires_at = EXCLUDED.expires_at,
			created_at = EXCLUDED.created_at
	`,
		currentSessionID,
		session.UserID,
		session.Email,
		session.Username,
		session.Token,
		session.RememberMe,
		session.ExpiresAt.UTC(),
		session.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes the persisted session.
func (s *sessionStore) Delete(ctx context.Context) error {
	pool, err := s.db.Pool()
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, `DELETE FROM sessions`); err != nil {
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
