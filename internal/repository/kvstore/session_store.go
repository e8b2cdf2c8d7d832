package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prn-tf/product-manager/internal/domain"
	"github.com/prn-tf/product-manager/internal/repository"
)

// sessionStore keeps the active session as JSON under a single key.
type sessionStore struct {
	kv  repository.KVStore
	key string
}

// NewSessionStore creates a session store under repository.KeySession.
func NewSessionStore(kv repository.KVStore) repository.SessionStore {
	return NewSessionStoreWithKey(kv, repository.KeySession)
}

// NewSessionStoreWithKey creates a session store under a custom key, so demo
// authenticators don't clobber the real session.
func NewSessionStoreWithKey(kv repository.KVStore, key string) repository.SessionStore {
	return &sessionStore{kv: kv, key: key}
}

// Load returns the persisted session.
func (s *sessionStore) Load(ctx context.Context) (*domain.Session, error) {
	data, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, err
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrCorruptSession, err)
	}
	if session.Token == "" || session.UserID == "" {
		return nil, fmt.Errorf("%w: missing token or user", repository.ErrCorruptSession)
	}
	return &session, nil
}

// Save persists the session. The entry expires with the session so stale
// sessions disappear from TTL-capable backends on their own.
func (s *sessionStore) Save(ctx context.Context, session *domain.Session) error {
	if session == nil {
		return errors.New("missing session data")
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	// Already-expired sessions are stored without a TTL; readers check ExpiresAt.
	ttl := time.Until(session.ExpiresAt)
	if ttl < 0 {
		ttl = 0
	}
	return s.kv.Set(ctx, s.key, data, ttl)
}

// Delete removes the persisted session.
func (s *sessionStore) Delete(ctx context.Context) error {
	return s.kv.Delete(ctx, s.key)
}

// Ensure sessionStore implements repository.SessionStore.
var _ repository.SessionStore = (*sessionStore)(nil)
