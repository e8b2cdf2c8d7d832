package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/product-manager/internal/domain"
	"github.com/prn-tf/product-manager/internal/pkg/crypto"
	"github.com/prn-tf/product-manager/internal/repository"
)

// KV keys owned by SimpleAuthService.
const (
	KeySimpleAuthUsers   = "simpleAuth_users"
	KeySimpleAuthSession = "simpleAuth_session"
)

// simpleUser is the stored record of the simple authenticator.
// Password is only base64 encoded.
type simpleUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u *simpleUser) public() *domain.User {
	return &domain.User{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		IsActive:  true,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.CreatedAt,
	}
}

// SimpleAuthService is a demo authenticator that keeps users in the KV store
// with reversibly encoded passwords. It must not guard real data.
type SimpleAuthService struct {
	kv         repository.KVStore
	sessionTTL time.Duration
	logger     zerolog.Logger
	now        func() time.Time

	mu      sync.Mutex
	current *domain.User
}

// NewSimpleAuthService creates a new SimpleAuthService.
// Sessions created without "remember me" expire after sessionTTL.
func NewSimpleAuthService(kv repository.KVStore, sessionTTL time.Duration, logger zerolog.Logger) *SimpleAuthService {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &SimpleAuthService{
		kv:         kv,
		sessionTTL: sessionTTL,
		logger:     logger.With().Str("service", "simple-auth").Logger(),
		now:        time.Now,
	}
}

func (s *SimpleAuthService) loadUsers(ctx context.Context) (map[string]*simpleUser, error) {
	users := make(map[string]*simpleUser)
	data, err := s.kv.Get(ctx, KeySimpleAuthUsers)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return users, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("%w: failed to decode users: %v", ErrInternalError, err)
	}
	return users, nil
}

func (s *SimpleAuthService) saveUsers(ctx context.Context, users map[string]*simpleUser) error {
	data, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("%w: failed to encode users: %v", ErrInternalError, err)
	}
	if err := s.kv.Set(ctx, KeySimpleAuthUsers, data, 0); err != nil {
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return nil
}

// Signup registers a user and logs them in.
func (s *SimpleAuthService) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	if !ValidateEmail(input.Email) {
		return nil, ErrInvalidEmailAddress
	}
	if len(input.Password) < MinSimplePasswordLength {
		return nil, ErrSimplePasswordTooShort
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := users[input.Email]; ok {
		return nil, ErrUserExists
	}

	username := strings.TrimSpace(input.Username)
	if username == "" {
		username, _, _ = strings.Cut(input.Email, "@")
	}

	user := &simpleUser{
		ID:        crypto.NewUserID(),
		Email:     input.Email,
		Username:  username,
		Password:  base64.StdEncoding.EncodeToString([]byte(input.Password)),
		CreatedAt: s.now().UTC(),
	}
	users[input.Email] = user

	if err := s.saveUsers(ctx, users); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("demo user created")
	return s.startSessionLocked(ctx, user.public(), false)
}

// Login checks the password and starts a session. Unlike the secure
// authenticator it tells a missing user apart from a wrong password.
func (s *SimpleAuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	if !ValidateEmail(input.Email) {
		return nil, ErrInvalidEmailAddress
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	user, ok := users[input.Email]
	if !ok {
		return nil, ErrUserNotFound
	}

	decoded, err := base64.StdEncoding.DecodeString(user.Password)
	if err != nil || string(decoded) != input.Password {
		return nil, ErrInvalidPassword
	}

	return s.startSessionLocked(ctx, user.public(), input.RememberMe)
}

// startSessionLocked persists the public user as the session. s.mu must be held.
func (s *SimpleAuthService) startSessionLocked(ctx context.Context, user *domain.User, rememberMe bool) (*AuthResult, error) {
	data, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode session: %v", ErrInternalError, err)
	}

	var (
		ttl       time.Duration
		expiresAt time.Time
	)
	if !rememberMe {
		ttl = s.sessionTTL
		expiresAt = s.now().UTC().Add(ttl)
	}

	if err := s.kv.Set(ctx, KeySimpleAuthSession, data, ttl); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.current = user
	return &AuthResult{User: user, ExpiresAt: expiresAt}, nil
}

// Logout forgets the current user.
func (s *SimpleAuthService) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	if err := s.kv.Delete(ctx, KeySimpleAuthSession); err != nil {
		s.logger.Warn().Err(err).Msg("failed to delete demo session")
	}
	return nil
}

// IsAuthenticated reports whether a user is logged in.
func (s *SimpleAuthService) IsAuthenticated(ctx context.Context) bool {
	_, err := s.CurrentUser(ctx)
	return err == nil
}

// CurrentUser returns the logged-in user.
func (s *SimpleAuthService) CurrentUser(ctx context.Context) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, ErrNotAuthenticated
	}
	cp := *s.current
	return &cp, nil
}

// RestoreSession loads the persisted demo session.
func (s *SimpleAuthService) RestoreSession(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.kv.Get(ctx, KeySimpleAuthSession)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	var user domain.User
	if err := json.Unmarshal(data, &user); err != nil || user.ID == "" {
		s.logger.Warn().Msg("discarding unreadable demo session")
		_ = s.kv.Delete(ctx, KeySimpleAuthSession)
		return false, nil
	}

	s.current = &user
	return true, nil
}

// ChangePassword replaces the stored password of the current user.
func (s *SimpleAuthService) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return ErrNotAuthenticated
	}
	if currentPassword == "" || newPassword == "" {
		return ErrPasswordsRequired
	}
	if len(newPassword) < MinSimplePasswordLength {
		return ErrSimplePasswordTooShort
	}

	users, err := s.loadUsers(ctx)
	if err != nil {
		return err
	}
	user, ok := users[s.current.Email]
	if !ok {
		return ErrUserNotFound
	}

	decoded, err := base64.StdEncoding.DecodeString(user.Password)
	if err != nil || string(decoded) != currentPassword {
		return ErrCurrentPasswordIncorrect
	}

	user.Password = base64.StdEncoding.EncodeToString([]byte(newPassword))
	return s.saveUsers(ctx, users)
}

// ClearAuthData logs out. Registered demo users are kept.
func (s *SimpleAuthService) ClearAuthData(ctx context.Context) error {
	return s.Logout(ctx)
}

// AllUsers lists the registered demo users without their passwords.
func (s *SimpleAuthService) AllUsers(ctx context.Context) ([]*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]*domain.User, 0, len(users))
	for _, u := range users {
		result = append(result, u.public())
	}
	return result, nil
}

// Ensure SimpleAuthService implements Authenticator.
var _ Authenticator = (*SimpleAuthService)(nil)
