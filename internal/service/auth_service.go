package service

import (
	"context"
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

const (
	// DefaultSessionTTL is the lifetime of a regular session.
	DefaultSessionTTL = 24 * time.Hour

	// DefaultRememberMeTTL is the lifetime of a "remember me" session.
	DefaultRememberMeTTL = 30 * 24 * time.Hour
)

// AuthOptions tunes the secure authenticator.
type AuthOptions struct {
	// Iterations is the PBKDF2 work factor. Zero selects crypto.DefaultIterations.
	Iterations int

	// SessionTTL and RememberMeTTL default to DefaultSessionTTL and
	// DefaultRememberMeTTL when zero.
	SessionTTL    time.Duration
	RememberMeTTL time.Duration
}

// AuthService authenticates users with PBKDF2 password hashes and keeps a
// single persisted session.
//
// The in-memory user and token are only trusted while the persisted session
// still carries the same token and has not expired.
type AuthService struct {
	users    repository.UserRepository
	sessions repository.SessionStore
	kv       repository.KVStore
	hasher   *crypto.PasswordHasher
	logger   zerolog.Logger

	sessionTTL    time.Duration
	rememberMeTTL time.Duration
	now           func() time.Time

	mu      sync.Mutex
	current *domain.User
	token   string
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionStore,
	kv repository.KVStore,
	opts AuthOptions,
	logger zerolog.Logger,
) *AuthService {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.RememberMeTTL <= 0 {
		opts.RememberMeTTL = DefaultRememberMeTTL
	}
	return &AuthService{
		users:         users,
		sessions:      sessions,
		kv:            kv,
		hasher:        crypto.NewPasswordHasher(opts.Iterations),
		logger:        logger.With().Str("service", "auth").Logger(),
		sessionTTL:    opts.SessionTTL,
		rememberMeTTL: opts.RememberMeTTL,
		now:           time.Now,
	}
}

// Signup registers a user and logs them in.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	if input.Password == "" {
		return nil, domain.ErrCredentialsRequired
	}
	if err := checkSignupEmail(input.Email); err != nil {
		return nil, err
	}
	if err := checkSignupPassword(input.Password); err != nil {
		return nil, err
	}

	email := domain.NormalizeEmail(input.Email)

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		s.logger.Error().Err(err).Str("email", email).Msg("failed to check email existence")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if exists {
		return nil, domain.ErrUserAlreadyExists
	}

	hash, salt, err := s.hasher.Hash(input.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return nil, fmt.Errorf("%w: failed to hash password", ErrInternalError)
	}

	user := domain.NewUser(crypto.NewUserID(), strings.TrimSpace(input.Username), email, hash, salt)
	user.CreatedAt = s.now().UTC()
	user.UpdatedAt = user.CreatedAt

	if err := s.users.Put(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return nil, domain.ErrUserAlreadyExists
		}
		s.logger.Error().Err(err).Str("email", email).Msg("failed to create user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("username", user.Username).
		Msg("user created")

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startSessionLocked(ctx, user, false)
}

// Login verifies the credentials and starts a new session, replacing any
// previous one.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	if input.Email == "" || input.Password == "" {
		return nil, domain.ErrCredentialsRequired
	}

	email := domain.NormalizeEmail(input.Email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Don't expose whether the email exists
			s.logger.Debug().Str("email", email).Msg("user not found during authentication")
			return nil, domain.ErrInvalidCredentials
		}
		s.logger.Error().Err(err).Str("email", email).Msg("failed to get user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if !user.CanAuthenticate() {
		s.logger.Debug().Str("user_id", user.ID).Msg("inactive user attempted authentication")
		return nil, domain.ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(input.Password, user.Salt, user.PasswordHash)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("stored password hash is unreadable")
		return nil, domain.ErrInvalidCredentials
	}
	if !ok {
		s.logger.Debug().Str("user_id", user.ID).Msg("invalid password during authentication")
		return nil, domain.ErrInvalidCredentials
	}

	loginAt := s.now().UTC()
	user.LastLoginAt = &loginAt
	if err := s.users.Put(ctx, user); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to record last login")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	result, err := s.startSessionLocked(ctx, user, input.RememberMe)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Bool("remember_me", input.RememberMe).
		Msg("user authenticated")

	return result, nil
}

// startSessionLocked issues a token, persists the session and makes the user
// current. s.mu must be held.
func (s *AuthService) startSessionLocked(ctx context.Context, user *domain.User, rememberMe bool) (*AuthResult, error) {
	token, err := crypto.GenerateSessionToken()
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to generate session token")
		return nil, fmt.Errorf("%w: failed to generate session token", ErrInternalError)
	}

	ttl := s.sessionTTL
	if rememberMe {
		ttl = s.rememberMeTTL
	}

	session := domain.NewSession(user, token, s.now(), ttl, rememberMe)
	if err := s.sessions.Save(ctx, session); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to save session")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.current = user.Public()
	s.token = token

	return &AuthResult{
		User:      s.current.Public(),
		Token:     token,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// Logout clears the in-memory state and removes the persisted session.
// It never fails; a storage error is only logged.
func (s *AuthService) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked()
	if err := s.sessions.Delete(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to delete persisted session on logout")
	}
	return nil
}

func (s *AuthService) resetLocked() {
	s.current = nil
	s.token = ""
}

// IsAuthenticated reports whether a user is logged in with a live session.
func (s *AuthService) IsAuthenticated(ctx context.Context) bool {
	_, err := s.CurrentUser(ctx)
	return err == nil
}

// CurrentUser returns the logged-in user.
// Returns ErrNotAuthenticated when there is no live session.
func (s *AuthService) CurrentUser(ctx context.Context) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verifyLocked(ctx)
}

// verifyLocked checks the in-memory state against the persisted session and
// resets it when they disagree. s.mu must be held.
func (s *AuthService) verifyLocked(ctx context.Context) (*domain.User, error) {
	if s.current == nil || s.token == "" {
		return nil, ErrNotAuthenticated
	}

	session, err := s.sessions.Load(ctx)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		s.resetLocked()
		return nil, ErrNotAuthenticated
	case errors.Is(err, repository.ErrCorruptSession):
		s.logger.Warn().Err(err).Msg("discarding corrupt session")
		s.dropSessionLocked(ctx)
		return nil, ErrNotAuthenticated
	default:
		s.logger.Error().Err(err).Msg("failed to load session")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if session.IsExpired(s.now()) {
		s.logger.Debug().Str("user_id", session.UserID).Msg("session expired")
		s.dropSessionLocked(ctx)
		return nil, ErrNotAuthenticated
	}
	if session.UserID != s.current.ID || !crypto.ConstantTimeEqual([]byte(session.Token), []byte(s.token)) {
		// Another login replaced ours; its session stays.
		s.logger.Debug().Msg("persisted session does not match the current login")
		s.resetLocked()
		return nil, ErrNotAuthenticated
	}

	return s.current.Public(), nil
}

// dropSessionLocked resets the in-memory state and deletes the persisted
// session. s.mu must be held.
func (s *AuthService) dropSessionLocked(ctx context.Context) {
	s.resetLocked()
	if err := s.sessions.Delete(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to delete stale session")
	}
}

// RestoreSession rebuilds the in-memory state from the persisted session.
// Expired and corrupt sessions are removed and reported as absent.
func (s *AuthService) RestoreSession(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.Load(ctx)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		return false, nil
	case errors.Is(err, repository.ErrCorruptSession):
		s.logger.Warn().Err(err).Msg("discarding corrupt session")
		s.dropSessionLocked(ctx)
		return false, nil
	default:
		s.logger.Error().Err(err).Msg("failed to load session")
		return false, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if session.IsExpired(s.now()) {
		s.logger.Debug().Str("user_id", session.UserID).Msg("persisted session expired")
		s.dropSessionLocked(ctx)
		return false, nil
	}

	s.current = session.User()
	s.token = session.Token
	return true, nil
}

// ValidateSession returns the user owning token when it matches the persisted
// session and has not expired. A malformed, unknown or expired token yields nil, nil.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*domain.User, error) {
	if _, err := crypto.ParseToken(token); err != nil {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.Load(ctx)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrCorruptSession):
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if !crypto.ConstantTimeEqual([]byte(session.Token), []byte(token)) {
		return nil, nil
	}
	if session.IsExpired(s.now()) {
		s.dropSessionLocked(ctx)
		return nil, nil
	}
	return session.User(), nil
}

// ChangePassword verifies the current password and rotates the stored salt
// and hash.
func (s *AuthService) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.verifyLocked(ctx)
	if err != nil {
		return err
	}

	if currentPassword == "" || newPassword == "" {
		return ErrPasswordsRequired
	}
	if err := checkPasswordStrength(newPassword); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, current.ID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Str("user_id", current.ID).Msg("failed to get user")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	ok, err := s.hasher.Verify(currentPassword, user.Salt, user.PasswordHash)
	if err != nil || !ok {
		return ErrCurrentPasswordIncorrect
	}

	hash, salt, err := s.hasher.Hash(newPassword)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return fmt.Errorf("%w: failed to hash password", ErrInternalError)
	}

	user.PasswordHash = hash
	user.Salt = salt
	user.UpdatedAt = s.now().UTC()

	if err := s.users.Put(ctx, user); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to update password")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Str("user_id", user.ID).Msg("password changed")
	return nil
}

// ClearAuthData logs out and removes the auxiliary token keys.
func (s *AuthService) ClearAuthData(ctx context.Context) error {
	_ = s.Logout(ctx)

	var errs []error
	for _, key := range []string{repository.KeyAuthToken, repository.KeyRefreshToken} {
		if err := s.kv.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return nil
}

// ValidateEmail reports whether the address is well formed.
func (s *AuthService) ValidateEmail(email string) bool {
	return ValidateEmail(email)
}

// ValidatePassword lists the strength rules the password breaks.
func (s *AuthService) ValidatePassword(password string) PasswordCheck {
	return ValidatePassword(password)
}

// Ensure AuthService implements Authenticator.
var _ Authenticator = (*AuthService)(nil)
