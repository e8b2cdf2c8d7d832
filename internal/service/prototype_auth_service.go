package service

import (
	"context"
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

const (
	// KeyPrototypeUser holds the fake logged-in user.
	KeyPrototypeUser = "prototypeAuth_user"

	// DemoUserID is the owner of the prototype sample products.
	DemoUserID = "demo_user"

	// prototypeLoginUserID is the id every prototype login receives.
	prototypeLoginUserID = "user_demo_123"
)

// PrototypeAuthService pretends to authenticate. Any well-formed signup or
// login succeeds; nothing is verified. It exists for UI demos.
type PrototypeAuthService struct {
	kv     repository.KVStore
	logger zerolog.Logger
	now    func() time.Time

	mu      sync.Mutex
	current *domain.User
}

// NewPrototypeAuthService creates a new PrototypeAuthService.
func NewPrototypeAuthService(kv repository.KVStore, logger zerolog.Logger) *PrototypeAuthService {
	return &PrototypeAuthService{
		kv:     kv,
		logger: logger.With().Str("service", "prototype-auth").Logger(),
		now:    time.Now,
	}
}

// formErrors joins form messages into a single validation error.
func formErrors(field string, msgs []string) error {
	if len(msgs) == 0 {
		return nil
	}
	return domain.NewValidationError(field, strings.Join(msgs, "; "))
}

func validateEmailField(email string) []string {
	switch {
	case strings.TrimSpace(email) == "":
		return []string{"Email is required"}
	case !ValidateEmail(email):
		return []string{"Please enter a valid email address"}
	}
	return nil
}

// Signup accepts any well-formed email and a password of six or more characters.
func (s *PrototypeAuthService) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	msgs := validateEmailField(input.Email)
	switch {
	case strings.TrimSpace(input.Password) == "":
		msgs = append(msgs, "Password is required")
	case len(input.Password) < MinSimplePasswordLength:
		msgs = append(msgs, "Password must be at least 6 characters long")
	}
	if err := formErrors("signup", msgs); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(input.Username)
	if username == "" {
		username, _, _ = strings.Cut(input.Email, "@")
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:        crypto.NewUserID(),
		Email:     input.Email,
		Username:  username,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return s.become(ctx, user)
}

// Login accepts any well-formed email with a non-empty password.
func (s *PrototypeAuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	msgs := validateEmailField(input.Email)
	if strings.TrimSpace(input.Password) == "" {
		msgs = append(msgs, "Password is required")
	}
	if err := formErrors("login", msgs); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	username, _, _ := strings.Cut(input.Email, "@")
	user := &domain.User{
		ID:          prototypeLoginUserID,
		Email:       input.Email,
		Username:    username,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
		LastLoginAt: &now,
	}
	return s.become(ctx, user)
}

// AutoLoginDemo logs in the demo user that owns the sample products.
func (s *PrototypeAuthService) AutoLoginDemo(ctx context.Context) (*domain.User, error) {
	now := s.now().UTC()
	result, err := s.become(ctx, &domain.User{
		ID:        DemoUserID,
		Email:     "demo@prototype.com",
		Username:  "Demo User",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, err
	}
	return result.User, nil
}

func (s *PrototypeAuthService) become(ctx context.Context, user *domain.User) (*AuthResult, error) {
	data, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Set(ctx, KeyPrototypeUser, data, 0); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	s.current = user

	s.logger.Debug().Str("user_id", user.ID).Msg("prototype login")
	cp := *user
	return &AuthResult{User: &cp}, nil
}

// Logout forgets the fake user.
func (s *PrototypeAuthService) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	if err := s.kv.Delete(ctx, KeyPrototypeUser); err != nil {
		s.logger.Warn().Err(err).Msg("failed to delete prototype user")
	}
	return nil
}

// IsAuthenticated reports whether a fake user is logged in.
func (s *PrototypeAuthService) IsAuthenticated(ctx context.Context) bool {
	_, err := s.CurrentUser(ctx)
	return err == nil
}

// CurrentUser returns the fake user.
func (s *PrototypeAuthService) CurrentUser(ctx context.Context) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, ErrNotAuthenticated
	}
	cp := *s.current
	return &cp, nil
}

// RestoreSession loads the persisted fake user.
func (s *PrototypeAuthService) RestoreSession(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.kv.Get(ctx, KeyPrototypeUser)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	var user domain.User
	if err := json.Unmarshal(data, &user); err != nil || user.ID == "" {
		_ = s.kv.Delete(ctx, KeyPrototypeUser)
		return false, nil
	}
	s.current = &user
	return true, nil
}

// ChangePassword always succeeds for a logged-in user.
func (s *PrototypeAuthService) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	if !s.IsAuthenticated(ctx) {
		return ErrNotAuthenticated
	}
	return nil
}

// ClearAuthData forgets the fake user.
func (s *PrototypeAuthService) ClearAuthData(ctx context.Context) error {
	return s.Logout(ctx)
}

// Ensure PrototypeAuthService implements Authenticator.
var _ Authenticator = (*PrototypeAuthService)(nil)
