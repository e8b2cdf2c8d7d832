package service

import (
	"context"
	"time"

	"github.com/prn-tf/product-manager/internal/domain"
)

// SignupInput contains the data needed to register a user.
type SignupInput struct {
	Email    string
	Password string

	// Username is optional and defaults to the local part of the email.
	Username string
}

// LoginInput contains the credentials of a login attempt.
type LoginInput struct {
	Email      string
	Password   string
	RememberMe bool
}

// AuthResult is returned by a successful signup or login.
type AuthResult struct {
	// User is the public view of the logged-in user.
	User *domain.User `json:"user"`

	// Token is the session token, empty for authenticators without tokens.
	Token string `json:"token,omitempty"`

	// ExpiresAt is when the session ends, zero if it never does.
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// Authenticator is the authentication capability shared by the secure,
// simple and prototype implementations.
type Authenticator interface {
	Signup(ctx context.Context, input SignupInput) (*AuthResult, error)
	Login(ctx context.Context, input LoginInput) (*AuthResult, error)

	// Logout ends the session. Storage failures are logged, never returned.
	Logout(ctx context.Context) error

	IsAuthenticated(ctx context.Context) bool

	// CurrentUser returns the logged-in user or ErrNotAuthenticated.
	CurrentUser(ctx context.Context) (*domain.User, error)

	// RestoreSession loads a persisted session into memory and reports
	// whether one was found.
	RestoreSession(ctx context.Context) (bool, error)

	ChangePassword(ctx context.Context, currentPassword, newPassword string) error

	// ClearAuthData logs out and removes every credential the
	// authenticator persisted.
	ClearAuthData(ctx context.Context) error
}

// CurrentUserProvider resolves the user on whose behalf products are managed.
type CurrentUserProvider interface {
	CurrentUser(ctx context.Context) (*domain.User, error)
}

// ProductManager is the product capability shared by the real and the
// prototype implementation.
type ProductManager interface {
	CreateProduct(ctx context.Context, input domain.ProductInput) (*domain.Product, error)
	GetProducts(ctx context.Context) ([]*domain.Product, error)

	// GetProduct returns nil without an error when the product does not
	// exist or belongs to another user.
	GetProduct(ctx context.Context, id string) (*domain.Product, error)

	UpdateProduct(ctx context.Context, id string, input domain.ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	// SearchProducts requires a non-nil query; a blank query matches everything.
	SearchProducts(ctx context.Context, query *string) ([]*domain.Product, error)

	GetProductStats(ctx context.Context) (*domain.ProductStats, error)

	// ClearAllProducts deletes the current user's products and returns how
	// many were removed.
	ClearAllProducts(ctx context.Context) (int, error)
}
