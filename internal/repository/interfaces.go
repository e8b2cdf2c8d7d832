// Package repository defines data access interfaces for the product manager.
// These interfaces abstract storage operations, allowing for different implementations
// (SQLite, PostgreSQL, Redis, in-memory) while keeping the service layer clean.
package repository

import (
	"context"
	"time"

	"github.com/prn-tf/product-manager/internal/domain"
)

// =============================================================================
// Key-Value Store
// =============================================================================

// KVStore is a flat key-value map. It holds the persisted session and, when no
// indexed store is available, the users map.
type KVStore interface {
	// Get retrieves a value by key.
	// Returns ErrNotFound if the key doesn't exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with an optional TTL.
	// If ttl is 0, the value doesn't expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists.
	Exists(ctx context.Context, key string) (bool, error)

	// Clear removes every key owned by this store.
	Clear(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}

// Well-known KV keys.
const (
	KeySession      = "session"
	KeyUsers        = "users"
	KeyAuthToken    = "authToken"
	KeyRefreshToken = "refreshToken"
)

// =============================================================================
// User Repository
// =============================================================================

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Put creates or replaces a user keyed by ID.
	// Returns domain.ErrUserAlreadyExists if another user holds the same email.
	Put(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	// Returns domain.ErrUserNotFound if no such user exists.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by lowercased email.
	// Returns domain.ErrUserNotFound if no such user exists.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// ExistsByEmail checks if a user with the given email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// List returns all users ordered by creation time.
	List(ctx context.Context) ([]*domain.User, error)

	// Clear removes all users.
	Clear(ctx context.Context) error
}

// =============================================================================
// Product Repository
// =============================================================================

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	// Put creates or replaces a product keyed by ID.
	Put(ctx context.Context, product *domain.Product) error

	// Get retrieves a product by ID. When ownerID is non-empty the product must
	// also belong to that user. Returns domain.ErrProductNotFound otherwise.
	Get(ctx context.Context, id, ownerID string) (*domain.Product, error)

	// ListByOwner returns all products of a user ordered by creation time.
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Product, error)

	// Delete deletes a product by ID. When ownerID is non-empty only a product
	// owned by that user is deleted. Returns domain.ErrProductNotFound if nothing matched.
	Delete(ctx context.Context, id, ownerID string) error

	// DeleteByOwner deletes every product of a user and returns how many were removed.
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)

	// Clear removes all products.
	Clear(ctx context.Context) error
}

// =============================================================================
// Session Store
// =============================================================================

// SessionStore holds the single active login session.
type SessionStore interface {
	// Load returns the persisted session.
	// Returns ErrNotFound if there is none and ErrCorruptSession if it cannot be decoded.
	Load(ctx context.Context) (*domain.Session, error)

	// Save persists the session, replacing any previous one.
	Save(ctx context.Context, session *domain.Session) error

	// Delete removes the persisted session. Deleting when none exists is not an error.
	Delete(ctx context.Context) error
}

// =============================================================================
// Store Bundle
// =============================================================================

// Clearer is implemented by every store that supports bulk removal.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Repositories holds all repository instances.
type Repositories struct {
	KV       KVStore
	Users    UserRepository
	Products ProductRepository
	Sessions SessionStore
}

// ClearAll removes every user, product and session from all stores.
func (r *Repositories) ClearAll(ctx context.Context) error {
	targets := []Clearer{r.KV, r.Users, r.Products}
	if c, ok := r.Sessions.(Clearer); ok {
		targets = append(targets, c)
	}
	for _, c := range targets {
		if c == nil {
			continue
		}
		if err := c.Clear(ctx); err != nil {
			return err
		}
	}
	return nil
}
