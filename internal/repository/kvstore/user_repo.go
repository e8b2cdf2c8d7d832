// Package kvstore implements the record repositories on top of a flat
// repository.KVStore. Each collection is a single JSON document under a fixed
// key, so every write rewrites the whole collection.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/prn-tf/product-manager/internal/domain"
	"github.com/prn-tf/product-manager/internal/repository"
)

// userRepository implements repository.UserRepository as an email-keyed map
// stored under repository.KeyUsers.
type userRepository struct {
	kv   repository.KVStore
	opts options
}

// NewUserRepository creates a KV-backed user repository.
func NewUserRepository(kv repository.KVStore, opts ...Option) repository.UserRepository {
	return &userRepository{kv: kv, opts: newOptions(opts)}
}

func (r *userRepository) load(ctx context.Context) (map[string]*domain.User, error) {
	users := make(map[string]*domain.User)
	if err := loadJSON(ctx, r.kv, repository.KeyUsers, &users); err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	return users, nil
}

// Put creates or replaces a user.
func (r *userRepository) Put(ctx context.Context, user *domain.User) error {
	return r.opts.update(ctx, repository.KeyUsers, func() error {
		return r.put(ctx, user)
	})
}

func (r *userRepository) put(ctx context.Context, user *domain.User) error {
	users, err := r.load(ctx)
	if err != nil {
		return err
	}

	email := domain.NormalizeEmail(user.Email)
	if existing, ok := users[email]; ok && existing.ID != user.ID {
		return fmt.Errorf("%w: %s", domain.ErrUserAlreadyExists, email)
	}

	// A user whose email changed must not stay reachable under the old key.
	for k, u := range users {
		if u.ID == user.ID && k != email {
			delete(users, k)
		}
	}

	cp := *user
	cp.Email = email
	users[email] = &cp

	return storeJSON(ctx, r.kv, repository.KeyUsers, users)
}

// GetByID retrieves a user by ID.
func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	users, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// GetByEmail retrieves a user by email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	users, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	u, ok := users[domain.NormalizeEmail(email)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

// ExistsByEmail checks if a user with the given email exists.
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return false, nil
	}
	return err == nil, err
}

// List returns all users ordered by creation time.
func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	users, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]*domain.User, 0, len(users))
	for _, u := range users {
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// Clear removes all users.
func (r *userRepository) Clear(ctx context.Context) error {
	return r.opts.update(ctx, repository.KeyUsers, func() error {
		return r.kv.Delete(ctx, repository.KeyUsers)
	})
}

// loadJSON decodes the document under key into v. A missing key leaves v untouched.
func loadJSON(ctx context.Context, kv repository.KVStore, key string, v any) error {
	data, err := kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %q: %w", key, err)
	}
	return nil
}

func storeJSON(ctx context.Context, kv repository.KVStore, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", key, err)
	}
	if err := kv.Set(ctx, key, data, 0); err != nil {
		return fmt.Errorf("failed to store %q: %w", key, err)
	}
	return nil
}

// Ensure userRepository implements repository.UserRepository.
var _ repository.UserRepository = (*userRepository)(nil)
