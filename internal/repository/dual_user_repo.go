package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/product-manager/internal/domain"
)

// dualUserRepository writes users to both the KV map and the indexed store
// and reads from the KV map first. An unavailable indexed store is tolerated
// so the KV copy keeps serving logins.
type dualUserRepository struct {
	indexed UserRepository
	kv      UserRepository
	logger  zerolog.Logger
}

// NewDualUserRepository creates a user repository that keeps both copies.
func NewDualUserRepository(indexed, kv UserRepository, logger zerolog.Logger) UserRepository {
	return &dualUserRepository{
		indexed: indexed,
		kv:      kv,
		logger:  logger.With().Str("component", "dual-user-store").Logger(),
	}
}

// Put writes to the KV map, then to the indexed store.
func (r *dualUserRepository) Put(ctx context.Context, user *domain.User) error {
	if err := r.kv.Put(ctx, user); err != nil {
		return err
	}
	if err := r.indexed.Put(ctx, user); err != nil {
		if errors.Is(err, ErrStoreNotInitialized) {
			r.logger.Warn().Str("user_id", user.ID).Msg("indexed store unavailable, user kept in KV store only")
			return nil
		}
		return err
	}
	return nil
}

// GetByID reads the KV map first, then the indexed store.
func (r *dualUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.read(ctx, func(repo UserRepository) (*domain.User, error) {
		return repo.GetByID(ctx, id)
	})
}

// GetByEmail reads the KV map first, then the indexed store.
func (r *dualUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.read(ctx, func(repo UserRepository) (*domain.User, error) {
		return repo.GetByEmail(ctx, email)
	})
}

func (r *dualUserRepository) read(ctx context.Context, get func(UserRepository) (*domain.User, error)) (*domain.User, error) {
	user, err := get(r.kv)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	user, err = get(r.indexed)
	if errors.Is(err, ErrStoreNotInitialized) {
		return nil, domain.ErrUserNotFound
	}
	return user, err
}

// ExistsByEmail checks both stores.
func (r *dualUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return false, nil
	}
	return err == nil, err
}

// List returns the indexed store's users, or the KV map's when the indexed
// store is unavailable.
func (r *dualUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	users, err := r.indexed.List(ctx)
	if errors.Is(err, ErrStoreNotInitialized) {
		return r.kv.List(ctx)
	}
	return users, err
}

// Clear removes users from both stores.
func (r *dualUserRepository) Clear(ctx context.Context) error {
	kvErr := r.kv.Clear(ctx)
	idxErr := r.indexed.Clear(ctx)
	if errors.Is(idxErr, ErrStoreNotInitialized) {
		idxErr = nil
	}
	if kvErr != nil || idxErr != nil {
		return fmt.Errorf("failed to clear users: %w", errors.Join(kvErr, idxErr))
	}
	return nil
}

// Ensure dualUserRepository implements UserRepository.
var _ UserRepository = (*dualUserRepository)(nil)
