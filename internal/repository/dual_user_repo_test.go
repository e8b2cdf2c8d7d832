package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/product-manager/internal/domain"
	"github.com/prn-tf/product-manager/internal/kv/memory"
	"github.com/prn-tf/product-manager/internal/repository"
	"github.com/prn-tf/product-manager/internal/repository/kvstore"
)

// unavailableUsers simulates an indexed store that was never opened.
type unavailableUsers struct{}

func (unavailableUsers) Put(context.Context, *domain.User) error {
	return repository.ErrStoreNotInitialized
}
func (unavailableUsers) GetByID(context.Context, string) (*domain.User, error) {
	return nil, repository.ErrStoreNotInitialized
}
func (unavailableUsers) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, repository.ErrStoreNotInitialized
}
func (unavailableUsers) ExistsByEmail(context.Context, string) (bool, error) {
	return false, repository.ErrStoreNotInitialized
}
func (unavailableUsers) List(context.Context) ([]*domain.User, error) {
	return nil, repository.ErrStoreNotInitialized
}
func (unavailableUsers) Clear(context.Context) error {
	return repository.ErrStoreNotInitialized
}

func newKVUsers(t *testing.T) repository.UserRepository {
	t.Helper()
	kv := memory.NewStore(time.Hour)
	t.Cleanup(func() { _ = kv.Close() })
	return kvstore.NewUserRepository(kv)
}

func TestDualUserRepository_WritesBoth(t *testing.T) {
	ctx := context.Background()
	kvUsers := newKVUsers(t)
	indexed := newKVUsers(t)
	repo := repository.NewDualUserRepository(indexed, kvUsers, zerolog.Nop())

	u := domain.NewUser("user_1", "", "a@example.com", "ab", []byte("salt"))
	require.NoError(t, repo.Put(ctx, u))

	_, err := kvUsers.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	_, err = indexed.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)

	exists, err := repo.ExistsByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.True(t, exists)

	require.NoError(t, repo.Clear(ctx))
	exists, err = repo.ExistsByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestDualUserRepository_FallsBackToIndexed(t *testing.T) {
	ctx := context.Background()
	kvUsers := newKVUsers(t)
	indexed := newKVUsers(t)
	repo := repository.NewDualUserRepository(indexed, kvUsers, zerolog.Nop())

	// Only present in the indexed store, e.g. written by an older version.
	require.NoError(t, indexed.Put(ctx, domain.NewUser("user_2", "", "b@example.com", "ab", nil)))

	got, err := repo.GetByID(ctx, "user_2")
	require.NoError(t, err)
	require.Equal(t, "b@example.com", got.Email)
}

func TestDualUserRepository_IndexedUnavailable(t *testing.T) {
	ctx := context.Background()
	kvUsers := newKVUsers(t)
	repo := repository.NewDualUserRepository(unavailableUsers{}, kvUsers, zerolog.Nop())

	require.NoError(t, repo.Put(ctx, domain.NewUser("user_1", "", "a@example.com", "ab", nil)))

	got, err := repo.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.Equal(t, "user_1", got.ID)

	_, err = repo.GetByEmail(ctx, "missing@example.com")
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)

	require.NoError(t, repo.Clear(ctx))
}

func TestSelectUserRepository(t *testing.T) {
	kvUsers := newKVUsers(t)
	indexed := newKVUsers(t)

	tests := []struct {
		name    string
		mode    string
		indexed repository.UserRepository
		want    repository.UserRepository
		wantErr error
	}{
		{name: "auto prefers indexed", mode: repository.UserStoreAuto, indexed: indexed, want: indexed},
		{name: "auto falls back to kv", mode: repository.UserStoreAuto, want: kvUsers},
		{name: "kv", mode: repository.UserStoreKV, indexed: indexed, want: kvUsers},
		{name: "indexed", mode: repository.UserStoreIndexed, indexed: indexed, want: indexed},
		{name: "indexed missing", mode: repository.UserStoreIndexed, wantErr: repository.ErrStoreNotInitialized},
		{name: "dual missing", mode: repository.UserStoreDual, wantErr: repository.ErrStoreNotInitialized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repository.SelectUserRepository(tt.mode, tt.indexed, kvUsers, zerolog.Nop())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Same(t, tt.want, got)
		})
	}

	_, err := repository.SelectUserRepository("bogus", indexed, kvUsers, zerolog.Nop())
	require.Error(t, err)
}
