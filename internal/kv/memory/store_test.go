package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/prn-tf/product-manager/internal/repository"
)

func TestStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewStore(time.Hour)
	defer s.Close()

	_, err := s.Get(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, s.Set(ctx, "k", []byte("v1"), 0))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), got)

	// Returned slices are copies.
	got[0] = 'x'
	again, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), again)

	ok, err := s.Exists(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, s.Delete(ctx, "k"))
	require.NoError(t, s.Delete(ctx, "k"))
	ok, err = s.Exists(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStore_TTL(t *testing.T) {
	ctx := context.Background()
	s := NewStore(time.Hour)
	defer s.Close()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "session", []byte("{}"), time.Minute))
	_, err := s.Get(ctx, "session")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = s.Get(ctx, "session")
	require.ErrorIs(t, err, repository.ErrNotFound)

	s.cleanup()
	require.Equal(t, 0, s.Len())
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := NewStore(0)
	defer s.Close()

	require.NoError(t, s.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, s.Set(ctx, "b", []byte("2"), 0))
	require.Equal(t, 2, s.Len())

	require.NoError(t, s.Clear(ctx))
	require.Equal(t, 0, s.Len())
}

func TestStore_CloseTwice(t *testing.T) {
	s := NewStore(time.Hour)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}
