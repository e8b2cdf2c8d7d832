package redis

import (
	"context"
	"net"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/product-manager/internal/config"
	"github.com/prn-tf/product-manager/internal/repository"
)

// newTestStore connects to the Redis named by PMGR_TEST_REDIS_ADDR (host:port)
// and skips the test otherwise.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	addr := os.Getenv("PMGR_TEST_REDIS_ADDR")
	if addr == "" || testing.Short() {
		t.Skip("PMGR_TEST_REDIS_ADDR not set")
	}

	host, port := splitAddr(t, addr)
	cfg := config.RedisConfig{Host: host, Port: port, DB: 15, PoolSize: 2, DialTimeout: 2 * time.Second}

	ns := "pmgr-test-" + time.Now().Format("150405.000000000")
	s, err := NewStore(context.Background(), cfg, ns, zerolog.Nop())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Clear(context.Background())
		_ = s.Close()
	})
	return s
}

func splitAddr(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

func TestStore_Roundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, s.Set(ctx, "session", []byte(`{"token":"x"}`), time.Minute))
	got, err := s.Get(ctx, "session")
	require.NoError(t, err)
	require.JSONEq(t, `{"token":"x"}`, string(got))

	ok, err := s.Exists(ctx, "session")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, s.Delete(ctx, "session"))
	ok, err = s.Exists(ctx, "session")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStore_ClearOnlyNamespace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	other := NewStoreWithClient(s.client, s.namespace+"-other", zerolog.Nop())
	t.Cleanup(func() { _ = other.Clear(context.Background()) })

	require.NoError(t, s.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, s.Set(ctx, "b", []byte("2"), 0))
	require.NoError(t, other.Set(ctx, "a", []byte("keep"), 0))

	require.NoError(t, s.Clear(ctx))

	_, err := s.Get(ctx, "a")
	require.ErrorIs(t, err, repository.ErrNotFound)
	kept, err := other.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, []byte("keep"), kept)
}

func TestNewStore_Unreachable(t *testing.T) {
	cfg := config.RedisConfig{Host: "127.0.0.1", Port: 1, DialTimeout: 200 * time.Millisecond}
	_, err := NewStore(context.Background(), cfg, "x", zerolog.Nop())
	require.ErrorIs(t, err, repository.ErrStoreUnavailable)
}
