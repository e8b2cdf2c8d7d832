package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"

	"github.com/prn-tf/product-manager/internal/domain"
	"github.com/prn-tf/product-manager/internal/kv/memory"
	"github.com/prn-tf/product-manager/internal/repository"
	"github.com/prn-tf/product-manager/internal/repository/kvstore"
)

// testIterations keeps PBKDF2 fast in tests.
const testIterations = 1000

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Now().UTC()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// testEnv wires the services to an in-memory KV store.
type testEnv struct {
	kv       repository.KVStore
	users    repository.UserRepository
	products repository.ProductRepository
	sessions repository.SessionStore
	clock    *fakeClock
	auth     *AuthService
	svc      *ProductService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	kv := memory.NewStore(time.Hour)
	t.Cleanup(func() { _ = kv.Close() })

	env := &testEnv{
		kv:       kv,
		users:    kvstore.NewUserRepository(kv),
		products: kvstore.NewProductRepository(kv),
		sessions: kvstore.NewSessionStore(kv),
		clock:    newFakeClock(),
	}
	env.auth = env.newAuth()
	env.svc = NewProductService(env.products, env.auth, zerolog.Nop())
	env.svc.now = env.clock.Now
	return env
}

// newAuth creates another authenticator on the same stores, as a second
// process would.
func (e *testEnv) newAuth() *AuthService {
	auth := NewAuthService(e.users, e.sessions, e.kv, AuthOptions{Iterations: testIterations}, zerolog.Nop())
	auth.now = e.clock.Now
	return auth
}

// MockSessionStore is a mock implementation of repository.SessionStore.
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Load(ctx context.Context) (*domain.Session, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionStore) Save(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionStore) Delete(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockProductRepository is a mock implementation of repository.ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Put(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Get(ctx context.Context, id, ownerID string) (*domain.Product, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Product, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Product), args.Error(1)
}

func (m *MockProductRepository) Delete(ctx context.Context, id, ownerID string) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

func (m *MockProductRepository) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// staticUser is a CurrentUserProvider with a fixed answer.
type staticUser struct {
	user *domain.User
}

func (s staticUser) CurrentUser(ctx context.Context) (*domain.User, error) {
	if s.user == nil {
		return nil, ErrNotAuthenticated
	}
	return s.user, nil
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }
