package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/product-manager/internal/config"
	"github.com/prn-tf/product-manager/internal/kv/memory"
	kvredis "github.com/prn-tf/product-manager/internal/kv/redis"
	"github.com/prn-tf/product-manager/internal/lock"
	"github.com/prn-tf/product-manager/internal/repository"
	"github.com/prn-tf/product-manager/internal/repository/kvstore"
	"github.com/prn-tf/product-manager/internal/repository/postgres"
	"github.com/prn-tf/product-manager/internal/repository/sqlite"
)

// Storage bundles the opened backends and the repositories built on them.
type Storage struct {
	Repos *repository.Repositories

	// DB is the indexed store, or nil when database.driver is "none".
	DB IndexedDB

	cfg     *config.Config
	logger  zerolog.Logger
	closers []func() error
}

// Open connects every backend named by cfg and assembles the repositories.
// On failure anything already opened is closed again.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (_ *Storage, err error) {
	s := &Storage{
		cfg:    cfg,
		logger: logger.With().Str("component", "storage").Logger(),
	}
	defer func() {
		if err != nil {
			_ = s.Close()
		}
	}()

	var (
		indexedUsers    repository.UserRepository
		indexedProducts repository.ProductRepository
		indexedSessions repository.SessionStore
		sqliteDB        *sqlite.DB
	)

	switch cfg.Database.Driver {
	case "sqlite":
		path, err := ExpandPath(cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		sqlCfg := sqlite.DefaultConfig(path)
		if cfg.Database.JournalMode != "" {
			sqlCfg.JournalMode = cfg.Database.JournalMode
		}
		if cfg.Database.BusyTimeout > 0 {
			sqlCfg.BusyTimeout = cfg.Database.BusyTimeout
		}
		if cfg.Database.SynchronousMode != "" {
			sqlCfg.SynchronousMode = cfg.Database.SynchronousMode
		}

		sqliteDB, err = sqlite.NewDB(ctx, sqlCfg, logger)
		if err != nil {
			return nil, err
		}
		s.DB = sqliteDB
		s.closers = append(s.closers, sqliteDB.Close)

		indexedUsers = sqlite.NewUserRepository(sqliteDB)
		indexedProducts = sqlite.NewProductRepository(sqliteDB)
		indexedSessions = sqlite.NewSessionStore(sqliteDB)

	case "postgres":
		pgDB, err := postgres.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		s.DB = pgDB
		s.closers = append(s.closers, pgDB.Close)

		indexedUsers = postgres.NewUserRepository(pgDB)
		indexedProducts = postgres.NewProductRepository(pgDB)
		indexedSessions = postgres.NewSessionStore(pgDB)

	case "none":
		s.logger.Debug().Msg("no indexed store configured")

	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}

	if s.DB != nil && cfg.Database.AutoMigrate {
		if err := s.DB.Migrate(ctx); err != nil {
			return nil, err
		}
	}

	kv, err := openKV(ctx, cfg, sqliteDB, logger)
	if err != nil {
		return nil, err
	}
	s.closers = append([]func() error{kv.Close}, s.closers...)

	locker := s.newLocker(kv)
	users, err := repository.SelectUserRepository(cfg.Storage.UserStore, indexedUsers, kvstore.NewUserRepository(kv, kvstore.WithLocker(locker)), logger)
	if err != nil {
		return nil, err
	}

	products := indexedProducts
	if products == nil {
		products = kvstore.NewProductRepository(kv, kvstore.WithLocker(locker))
	}

	sessions := kvstore.NewSessionStore(kv)
	if cfg.Storage.SessionStore == "indexed" {
		if indexedSessions == nil {
			return nil, fmt.Errorf("%w: indexed session store requires a database", repository.ErrStoreNotInitialized)
		}
		sessions = indexedSessions
	}

	s.Repos = &repository.Repositories{
		KV:       kv,
		Users:    users,
		Products: products,
		Sessions: sessions,
	}

	s.logger.Debug().
		Str("driver", cfg.Database.Driver).
		Str("kv", cfg.KV.Backend).
		Str("user_store", cfg.Storage.UserStore).
		Str("session_store", cfg.Storage.SessionStore).
		Msg("storage opened")

	return s, nil
}

// openKV creates the configured key-value store.
func openKV(ctx context.Context, cfg *config.Config, sqliteDB *sqlite.DB, logger zerolog.Logger) (repository.KVStore, error) {
	switch cfg.KV.Backend {
	case "memory":
		return memory.NewStore(cfg.KV.CleanupInterval), nil
	case "redis":
		return kvredis.NewStore(ctx, cfg.Redis, cfg.KV.Namespace, logger)
	case "sqlite":
		if sqliteDB == nil {
			return nil, fmt.Errorf("%w: kv backend 'sqlite' requires the sqlite driver", repository.ErrStoreNotInitialized)
		}
		return sqlite.NewKVStore(sqliteDB), nil
	default:
		return nil, fmt.Errorf("unsupported kv backend: %s", cfg.KV.Backend)
	}
}

// newLocker picks the lock that guards KV collection rewrites. A Redis KV may
// be shared by several processes and locks in Redis; the other backends are
// private to this process.
func (s *Storage) newLocker(kv repository.KVStore) lock.Locker {
	if rs, ok := kv.(*kvredis.Store); ok {
		return lock.NewRedisLocker(rs.Client(), rs.Namespace())
	}
	ml := lock.NewMemoryLocker()
	s.closers = append(s.closers, ml.Close)
	return ml
}

// Migrate applies pending migrations to the indexed store.
func (s *Storage) Migrate(ctx context.Context) error {
	if s.DB == nil {
		return fmt.Errorf("%w: no indexed database configured", repository.ErrStoreNotInitialized)
	}
	return s.DB.Migrate(ctx)
}

// Health pings the indexed store and reports the schema version.
func (s *Storage) Health(ctx context.Context) (*HealthStatus, error) {
	status := &HealthStatus{
		KVBackend:     s.cfg.KV.Backend,
		IndexedDriver: s.cfg.Database.Driver,
	}
	if s.DB == nil {
		return status, nil
	}

	if err := s.DB.Ping(ctx); err != nil {
		return status, err
	}
	status.IndexedReady = true

	version, err := s.DB.SchemaVersion(ctx)
	if err != nil {
		return status, err
	}
	status.SchemaVersion = version
	return status, nil
}

// Close releases every backend. The KV store is closed before the database
// it may live in.
func (s *Storage) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
