// Package storage opens the persistent store backends selected by
// configuration and bundles them for the service layer.
//
// Two kinds of backend are combined:
//   - a key-value store (memory, Redis or a SQLite table) holding the session
//     and, when configured, the users map
//   - an optional indexed store (SQLite or PostgreSQL) holding users and
//     products in tables with secondary indexes
package storage

import (
	"context"
)

// IndexedDB defines the lifecycle operations shared by the indexed store
// connections.
type IndexedDB interface {
	// Ping verifies the connection is alive.
	// Returns repository.ErrStoreNotInitialized after Close.
	Ping(ctx context.Context) error

	// Migrate applies all pending schema migrations.
	Migrate(ctx context.Context) error

	// SchemaVersion returns the current schema version.
	SchemaVersion(ctx context.Context) (int64, error)

	// Close releases the connection.
	Close() error
}

// HealthStatus reports the state of each backend.
type HealthStatus struct {
	// KVBackend is the configured key-value backend name.
	KVBackend string `json:"kvBackend"`

	// IndexedDriver is the configured indexed store driver, or "none".
	IndexedDriver string `json:"indexedDriver"`

	// IndexedReady is true when the indexed store answered a ping.
	IndexedReady bool `json:"indexedReady"`

	// SchemaVersion is the applied migration version, or 0.
	SchemaVersion int64 `json:"schemaVersion"`
}
