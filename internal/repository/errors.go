package repository

import "errors"

// Repository errors
var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrStoreNotInitialized indicates an indexed store was used before it was
	// opened or after it was closed.
	ErrStoreNotInitialized = errors.New("store not initialized")

	// ErrCorruptSession indicates the persisted session could not be decoded.
	ErrCorruptSession = errors.New("corrupt session data")

	// ErrStoreUnavailable indicates a remote store could not be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
)
