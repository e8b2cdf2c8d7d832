// Package repository provides data access layer for the product manager.
// This file contains the selection of the user store implementation.
package repository

import (
	"fmt"

	"github.com/rs/zerolog"
)

// User store modes.
const (
	UserStoreAuto    = "auto"
	UserStoreIndexed = "indexed"
	UserStoreKV      = "kv"
	UserStoreDual    = "dual"
)

// SelectUserRepository picks the user store for the configured mode.
// indexed may be nil when no indexed database is configured; "auto" then
// falls back to the KV map.
func SelectUserRepository(mode string, indexed, kv UserRepository, logger zerolog.Logger) (UserRepository, error) {
	switch mode {
	case UserStoreAuto, "":
		if indexed != nil {
			return indexed, nil
		}
		logger.Debug().Msg("no indexed store configured, keeping users in the KV store")
		return kv, nil
	case UserStoreIndexed:
		if indexed == nil {
			return nil, fmt.Errorf("%w: user store %q requires an indexed database", ErrStoreNotInitialized, mode)
		}
		return indexed, nil
	case UserStoreKV:
		return kv, nil
	case UserStoreDual:
		if indexed == nil {
			return nil, fmt.Errorf("%w: user store %q requires an indexed database", ErrStoreNotInitialized, mode)
		}
		return NewDualUserRepository(indexed, kv, logger), nil
	default:
		return nil, fmt.Errorf("unknown user store mode %q", mode)
	}
}
