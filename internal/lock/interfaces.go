// Package lock provides distributed and local locking abstractions.
// The KV-backed repositories rewrite a whole collection document on every
// write and take a lock around the read-modify-write.
// For a single process, memory-based locks are used.
// When the KV store is Redis and shared between processes, Redis-based locks are used.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotAcquired is returned by WithLock when the lock stayed busy for every retry.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker defines the interface for distributed/local locking.
// Every successful acquisition returns a token naming that holder; Release
// only frees the lock while the token still holds it, so a holder whose TTL
// ran out cannot free a lock someone else has since taken.
type Locker interface {
	// Acquire attempts to acquire a lock.
	// Returns the holder token and true if the lock was acquired, false if
	// it's held by someone else.
	// The lock will automatically expire after the specified TTL.
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error)

	// AcquireWithRetry attempts to acquire a lock with retries.
	// Will retry up to maxRetries times with retryDelay between attempts.
	AcquireWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (string, bool, error)

	// Release releases a lock held under token.
	// Returns true if the lock was released, false if token no longer held it.
	Release(ctx context.Context, key, token string) (bool, error)
}

// Policy controls how WithLock waits for a busy lock.
type Policy struct {
	TTL        time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultPolicy suits short document rewrites.
var DefaultPolicy = Policy{
	TTL:        10 * time.Second,
	MaxRetries: 200,
	RetryDelay: 10 * time.Millisecond,
}

// WithLock runs fn while holding key.
func WithLock(ctx context.Context, l Locker, key string, p Policy, fn func() error) error {
	token, acquired, err := l.AcquireWithRetry(ctx, key, p.TTL, p.MaxRetries, p.RetryDelay)
	if err != nil {
		return fmt.Errorf("failed to acquire %s: %w", key, err)
	}
	if !acquired {
		return fmt.Errorf("%w: %s", ErrNotAcquired, key)
	}

	// Release with a fresh context so a cancelled caller still frees the lock.
	defer func() { _, _ = l.Release(context.WithoutCancel(ctx), key, token) }()

	return fn()
}

// retry calls acquire until it succeeds, fails, or the retries run out.
func retry(ctx context.Context, maxRetries int, retryDelay time.Duration, acquire func() (string, bool, error)) (string, bool, error) {
	for i := 0; i <= maxRetries; i++ {
		token, acquired, err := acquire()
		if err != nil {
			return "", false, err
		}
		if acquired {
			return token, true, nil
		}

		// Don't sleep on the last attempt.
		if i < maxRetries {
			select {
			case <-ctx.Done():
				return "", false, ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}
	return "", false, nil
}

// =============================================================================
// Common Lock Keys
// =============================================================================

// Keys provides lock key generation for common scenarios.
var Keys = lockKeys{}

type lockKeys struct{}

// Collection returns the lock key guarding a KV collection document.
func (lockKeys) Collection(kvKey string) string {
	return "lock:collection:" + kvKey
}

// newToken returns a fresh holder token.
func newToken() string {
	return uuid.NewString()
}
