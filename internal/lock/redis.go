package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still carries the holder's token,
// so an expired lock taken over by another holder is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker with SET NX on a shared Redis, so processes
// using the same KV namespace exclude each other.
type RedisLocker struct {
	client    redis.UniversalClient
	namespace string
}

// NewRedisLocker creates a locker on the client. Lock keys share the KV namespace.
func NewRedisLocker(client redis.UniversalClient, namespace string) *RedisLocker {
	return &RedisLocker{
		client:    client,
		namespace: namespace,
	}
}

func (l *RedisLocker) key(k string) string {
	if l.namespace == "" {
		return k
	}
	return l.namespace + ":" + k
}

// Acquire attempts to acquire a lock.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := newToken()
	ok, err := l.client.SetNX(ctx, l.key(key), token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// AcquireWithRetry attempts to acquire a lock with retries.
func (l *RedisLocker) AcquireWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (string, bool, error) {
	return retry(ctx, maxRetries, retryDelay, func() (string, bool, error) {
		return l.Acquire(ctx, key, ttl)
	})
}

// Release releases the lock if token still holds it.
func (l *RedisLocker) Release(ctx context.Context, key, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	n, err := releaseScript.Run(ctx, l.client, []string{l.key(key)}, token).Int64()
	if err != nil {
		return false, fmt.Errorf("redis release: %w", err)
	}
	return n == 1, nil
}

// Ensure RedisLocker implements Locker.
var _ Locker = (*RedisLocker)(nil)
