package kvstore

import (
	"context"

	"github.com/prn-tf/product-manager/internal/lock"
)

// Option configures a KV-backed repository.
type Option func(*options)

type options struct {
	locker lock.Locker
	policy lock.Policy
}

// WithLocker serializes collection rewrites through l.
func WithLocker(l lock.Locker) Option {
	return func(o *options) {
		if l != nil {
			o.locker = l
		}
	}
}

// WithLockPolicy overrides how long writers wait for a busy collection.
func WithLockPolicy(p lock.Policy) Option {
	return func(o *options) { o.policy = p }
}

func newOptions(opts []Option) options {
	o := options{
		locker: lock.NewNoOpLocker(),
		policy: lock.DefaultPolicy,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// update runs a read-modify-write of the collection under key while holding
// its lock.
func (o options) update(ctx context.Context, key string, fn func() error) error {
	return lock.WithLock(ctx, o.locker, lock.Keys.Collection(key), o.policy, fn)
}
