// Package memory provides an in-memory key-value store.
// Nothing survives the process; it backs tests and one-shot demo runs.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/prn-tf/product-manager/internal/repository"
)

// DefaultCleanupInterval is how often expired items are evicted.
const DefaultCleanupInterval = 60 * time.Second

// Store implements repository.KVStore using a mutex-guarded map.
type Store struct {
	mu      sync.RWMutex
	items   map[string]*item
	stopCh  chan struct{}
	stopped bool
	now     func() time.Time
}

// item represents a single stored value.
type item struct {
	value     []byte
	expiresAt time.Time
	noExpiry  bool
}

func (i *item) isExpired(now time.Time) bool {
	if i.noExpiry {
		return false
	}
	return now.After(i.expiresAt)
}

// NewStore creates a new in-memory store and starts its cleanup goroutine.
// A non-positive interval selects DefaultCleanupInterval.
func NewStore(cleanupInterval time.Duration) *Store {
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	s := &Store{
		items:  make(map[string]*item),
		stopCh: make(chan struct{}),
		now:    time.Now,
	}

	go s.cleanupLoop(cleanupInterval)

	return s
}

func (s *Store) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

// cleanup removes expired items.
func (s *Store) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, it := range s.items {
		if it.isExpired(now) {
			delete(s.items, key)
		}
	}
}

// Close stops the cleanup goroutine. The data stays readable.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.stopped {
		close(s.stopCh)
		s.stopped = true
	}
	return nil
}

// Get retrieves a value by key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, exists := s.items[key]
	if !exists || it.isExpired(s.now()) {
		return nil, repository.ErrNotFound
	}

	// Return a copy to prevent mutation.
	result := make([]byte, len(it.value))
	copy(result, it.value)
	return result, nil
}

// Set stores a value with an optional TTL.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	it := &item{value: valueCopy}
	if ttl > 0 {
		it.expiresAt = s.now().Add(ttl)
	} else {
		it.noExpiry = true
	}

	s.items[key] = it
	return nil
}

// Delete removes a value by key.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
	return nil
}

// Exists checks if a key exists.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, exists := s.items[key]
	if !exists {
		return false, nil
	}
	return !it.isExpired(s.now()), nil
}

// Clear removes every key.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[string]*item)
	return nil
}

// Len returns the number of live keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	n := 0
	for _, it := range s.items {
		if !it.isExpired(now) {
			n++
		}
	}
	return n
}

// Ensure Store implements repository.KVStore.
var _ repository.KVStore = (*Store)(nil)
