package cache

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is an in-process Store with TTL expiry and LRU eviction.
type MemoryStore struct {
	mu         sync.Mutex
	items      map[string]*memoryItem
	order      []string // least recently used first
	maxEntries int
	now        func() time.Time
}

// MemoryOption customises a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore creates a store holding at most maxEntries keys.
// A non-positive maxEntries defaults to 1000.
func NewMemoryStore(maxEntries int, opts ...MemoryOption) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	s := &MemoryStore{
		items:      make(map[string]*memoryItem),
		order:      make([]string, 0, maxEntries),
		maxEntries: maxEntries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns a live value and marks it recently used.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[key]
	if !ok {
		return nil, false, nil
	}
	if s.expired(item) {
		s.removeLocked(key)
		return nil, false, nil
	}
	s.touchLocked(key)

	out := make([]byte, len(item.value))
	copy(out, item.value)
	return out, true, nil
}

// Set stores value, evicting the least recently used key when full.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(key, value, ttl)
	return nil
}

// Delete removes key.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(key)
	return nil
}

// Claim stores a marker under key unless a live value already exists.
func (s *MemoryStore) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item, ok := s.items[key]; ok && !s.expired(item) {
		return false, nil
	}
	s.setLocked(key, []byte("1"), ttl)
	return true, nil
}

// Len returns the number of stored keys, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *MemoryStore) setLocked(key string, value []byte, ttl time.Duration) {
	stored := make([]byte, len(value))
	copy(stored, value)

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = s.now().Add(ttl)
	}

	if _, exists := s.items[key]; exists {
		s.items[key] = &memoryItem{value: stored, expiresAt: expiresAt}
		s.touchLocked(key)
		return
	}

	for len(s.items) >= s.maxEntries && len(s.order) > 0 {
		s.removeLocked(s.order[0])
	}
	s.items[key] = &memoryItem{value: stored, expiresAt: expiresAt}
	s.order = append(s.order, key)
}

func (s *MemoryStore) expired(item *memoryItem) bool {
	return !item.expiresAt.IsZero() && !s.now().Before(item.expiresAt)
}

func (s *MemoryStore) touchLocked(key string) {
	s.dropFromOrder(key)
	s.order = append(s.order, key)
}

func (s *MemoryStore) removeLocked(key string) {
	delete(s.items, key)
	s.dropFromOrder(key)
}

func (s *MemoryStore) dropFromOrder(key string) {
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}
