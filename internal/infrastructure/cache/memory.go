package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is an in-process key-value store with expiration. It backs the
// OAuth state and the run lock when Redis is not reachable, which is only
// correct for a single API instance.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]*memoryItem
	now   func() time.Time
}

type memoryItem struct {
	value      string
	expireTime time.Time
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]*memoryItem),
		now:   time.Now,
	}
}

// Set stores a key-value pair with expiration
func (ms *MemoryStore) Set(_ context.Context, key, value string, expiration time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.items[key] = &memoryItem{
		value:      value,
		expireTime: ms.now().Add(expiration),
	}
	return nil
}

// Get retrieves a value by key
func (ms *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	item, ok := ms.live(key)
	if !ok {
		return "", false, nil
	}
	return item.value, true, nil
}

// Take retrieves and deletes a value
func (ms *MemoryStore) Take(_ context.Context, key string) (string, bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	item, ok := ms.live(key)
	if !ok {
		return "", false, nil
	}
	delete(ms.items, key)
	return item.value, true, nil
}

// Delete removes a key
func (ms *MemoryStore) Delete(_ context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.items, key)
	return nil
}

// setNX stores the value only if the key is absent or expired
func (ms *MemoryStore) setNX(key, value string, expiration time.Duration) bool {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, ok := ms.live(key); ok {
		return false
	}
	ms.items[key] = &memoryItem{value: value, expireTime: ms.now().Add(expiration)}
	return true
}

// deleteIf removes the key only when it holds value
func (ms *MemoryStore) deleteIf(key, value string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if item, ok := ms.live(key); ok && item.value == value {
		delete(ms.items, key)
	}
}

// expireIf resets the expiration only when the key holds value
func (ms *MemoryStore) expireIf(key, value string, expiration time.Duration) bool {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	item, ok := ms.live(key)
	if !ok || item.value != value {
		return false
	}
	item.expireTime = ms.now().Add(expiration)
	return true
}

// live returns the item if present and unexpired. Caller holds mu.
func (ms *MemoryStore) live(key string) (*memoryItem, bool) {
	item, exists := ms.items[key]
	if !exists {
		return nil, false
	}
	if ms.now().After(item.expireTime) {
		delete(ms.items, key)
		return nil, false
	}
	return item, true
}

// MemoryLock is the in-process counterpart of Lock
type MemoryLock struct {
	store   *MemoryStore
	ownerID string
}

// NewMemoryLock creates a lock over the given store
func NewMemoryLock(store *MemoryStore) *MemoryLock {
	return &MemoryLock{store: store, ownerID: generateOwnerID()}
}

// Acquire returns false when the lock is held
func (l *MemoryLock) Acquire(_ context.Context, name string, ttl time.Duration) (bool, error) {
	return l.store.setNX(lockPrefix+name, l.ownerID, ttl), nil
}

// Release deletes the lock if this instance holds it
func (l *MemoryLock) Release(_ context.Context, name string) error {
	l.store.deleteIf(lockPrefix+name, l.ownerID)
	return nil
}

// Extend refreshes the TTL of a lock held by this instance
func (l *MemoryLock) Extend(_ context.Context, name string, ttl time.Duration) error {
	if !l.store.expireIf(lockPrefix+name, l.ownerID, ttl) {
		return fmt.Errorf("lock %s not held by this instance", name)
	}
	return nil
}
