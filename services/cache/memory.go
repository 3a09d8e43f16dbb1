package cache

import (
	"sync"
	"time"
)

type memoryItem struct {
	value      []byte
	expiration time.Time
}

// MemoryService is a thread-safe in-memory CacheService with TTL support,
// used when no memcached address is configured.
type MemoryService struct {
	mu   sync.RWMutex
	data map[string]memoryItem
}

// NewMemoryService creates a new in-memory cache
func NewMemoryService() *MemoryService {
	m := &MemoryService{data: make(map[string]memoryItem)}
	go m.cleanupExpired()
	return m
}

// Get retrieves a value; ErrCacheMiss when absent or expired
func (m *MemoryService) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.data[key]
	if !ok || time.Now().After(item.expiration) {
		return nil, ErrCacheMiss
	}
	return item.value, nil
}

// Set stores a value with an expiration time
func (m *MemoryService) Set(key string, value []byte, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	m.data[key] = memoryItem{value: stored, expiration: time.Now().Add(expiration)}
	return nil
}

// Delete removes a value
func (m *MemoryService) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryService) cleanupExpired() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		now := time.Now()
		m.mu.Lock()
		for key, item := range m.data {
			if now.After(item.expiration) {
				delete(m.data, key)
			}
		}
		m.mu.Unlock()
	}
}
