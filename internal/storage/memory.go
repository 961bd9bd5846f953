package storage

import (
	"sort"
	"sync"
	"time"
)

type MemoryCache struct {
	entries  map[string]*Entry
	capacity int
	ttl      time.Duration
	now      func() time.Time
	mu       sync.RWMutex
}

func NewMemoryCache(capacity int, ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries:  make(map[string]*Entry),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *MemoryCache) Init() error {
	return nil
}

func (m *MemoryCache) Close() error {
	return nil
}

func (m *MemoryCache) Get(key string) (*Entry, error) {
	m.mu.RLock()
	entry, exists := m.entries[key]
	m.mu.RUnlock()

	if !exists {
		return nil, ErrEntryNotFound
	}
	if expired(entry, m.ttl, m.now()) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, ErrEntryExpired
	}

	return entry, nil
}

func (m *MemoryCache) Put(entry *Entry) error {
	if entry == nil || entry.Key == "" {
		return ErrInvalidData
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = m.now()
	}
	m.entries[entry.Key] = entry
	evictOldest(m.entries, m.capacity)
	return nil
}

func (m *MemoryCache) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists {
		return ErrEntryNotFound
	}
	delete(m.entries, key)
	return nil
}

func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// evictOldest 超出容量时按创建时间淘汰最旧的条目
func evictOldest(entries map[string]*Entry, capacity int) []string {
	if capacity <= 0 || len(entries) <= capacity {
		return nil
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return entries[keys[i]].CreatedAt.Before(entries[keys[j]].CreatedAt)
	})

	evicted := keys[:len(entries)-capacity]
	for _, k := range evicted {
		delete(entries, k)
	}
	return evicted
}
