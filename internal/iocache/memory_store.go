package iocache

import (
	"database/sql"
	"slices"
	"sync"
	"time"

	"github.com/huangsam/hypeplot/internal/contract"
	"github.com/huangsam/hypeplot/schema"
)

type memoryEntry struct {
	value     []byte
	version   int
	timestamp int64
}

// MemoryStore is an in-process CacheStore. It behaves like the SQL stores,
// including sql.ErrNoRows for missing keys, and keeps nothing after Close.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

var _ contract.CacheStore = &MemoryStore{} // Compile-time check

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

// Get retrieves a value by key.
func (m *MemoryStore) Get(key string) ([]byte, int, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, 0, 0, sql.ErrNoRows
	}
	return slices.Clone(e.value), e.version, e.timestamp, nil
}

// Set inserts or replaces a value.
func (m *MemoryStore) Set(key string, value []byte, version int, timestamp int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{value: slices.Clone(value), version: version, timestamp: timestamp}
	return nil
}

// GetStatus reports the number of entries and their time range.
func (m *MemoryStore) GetStatus() (schema.CacheStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	status := schema.CacheStatus{Backend: "memory", Connected: true, TotalEntries: len(m.entries)}
	var newest, oldest int64
	for _, e := range m.entries {
		if newest == 0 || e.timestamp > newest {
			newest = e.timestamp
		}
		if oldest == 0 || e.timestamp < oldest {
			oldest = e.timestamp
		}
		status.TableSizeBytes += int64(len(e.value))
	}
	if len(m.entries) > 0 {
		status.LastEntryTime = time.Unix(newest, 0)
		status.OldestEntryTime = time.Unix(oldest, 0)
	}
	return status, nil
}

// Close drops every entry.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.entries)
	return nil
}
