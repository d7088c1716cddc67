package persist

import "sync"

// Storage is the get/set item backend a persistor writes through. The entry
// format is whatever the configured Serializer produces; storage backends
// treat values as opaque bytes.
type Storage interface {
	// GetItem reads the entry under key. ok is false when no entry exists.
	GetItem(key string) (value []byte, ok bool, err error)

	// SetItem replaces the entry under key.
	SetItem(key string, value []byte) error
}

// MemoryStorage is a process-local Storage, useful as a default and in
// tests. It is safe for concurrent use.
type MemoryStorage struct {
	mu      sync.Mutex
	entries map[string][]byte
}

var _ Storage = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{entries: make(map[string][]byte)}
}

func (m *MemoryStorage) GetItem(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.entries[key]
	return value, ok, nil
}

func (m *MemoryStorage) SetItem(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, len(value))
	copy(buf, value)
	m.entries[key] = buf
	return nil
}
