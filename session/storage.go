package session

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrNotFound is returned by a Storage when no record exists for a key.
	ErrNotFound = errors.New("token record not found")
	// ErrStorageUnavailable is returned when the backing storage cannot be reached
	// or is disabled.
	ErrStorageUnavailable = errors.New("token storage unavailable")
)

// Storage is the durable key/value backend behind a Store.
//
// Set must replace the value for key atomically: a concurrent or later Get
// observes either the previous value or the new one, never a partial write.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// MemoryStorage keeps records in process memory.
type MemoryStorage struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{records: make(map[string][]byte)}
}

// Get returns a copy of the record stored under key.
func (m *MemoryStorage) Get(_ context.Context, key string) ([]byte, error) {
	if m == nil {
		return nil, ErrStorageUnavailable
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set stores a copy of value under key.
func (m *MemoryStorage) Set(_ context.Context, key string, value []byte) error {
	if m == nil {
		return ErrStorageUnavailable
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.records == nil {
		m.records = make(map[string][]byte)
	}
	m.records[key] = append([]byte(nil), value...)
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (m *MemoryStorage) Delete(_ context.Context, key string) error {
	if m == nil {
		return ErrStorageUnavailable
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, key)
	return nil
}

// disabledStorage models storage that is turned off; every call fails.
type disabledStorage struct{}

func (disabledStorage) Get(context.Context, string) ([]byte, error) { return nil, ErrStorageUnavailable }
func (disabledStorage) Set(context.Context, string, []byte) error   { return ErrStorageUnavailable }
func (disabledStorage) Delete(context.Context, string) error        { return ErrStorageUnavailable }

// Disabled returns a Storage that rejects every operation with
// ErrStorageUnavailable.
func Disabled() Storage {
	return disabledStorage{}
}
