package mocks

import (
	"context"
	"sync"
)

// MockStore is an in-memory Store implementation for testing that records
// the calls made against it.
type MockStore struct {
	mu     sync.RWMutex
	values map[string][]byte

	// For tracking calls in tests
	PutCalls    []PutCall
	DeleteCalls []string
	GetErr      error
	PutErr      error
	DeleteErr   error
}

// PutCall records parameters passed to Put
type PutCall struct {
	Key   string
	Value []byte
}

// NewMockStore creates a new MockStore
func NewMockStore() *MockStore {
	return &MockStore{
		values:   make(map[string][]byte),
		PutCalls: make([]PutCall, 0),
	}
}

func (m *MockStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.GetErr != nil {
		return nil, false, m.GetErr
	}
	value, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return value, true, nil
}

func (m *MockStore) Put(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutCalls = append(m.PutCalls, PutCall{Key: key, Value: value})
	if m.PutErr != nil {
		return m.PutErr
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	m.values[key] = stored
	return nil
}

func (m *MockStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls = append(m.DeleteCalls, key)
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.values, key)
	return nil
}

func (m *MockStore) Close() error {
	return nil
}

// Seed sets a value directly for testing
func (m *MockStore) Seed(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

// Reset clears all values and recorded calls
func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[string][]byte)
	m.PutCalls = make([]PutCall, 0)
	m.DeleteCalls = nil
	m.GetErr = nil
	m.PutErr = nil
	m.DeleteErr = nil
}
