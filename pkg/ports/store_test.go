package ports_test

import (
	"context"
	"testing"

	"github.com/aretw0/atelier/pkg/domain"
	"github.com/aretw0/atelier/pkg/ports/tests"
)

// MockStore is a map-backed ObjectStore used to check the contract suite itself.
type MockStore struct {
	data map[string][]byte
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string][]byte),
	}
}

func (m *MockStore) Exists(ctx context.Context, path string) (bool, error) {
	_, ok := m.data[path]
	return ok, nil
}

func (m *MockStore) Get(ctx context.Context, path string) ([]byte, error) {
	data, ok := m.data[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	// Copy to simulate serialization
	return append([]byte(nil), data...), nil
}

func (m *MockStore) Put(ctx context.Context, path string, data []byte) error {
	m.data[path] = append([]byte(nil), data...)
	return nil
}

func (m *MockStore) Delete(ctx context.Context, path string) error {
	delete(m.data, path)
	return nil
}

func TestObjectStore_Contract(t *testing.T) {
	tests.ObjectStoreContractTest(t, NewMockStore())
}
