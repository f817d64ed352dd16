// mock_storage.go - Mock storage implementation for testing
package testutil

import (
	"io"
	"sync"

	"github.com/spam-detector/webui/internal/models"
	"github.com/spam-detector/webui/internal/storage"
)

// MockStorage wraps an in-memory store and can be told to fail. Set the error
// knobs before the code under test runs.
type MockStorage struct {
	*storage.MemoryStore

	mu sync.Mutex
	// SaveErr is returned by Save instead of storing the file.
	SaveErr error
	// OpenErr is returned by Open.
	OpenErr error
	// ReadErr makes readers from Open fail with it after the stored bytes.
	ReadErr error
	// ListErr is returned by List.
	ListErr error
	deleted []string
}

// NewMockStorage creates a mock backed by an unlimited MemoryStore.
func NewMockStorage() *MockStorage {
	return NewMockStorageWithLimit(0)
}

// NewMockStorageWithLimit creates a mock whose uploads are capped at maxSize bytes.
func NewMockStorageWithLimit(maxSize int64) *MockStorage {
	return &MockStorage{MemoryStore: storage.NewMemoryStore(maxSize)}
}

func (m *MockStorage) Save(name string, r io.Reader) (*models.FileInfo, error) {
	m.mu.Lock()
	err := m.SaveErr
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return m.MemoryStore.Save(name, r)
}

func (m *MockStorage) Open(id string) (io.Reader, error) {
	m.mu.Lock()
	openErr, readErr := m.OpenErr, m.ReadErr
	m.mu.Unlock()
	if openErr != nil {
		return nil, openErr
	}

	r, err := m.MemoryStore.Open(id)
	if err != nil || readErr == nil {
		return r, err
	}
	return io.MultiReader(r, &failingReader{err: readErr}), nil
}

func (m *MockStorage) List(limit int) ([]*models.FileInfo, error) {
	m.mu.Lock()
	err := m.ListErr
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return m.MemoryStore.List(limit)
}

func (m *MockStorage) Delete(id string) error {
	m.mu.Lock()
	m.deleted = append(m.deleted, id)
	m.mu.Unlock()
	return m.MemoryStore.Delete(id)
}

// Deleted returns the IDs passed to Delete, in order.
func (m *MockStorage) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

type failingReader struct{ err error }

func (r *failingReader) Read([]byte) (int, error) { return 0, r.err }

var _ storage.Store = (*MockStorage)(nil)
