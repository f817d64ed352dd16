package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spam-detector/webui/internal/models"
)

// ErrNotFound is returned for unknown file IDs.
var ErrNotFound = errors.New("file not found")

// ErrTooLarge is returned when an upload exceeds the store's size limit.
var ErrTooLarge = errors.New("file too large")

// Store defines the interface for uploaded file storage.
type Store interface {
	Save(name string, r io.Reader) (*models.FileInfo, error)
	Get(id string) (*models.FileInfo, error)
	Open(id string) (io.Reader, error)
	List(limit int) ([]*models.FileInfo, error)
	Delete(id string) error
}

type blob struct {
	info *models.FileInfo
	data []byte
}

// MemoryStore implements Store in process memory. Uploaded CSVs are small and
// are resent verbatim on submit, so nothing is written to disk.
type MemoryStore struct {
	mu      sync.RWMutex
	maxSize int64
	files   map[string]*blob
}

// NewMemoryStore creates a store. maxSize <= 0 disables the size limit.
func NewMemoryStore(maxSize int64) *MemoryStore {
	return &MemoryStore{
		maxSize: maxSize,
		files:   make(map[string]*blob),
	}
}

// Save reads r fully and stores it under a new ID.
func (s *MemoryStore) Save(name string, r io.Reader) (*models.FileInfo, error) {
	src := r
	if s.maxSize > 0 {
		src = io.LimitReader(r, s.maxSize+1)
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, name, s.maxSize)
	}

	info := &models.FileInfo{
		ID:         uuid.New().String(),
		Name:       name,
		Size:       int64(len(data)),
		UploadedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[info.ID] = &blob{info: info, data: data}

	return info, nil
}

// Get retrieves file metadata by ID.
func (s *MemoryStore) Get(id string) (*models.FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	info := *b.info
	return &info, nil
}

// Open returns a reader over the stored bytes.
func (s *MemoryStore) Open(id string) (io.Reader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return bytes.NewReader(b.data), nil
}

// List returns the most recent files.
func (s *MemoryStore) List(limit int) ([]*models.FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*models.FileInfo, 0, len(s.files))
	for _, b := range s.files {
		info := *b.info
		list = append(list, &info)
	}

	// Sort by UploadedAt desc
	sort.Slice(list, func(i, j int) bool {
		return list[i].UploadedAt.After(list[j].UploadedAt)
	})

	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}

	return list, nil
}

// Delete removes a file from storage.
func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	delete(s.files, id)
	return nil
}

// Len returns the number of stored files.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}
