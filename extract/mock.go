package extract

import (
	"context"
	"fmt"
	"sync"
)

// MockStore is an in-memory FileStore for tests.
type MockStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

var _ FileStore = (*MockStore)(nil)

// NewMockStore creates a store preloaded with the given files.
func NewMockStore(files map[string]string) *MockStore {
	s := &MockStore{files: make(map[string][]byte, len(files))}
	for path, content := range files {
		s.files[path] = []byte(content)
	}
	return s
}

// Put adds or replaces a file.
func (s *MockStore) Put(path, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = []byte(content)
}

func (s *MockStore) Exists(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.files[path]
	return ok
}

func (s *MockStore) Read(path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	return data, nil
}

// MockExtractor is a test double for Extractor with function injection.
type MockExtractor struct {
	// ExtractFunc is called by Extract if set. If nil, returns "text from "
	// followed by the path.
	ExtractFunc func(ctx context.Context, path string) (string, error)

	callCount int
	mu        sync.Mutex
}

var _ Extractor = (*MockExtractor)(nil)

// NewMockExtractor creates a mock extractor with default behavior.
func NewMockExtractor() *MockExtractor {
	return &MockExtractor{}
}

func (m *MockExtractor) Extract(ctx context.Context, path string) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, path)
	}
	return "text from " + path, nil
}

// CallCount returns the number of times Extract was called.
func (m *MockExtractor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}
