// Package testutil provides shared test doubles.
package testutil

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/invoice-workbench/backend/internal/models"
	"github.com/invoice-workbench/backend/internal/storage"
)

// MockStore is an in-memory storage.Store for handler tests.
type MockStore struct {
	mu    sync.Mutex
	files map[string][]byte
	infos map[string]*models.FileInfo

	// SaveErr forces Save to fail when set.
	SaveErr error
}

var _ storage.Store = (*MockStore)(nil)

func NewMockStore() *MockStore {
	return &MockStore{
		files: make(map[string][]byte),
		infos: make(map[string]*models.FileInfo),
	}
}

func (m *MockStore) Save(name string, r io.Reader) (*models.FileInfo, error) {
	if m.SaveErr != nil {
		return nil, m.SaveErr
	}
	safe, err := storage.SafeName(name)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	info := &models.FileInfo{
		Name:        safe,
		Size:        int64(len(data)),
		ContentType: "application/octet-stream",
		UploadedAt:  time.Now(),
	}

	m.mu.Lock()
	m.files[safe] = data
	m.infos[safe] = info
	m.mu.Unlock()
	return info, nil
}

func (m *MockStore) Open(name string) (io.ReadCloser, *models.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[name]
	if !ok {
		return nil, nil, fmt.Errorf("file not found: %s", name)
	}
	return io.NopCloser(bytes.NewReader(data)), m.infos[name], nil
}

func (m *MockStore) List(limit int) ([]*models.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*models.FileInfo
	for _, info := range m.infos {
		list = append(list, info)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].UploadedAt.After(list[j].UploadedAt)
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *MockStore) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[name]; !ok {
		return fmt.Errorf("file not found: %s", name)
	}
	delete(m.files, name)
	delete(m.infos, name)
	return nil
}
