package storage

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/invoice-workbench/backend/internal/models"
)

// Store is the file store boundary: original invoice documents are saved at
// upload time and served back by filename for inline viewing during review.
type Store interface {
	Save(name string, r io.Reader) (*models.FileInfo, error)
	Open(name string) (io.ReadCloser, *models.FileInfo, error)
	List(limit int) ([]*models.FileInfo, error)
	Delete(name string) error
}

// SafeName reduces a client-supplied filename to its base component, which
// blocks directory traversal.
func SafeName(name string) (string, error) {
	cleaned := filepath.Base(strings.TrimSpace(name))
	if cleaned == "" || cleaned == "." || cleaned == ".." || strings.ContainsAny(cleaned, "/\\") {
		return "", fmt.Errorf("invalid filename: %q", name)
	}
	return cleaned, nil
}

// LocalStore implements Store on the local filesystem. Files live directly
// under the upload directory keyed by sanitized filename so their location is
// predictable.
type LocalStore struct {
	mu        sync.RWMutex
	uploadDir string
	files     map[string]*models.FileInfo
}

// NewLocalStore creates a LocalStore rooted at uploadDir, indexing any files
// already present.
func NewLocalStore(uploadDir string) (*LocalStore, error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}

	s := &LocalStore{
		uploadDir: uploadDir,
		files:     make(map[string]*models.FileInfo),
	}

	entries, err := os.ReadDir(uploadDir)
	if err != nil {
		return nil, fmt.Errorf("reading upload directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		s.files[e.Name()] = &models.FileInfo{
			Name:        e.Name(),
			Size:        info.Size(),
			ContentType: contentTypeFor(e.Name()),
			UploadedAt:  info.ModTime(),
		}
	}
	return s, nil
}

// Save writes a document under its sanitized filename, replacing any previous
// upload of the same name.
func (s *LocalStore) Save(name string, r io.Reader) (*models.FileInfo, error) {
	safe, err := SafeName(name)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(s.uploadDir, safe)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing file: %w", err)
	}

	info := &models.FileInfo{
		Name:        safe,
		Size:        size,
		ContentType: contentTypeFor(safe),
		UploadedAt:  time.Now(),
	}

	s.mu.Lock()
	s.files[safe] = info
	s.mu.Unlock()

	return info, nil
}

// Open returns the document content and metadata for a filename.
func (s *LocalStore) Open(name string) (io.ReadCloser, *models.FileInfo, error) {
	safe, err := SafeName(name)
	if err != nil {
		return nil, nil, err
	}

	s.mu.RLock()
	info, ok := s.files[safe]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("file not found: %s", safe)
	}

	f, err := os.Open(filepath.Join(s.uploadDir, safe))
	if err != nil {
		return nil, nil, fmt.Errorf("opening file: %w", err)
	}
	return f, info, nil
}

// List returns the most recently uploaded documents.
func (s *LocalStore) List(limit int) ([]*models.FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []*models.FileInfo
	for _, info := range s.files {
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

// Delete removes a document.
func (s *LocalStore) Delete(name string) error {
	safe, err := SafeName(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[safe]; !ok {
		return fmt.Errorf("file not found: %s", safe)
	}
	if err := os.Remove(filepath.Join(s.uploadDir, safe)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting file: %w", err)
	}
	delete(s.files, safe)
	return nil
}

func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
