package extract

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStore abstracts access to the attachment files referenced by
// portfolios. Paths are relative to the store root.
type FileStore interface {
	// Exists reports whether the path refers to a readable file.
	Exists(path string) bool

	// Read returns the file's contents. Missing files return an error
	// wrapping ErrFileNotFound.
	Read(path string) ([]byte, error)
}

// DiskStore serves attachment files from a directory on local disk.
type DiskStore struct {
	root string
}

var _ FileStore = (*DiskStore)(nil)

// NewDiskStore creates a store rooted at dir.
func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{root: dir}
}

// resolve joins path onto the root and rejects escapes above it.
func (s *DiskStore) resolve(path string) (string, error) {
	full := filepath.Join(s.root, filepath.Clean("/"+path))
	rel, err := filepath.Rel(s.root, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	return full, nil
}

func (s *DiskStore) Exists(path string) bool {
	full, err := s.resolve(path)
	if err != nil {
		return false
	}
	info, err := os.Stat(full)
	return err == nil && info.Mode().IsRegular()
}

func (s *DiskStore) Read(path string) ([]byte, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, err
	}
	return data, nil
}
