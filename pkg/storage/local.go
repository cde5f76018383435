package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// LocalStorage implements Storage on top of a directory
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a store rooted at basePath
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

// Path returns the filesystem path backing key
func (s *LocalStorage) Path(key string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(key))
}

// Put writes data atomically. A reader sees either the old or the new content,
// never a partially generated file.
func (s *LocalStorage) Put(key string, data []byte) error {
	filePath := s.Path(key)
	dir := filepath.Dir(filePath)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory for key %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(filePath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for key %s: %w", key, err)
	}
	tempPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to write temp file for key %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file for key %s: %w", key, err)
	}
	if err := os.Chmod(tempPath, 0644); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to set mode for key %s: %w", key, err)
	}

	if err := os.Rename(tempPath, filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file for key %s: %w", key, err)
	}

	return nil
}

// Get retrieves data at the specified key
func (s *LocalStorage) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // Return nil for not found, not an error
		}
		return nil, fmt.Errorf("failed to read file for key %s: %w", key, err)
	}

	return data, nil
}

// Exists checks if a key exists
func (s *LocalStorage) Exists(key string) (bool, error) {
	_, err := os.Stat(s.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat file for key %s: %w", key, err)
	}

	return true, nil
}

// String returns a debug string representation
func (s *LocalStorage) String() string {
	return fmt.Sprintf("LocalStorage{basePath: %s}", s.basePath)
}
