// Package images stores captured prompt thumbnails on disk and derives
// the metadata (hash, BlurHash) carried on the prompt record.
package images

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Storage manages thumbnail filesystem operations, one file per prompt
// id. Thread-safe for concurrent operations.
type Storage struct {
	basePath string
	mu       sync.RWMutex
}

// NewStorage creates thumbnail storage rooted at basePath, creating the
// directory when missing.
func NewStorage(basePath string) (*Storage, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create thumbnail directory: %w", err)
	}
	return &Storage{basePath: basePath}, nil
}

// Save stores thumbnail bytes for a prompt.
func (s *Storage) Save(promptID string, data []byte) error {
	if promptID == "" {
		return fmt.Errorf("prompt ID cannot be empty")
	}
	if len(data) == 0 {
		return fmt.Errorf("image data cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(s.Path(promptID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write thumbnail file: %w", err)
	}
	return nil
}

// Get retrieves thumbnail bytes for a prompt.
func (s *Storage) Get(promptID string) ([]byte, error) {
	if promptID == "" {
		return nil, fmt.Errorf("prompt ID cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.Path(promptID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("thumbnail not found for %s: %w", promptID, err)
		}
		return nil, fmt.Errorf("failed to read thumbnail file: %w", err)
	}
	return data, nil
}

// Exists checks whether a thumbnail is stored for a prompt.
func (s *Storage) Exists(promptID string) bool {
	if promptID == "" {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.Path(promptID))
	return err == nil
}

// Delete removes a prompt's thumbnail. Deleting a missing thumbnail is
// not an error.
func (s *Storage) Delete(promptID string) error {
	if promptID == "" {
		return fmt.Errorf("prompt ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path(promptID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete thumbnail file: %w", err)
	}
	return nil
}

// Hash computes the SHA256 of a stored thumbnail, hex encoded for ETag
// validation.
func (s *Storage) Hash(promptID string) (string, error) {
	data, err := s.Get(promptID)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum), nil
}

// Path returns the full filesystem path for a prompt's thumbnail.
func (s *Storage) Path(promptID string) string {
	return filepath.Join(s.basePath, promptID+".png")
}
