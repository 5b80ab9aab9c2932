package fileio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNotFound is returned when reading a blob that does not exist.
	ErrNotFound = errors.New("file not found")

	// ErrInvalidPath is returned for paths that leave the storage root.
	ErrInvalidPath = errors.New("invalid path")
)

// Storage stores blobs under slash-separated relative paths.
type Storage interface {
	// Read returns the content of the blob, or ErrNotFound.
	Read(ctx context.Context, path string) ([]byte, error)

	// Write creates or replaces the blob.
	Write(ctx context.Context, path string, data []byte) error

	// Delete removes the blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, path string) error

	// Exists returns true if the blob exists.
	Exists(ctx context.Context, path string) (bool, error)
}

// LocalStorage stores blobs as files under a base directory, usually the
// persistent data directory of the application.
type LocalStorage struct {
	base string
}

// NewLocalStorage creates a LocalStorage rooted at base, creating the
// directory if needed.
func NewLocalStorage(base string) (*LocalStorage, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", base, err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", abs, err)
	}

	return &LocalStorage{base: abs}, nil
}

// Base returns the absolute base directory.
func (s *LocalStorage) Base() string {
	return s.base
}

// Path returns the file path of a blob.
func (s *LocalStorage) Path(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))

	if path == "" || filepath.IsAbs(clean) || clean == "." ||
		clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}

	return filepath.Join(s.base, clean), nil
}

// Read returns the content of the file.
func (s *LocalStorage) Read(_ context.Context, path string) ([]byte, error) {
	full, err := s.Path(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return data, nil
}

// Write replaces the file, creating its parent directories.
func (s *LocalStorage) Write(_ context.Context, path string, data []byte) error {
	full, err := s.Path(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}

	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := os.Rename(tmp, full); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", path, err)
	}

	return nil
}

// Delete removes the file.
func (s *LocalStorage) Delete(_ context.Context, path string) error {
	full, err := s.Path(path)
	if err != nil {
		return err
	}

	return DeleteFile(full)
}

// Exists returns true if the file exists.
func (s *LocalStorage) Exists(_ context.Context, path string) (bool, error) {
	full, err := s.Path(path)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(full)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}

	return true, nil
}
