package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/atelier/pkg/domain"
)

// Store implements ports.ObjectStore and ports.ObjectLister on the local
// filesystem. Every artifact is one file directly under BasePath.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".atelier/renders".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".atelier", "renders")
	}
	return &Store{BasePath: basePath}
}

// resolve maps an artifact name to its file, refusing anything that would
// escape BasePath.
func (s *Store) resolve(path string) (string, error) {
	if path == "" || path == "." || path == ".." || strings.ContainsAny(path, `/\`) {
		return "", fmt.Errorf("invalid artifact path %q", path)
	}
	return filepath.Join(s.BasePath, path), nil
}

// Exists reports whether an artifact file is present.
func (s *Store) Exists(ctx context.Context, path string) (bool, error) {
	full, err := s.resolve(path)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat artifact: %w", err)
}

// Get reads an artifact file.
func (s *Store) Get(ctx context.Context, path string) ([]byte, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	return data, nil
}

// Put writes the artifact atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) Put(ctx context.Context, path string, data []byte) error {
	destPath, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure render directory: %w", err)
	}

	// Same directory keeps the rename on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, ".tmp-"+path+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// On Windows, os.Rename fails if dest exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing artifact for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to artifact: %w", err)
	}
	return nil
}

// Delete removes the artifact file.
func (s *Store) Delete(ctx context.Context, path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete artifact: %w", err)
	}
	return nil
}

// List returns the artifact names starting with prefix, sorted.
// Temp files of in-progress writes are skipped.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}

	paths := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".tmp-") {
			continue
		}
		if strings.HasPrefix(name, prefix) {
			paths = append(paths, name)
		}
	}
	slices.Sort(paths)
	return paths, nil
}
