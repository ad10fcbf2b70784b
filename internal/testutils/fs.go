package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteCatalog creates a temporary trait catalog directory holding files
// (name to content) and returns its absolute path.
// It fails the test immediately on error.
func WriteCatalog(t *testing.T, files map[string]string) string {
	t.Helper()

	absPath, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(absPath, name), []byte(content), 0644))
	}
	return absPath
}

// WriteTree creates a temporary directory holding files keyed by
// slash-separated relative paths, creating parent directories as needed.
func WriteTree(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	}
	return dir
}
