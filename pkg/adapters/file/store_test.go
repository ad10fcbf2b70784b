package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/atelier/pkg/adapters/file"
	"github.com/aretw0/atelier/pkg/ports"
	"github.com/aretw0/atelier/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ports.ObjectStore  = (*file.Store)(nil)
	_ ports.ObjectLister = (*file.Store)(nil)
)

func TestStore_Contract(t *testing.T) {
	tests.ObjectStoreContractTest(t, file.New(t.TempDir()))
}

func TestStore_CreatesDirectoryLazily(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "renders")
	store := file.New(dir)
	ctx := context.Background()

	paths, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, paths)

	require.NoError(t, store.Put(ctx, "1_0000000000000000.png", []byte("png")))
	data, err := os.ReadFile(filepath.Join(dir, "1_0000000000000000.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}

func TestStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	for range 3 {
		require.NoError(t, store.Put(ctx, "2_0000000000000000.gif", []byte("gif")))
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStore_RejectsEscapingPaths(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	for _, bad := range []string{"", "..", "../x.png", "a/b.png", `a\b.png`} {
		assert.Error(t, store.Put(ctx, bad, []byte("x")), bad)
		_, err := store.Get(ctx, bad)
		assert.Error(t, err, bad)
	}
}
