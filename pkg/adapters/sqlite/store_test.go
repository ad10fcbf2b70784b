package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/atelier/pkg/ports"
	"github.com/aretw0/atelier/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ports.ObjectStore  = (*Store)(nil)
	_ ports.ObjectLister = (*Store)(nil)
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "renders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_Contract(t *testing.T) {
	tests.ObjectStoreContractTest(t, openTestStore(t))
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestStore_ReopenKeepsArtifacts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "renders.db")
	ctx := context.Background()

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "3_0000000000000000.png", []byte("abc")))
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	data, err := store.Get(ctx, "3_0000000000000000.png")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
}

func TestStore_Size(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "1_a.png", []byte("12345")))
	require.NoError(t, store.Put(ctx, "2_b.png", []byte("123")))
	require.NoError(t, store.Put(ctx, "1_a.png", []byte("1")))

	count, size, err := store.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, int64(4), size)
}

func TestStore_ListPrefixIsLiteral(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "1_%.png", []byte("x")))
	require.NoError(t, store.Put(ctx, "1_ab.png", []byte("x")))

	paths, err := store.List(ctx, "1_%")
	require.NoError(t, err)
	assert.Equal(t, []string{"1_%.png"}, paths)
}
