package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/atelier/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixturesYAML = `
tokens:
  42:
    traits:
      EYES: "12"
      TOP: "60"
    skin: {id: "2", name: Dark}
    data: {generation: 1}
    serums:
      - {success: true, mutation: GoldenAdrian}
    tag: {tag: SamuraiZERO, index: 3}
`

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTokens_YAML(t *testing.T) {
	src, err := LoadTokens(write(t, "tokens.yaml", fixturesYAML))
	require.NoError(t, err)
	ctx := context.Background()

	traits, err := src.EquippedTraits(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, domain.TraitSet{"EYES": "12", "TOP": "60"}, traits)

	skin, err := src.Skin(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Dark", skin.Name)

	tag, err := src.Tag(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 3, tag.Index)

	_, err = src.Skin(ctx, 7)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestLoadTokens_JSON(t *testing.T) {
	src, err := LoadTokens(write(t, "tokens.json", `{"tokens":{"5":{"traits":{"EYES":"1"},"skin":{"id":"0"}}}}`))
	require.NoError(t, err)
	traits, err := src.EquippedTraits(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "1", traits["EYES"])
}

func TestLoadTokens_Errors(t *testing.T) {
	_, err := LoadTokens(filepath.Join(t.TempDir(), "none.yaml"))
	assert.ErrorContains(t, err, "failed to read")

	_, err = LoadTokens(write(t, "bad.yaml", "tokens: [1"))
	assert.ErrorContains(t, err, "failed to parse bad.yaml")

	_, err = LoadTokens(write(t, "neg.yaml", "tokens:\n  -1: {}\n"))
	assert.ErrorContains(t, err, "invalid token id -1")
}
