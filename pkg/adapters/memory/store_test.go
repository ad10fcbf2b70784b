package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/atelier/pkg/adapters/memory"
	"github.com/aretw0/atelier/pkg/domain"
	contract "github.com/aretw0/atelier/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	contract.ObjectStoreContractTest(t, memory.NewStore())
}

func TestMemoryByteCache_Contract(t *testing.T) {
	now := time.Unix(1700000000, 0)
	cache := memory.NewByteCache(func() time.Time { return now })
	contract.ByteCacheContractTest(t, cache, func(d time.Duration) { now = now.Add(d) })
}

func TestTraitSource(t *testing.T) {
	src := memory.NewTraitSource(map[int]memory.Token{
		7: {Traits: domain.TraitSet{"EYES": "12"}, Skin: domain.Skin{ID: "1", Name: "Medium"}},
	})
	ctx := context.Background()

	traits, err := src.EquippedTraits(ctx, 7)
	require.NoError(t, err)
	traits["EYES"] = "99"
	again, _ := src.EquippedTraits(ctx, 7)
	assert.Equal(t, "12", again["EYES"])

	_, err = src.Skin(ctx, 8)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
	assert.Equal(t, 3, src.Reads())
}

func TestAssetSource(t *testing.T) {
	src := memory.NewAssetSource(map[string][]byte{
		"labimages/5.svg":  []byte("<svg/>"),
		"labimages/5a.svg": []byte("<svg/>"),
		"labimages/5c.svg": []byte("<svg/>"),
	})
	ctx := context.Background()

	data, err := src.Fetch(ctx, domain.TraitLayer{Path: "traits/missing.svg", Fallback: "labimages/5.svg"})
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(data))

	_, err = src.Fetch(ctx, domain.TraitLayer{Path: "labimages/6.svg"})
	assert.ErrorIs(t, err, domain.ErrAssetUnavailable)

	variants, err := src.Variants(ctx, "5")
	require.NoError(t, err)
	assert.Equal(t, []string{"5a", "5c"}, variants)
}
