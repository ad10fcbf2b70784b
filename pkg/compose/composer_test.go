package compose

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/atelier/pkg/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func request(traits domain.TraitSet) domain.RenderRequest {
	return domain.RenderRequest{
		TokenID:    1,
		Generation: 0,
		Skin:       domain.Skin{ID: "1", Name: "Zero"},
		Traits:     traits,
	}
}

func compose(t *testing.T, c *Composer, req domain.RenderRequest) Plan {
	t.Helper()
	plan, err := c.Compose(context.Background(), req)
	require.NoError(t, err)
	return plan
}

func TestCompose_SerumsEyesExclusivity(t *testing.T) {
	c := New()

	withEyes := compose(t, c, request(domain.TraitSet{"EYES": "12", "SERUMS": "99"}))
	assert.Equal(t, []string{"BASE", "EYES"}, withEyes.Categories())

	withoutEyes := compose(t, c, request(domain.TraitSet{"SERUMS": "99"}))
	assert.Equal(t, []string{"BASE", "SERUMS"}, withoutEyes.Categories())

	noneEyes := compose(t, c, request(domain.TraitSet{"EYES": "None", "SERUMS": "99"}))
	assert.Equal(t, []string{"BASE", "SERUMS"}, noneEyes.Categories())
}

func TestCompose_HairSuppressedByHead(t *testing.T) {
	c := New()

	both := compose(t, c, request(domain.TraitSet{"HAIR": "21", "HEAD": "209"}))
	assert.Equal(t, []string{"BASE", "HEAD"}, both.Categories())

	hairOnly := compose(t, c, request(domain.TraitSet{"HAIR": "21"}))
	assert.Equal(t, []string{"BASE", "HAIR"}, hairOnly.Categories())

	headOnly := compose(t, c, request(domain.TraitSet{"HEAD": "209"}))
	assert.Equal(t, []string{"BASE", "HEAD"}, headOnly.Categories())

	// The rule holds whatever order the categories are walked in.
	reversed := New(WithOrder([]string{"HAIR", "HEAD"}))
	assert.Equal(t, []string{"BASE", "HEAD"}, compose(t, reversed, request(domain.TraitSet{"HAIR": "21", "HEAD": "209"})).Categories())
}

func TestCompose_TopIsLast(t *testing.T) {
	c := New()
	traits := domain.TraitSet{"TOP": "900", "EYES": "12", "PAGERS": "15001", "BACKGROUND": "3", "GEAR": "48"}

	plan := compose(t, c, request(traits))
	require.NotEmpty(t, plan.Layers)
	last := plan.Layers[len(plan.Layers)-1]
	assert.Equal(t, "TOP", last.Category)
	assert.Equal(t, "BACKGROUND", plan.Layers[0].Category)
	assert.Equal(t, "BASE", plan.Layers[1].Category)

	gear := plan.Layers[len(plan.Layers)-2]
	assert.Equal(t, "GEAR/48.svg", gear.Path)
}

func TestCompose_LayerOrder(t *testing.T) {
	c := New()
	plan := compose(t, c, request(domain.TraitSet{
		"MOUTH": "40",
		"BEARD": "2",
		"HAT":   "60",
		"GEAR":  "721",
		"PACKS": "37",
	}))

	want := []domain.TraitLayer{
		{Category: "BASE", Source: domain.SourceAsset, Path: "ADRIAN/GEN0-Medium.svg", Fallback: "ADRIAN/GEN0-Medium.svg"},
		{Category: "SKIN_OVERLAY", TraitID: "37", Source: domain.SourceAsset, Path: "SKIN/37.svg"},
		{Category: "GEAR_PROMOTED", TraitID: "721", Source: domain.SourceLocal, Path: "labimages/721.svg"},
		{Category: "BEARD", TraitID: "2", Source: domain.SourceLocal, Path: "labimages/2.svg"},
		{Category: "SWAG", TraitID: "37", Source: domain.SourceLocal, Path: "labimages/37.svg"},
		{Category: "HAT", TraitID: "60", Source: domain.SourceLocal, Path: "labimages/60.svg"},
		{Category: "MOUTH", TraitID: "40", Source: domain.SourceLocal, Path: "labimages/40.svg"},
	}
	if diff := cmp.Diff(want, plan.Layers); diff != "" {
		t.Errorf("layers mismatch (-want +got):\n%s", diff)
	}
}

func TestCompose_CategoryRemapping(t *testing.T) {
	c := New()

	plan := compose(t, c, request(domain.TraitSet{"HEAD": "170"}))
	assert.Equal(t, []string{"BASE", "HAIR"}, plan.Categories())

	plan = compose(t, c, request(domain.TraitSet{"MOUTH": "8"}))
	assert.Equal(t, []string{"BASE", "EYES"}, plan.Categories())

	// An equipped HAIR keeps its slot over a remapped HEAD.
	plan = compose(t, c, request(domain.TraitSet{"HEAD": "170", "HAIR": "30"}))
	assert.Equal(t, []string{"BASE", "HAIR"}, plan.Categories())
	assert.Equal(t, "30", plan.Layers[1].TraitID)
}

func TestCompose_DoesNotMutateRequest(t *testing.T) {
	c := New()
	traits := domain.TraitSet{"PACKS": "5", "EYES": "12"}
	req := request(traits)
	req.Tag = &domain.TagInfo{Tag: domain.TagSubZero}

	_ = compose(t, c, req)
	assert.Equal(t, domain.TraitSet{"PACKS": "5", "EYES": "12"}, req.Traits)
}

func TestCompose_SourceRouting(t *testing.T) {
	c := New()
	plan := compose(t, c, request(domain.TraitSet{"HAT": "30500", "NECK": "100002", "NOSE": "50"}))

	byCategory := map[string]domain.TraitLayer{}
	for _, l := range plan.Layers {
		byCategory[l.Category] = l
	}
	assert.Equal(t, domain.SourceExternal, byCategory["HAT"].Source)
	assert.Equal(t, "30500.svg", byCategory["HAT"].Path)
	assert.Equal(t, domain.SourceSecondary, byCategory["NECK"].Source)
	assert.Equal(t, "ogpunks/100002.svg", byCategory["NECK"].Path)
	assert.Equal(t, domain.SourceLocal, byCategory["NOSE"].Source)
}

func TestCompose_Tags(t *testing.T) {
	c := New(WithSamuraiImageBase(1000))

	t.Run("SubZERO", func(t *testing.T) {
		req := request(domain.TraitSet{"EYES": "12", "MOUTH": "40"})
		req.Tag = &domain.TagInfo{Tag: domain.TagSubZero}
		plan := compose(t, c, req)
		assert.Equal(t, "SKINTRAIT/1125.svg", plan.Base.Path)
		assert.Equal(t, []string{"BASE", "MOUTH"}, plan.Categories())

		req.Traits = domain.TraitSet{"EYES": "1124"}
		plan = compose(t, c, req)
		assert.Equal(t, []string{"BASE", "EYES"}, plan.Categories())
	})

	t.Run("SamuraiZERO", func(t *testing.T) {
		req := request(domain.TraitSet{"TOP": "77", "EYES": "12"})
		req.Tag = &domain.TagInfo{Tag: domain.TagSamuraiZero, Index: 5}
		plan := compose(t, c, req)
		require.True(t, plan.SamuraiTop)
		top := plan.Layers[len(plan.Layers)-1]
		assert.Equal(t, "1005", top.TraitID)
		assert.Equal(t, domain.SourceSamurai, top.Source)
		assert.Equal(t, "samuraizero/1005.svg", top.Path)
	})

	t.Run("SamuraiZEROIndexOutOfRange", func(t *testing.T) {
		req := request(domain.TraitSet{"TOP": "77"})
		req.Tag = &domain.TagInfo{Tag: domain.TagSamuraiZero, Index: 600}
		plan := compose(t, c, req)
		assert.False(t, plan.SamuraiTop)
		assert.Equal(t, "77", plan.Layers[len(plan.Layers)-1].TraitID)
	})
}

type fakeCatalog map[string]domain.TraitInfo

func (f fakeCatalog) Lookup(_ context.Context, id string) (domain.TraitInfo, error) {
	info, ok := f[id]
	if !ok {
		return domain.TraitInfo{}, domain.ErrNotFound
	}
	return info, nil
}

type fakeProber map[string][]string

func (f fakeProber) Variants(_ context.Context, id string) ([]string, error) {
	if id == "666" {
		return nil, errors.New("probe exploded")
	}
	return f[id], nil
}

func TestCompose_AnimatedTraits(t *testing.T) {
	catalog := fakeCatalog{
		"500": {ID: "500", Type: "Animated"},
		"501": {ID: "501", Type: "Animated"},
		"666": {ID: "666", Type: "Animated"},
	}
	prober := fakeProber{"500": {"500a", "500b", "500c"}}
	c := New(WithCatalog(catalog), WithVariantProber(prober))

	plan := compose(t, c, request(domain.TraitSet{"EYES": "500", "MOUTH": "501", "HAT": "666", "NOSE": "50"}))

	animated := plan.Animated()
	require.Len(t, animated, 1)
	assert.Equal(t, "EYES", animated[0].Category)
	assert.Equal(t, []string{"500a", "500b", "500c"}, animated[0].Variants)

	// Traits without variants, unknown traits and failed probes stay static.
	var static []string
	for _, l := range plan.Static() {
		static = append(static, l.Category)
	}
	assert.Equal(t, []string{"BASE", "HAT", "MOUTH", "NOSE"}, static)
}
