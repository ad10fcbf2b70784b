package fingerprint

import (
	"testing"

	"github.com/aretw0/atelier/pkg/compose"
	"github.com/aretw0/atelier/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func compute(req domain.RenderRequest) string {
	return Compute(req, compose.New().Resolve(req))
}

func fullRequest() domain.RenderRequest {
	return domain.RenderRequest{
		TokenID:    7,
		Generation: 1,
		Skin:       domain.Skin{ID: "2", Name: "Dark"},
		Traits:     domain.TraitSet{"EYES": "12", "HAT": "60", "PACKS": "5"},
		Serums: []domain.SerumEvent{
			{Success: true, Mutation: "GoldenAdrian"},
			{Success: true, Mutation: "Zombie"},
			{Success: true, Mutation: "AdrianGF"},
		},
		Modes:    domain.Modes{Glow: true, Banana: true},
		Messages: "<gm> & hi",
	}
}

func TestCompute_Golden(t *testing.T) {
	assert.Equal(t, "5bfd5625b672bad8", compute(domain.RenderRequest{}))
	assert.Equal(t, "29f44345d150dff4", compute(fullRequest()))
}

func TestCompute_Stable(t *testing.T) {
	req := fullRequest()
	first := compute(req)
	for range 10 {
		assert.Equal(t, first, compute(req))
	}
	assert.Len(t, first, Length)
}

func TestCompute_Sensitivity(t *testing.T) {
	base := compute(fullRequest())

	mutations := map[string]func(*domain.RenderRequest){
		"mode":       func(r *domain.RenderRequest) { r.Modes.Shadow = true },
		"trait":      func(r *domain.RenderRequest) { r.Traits["EYES"] = "13" },
		"skin":       func(r *domain.RenderRequest) { r.Skin.Name = "Albino" },
		"generation": func(r *domain.RenderRequest) { r.Generation = 2 },
		"serum":      func(r *domain.RenderRequest) { r.Serums = r.Serums[:1] },
		"skintrait":  func(r *domain.RenderRequest) { r.Traits["SKINTRAIT"] = "1125" },
		"tag":        func(r *domain.RenderRequest) { r.Tag = &domain.TagInfo{Tag: "Other"} },
		"message":    func(r *domain.RenderRequest) { r.Messages = "" },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			req := fullRequest()
			mutate(&req)
			assert.NotEqual(t, base, compute(req))
		})
	}
}

func TestCompute_IgnoresIrrelevantInputs(t *testing.T) {
	base := compute(fullRequest())

	// Banana is dropped while a message is present.
	req := fullRequest()
	req.Modes.Banana = false
	assert.Equal(t, base, compute(req))

	// Serums other than AdrianGF and GoldenAdrian are not hashed.
	req = fullRequest()
	req.Serums = []domain.SerumEvent{req.Serums[0], req.Serums[2]}
	assert.Equal(t, base, compute(req))

	// Token id is part of the filename, not the fingerprint.
	req = fullRequest()
	req.TokenID = 8
	assert.Equal(t, base, compute(req))
}

func TestCompute_TagsHashFinalTraits(t *testing.T) {
	req := domain.RenderRequest{Traits: domain.TraitSet{"EYES": "12"}, Tag: &domain.TagInfo{Tag: domain.TagSubZero}}
	resolved := compose.New().Resolve(req)
	fields := Fields(req, resolved)
	assert.Equal(t, "", fields["traits"])
	assert.Equal(t, "1125", fields["skintraitId"])
	assert.Equal(t, "SubZERO", fields["tag"])
	assert.Equal(t, "", fields["tagIndex"])

	req = domain.RenderRequest{Traits: domain.TraitSet{"TOP": "1"}, Tag: &domain.TagInfo{Tag: domain.TagSamuraiZero, Index: 12}}
	fields = Fields(req, compose.New(compose.WithSamuraiImageBase(500)).Resolve(req))
	assert.Equal(t, "TOP:512", fields["traits"])
	assert.Equal(t, "12", fields["tagIndex"])
}

func TestComputeAnimated(t *testing.T) {
	req := fullRequest()
	resolved := compose.New().Resolve(req)
	static := Compute(req, resolved)
	a := ComputeAnimated(req, resolved, `{"kind":"bounce"}`)
	b := ComputeAnimated(req, resolved, `{"kind":"orbit"}`)
	assert.NotEqual(t, static, a)
	assert.NotEqual(t, a, b)
}

func TestTraitHash(t *testing.T) {
	assert.Equal(t, "126c16588f307709", TraitHash("42"))
	assert.Equal(t, "42_trait_126c16588f307709.png", TraitFilename("42", TraitHash("42")))
}

func TestFilenames(t *testing.T) {
	name := BuildFilename(123, "a1b2c3d4e5f6a7b8", ExtPNG)
	assert.Equal(t, "123_a1b2c3d4e5f6a7b8.png", name)

	fp, ok := ExtractFingerprint(name)
	assert.True(t, ok)
	assert.Equal(t, "a1b2c3d4e5f6a7b8", fp)

	id, fp, ext, ok := ParseFilename("9_0000000000000000.gif")
	assert.True(t, ok)
	assert.Equal(t, 9, id)
	assert.Equal(t, "0000000000000000", fp)
	assert.Equal(t, ExtGIF, ext)

	for _, bad := range []string{"123_A1B2C3D4E5F6A7B8.png", "123_abc.png", "x_a1b2c3d4e5f6a7b8.png", "123_a1b2c3d4e5f6a7b8.jpg", "123_normal.png"} {
		_, ok := ExtractFingerprint(bad)
		assert.False(t, ok, bad)
	}
}

func TestRenderType(t *testing.T) {
	assert.Equal(t, TypeNormal, RenderType(domain.Modes{}))
	assert.Equal(t, TypeBanana, RenderType(domain.Modes{Banana: true, Blackout: true, Closeup: true}))
	assert.Equal(t, TypeUV, RenderType(domain.Modes{UV: true, BN: true}))
	assert.Equal(t, TypeShadow, RenderType(domain.Modes{Shadow: true, Closeup: true}))
	assert.Equal(t, TypeCloseup, RenderType(domain.Modes{Closeup: true}))
	assert.Equal(t, "5_glow.png", ToggleFilename(5, RenderType(domain.Modes{Glow: true})))
}
