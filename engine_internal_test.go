package atelier

import (
	"testing"

	"github.com/aretw0/atelier/pkg/compose"
	"github.com/aretw0/atelier/pkg/domain"
	"github.com/aretw0/atelier/pkg/motion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stack() []domain.TraitLayer {
	return []domain.TraitLayer{
		{Category: domain.CategoryBackground, TraitID: "1"},
		{Category: domain.CategoryBase},
		{Category: domain.CategoryEyes, TraitID: "12"},
	}
}

func TestApplyMotion_SkipsBackground(t *testing.T) {
	spec, err := motion.Decode(map[string]any{"kind": "linear", "x": 10, "frames": 3})
	require.NoError(t, err)
	frames := make([]domain.Frame, 3)
	for i := range frames {
		frames[i].Index = i
	}

	applyMotion(frames, stack(), spec, 1000)
	last := frames[2].Transforms
	assert.NotContains(t, last, "BACKGROUND:1")
	assert.InDelta(t, 10, last[domain.CategoryBase].X, 1e-9)
	assert.InDelta(t, 10, last["EYES:12"].X, 1e-9)
}

func TestApplyMotion_Target(t *testing.T) {
	spec, err := motion.Decode(map[string]any{"kind": "linear", "y": 4, "frames": 2, "target": "EYES"})
	require.NoError(t, err)
	frames := []domain.Frame{{Index: 0}, {Index: 1}}

	applyMotion(frames, stack(), spec, 1000)
	assert.Len(t, frames[1].Transforms, 1)
	assert.InDelta(t, 4, frames[1].Transforms["EYES:12"].Y, 1e-9)
}

func TestApplyMotion_ExplodedViewScalesToCanvas(t *testing.T) {
	spec, err := motion.Decode(map[string]any{"kind": "exploded-view", "size": 500})
	require.NoError(t, err)
	frames := make([]domain.Frame, spec.Frames)
	for i := range frames {
		frames[i].Index = i
	}
	layers := stack()

	applyMotion(frames, layers, spec, 1000)
	hold := 13
	want := motion.ApplyLayer(spec, motion.Layer{Index: 0, Count: 3, Category: domain.CategoryBackground}, hold, spec.Frames)
	got := frames[hold].Transforms["BACKGROUND:1"]
	assert.InDelta(t, want.Y*2, got.Y, 1e-9)
	assert.Equal(t, want.Scale, got.Scale)
}

func TestApplyMotion_BounceTraitsTrailBody(t *testing.T) {
	spec, err := motion.Decode(map[string]any{"kind": "bounce", "frames": 6})
	require.NoError(t, err)
	frames := make([]domain.Frame, spec.Frames)
	for i := range frames {
		frames[i].Index = i
	}
	applyMotion(frames, stack(), spec, 1000)
	assert.NotEqual(t, frames[1].Transforms[domain.CategoryBase], frames[1].Transforms["EYES:12"])
	assert.Equal(t, frames[1].Transforms[domain.CategoryBase], frames[3].Transforms["EYES:12"])
}

func TestApplyMotion_NoMotion(t *testing.T) {
	frames := []domain.Frame{{Index: 0}}
	applyMotion(frames, stack(), motion.Spec{}.WithDefaults(), 1000)
	assert.Nil(t, frames[0].Transforms)
}

func TestBuildJob(t *testing.T) {
	req := domain.RenderRequest{
		TokenID:    3,
		Generation: 1,
		Skin:       domain.Skin{ID: "3", Name: "Alien"},
		Traits:     domain.TraitSet{"EYES": "12", "PACKS": "31000", "SKINTRAIT": "1125"},
		Serums:     []domain.SerumEvent{{Success: true, Mutation: domain.MutationGoldenAdrian}},
		Tag:        &domain.TagInfo{Tag: domain.TagSamuraiZero, Index: 4},
	}
	job := buildJob(req, compose.New().Resolve(req))

	assert.Equal(t, 3, job.TokenID)
	assert.Equal(t, "Alien", job.SkinType)
	assert.Equal(t, "SKINTRAIT/1125.svg", job.BaseImagePath)
	assert.Equal(t, "SKINTRAIT/1125.svg", job.SkinTraitPath)
	assert.Equal(t, "labimages/12.svg", job.TraitsMapping["EYES"])
	assert.Equal(t, "31000.svg", job.TraitsMapping["SWAG"])
	assert.Equal(t, domain.MutationGoldenAdrian, job.AppliedSerum)
	assert.True(t, job.SerumSuccess)
	require.NotNil(t, job.SamuraiImageIndex)
	assert.Equal(t, 4, *job.SamuraiImageIndex)
	assert.Equal(t, "labimages/4.svg", job.TraitsMapping["TOP"])
	assert.False(t, job.Animated())
}

func TestAnimationPayload(t *testing.T) {
	spec, err := motion.Decode(map[string]any{"kind": "bounce"})
	require.NoError(t, err)
	payload, err := animationPayload(spec)
	require.NoError(t, err)
	assert.EqualValues(t, motion.KindBounce, payload["kind"])
	assert.Equal(t, 12, payload["frames"])
	assert.Equal(t, 50.0, payload["distance"])
}
