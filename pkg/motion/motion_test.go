package motion

import (
	"math"
	"testing"

	"github.com/aretw0/atelier/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Defaults(t *testing.T) {
	spec, err := Decode(map[string]any{"kind": "bounce"})
	require.NoError(t, err)
	assert.Equal(t, KindBounce, spec.Kind)
	assert.Equal(t, "y", spec.Direction)
	assert.Equal(t, 50.0, spec.Distance)
	assert.Equal(t, 3.0, spec.Bounces)
	assert.Equal(t, 12, spec.Frames)
	assert.Equal(t, 2, spec.DelayFrames)
	assert.Equal(t, 100, spec.DelayMs)
}

func TestDecode_WeakTypes(t *testing.T) {
	spec, err := Decode(map[string]any{"kind": "orbit", "radius": "12.5", "frames": "8"})
	require.NoError(t, err)
	assert.Equal(t, 12.5, spec.Radius)
	assert.Equal(t, 8, spec.Frames)
	assert.Equal(t, 2.0, spec.Rotations)
}

func TestDecode_Rejects(t *testing.T) {
	inputs := []map[string]any{
		{"kind": "wobble"},
		{"kind": "bounce", "frames": 500},
		{"kind": "bounce", "direction": "z"},
		{"kind": "linear", "easing": "elastic"},
		{"kind": "zoom", "unknown_field": 1},
		{"kind": "shake", "delay_ms": -5},
	}
	for _, in := range inputs {
		_, err := Decode(in)
		assert.ErrorIs(t, err, domain.ErrAnimationConfig, "%v", in)
	}
}

func TestDecode_ExplicitZerosKept(t *testing.T) {
	spec, err := Decode(map[string]any{"kind": "bounce", "delay_frames": 0})
	require.NoError(t, err)
	assert.Zero(t, spec.DelayFrames)
	assert.Equal(t, 50.0, spec.Distance)

	// Defaults already filled are not applied again.
	again := spec.WithDefaults()
	assert.Zero(t, again.DelayFrames)
	assert.Equal(t, spec.Key(), again.Key())

	spec, err = Decode(map[string]any{"kind": "zoom", "min_scale": 0.5})
	require.NoError(t, err)
	assert.Equal(t, 0.5, spec.MinScale)
	assert.Equal(t, 1.2, spec.MaxScale)
}

func TestDecode_Clockwise(t *testing.T) {
	spec, err := Decode(map[string]any{"kind": "orbit", "clockwise": -1})
	require.NoError(t, err)
	assert.Equal(t, -1, spec.Clockwise)

	for _, cw := range []any{0, 2, -3} {
		_, err := Decode(map[string]any{"kind": "orbit", "clockwise": cw})
		assert.ErrorIs(t, err, domain.ErrAnimationConfig, "clockwise %v", cw)
	}
}

func TestValidate_NonFinite(t *testing.T) {
	mutate := map[string]func(s *Spec){
		"distance":  func(s *Spec) { s.Distance = math.NaN() },
		"bounces":   func(s *Spec) { s.Bounces = math.Inf(1) },
		"radius":    func(s *Spec) { s.Radius = math.Inf(-1) },
		"rotations": func(s *Spec) { s.Rotations = math.NaN() },
		"intensity": func(s *Spec) { s.Intensity = math.Inf(1) },
		"speed":     func(s *Spec) { s.Speed = math.NaN() },
		"min_scale": func(s *Spec) { s.MinScale = math.NaN() },
		"max_scale": func(s *Spec) { s.MaxScale = math.Inf(1) },
		"x":         func(s *Spec) { s.X = math.NaN() },
		"y":         func(s *Spec) { s.Y = math.Inf(-1) },
	}
	for name, m := range mutate {
		t.Run(name, func(t *testing.T) {
			spec := Spec{Kind: KindLinear}.WithDefaults()
			m(&spec)
			err := spec.Validate()
			assert.ErrorIs(t, err, domain.ErrAnimationConfig)
			assert.ErrorContains(t, err, name)
			assert.NotEmpty(t, spec.Key())
		})
	}

	_, err := Decode(map[string]any{"kind": "linear", "x": "NaN"})
	assert.ErrorIs(t, err, domain.ErrAnimationConfig)
}

func TestKey_DistinctForNonFinite(t *testing.T) {
	nan := Spec{Kind: KindLinear, X: math.NaN()}
	inf := Spec{Kind: KindLinear, X: math.Inf(1)}
	assert.NotEqual(t, nan.Key(), inf.Key())
	assert.NotEqual(t, "", nan.Key())
}

func TestDecode_ExplodedViewClamps(t *testing.T) {
	spec, err := Decode(map[string]any{"kind": "exploded-view"})
	require.NoError(t, err)
	assert.Equal(t, 20, spec.Frames)
	assert.Equal(t, 80, spec.DelayMs)
	assert.Equal(t, 60.0, spec.Distance)
	assert.Equal(t, 500, spec.Size)
	assert.Equal(t, 1, spec.StaggerFrames)
	assert.Equal(t, 30.0, spec.ScaledDistance())

	spec, err = Decode(map[string]any{"kind": "exploded-view", "frames": 99, "delay_ms": 10, "distance": 500, "size": 2000})
	require.NoError(t, err)
	assert.Equal(t, 30, spec.Frames)
	assert.Equal(t, 40, spec.DelayMs)
	assert.Equal(t, 120.0, spec.Distance)
	assert.Equal(t, 800, spec.Size)
	assert.Equal(t, 1, spec.StaggerFrames)
	assert.Equal(t, 96.0, spec.ScaledDistance())
}

func TestBounce(t *testing.T) {
	spec := Spec{Kind: KindBounce, Distance: 10, Bounces: 1, Direction: "y"}.WithDefaults()
	spec.DelayFrames = 0

	start := Apply(spec, 0, 5)
	assert.InDelta(t, 0, start.Y, 1e-9)
	mid := Apply(spec, 2, 5)
	assert.InDelta(t, 10, mid.Y, 1e-9)
	assert.Zero(t, mid.X)

	// A delay shifts the cycle and wraps negative frames.
	spec.DelayFrames = 2
	assert.InDelta(t, 10, Apply(spec, 4, 5).Y, 1e-9)
	assert.Equal(t, Apply(spec, 0, 5), Apply(spec, 5, 5))

	spec.Direction = "both"
	both := Apply(spec, 4, 5)
	assert.InDelta(t, 7, both.X, 1e-9)
	assert.InDelta(t, 10, both.Y, 1e-9)
}

func TestBounce_BodyLeadsTraits(t *testing.T) {
	spec, err := Decode(map[string]any{"kind": "bounce", "bounces": 1, "distance": 10, "frames": 5})
	require.NoError(t, err)
	require.Equal(t, 2, spec.DelayFrames)

	base := ApplyLayer(spec, Layer{Category: domain.CategoryBase, Count: 3}, 2, 5)
	skin := ApplyLayer(spec, Layer{Category: domain.CategorySkinTrait, Count: 3}, 2, 5)
	eyes := ApplyLayer(spec, Layer{Category: domain.CategoryEyes, Count: 3}, 2, 5)
	assert.InDelta(t, 10, base.Y, 1e-9)
	assert.Equal(t, base, skin)
	assert.InDelta(t, 0, eyes.Y, 1e-9)

	// The trait reaches the peak DelayFrames later.
	assert.Equal(t, base, ApplyLayer(spec, Layer{Category: domain.CategoryEyes, Count: 3}, 4, 5))
}

func TestCircular(t *testing.T) {
	spec := Spec{Kind: KindCircular, Radius: 10}.WithDefaults()
	first := Apply(spec, 0, 5)
	assert.InDelta(t, 10, first.X, 1e-9)
	assert.InDelta(t, 0, first.Y, 1e-9)

	quarter := Apply(spec, 1, 5)
	assert.InDelta(t, 0, quarter.X, 1e-9)
	assert.InDelta(t, 10, quarter.Y, 1e-9)

	spec.Clockwise = -1
	assert.InDelta(t, -10, Apply(spec, 1, 5).Y, 1e-9)
}

func TestShakeAndZoom(t *testing.T) {
	shake := Spec{Kind: KindShake, Intensity: 4}.WithDefaults()
	assert.InDelta(t, 4, Apply(shake, 0, 10).X, 1e-9)
	assert.InDelta(t, 4, Apply(shake, 0, 10).Y, 1e-9)
	assert.InDelta(t, 4*(math.Sin(0.3)+math.Cos(0.6)), Apply(shake, 1, 10).X, 1e-9)

	zoom := Spec{Kind: KindZoom, MinScale: 1, MaxScale: 2}.WithDefaults()
	assert.InDelta(t, 1, Apply(zoom, 0, 3).Scale, 1e-9)
	assert.InDelta(t, 1.5, Apply(zoom, 1, 3).Scale, 1e-9)
	assert.InDelta(t, 2, Apply(zoom, 2, 3).Scale, 1e-9)

	zoom.Easing = "bounce"
	assert.InDelta(t, 1, Apply(zoom, 2, 3).Scale, 1e-9)
}

func TestLinear(t *testing.T) {
	spec := Spec{Kind: KindLinear, X: 20, Y: -10}.WithDefaults()
	end := Apply(spec, 4, 5)
	assert.InDelta(t, 20, end.X, 1e-9)
	assert.InDelta(t, -10, end.Y, 1e-9)
	assert.InDelta(t, 5, Apply(spec, 1, 5).X, 1e-9)
}

func TestExplode(t *testing.T) {
	spec := Spec{Kind: KindExplode, Distance: 40}.WithDefaults()
	start := ApplyLayer(spec, Layer{Index: 1, Count: 4}, 0, 5)
	assert.True(t, start.IsIdentity())

	end := ApplyLayer(spec, Layer{Index: 1, Count: 4}, 4, 5)
	assert.InDelta(t, 0, end.X, 1e-9)
	assert.InDelta(t, 40, end.Y, 1e-9)
	assert.InDelta(t, -6, end.Rotation, 1e-9)
	assert.InDelta(t, 0.95, end.Scale, 1e-9)
}

func TestPhaseAt(t *testing.T) {
	tests := []struct {
		p     float64
		phase Phase
		local float64
	}{
		{0, PhaseFlat, 0},
		{0.15, PhasePrep, 0},
		{0.45, PhaseOpen, 0.5},
		{0.7, PhaseHold, 0.5},
		{1, PhaseClose, 1},
		{2, PhaseClose, 1},
	}
	for _, tt := range tests {
		phase, local := PhaseAt(tt.p)
		assert.Equal(t, tt.phase, phase, "p=%v", tt.p)
		assert.InDelta(t, tt.local, local, 1e-9, "p=%v", tt.p)
	}
}

func TestOpening(t *testing.T) {
	assert.Zero(t, Opening(0.1, true))
	assert.InDelta(t, 1, Opening(0.7, true), 1e-9)
	assert.InDelta(t, 0, Opening(1, true), 1e-9)
	// Overshoot peaks above the hold level before the hold phase.
	assert.Greater(t, Opening(0.57, true), Opening(0.57, false))
	assert.Greater(t, Opening(0.57, true), 1.0)
}

func TestExplodedView(t *testing.T) {
	spec, err := Decode(map[string]any{"kind": "exploded-view"})
	require.NoError(t, err)

	layers := []Layer{
		{Index: 0, Count: 3, Category: "BACKGROUND"},
		{Index: 1, Count: 3, Category: "EYES"},
		{Index: 2, Count: 3, Category: "TOP"},
	}

	t.Run("FlatAtStartAndEnd", func(t *testing.T) {
		for _, l := range layers {
			first := ApplyLayer(spec, l, 0, spec.Frames)
			assert.Zero(t, first.X)
			assert.Zero(t, first.Y)
			last := ApplyLayer(spec, l, spec.Frames-1, spec.Frames)
			assert.InDelta(t, 1, last.Scale, 1e-9)
		}
	})

	t.Run("IntegerOffsetsAndBoundedRotation", func(t *testing.T) {
		for f := 0; f < spec.Frames; f++ {
			for _, l := range layers {
				tr := ApplyLayer(spec, l, f, spec.Frames)
				assert.Equal(t, math.Round(tr.X), tr.X)
				assert.Equal(t, math.Round(tr.Y), tr.Y)
				assert.LessOrEqual(t, math.Abs(tr.Rotation), maxRotation)
			}
		}
	})

	t.Run("BackAndFrontMoveApart", func(t *testing.T) {
		hold := 13
		back := ApplyLayer(spec, layers[0], hold, spec.Frames)
		front := ApplyLayer(spec, layers[2], hold, spec.Frames)
		assert.Greater(t, back.Y, 0.0)
		assert.Less(t, front.Y, 0.0)
		assert.Less(t, back.Scale, 1.0)
		assert.Greater(t, front.Scale, 1.0)
	})

	t.Run("Deterministic", func(t *testing.T) {
		for f := 0; f < spec.Frames; f++ {
			assert.Equal(t, ApplyLayer(spec, layers[1], f, spec.Frames), ApplyLayer(spec, layers[1], f, spec.Frames))
		}
	})
}

func TestApplies(t *testing.T) {
	assert.False(t, Spec{Kind: KindNone}.Applies("EYES"))
	assert.True(t, Spec{Kind: KindBounce}.Applies("EYES"))
	assert.True(t, Spec{Kind: KindBounce, Target: "EYES"}.Applies("EYES"))
	assert.False(t, Spec{Kind: KindBounce, Target: "EYES"}.Applies("HAT"))
}
