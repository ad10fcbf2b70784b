package motion

import (
	"math"

	"github.com/aretw0/atelier/pkg/domain"
)

const maxRotation = 6.0

// Phase is one segment of the exploded-view timeline.
type Phase int

const (
	PhaseFlat Phase = iota
	PhasePrep
	PhaseOpen
	PhaseHold
	PhaseClose
)

func (p Phase) String() string {
	switch p {
	case PhaseFlat:
		return "flat"
	case PhasePrep:
		return "prep"
	case PhaseOpen:
		return "open"
	case PhaseHold:
		return "hold"
	}
	return "close"
}

var phaseBounds = [...]float64{0, 0.15, 0.30, 0.60, 0.80, 1}

// PhaseAt returns the phase containing p and the progress within it.
func PhaseAt(p float64) (Phase, float64) {
	p = clamp01(p)
	for i := len(phaseBounds) - 2; i >= 0; i-- {
		lo, hi := phaseBounds[i], phaseBounds[i+1]
		if p >= lo {
			return Phase(i), clamp01((p - lo) / (hi - lo))
		}
	}
	return PhaseFlat, 0
}

// Opening is how far the stack is pulled apart at p, roughly in [0,1].
// The open phase overshoots slightly before settling when overshoot is set.
func Opening(p float64, overshoot bool) float64 {
	phase, q := PhaseAt(p)
	switch phase {
	case PhasePrep:
		return 0.1 * SineInOut(q)
	case PhaseOpen:
		e := 0.1 + 0.9*QuintOut(q)
		if overshoot && q > 0.8 {
			e += 0.06 * math.Sin((q-0.8)/0.2*math.Pi)
		}
		return e
	case PhaseHold:
		return 1
	case PhaseClose:
		return 1 - QuintInOut(q)
	}
	return 0
}

type band struct{ lo, hi float64 }

// Depth bands run from -1 (back) to 1 (front).
var (
	bandBack     = band{-1, -0.85}
	bandBody     = band{-0.35, -0.1}
	bandFeatures = band{0.15, 0.45}
	bandGear     = band{0.3, 0.6}
	bandHeadwear = band{0.55, 0.8}
	bandFront    = band{0.8, 1}
)

var zBands = map[string]band{
	domain.CategoryBackground:   bandBack,
	domain.CategoryBase:         bandBody,
	domain.CategorySkin:         bandBody,
	domain.CategorySkinOverlay:  bandBody,
	domain.CategorySkinTrait:    bandBody,
	domain.CategoryBeard:        bandFeatures,
	domain.CategoryMouth:        bandFeatures,
	domain.CategoryNose:         bandFeatures,
	domain.CategoryEyes:         bandFeatures,
	domain.CategoryGear:         bandGear,
	domain.CategoryPromotedGear: bandGear,
	domain.CategorySwag:         bandGear,
	domain.CategoryNeck:         bandGear,
	domain.CategoryEar:          bandGear,
	domain.CategoryRandomShit:   bandGear,
	domain.CategoryHair:         bandHeadwear,
	domain.CategoryHead:         bandHeadwear,
	domain.CategoryHat:          bandHeadwear,
	domain.CategoryTop:          bandFront,
	domain.CategoryFloppyDiscs:  bandFront,
	domain.CategoryPagers:       bandFront,
	domain.CategorySerums:       bandFront,
}

// Depth places a layer inside its category band, spread by stack index.
func Depth(layer Layer) float64 {
	b, ok := zBands[layer.Category]
	if !ok {
		b = bandFeatures
	}
	if layer.Count <= 1 {
		return (b.lo + b.hi) / 2
	}
	return b.lo + (b.hi-b.lo)*float64(layer.Index)/float64(layer.Count-1)
}

// explodedView fans the stack along a diagonal depth axis. Front layers
// start first; back layers trail by StaggerFrames each.
func explodedView(s Spec, layer Layer, frame, total int) domain.Transform {
	t := domain.Identity()
	count := max(layer.Count, 1)
	span := total - 1
	delay := 0
	if stagger := (count - 1) * s.StaggerFrames; stagger < span {
		span -= stagger
		delay = (count - 1 - layer.Index) * s.StaggerFrames
	}
	p := 0.0
	if span > 0 {
		p = clamp01(float64(frame-delay) / float64(span))
	}
	e := Opening(p, s.Overshoot)
	z := Depth(layer)
	d := s.ScaledDistance()

	t.X = math.Round(z * d * 0.5 * e)
	t.Y = math.Round(-z * d * e)
	t.Scale = 1 + z*0.08*e
	t.Rotation = math.Max(-maxRotation, math.Min(maxRotation, z*maxRotation*e))
	return t
}
