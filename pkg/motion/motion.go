package motion

import (
	"math"

	"github.com/aretw0/atelier/pkg/domain"
)

// Layer locates a layer inside its stack. Single-layer motions ignore it.
type Layer struct {
	Index    int
	Count    int
	Category string
}

// Progress is frame/(total-1); a single frame has progress zero.
func Progress(frame, total int) float64 {
	if total <= 1 {
		return 0
	}
	return float64(frame) / float64(total-1)
}

// Applies reports whether the spec moves the given layer.
func (s Spec) Applies(category string) bool {
	if !s.IsMotion() {
		return false
	}
	return s.Target == "" || s.Target == category
}

// Apply computes the transform of a single moving layer at frame of total.
func Apply(spec Spec, frame, total int) domain.Transform {
	return ApplyLayer(spec, Layer{Count: 1}, frame, total)
}

// ApplyLayer computes the transform of one layer of a stack. Every motion is
// a pure function of its inputs, so repeated calls are bit-identical.
func ApplyLayer(spec Spec, layer Layer, frame, total int) domain.Transform {
	switch spec.Kind {
	case KindBounce:
		return bounce(spec, bounceDelay(spec, layer), frame, total)
	case KindCircular, KindOrbit:
		return circular(spec, frame, total)
	case KindShake:
		return shake(spec, frame)
	case KindZoom:
		return zoom(spec, frame, total)
	case KindLinear:
		return linear(spec, frame, total)
	case KindExplode:
		return explode(spec, layer, frame, total)
	case KindExplodedView:
		return explodedView(spec, layer, frame, total)
	}
	return domain.Identity()
}

// bounceDelay is the lag of layer behind the body. The body (base, skin and
// skin trait) leads; every other layer trails by DelayFrames.
func bounceDelay(s Spec, layer Layer) int {
	switch layer.Category {
	case domain.CategoryBase, domain.CategorySkin, domain.CategorySkinTrait:
		return 0
	}
	return s.DelayFrames
}

func bounce(s Spec, delay, frame, total int) domain.Transform {
	t := domain.Identity()
	if total <= 0 {
		return t
	}
	effective := frame - delay
	norm := ((effective % total) + total) % total
	offset := s.Distance * math.Abs(math.Sin(Progress(norm, total)*math.Pi*s.Bounces))
	switch s.Direction {
	case "x":
		t.X = offset
	case "both":
		t.X = offset * 0.7
		t.Y = offset
	default:
		t.Y = offset
	}
	return t
}

func circular(s Spec, frame, total int) domain.Transform {
	t := domain.Identity()
	angle := Progress(frame, total) * s.Rotations * 2 * math.Pi * float64(s.Clockwise)
	t.X = math.Cos(angle) * s.Radius
	t.Y = math.Sin(angle) * s.Radius
	return t
}

func shake(s Spec, frame int) domain.Transform {
	t := domain.Identity()
	seed := float64(frame) * s.Speed
	t.X = (math.Sin(seed) + math.Cos(seed*2)) * s.Intensity
	t.Y = (math.Cos(seed) + math.Sin(seed*3)) * s.Intensity
	return t
}

func zoom(s Spec, frame, total int) domain.Transform {
	t := domain.Identity()
	p := Progress(frame, total)
	if s.Easing == "bounce" {
		p = AbsSineBounce(p)
	}
	t.Scale = s.MinScale + (s.MaxScale-s.MinScale)*p
	return t
}

func linear(s Spec, frame, total int) domain.Transform {
	t := domain.Identity()
	p := Progress(frame, total)
	if ease, ok := EasingByName(s.Easing); ok && s.Easing != "bounce" {
		p = ease(p)
	}
	t.X = s.X * p
	t.Y = s.Y * p
	return t
}

// explode pushes each layer outward along its own angle, evenly spread by
// stack index.
func explode(s Spec, layer Layer, frame, total int) domain.Transform {
	t := domain.Identity()
	count := max(layer.Count, 1)
	angle := float64(layer.Index) / float64(count) * 2 * math.Pi
	eased := Progress(frame, total)
	if ease, ok := EasingByName(s.Easing); ok {
		eased = ease(eased)
	}
	d := s.Distance * eased
	t.X = math.Cos(angle) * d
	t.Y = math.Sin(angle) * d
	sign := 1.0
	if layer.Index%2 == 1 {
		sign = -1
	}
	t.Rotation = eased * maxRotation * sign
	t.Scale = 1 - 0.05*eased
	return t
}
