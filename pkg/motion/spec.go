package motion

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/aretw0/atelier/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Kind names a motion.
type Kind string

const (
	KindNone         Kind = "none"
	KindBounce       Kind = "bounce"
	KindCircular     Kind = "circular"
	KindOrbit        Kind = "orbit"
	KindShake        Kind = "shake"
	KindZoom         Kind = "zoom"
	KindLinear       Kind = "linear"
	KindExplode      Kind = "explode"
	KindExplodedView Kind = "exploded-view"
)

// Limits shared by every motion.
const (
	MaxFrames  = 60
	MaxDelayMs = 10000
)

// Exploded view limits.
const (
	ExplodedDefaultFrames   = 20
	ExplodedDefaultDelay    = 80
	ExplodedDefaultDistance = 60
	ExplodedDefaultSize     = 500
	ExplodedMaxFrames       = 30
	ExplodedMinDelay        = 40
	ExplodedMaxDelay        = 150
	ExplodedMinDistance     = 50
	ExplodedMaxDistance     = 120
	ExplodedMinSize         = 300
	ExplodedMaxSize         = 800
	explodedStaggerMs       = 45
)

// Spec describes one motion. Unused fields are ignored by the kind.
type Spec struct {
	Kind Kind `json:"kind" mapstructure:"kind"`
	// Target restricts the motion to one category; empty moves every layer.
	Target string `json:"target,omitempty" mapstructure:"target"`

	Frames  int `json:"frames" mapstructure:"frames"`
	DelayMs int `json:"delay_ms" mapstructure:"delay_ms"`

	Direction   string  `json:"direction,omitempty" mapstructure:"direction"`
	Distance    float64 `json:"distance,omitempty" mapstructure:"distance"`
	Bounces     float64 `json:"bounces,omitempty" mapstructure:"bounces"`
	DelayFrames int     `json:"delay_frames,omitempty" mapstructure:"delay_frames"`

	Radius    float64 `json:"radius,omitempty" mapstructure:"radius"`
	Rotations float64 `json:"rotations,omitempty" mapstructure:"rotations"`
	// Clockwise is +1 or -1.
	Clockwise int `json:"clockwise,omitempty" mapstructure:"clockwise"`

	Intensity float64 `json:"intensity,omitempty" mapstructure:"intensity"`
	Speed     float64 `json:"speed,omitempty" mapstructure:"speed"`

	MinScale float64 `json:"min_scale,omitempty" mapstructure:"min_scale"`
	MaxScale float64 `json:"max_scale,omitempty" mapstructure:"max_scale"`
	Easing   string  `json:"easing,omitempty" mapstructure:"easing"`

	X float64 `json:"x,omitempty" mapstructure:"x"`
	Y float64 `json:"y,omitempty" mapstructure:"y"`

	// Size is the output width of exploded views; distances scale with it.
	Size          int  `json:"size,omitempty" mapstructure:"size"`
	StaggerFrames int  `json:"stagger_frames,omitempty" mapstructure:"stagger_frames"`
	Overshoot     bool `json:"overshoot,omitempty" mapstructure:"overshoot"`

	// defaulted marks a spec whose defaults are filled, so explicit zeros
	// survive later WithDefaults calls.
	defaulted bool
}

// Decode builds a Spec from loosely typed input (query strings, JSON or
// tool arguments), fills defaults and validates it. Defaults only cover
// keys missing from input, so an explicit zero is kept.
func Decode(input map[string]any) (Spec, error) {
	var head Spec
	if err := decodeInto(input, &head); err != nil {
		return Spec{}, err
	}
	spec := Spec{Kind: head.Kind}.fill()
	if err := decodeInto(input, &spec); err != nil {
		return Spec{}, err
	}
	spec = spec.finish()
	if err := spec.Validate(); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

func decodeInto(input map[string]any, out *Spec) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(input); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAnimationConfig, err)
	}
	return nil
}

// WithDefaults returns the spec with kind-specific defaults filled in.
// Zero fields count as unset unless the spec came from Decode.
// Exploded views are clamped into their limits instead of rejected.
func (s Spec) WithDefaults() Spec {
	if s.defaulted {
		return s
	}
	return s.fill().finish()
}

// fill sets every zero field to its kind default.
func (s Spec) fill() Spec {
	if s.Kind == "" {
		s.Kind = KindNone
	}
	if s.Clockwise == 0 {
		s.Clockwise = 1
	}
	switch s.Kind {
	case KindBounce:
		if s.Direction == "" {
			s.Direction = "y"
		}
		if s.Distance == 0 {
			s.Distance = 50
		}
		if s.Bounces == 0 {
			s.Bounces = 3
		}
		if s.DelayFrames == 0 {
			s.DelayFrames = 2
		}
	case KindCircular:
		if s.Rotations == 0 {
			s.Rotations = 1
		}
	case KindOrbit:
		if s.Rotations == 0 {
			s.Rotations = 2
		}
	case KindShake:
		if s.Speed == 0 {
			s.Speed = 0.3
		}
	case KindZoom:
		if s.MinScale == 0 && s.MaxScale == 0 {
			s.MinScale, s.MaxScale = 1, 1.2
		}
	case KindExplode:
		if s.Distance == 0 {
			s.Distance = ExplodedDefaultDistance
		}
	case KindExplodedView:
		if s.Frames == 0 {
			s.Frames = ExplodedDefaultFrames
		}
		if s.DelayMs == 0 {
			s.DelayMs = ExplodedDefaultDelay
		}
		if s.Distance == 0 {
			s.Distance = ExplodedDefaultDistance
		}
		if s.Size == 0 {
			s.Size = ExplodedDefaultSize
		}
	}
	if s.Frames == 0 {
		s.Frames = 12
	}
	if s.DelayMs == 0 {
		s.DelayMs = 100
	}
	return s
}

// finish applies the clamps that depend on the final field values.
func (s Spec) finish() Spec {
	if s.Kind == "" {
		s.Kind = KindNone
	}
	if s.Kind == KindExplodedView {
		s = s.clampExploded()
	}
	s.defaulted = true
	return s
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

// clampExploded pulls an exploded view into its limits. A zero stagger is
// derived from the frame delay.
func (s Spec) clampExploded() Spec {
	s.Frames = clampInt(s.Frames, 1, ExplodedMaxFrames)
	s.DelayMs = clampInt(s.DelayMs, ExplodedMinDelay, ExplodedMaxDelay)
	s.Distance = math.Max(ExplodedMinDistance, math.Min(ExplodedMaxDistance, s.Distance))
	s.Size = clampInt(s.Size, ExplodedMinSize, ExplodedMaxSize)
	if s.StaggerFrames == 0 {
		s.StaggerFrames = max(1, int(math.Round(float64(explodedStaggerMs)/float64(s.DelayMs))))
	}
	s.Overshoot = true
	return s
}

// ScaledDistance is the displacement in output pixels. Exploded views
// scale their distance with the output size.
func (s Spec) ScaledDistance() float64 {
	if s.Kind == KindExplodedView && s.Size > 0 {
		return math.Round(s.Distance * float64(s.Size) / 1000)
	}
	return s.Distance
}

// Validate rejects specs that cannot produce frames.
func (s Spec) Validate() error {
	switch s.Kind {
	case KindNone, KindBounce, KindCircular, KindOrbit, KindShake, KindZoom, KindLinear, KindExplode, KindExplodedView:
	default:
		return fmt.Errorf("%w: unknown motion kind %q", domain.ErrAnimationConfig, s.Kind)
	}
	if s.Frames < 1 || s.Frames > MaxFrames {
		return fmt.Errorf("%w: frames must be in [1, %d], got %d", domain.ErrAnimationConfig, MaxFrames, s.Frames)
	}
	if s.DelayMs <= 0 || s.DelayMs > MaxDelayMs {
		return fmt.Errorf("%w: delay must be in (0, %d] ms, got %d", domain.ErrAnimationConfig, MaxDelayMs, s.DelayMs)
	}
	switch s.Direction {
	case "", "x", "y", "both":
	default:
		return fmt.Errorf("%w: unknown direction %q", domain.ErrAnimationConfig, s.Direction)
	}
	if _, ok := EasingByName(s.Easing); !ok {
		return fmt.Errorf("%w: unknown easing %q", domain.ErrAnimationConfig, s.Easing)
	}
	for name, v := range s.floats() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be finite, got %v", domain.ErrAnimationConfig, name, v)
		}
	}
	if s.MinScale < 0 || s.MaxScale < 0 {
		return fmt.Errorf("%w: scales must be positive", domain.ErrAnimationConfig)
	}
	if s.Clockwise != 1 && s.Clockwise != -1 {
		return fmt.Errorf("%w: clockwise must be 1 or -1, got %d", domain.ErrAnimationConfig, s.Clockwise)
	}
	if s.DelayFrames < 0 || s.StaggerFrames < 0 {
		return fmt.Errorf("%w: frame offsets must not be negative", domain.ErrAnimationConfig)
	}
	return nil
}

func (s Spec) floats() map[string]float64 {
	return map[string]float64{
		"distance":  s.Distance,
		"bounces":   s.Bounces,
		"radius":    s.Radius,
		"rotations": s.Rotations,
		"intensity": s.Intensity,
		"speed":     s.Speed,
		"min_scale": s.MinScale,
		"max_scale": s.MaxScale,
		"x":         s.X,
		"y":         s.Y,
	}
}

// IsMotion reports whether the spec moves layers at all.
func (s Spec) IsMotion() bool {
	return s.Kind != "" && s.Kind != KindNone
}

// Key is the canonical encoding of the spec, used in fingerprints.
// Specs that JSON cannot encode (non-finite floats) fall back to their Go
// syntax, which still tells them apart.
func (s Spec) Key() string {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Sprintf("%#v", s)
	}
	return string(b)
}
