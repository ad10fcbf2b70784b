package domain

// Transform is the 2D placement of one layer in one frame.
// X and Y are pixel offsets on the output canvas, Rotation is in degrees.
type Transform struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Scale    float64 `json:"scale"`
	Rotation float64 `json:"rotation"`
	Opacity  float64 `json:"opacity"`
}

// Identity returns the transform that leaves a layer untouched.
func Identity() Transform {
	return Transform{Scale: 1, Opacity: 1}
}

// IsIdentity reports whether t leaves a layer untouched.
func (t Transform) IsIdentity() bool {
	return t == Identity()
}

// Frame is one frame of an animated render.
type Frame struct {
	Index int `json:"index"`
	// Transforms is keyed by TraitLayer.ID. Missing layers use Identity.
	Transforms map[string]Transform `json:"transforms,omitempty"`
	// Variants selects, per animated layer, the variant index painted in this frame.
	Variants map[string]int `json:"variants,omitempty"`
	DelayMs  int            `json:"delay_ms"`
}

// TransformFor returns the transform of a layer in this frame.
func (f Frame) TransformFor(layerID string) Transform {
	if t, ok := f.Transforms[layerID]; ok {
		return t
	}
	return Identity()
}
