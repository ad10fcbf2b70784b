package domain

import (
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Trait categories known to the composition rules.
const (
	CategoryBackground   = "BACKGROUND"
	CategoryBeard        = "BEARD"
	CategoryEar          = "EAR"
	CategoryGear         = "GEAR"
	CategoryHead         = "HEAD"
	CategoryRandomShit   = "RANDOMSHIT"
	CategorySwag         = "SWAG"
	CategoryHair         = "HAIR"
	CategoryHat          = "HAT"
	CategorySkin         = "SKIN"
	CategorySerums       = "SERUMS"
	CategoryEyes         = "EYES"
	CategoryMouth        = "MOUTH"
	CategoryNeck         = "NECK"
	CategoryNose         = "NOSE"
	CategoryFloppyDiscs  = "FLOPPY DISCS"
	CategoryPagers       = "PAGERS"
	CategoryTop          = "TOP"
	CategorySkinTrait    = "SKINTRAIT"
	CategoryPacks        = "PACKS"
	CategoryBase         = "BASE"
	CategorySkinOverlay  = "SKIN_OVERLAY"
	CategoryPromotedGear = "GEAR_PROMOTED"
)

// TraitSet maps a trait category to the equipped trait id.
// Ids are kept as decimal strings, the form the trait source returns them in.
type TraitSet map[string]string

// Clone returns an independent copy of the set.
func (t TraitSet) Clone() TraitSet {
	if t == nil {
		return TraitSet{}
	}
	return maps.Clone(t)
}

// Has reports whether the category holds a usable trait id.
// Empty ids and the literal "None" count as absent.
func (t TraitSet) Has(category string) bool {
	id, ok := t[category]
	return ok && id != "" && id != "None"
}

// Is reports whether the category holds exactly the given id.
func (t TraitSet) Is(category string, id int) bool {
	v, ok := t[category]
	if !ok {
		return false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	return err == nil && n == id
}

// Categories returns the categories of the set in lexical order.
func (t TraitSet) Categories() []string {
	return slices.Sorted(maps.Keys(t))
}

// TraitID parses a trait id. The boolean is false for non-numeric ids.
func TraitID(raw string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return n, true
}

// SourceKind tells where a layer's asset is fetched from.
type SourceKind string

const (
	SourceLocal     SourceKind = "local"     // default trait pool
	SourceExternal  SourceKind = "external"  // external design host
	SourceSecondary SourceKind = "secondary" // secondary numbered pool
	SourceSamurai   SourceKind = "samurai"   // tag-specific image pool
	SourceAsset     SourceKind = "asset"     // named asset path (skins, serums)
)

// TraitLayer is one entry of an ordered composition plan.
type TraitLayer struct {
	Category string     `json:"category"`
	TraitID  string     `json:"trait_id,omitempty"`
	Source   SourceKind `json:"source"`
	// Path is the asset location relative to the source root.
	Path     string   `json:"path"`
	Animated bool     `json:"animated,omitempty"`
	Variants []string `json:"variants,omitempty"`
	// Fallback is tried when Path cannot be loaded (base layers only).
	Fallback string `json:"fallback,omitempty"`
}

// ID returns a stable identifier of the layer inside a plan.
func (l TraitLayer) ID() string {
	if l.TraitID == "" {
		return l.Category
	}
	return l.Category + ":" + l.TraitID
}

// TraitInfo is the static metadata of a trait.
type TraitInfo struct {
	ID       string `json:"id" mapstructure:"id"`
	Name     string `json:"name" mapstructure:"name"`
	Category string `json:"category" mapstructure:"category"`
	Type     string `json:"type" mapstructure:"type"`
}

// Animated reports whether the catalog marks the trait as animated.
func (i TraitInfo) Animated() bool {
	return strings.EqualFold(i.Type, "Animated")
}
