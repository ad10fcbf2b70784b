package compose

import (
	"slices"
	"strconv"

	"github.com/aretw0/atelier/pkg/domain"
)

// TagRule rewrites the trait set of tagged tokens before composition.
type TagRule struct {
	// AllowedEyes, when non-empty, drops any other EYES trait.
	AllowedEyes []int
	// ForcedSkinTrait, when non-zero, sets SKINTRAIT with absolute priority.
	ForcedSkinTrait int
	// ForcedTopFromIndex sets TOP to ImageBase+Index for indices in [0, MaxIndex).
	ForcedTopFromIndex bool
	MaxIndex           int
}

// DefaultTagRules are the rules of the known rarity tags.
func DefaultTagRules() map[string]TagRule {
	return map[string]TagRule{
		domain.TagSubZero: {
			AllowedEyes:     []int{1124},
			ForcedSkinTrait: 1125,
		},
		domain.TagSamuraiZero: {
			ForcedTopFromIndex: true,
			MaxIndex:           600,
		},
	}
}

// applyTag returns the trait set with the tag's rule applied and reports
// whether TOP was forced from the tag image pool.
func applyTag(traits domain.TraitSet, tag *domain.TagInfo, rules map[string]TagRule, imageBase int) (domain.TraitSet, bool) {
	if tag == nil {
		return traits, false
	}
	rule, ok := rules[tag.Tag]
	if !ok {
		return traits, false
	}

	if len(rule.AllowedEyes) > 0 && traits.Has(domain.CategoryEyes) {
		id, ok := domain.TraitID(traits[domain.CategoryEyes])
		if !ok || !slices.Contains(rule.AllowedEyes, id) {
			delete(traits, domain.CategoryEyes)
		}
	}
	if rule.ForcedSkinTrait != 0 {
		traits[domain.CategorySkinTrait] = strconv.Itoa(rule.ForcedSkinTrait)
	}
	if rule.ForcedTopFromIndex && tag.Index >= 0 && tag.Index < rule.MaxIndex {
		traits[domain.CategoryTop] = strconv.Itoa(imageBase + tag.Index)
		return traits, true
	}
	return traits, false
}
