package compose

import (
	"strconv"

	"github.com/aretw0/atelier/pkg/domain"
)

// idRange is an inclusive range of trait ids.
type idRange struct {
	lo, hi int
}

func (r idRange) contains(id int) bool {
	return id >= r.lo && id <= r.hi
}

// sourceRoute maps a range of trait ids to the pool they are fetched from.
type sourceRoute struct {
	ids    idRange
	source domain.SourceKind
	pool   string
}

// sourceRoutes is evaluated in order; the first match wins.
var sourceRoutes = []sourceRoute{
	{ids: idRange{30000, 35000}, source: domain.SourceExternal, pool: ""},
	{ids: idRange{100001, 101003}, source: domain.SourceSecondary, pool: "ogpunks/"},
}

const localPool = "labimages/"

// Route returns the source and pool-relative path of a trait id.
// It depends on the id alone, never on the category.
func Route(traitID string) (domain.SourceKind, string) {
	if id, ok := domain.TraitID(traitID); ok {
		for _, r := range sourceRoutes {
			if r.ids.contains(id) {
				return r.source, r.pool + strconv.Itoa(id) + ".svg"
			}
		}
	}
	return domain.SourceLocal, localPool + traitID + ".svg"
}

// LocalPath returns the default pool path of a trait id, used as a
// fallback for named assets.
func LocalPath(traitID string) string {
	return localPool + traitID + ".svg"
}

// categoryAliases normalizes ingestion category names.
var categoryAliases = map[string]string{
	domain.CategoryPacks: domain.CategorySwag,
}

// hairHeadIDs are HEAD ids drawn as HAIR.
var hairHeadIDs = []idRange{
	{14, 14}, {17, 19}, {21, 21}, {162, 186}, {188, 188}, {190, 190},
	{198, 199}, {203, 204}, {207, 207}, {218, 219}, {226, 226}, {236, 236},
}

// categoryCorrections moves individual ids to another category,
// whatever category they were equipped under.
var categoryCorrections = map[int]string{
	7: domain.CategoryEyes,
	8: domain.CategoryEyes,
	9: domain.CategoryEyes,
}

// NormalizeCategory applies the alias table and the per-id corrections.
func NormalizeCategory(category, traitID string) string {
	if alias, ok := categoryAliases[category]; ok {
		category = alias
	}
	id, ok := domain.TraitID(traitID)
	if !ok {
		return category
	}
	if target, ok := categoryCorrections[id]; ok {
		return target
	}
	if category == domain.CategoryHead {
		for _, r := range hairHeadIDs {
			if r.contains(id) {
				return domain.CategoryHair
			}
		}
	}
	return category
}

// Normalize rewrites a trait set through NormalizeCategory.
// When two entries land on the same category, the one whose nominal
// category already matched keeps the slot.
func Normalize(traits domain.TraitSet) domain.TraitSet {
	out := make(domain.TraitSet, len(traits))
	moved := make(map[string]string)
	for _, category := range traits.Categories() {
		id := traits[category]
		target := NormalizeCategory(category, id)
		if target == category {
			out[target] = id
			continue
		}
		moved[target] = id
	}
	for category, id := range moved {
		if _, taken := out[category]; !taken {
			out[category] = id
		}
	}
	return out
}
