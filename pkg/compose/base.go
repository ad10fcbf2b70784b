package compose

import (
	"fmt"
	"strings"

	"github.com/aretw0/atelier/pkg/domain"
)

// Skin families.
const (
	SkinMannequin = "mannequin"
	SkinMedium    = "Medium"
	SkinDark      = "Dark"
	SkinAlien     = "Alien"
	SkinAlbino    = "Albino"
	SkinGolden    = "Golden"
)

var skinByID = map[string]string{
	"1": SkinMedium,
	"2": SkinDark,
	"3": SkinAlien,
	"4": SkinAlbino,
}

var skinByName = map[string]string{
	"Zero":   SkinMedium,
	"Medium": SkinMedium,
	"Dark":   SkinDark,
	"Alien":  SkinAlien,
	"Albino": SkinAlbino,
}

// SkinType resolves the skin family of a token. An id of "0" (or an
// empty skin) yields the mannequin placeholder.
func SkinType(skin domain.Skin) string {
	if skin.ID == "0" || (skin.ID == "" && skin.Name == "") {
		return SkinMannequin
	}
	if t, ok := skinByID[skin.ID]; ok {
		return t
	}
	if t, ok := skinByName[skin.Name]; ok {
		return t
	}
	if skin.Name != "" {
		return skin.Name
	}
	return SkinMedium
}

// skinTraitExceptions replace the skin base when equipped under SKIN.
var skinTraitExceptions = map[int]string{
	37: "SKIN/OG_GEN%d.svg",
	38: "SKIN/OG_GEN%d_3D.svg",
}

// swagSkinOverlays are SWAG ids that also paint a skin overlay above the base.
var swagSkinOverlays = map[int]bool{37: true, 38: true}

func skinPath(gen int, skin string) string {
	return fmt.Sprintf("ADRIAN/GEN%d-%s.svg", gen, skin)
}

// FallbackBasePath is painted when the resolved base asset cannot be loaded.
func FallbackBasePath(gen int) string {
	return skinPath(gen, SkinMedium)
}

func adrianGFPath(gen int, skin string) string {
	switch skin {
	case SkinAlbino:
		return fmt.Sprintf("ADRIANGF/GF%d/GEN%d_Albino.svg", gen, gen)
	case SkinAlien:
		return fmt.Sprintf("ADRIANGF/GF%d/GF%d_Alien.svg", gen, gen)
	case SkinGolden:
		return fmt.Sprintf("ADRIANGF/GF%d/GF%d_Golden.svg", gen, gen)
	default:
		return fmt.Sprintf("ADRIANGF/GF%d/GF%d-%s.svg", gen, gen, skin)
	}
}

const (
	goldFailPath = "ADRIANGF/GF-Goldfail.svg"
	gfFailPath   = "ADRIANGF/GF-Fail.svg"
)

// BaseLayer is the resolved base (skin) layer of a render.
type BaseLayer struct {
	Path string
	// Reason names the rule that selected Path.
	Reason   string
	SkinType string
}

// Base reasons, highest precedence first.
const (
	ReasonSkinTrait = "skintrait"
	ReasonSerum     = "serum"
	ReasonSerumFail = "serum_failed"
	ReasonException = "skin_exception"
	ReasonMannequin = "mannequin"
	ReasonSkin      = "skin"
)

// ResolveBase picks exactly one base layer. Precedence:
// SKINTRAIT > applied serum > failed serum > skin exception > skin/mannequin.
func ResolveBase(gen int, skin domain.Skin, traits domain.TraitSet, serum SerumState) BaseLayer {
	skinType := SkinType(skin)
	out := BaseLayer{SkinType: skinType}

	if traits.Has(domain.CategorySkinTrait) {
		out.Path = "SKINTRAIT/" + traits[domain.CategorySkinTrait] + ".svg"
		out.Reason = ReasonSkinTrait
		return out
	}

	if serum.Applied != "" {
		out.Reason = ReasonSerum
		switch serum.Applied {
		case domain.MutationGoldenAdrian:
			out.Path = skinPath(gen, SkinGolden)
		case domain.MutationAdrianGF:
			switch serum.Conversion {
			case ConversionGoldFail:
				out.Path = goldFailPath
			case ConversionGolden:
				out.Path = adrianGFPath(gen, SkinGolden)
			default:
				out.Path = adrianGFPath(gen, gfSkin(skinType))
			}
		default:
			out.Path = "ADRIAN/" + strings.ToUpper(serum.Applied) + ".svg"
		}
		return out
	}

	if serum.Failed {
		out.Reason = ReasonSerumFail
		switch {
		case serum.FailedType == domain.MutationGoldenAdrian && serum.HasAdrianGF:
			out.Path = goldFailPath
		case serum.FailedType == domain.MutationGoldenAdrian:
			out.Path = skinPath(gen, "Goldenfail")
		default:
			out.Path = gfFailPath
		}
		return out
	}

	for id, pattern := range skinTraitExceptions {
		if traits.Is(domain.CategorySkin, id) {
			out.Path = fmt.Sprintf(pattern, gen)
			out.Reason = ReasonException
			return out
		}
	}

	if skinType == SkinMannequin {
		out.Path = skinPath(gen, SkinMannequin)
		out.Reason = ReasonMannequin
		return out
	}
	out.Path = skinPath(gen, skinType)
	out.Reason = ReasonSkin
	return out
}

// gfSkin maps the mannequin to Medium; the GF family has no mannequin asset.
func gfSkin(skinType string) string {
	if skinType == SkinMannequin {
		return SkinMedium
	}
	return skinType
}
