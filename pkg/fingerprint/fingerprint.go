// Package fingerprint derives the deterministic identity of a render and
// the artifact names built from it.
package fingerprint

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/aretw0/atelier/pkg/compose"
	"github.com/aretw0/atelier/pkg/domain"
)

// Length is the number of hex characters kept from the digest.
const Length = 16

// Fields returns the normalized key/value set a fingerprint is hashed from.
// resolved must come from the same composer that renders the request.
func Fields(req domain.RenderRequest, resolved compose.Resolved) map[string]string {
	m := req.Modes
	skinID := req.Skin.ID
	if skinID == "" {
		skinID = "0"
	}
	tagIndex := ""
	if resolved.SamuraiIndex >= 0 {
		tagIndex = strconv.Itoa(resolved.SamuraiIndex)
	}
	// Banana is not applied to renders carrying a message.
	banana := m.Banana && req.Messages == ""
	return map[string]string{
		"closeup":  flag(m.Closeup),
		"shadow":   flag(m.Shadow),
		"glow":     flag(m.Glow),
		"bn":       flag(m.BN),
		"uv":       flag(m.UV),
		"blackout": flag(m.Blackout),
		"banana":   flag(banana),
		"messages": req.Messages,

		"generation":      strconv.Itoa(req.Generation),
		"mutationLevel":   strconv.Itoa(req.MutationLevel),
		"canReplicate":    flag(req.CanReplicate),
		"hasBeenModified": flag(req.HasBeenModified),

		"skinId":   skinID,
		"skinName": req.Skin.Name,

		"traits": traitsString(resolved.Traits),

		"appliedSerum":     resolved.Serum.Applied,
		"serumFailed":      flag(resolved.Serum.Failed),
		"failedSerumType":  resolved.Serum.FailedType,
		"hasAdrianGFSerum": flag(resolved.Serum.HasAdrianGF),
		"serumHistory":     historyString(req.Serums),

		"skintraitId": resolved.Traits[domain.CategorySkinTrait],
		"tag":         req.TagName(),
		"tagIndex":    tagIndex,
	}
}

// Compute returns the static render fingerprint of a request.
func Compute(req domain.RenderRequest, resolved compose.Resolved) string {
	return Hash(Fields(req, resolved))
}

// ComputeAnimated returns the fingerprint of an animated render. The
// canonical animation key keeps it distinct from the static fingerprint.
func ComputeAnimated(req domain.RenderRequest, resolved compose.Resolved, animationKey string) string {
	fields := Fields(req, resolved)
	fields["animation"] = animationKey
	return Hash(fields)
}

// Hash encodes fields as sorted-key JSON without HTML escaping and returns
// the truncated SHA-256 of it.
func Hash(fields map[string]string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Maps of strings always encode.
	_ = enc.Encode(fields)
	sum := sha256.Sum256(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	return hex.EncodeToString(sum[:])[:Length]
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func traitsString(traits domain.TraitSet) string {
	pairs := make([]string, 0, len(traits))
	for _, cat := range traits.Categories() {
		if cat == domain.CategorySkinTrait || traits[cat] == "" {
			continue
		}
		pairs = append(pairs, cat+":"+traits[cat])
	}
	return strings.Join(pairs, ",")
}

// historyString keeps only the events that change the base image.
func historyString(history []domain.SerumEvent) string {
	var parts []string
	for _, ev := range history {
		if ev.Mutation != domain.MutationAdrianGF && ev.Mutation != domain.MutationGoldenAdrian {
			continue
		}
		parts = append(parts, flag(ev.Success)+":"+ev.Mutation)
	}
	return strings.Join(parts, ",")
}

// TraitHash returns the fingerprint of a single trait render.
func TraitHash(traitID string) string {
	return Hash(map[string]string{"traitId": traitID})
}

// Ext is a render artifact extension.
type Ext string

const (
	ExtPNG Ext = "png"
	ExtGIF Ext = "gif"
)

// BuildFilename names a render artifact.
func BuildFilename(tokenID int, fp string, ext Ext) string {
	return fmt.Sprintf("%d_%s.%s", tokenID, fp, ext)
}

var filenameRe = regexp.MustCompile(`^(\d+)_([a-f0-9]{16})\.(png|gif)$`)

// ExtractFingerprint returns the fingerprint of a render filename.
func ExtractFingerprint(name string) (string, bool) {
	m := filenameRe.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return m[2], true
}

// ParseFilename splits a render filename into token id, fingerprint and extension.
func ParseFilename(name string) (tokenID int, fp string, ext Ext, ok bool) {
	m := filenameRe.FindStringSubmatch(name)
	if m == nil {
		return 0, "", "", false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", "", false
	}
	return id, m[2], Ext(m[3]), true
}

// TraitFilename names a single trait render artifact.
func TraitFilename(traitID, fp string) string {
	return fmt.Sprintf("%s_trait_%s.png", traitID, fp)
}

// Render types, highest priority first.
const (
	TypeBanana   = "banana"
	TypeBlackout = "blackout"
	TypeUV       = "uv"
	TypeBN       = "bn"
	TypeGlow     = "glow"
	TypeShadow   = "shadow"
	TypeCloseup  = "closeup"
	TypeNormal   = "normal"
)

// RenderType picks the dominant mode of a request.
func RenderType(m domain.Modes) string {
	switch {
	case m.Banana:
		return TypeBanana
	case m.Blackout:
		return TypeBlackout
	case m.UV:
		return TypeUV
	case m.BN:
		return TypeBN
	case m.Glow:
		return TypeGlow
	case m.Shadow:
		return TypeShadow
	case m.Closeup:
		return TypeCloseup
	}
	return TypeNormal
}

// ToggleFilename names a legacy per-mode artifact.
func ToggleFilename(tokenID int, renderType string) string {
	return fmt.Sprintf("%d_%s.png", tokenID, renderType)
}
