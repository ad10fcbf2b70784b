package atelier

import (
	"fmt"

	"github.com/aretw0/atelier/pkg/compose"
	"github.com/aretw0/atelier/pkg/domain"
	"github.com/aretw0/atelier/pkg/motion"
	"github.com/aretw0/atelier/pkg/ports"
	"github.com/mitchellh/mapstructure"
)

// delegable reports whether a remote worker can draw req. The job format
// only carries the closeup flag, so effect modes and message overlays are
// always painted locally.
func delegable(req domain.RenderRequest) bool {
	return !req.Modes.Effects() && req.Messages == ""
}

// buildJob describes a render fully enough for a remote worker to draw it
// without reading the chain.
func buildJob(req domain.RenderRequest, resolved compose.Resolved) ports.RenderJob {
	traits := resolved.Traits
	base := compose.ResolveBase(req.Generation, req.Skin, traits, resolved.Serum)

	mapping := make(map[string]string, len(traits))
	for _, category := range traits.Categories() {
		if !traits.Has(category) {
			continue
		}
		_, path := compose.Route(traits[category])
		mapping[category] = path
	}

	job := ports.RenderJob{
		TokenID:          req.TokenID,
		Generation:       req.Generation,
		SkinType:         base.SkinType,
		FinalTraits:      traits,
		AppliedSerum:     resolved.Serum.Applied,
		SerumSuccess:     resolved.Serum.Applied != "",
		HasAdrianGFSerum: resolved.Serum.HasAdrianGF,
		SerumHistory:     req.Serums,
		FailedSerumType:  resolved.Serum.FailedType,
		BaseImagePath:    base.Path,
		IsCloseup:        req.Modes.Closeup,
		TraitsMapping:    mapping,
		TagInfo:          req.Tag,
	}
	if traits.Has(domain.CategorySkinTrait) {
		job.SkinTraitPath = "SKINTRAIT/" + traits[domain.CategorySkinTrait] + ".svg"
	}
	if resolved.SamuraiIndex >= 0 {
		idx := resolved.SamuraiIndex
		job.SamuraiImageIndex = &idx
	}
	return job
}

// animationPayload flattens a motion spec into the loose map remote
// workers accept.
func animationPayload(spec motion.Spec) (map[string]any, error) {
	out := make(map[string]any)
	if err := mapstructure.Decode(spec, &out); err != nil {
		return nil, fmt.Errorf("encode animation: %w", err)
	}
	return out, nil
}
