package compose

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/atelier/internal/logging"
	"github.com/aretw0/atelier/pkg/domain"
	"github.com/aretw0/atelier/pkg/ports"
)

// DefaultOrder is the category order of the main composition pass.
var DefaultOrder = []string{
	domain.CategoryBeard,
	domain.CategoryEar,
	domain.CategoryGear,
	domain.CategoryHead,
	domain.CategoryRandomShit,
	domain.CategorySwag,
	domain.CategoryHair,
	domain.CategoryHat,
	domain.CategorySkin,
	domain.CategorySerums,
	domain.CategoryEyes,
	domain.CategoryMouth,
	domain.CategoryNeck,
	domain.CategoryNose,
	domain.CategoryFloppyDiscs,
	domain.CategoryPagers,
}

// promotedGear are GEAR ids painted right above the base, before the main pass.
var promotedGear = map[int]bool{721: true, 726: true}

// topGear is a GEAR id forced into the TOP pass, right below the TOP trait.
const topGear = 48

// VariantProber finds the animated variants of a trait.
type VariantProber interface {
	Variants(ctx context.Context, traitID string) ([]string, error)
}

// Plan is the result of a composition: the ordered layers plus the
// derived state that produced them.
type Plan struct {
	TokenID    int                 `json:"token_id"`
	Generation int                 `json:"generation"`
	Base       BaseLayer           `json:"base"`
	Serum      SerumState          `json:"serum"`
	Traits     domain.TraitSet     `json:"traits"`
	Layers     []domain.TraitLayer `json:"layers"`
	// SamuraiTop is set when TOP was forced from the tag image pool.
	SamuraiTop bool `json:"samurai_top,omitempty"`
}

// Static returns the layers of a static render: every layer except animated ones.
func (p Plan) Static() []domain.TraitLayer {
	out := make([]domain.TraitLayer, 0, len(p.Layers))
	for _, l := range p.Layers {
		if !l.Animated {
			out = append(out, l)
		}
	}
	return out
}

// Animated returns the animated layers, in composition order.
func (p Plan) Animated() []domain.TraitLayer {
	var out []domain.TraitLayer
	for _, l := range p.Layers {
		if l.Animated {
			out = append(out, l)
		}
	}
	return out
}

// Categories returns the category of each layer, in order.
func (p Plan) Categories() []string {
	out := make([]string, len(p.Layers))
	for i, l := range p.Layers {
		out[i] = l.Category
	}
	return out
}

// Composer turns a render request into an ordered layer plan.
type Composer struct {
	order       []string
	tagRules    map[string]TagRule
	samuraiBase int
	catalog     ports.TraitCatalog
	prober      VariantProber
	logger      *slog.Logger
}

// Option configures the Composer.
type Option func(*Composer)

// WithCatalog enables animated-trait detection through trait metadata.
func WithCatalog(catalog ports.TraitCatalog) Option {
	return func(c *Composer) {
		c.catalog = catalog
	}
}

// WithVariantProber sets how animated variants are discovered.
func WithVariantProber(p VariantProber) Option {
	return func(c *Composer) {
		c.prober = p
	}
}

// WithTagRules replaces the rarity tag rules.
func WithTagRules(rules map[string]TagRule) Option {
	return func(c *Composer) {
		c.tagRules = rules
	}
}

// WithSamuraiImageBase sets the id of the first SamuraiZERO tag image.
func WithSamuraiImageBase(base int) Option {
	return func(c *Composer) {
		c.samuraiBase = base
	}
}

// WithOrder replaces the main pass category order.
func WithOrder(order []string) Option {
	return func(c *Composer) {
		c.order = order
	}
}

// WithLogger configures a logger for the Composer.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Composer) {
		c.logger = logger
	}
}

// New creates a Composer.
func New(opts ...Option) *Composer {
	c := &Composer{
		order:    DefaultOrder,
		tagRules: DefaultTagRules(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolved is the trait state a render is drawn from, after category
// normalization and tag rules.
type Resolved struct {
	Traits domain.TraitSet
	Serum  SerumState
	// SamuraiIndex is the tag image index when TOP was forced from the
	// SamuraiZERO pool, and -1 otherwise.
	SamuraiIndex int
}

// Resolve applies normalization and tag rules to a copy of the request traits.
func (c *Composer) Resolve(req domain.RenderRequest) Resolved {
	traits := Normalize(req.Traits.Clone())
	traits, samurai := applyTag(traits, req.Tag, c.tagRules, c.samuraiBase)
	r := Resolved{Traits: traits, Serum: AnalyzeSerums(req.Serums), SamuraiIndex: -1}
	if samurai {
		r.SamuraiIndex = req.Tag.Index
	}
	return r
}

// Compose builds the layer plan of a request. The request is not modified.
// Metadata or probe failures downgrade a trait to static, they never fail the plan.
func (c *Composer) Compose(ctx context.Context, req domain.RenderRequest) (Plan, error) {
	resolved := c.Resolve(req)
	traits, serum := resolved.Traits, resolved.Serum
	samurai := resolved.SamuraiIndex >= 0
	base := ResolveBase(req.Generation, req.Skin, traits, serum)

	plan := Plan{
		TokenID:    req.TokenID,
		Generation: req.Generation,
		Base:       base,
		Serum:      serum,
		Traits:     traits,
		SamuraiTop: samurai,
	}

	if traits.Has(domain.CategoryBackground) {
		plan.Layers = append(plan.Layers, c.traitLayer(ctx, domain.CategoryBackground, traits[domain.CategoryBackground]))
	}

	plan.Layers = append(plan.Layers, domain.TraitLayer{
		Category: domain.CategoryBase,
		Source:   domain.SourceAsset,
		Path:     base.Path,
		Fallback: FallbackBasePath(req.Generation),
	})

	if id, ok := domain.TraitID(traits[domain.CategorySwag]); ok && swagSkinOverlays[id] {
		plan.Layers = append(plan.Layers, domain.TraitLayer{
			Category: domain.CategorySkinOverlay,
			TraitID:  traits[domain.CategorySwag],
			Source:   domain.SourceAsset,
			Path:     "SKIN/" + traits[domain.CategorySwag] + ".svg",
		})
	}

	gearID, hasGear := domain.TraitID(traits[domain.CategoryGear])
	if hasGear && promotedGear[gearID] {
		layer := c.traitLayer(ctx, domain.CategoryGear, traits[domain.CategoryGear])
		layer.Category = domain.CategoryPromotedGear
		plan.Layers = append(plan.Layers, layer)
	}

	for _, category := range c.order {
		if !traits.Has(category) {
			continue
		}
		if c.skip(category, traits) {
			c.logger.Debug("layer suppressed", "category", category, "trait_id", traits[category])
			continue
		}
		plan.Layers = append(plan.Layers, c.traitLayer(ctx, category, traits[category]))
	}

	if hasGear && gearID == topGear {
		plan.Layers = append(plan.Layers, domain.TraitLayer{
			Category: domain.CategoryGear,
			TraitID:  traits[domain.CategoryGear],
			Source:   domain.SourceAsset,
			Path:     "GEAR/48.svg",
			Fallback: LocalPath(traits[domain.CategoryGear]),
		})
	}

	if traits.Has(domain.CategoryTop) {
		id := traits[domain.CategoryTop]
		if samurai {
			plan.Layers = append(plan.Layers, domain.TraitLayer{
				Category: domain.CategoryTop,
				TraitID:  id,
				Source:   domain.SourceSamurai,
				Path:     "samuraizero/" + id + ".svg",
				Fallback: LocalPath(id),
			})
		} else {
			plan.Layers = append(plan.Layers, c.traitLayer(ctx, domain.CategoryTop, id))
		}
	}

	return plan, ctx.Err()
}

// skip evaluates the suppression rules of the main pass.
func (c *Composer) skip(category string, traits domain.TraitSet) bool {
	switch category {
	case domain.CategoryHair:
		return traits.Is(domain.CategoryHair, 21) && traits.Is(domain.CategoryHead, 209)
	case domain.CategorySerums:
		return traits.Has(domain.CategoryEyes)
	case domain.CategoryGear:
		id, _ := domain.TraitID(traits[domain.CategoryGear])
		return promotedGear[id] || id == topGear
	}
	return false
}

// traitLayer builds a routed layer and detects animation.
func (c *Composer) traitLayer(ctx context.Context, category, traitID string) domain.TraitLayer {
	source, path := Route(traitID)
	layer := domain.TraitLayer{
		Category: category,
		TraitID:  traitID,
		Source:   source,
		Path:     path,
	}
	if c.catalog == nil || c.prober == nil {
		return layer
	}

	info, err := c.catalog.Lookup(ctx, traitID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			c.logger.Warn("trait metadata lookup failed", "trait_id", traitID, "err", err)
		}
		return layer
	}
	if !info.Animated() {
		return layer
	}
	variants, err := c.prober.Variants(ctx, traitID)
	if err != nil {
		c.logger.Warn("variant probe failed", "trait_id", traitID, "err", err)
		return layer
	}
	if len(variants) > 0 {
		layer.Animated = true
		layer.Variants = variants
	}
	return layer
}
