package ports

import (
	"context"

	"github.com/aretw0/atelier/pkg/domain"
)

// TraitSource is the read model of the on-chain token state.
type TraitSource interface {
	EquippedTraits(ctx context.Context, tokenID int) (domain.TraitSet, error)
	// SerumHistory returns the serum events of the token, oldest first.
	SerumHistory(ctx context.Context, tokenID int) ([]domain.SerumEvent, error)
	TokenData(ctx context.Context, tokenID int) (domain.TokenData, error)
	Skin(ctx context.Context, tokenID int) (domain.Skin, error)
	// Tag returns nil when the token carries no tag.
	Tag(ctx context.Context, tokenID int) (*domain.TagInfo, error)
}

// AssetSource fetches raw asset bytes.
type AssetSource interface {
	// Fetch loads the asset of a layer. Implementations resolve the layer's
	// Source and Path to a concrete location.
	Fetch(ctx context.Context, layer domain.TraitLayer) ([]byte, error)

	// Variants probes the animated variants of a trait (id + "a".."j")
	// and returns the ids that exist, in letter order.
	Variants(ctx context.Context, traitID string) ([]string, error)
}

// TraitCatalog resolves static trait metadata.
type TraitCatalog interface {
	// Lookup returns domain.ErrNotFound for unknown traits.
	Lookup(ctx context.Context, traitID string) (domain.TraitInfo, error)
}

// Watchable is implemented by catalogs that can report changed trait ids.
type Watchable interface {
	Watch(ctx context.Context) (<-chan string, error)
}
