package cache

import (
	"context"

	"github.com/aretw0/atelier/pkg/domain"
	"github.com/aretw0/atelier/pkg/ports"
)

// TraitSource caches the reads of another trait source in the contract
// namespace. Keys have the form "traits:<method>:<tokenID>".
type TraitSource struct {
	next ports.TraitSource
	ns   *Namespace[any]
}

// NewTraitSource wraps next with the contract namespace of m.
func NewTraitSource(next ports.TraitSource, m *Manager) *TraitSource {
	return &TraitSource{next: next, ns: m.Contract}
}

func cachedRead[T any](ns *Namespace[any], key string, read func() (T, error)) (T, error) {
	if v, ok := ns.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	v, err := read()
	if err != nil {
		return v, err
	}
	ns.Set(key, v, ContractTTL)
	return v, nil
}

// EquippedTraits returns a copy, so callers may not corrupt the cache.
func (s *TraitSource) EquippedTraits(ctx context.Context, tokenID int) (domain.TraitSet, error) {
	traits, err := cachedRead(s.ns, ContractKey("traits", "equipped", tokenID), func() (domain.TraitSet, error) {
		return s.next.EquippedTraits(ctx, tokenID)
	})
	return traits.Clone(), err
}

func (s *TraitSource) SerumHistory(ctx context.Context, tokenID int) ([]domain.SerumEvent, error) {
	history, err := cachedRead(s.ns, ContractKey("traits", "serums", tokenID), func() ([]domain.SerumEvent, error) {
		return s.next.SerumHistory(ctx, tokenID)
	})
	return append([]domain.SerumEvent(nil), history...), err
}

func (s *TraitSource) TokenData(ctx context.Context, tokenID int) (domain.TokenData, error) {
	return cachedRead(s.ns, ContractKey("traits", "token", tokenID), func() (domain.TokenData, error) {
		return s.next.TokenData(ctx, tokenID)
	})
}

func (s *TraitSource) Skin(ctx context.Context, tokenID int) (domain.Skin, error) {
	return cachedRead(s.ns, ContractKey("traits", "skin", tokenID), func() (domain.Skin, error) {
		return s.next.Skin(ctx, tokenID)
	})
}

func (s *TraitSource) Tag(ctx context.Context, tokenID int) (*domain.TagInfo, error) {
	tag, err := cachedRead(s.ns, ContractKey("traits", "tag", tokenID), func() (*domain.TagInfo, error) {
		return s.next.Tag(ctx, tokenID)
	})
	if tag == nil {
		return nil, err
	}
	cp := *tag
	return &cp, err
}

// Catalog caches trait metadata lookups in the metadata namespace, keyed
// by the trait's metadata path.
type Catalog struct {
	next ports.TraitCatalog
	ns   *Namespace[domain.TraitInfo]
}

// NewCatalog wraps next with the metadata namespace of m.
func NewCatalog(next ports.TraitCatalog, m *Manager) *Catalog {
	return &Catalog{next: next, ns: m.Metadata}
}

func (c *Catalog) Lookup(ctx context.Context, traitID string) (domain.TraitInfo, error) {
	key := MetadataKey(traitID)
	if info, ok := c.ns.Get(key); ok {
		return info, nil
	}
	info, err := c.next.Lookup(ctx, traitID)
	if err != nil {
		return info, err
	}
	c.ns.Set(key, info, MetadataTTL)
	return info, nil
}
