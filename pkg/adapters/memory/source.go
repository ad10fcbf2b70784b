package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/atelier/pkg/domain"
)

// Token is the full state of one token in a TraitSource.
type Token struct {
	Traits domain.TraitSet     `json:"traits" yaml:"traits"`
	Serums []domain.SerumEvent `json:"serums,omitempty" yaml:"serums,omitempty"`
	Data   domain.TokenData    `json:"data" yaml:"data"`
	Skin   domain.Skin         `json:"skin" yaml:"skin"`
	Tag    *domain.TagInfo     `json:"tag,omitempty" yaml:"tag,omitempty"`
}

// TraitSource implements ports.TraitSource from a fixed token table.
type TraitSource struct {
	mu     sync.RWMutex
	tokens map[int]Token
	reads  int
}

// NewTraitSource creates a source serving tokens.
func NewTraitSource(tokens map[int]Token) *TraitSource {
	if tokens == nil {
		tokens = make(map[int]Token)
	}
	return &TraitSource{tokens: tokens}
}

// Put adds or replaces a token.
func (s *TraitSource) Put(id int, t Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[id] = t
}

// Reads returns how many reads were served.
func (s *TraitSource) Reads() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reads
}

func (s *TraitSource) token(id int) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	t, ok := s.tokens[id]
	if !ok {
		return Token{}, fmt.Errorf("%w: token %d", domain.ErrInvalidToken, id)
	}
	return t, nil
}

func (s *TraitSource) EquippedTraits(ctx context.Context, tokenID int) (domain.TraitSet, error) {
	t, err := s.token(tokenID)
	return t.Traits.Clone(), err
}

func (s *TraitSource) SerumHistory(ctx context.Context, tokenID int) ([]domain.SerumEvent, error) {
	t, err := s.token(tokenID)
	return slices.Clone(t.Serums), err
}

func (s *TraitSource) TokenData(ctx context.Context, tokenID int) (domain.TokenData, error) {
	t, err := s.token(tokenID)
	return t.Data, err
}

func (s *TraitSource) Skin(ctx context.Context, tokenID int) (domain.Skin, error) {
	t, err := s.token(tokenID)
	return t.Skin, err
}

func (s *TraitSource) Tag(ctx context.Context, tokenID int) (*domain.TagInfo, error) {
	t, err := s.token(tokenID)
	return t.Tag, err
}

// AssetSource implements ports.AssetSource from a path→bytes map.
// Layers resolve to Path, then Fallback.
type AssetSource struct {
	mu     sync.RWMutex
	assets map[string][]byte
}

// NewAssetSource creates a source serving assets.
func NewAssetSource(assets map[string][]byte) *AssetSource {
	if assets == nil {
		assets = make(map[string][]byte)
	}
	return &AssetSource{assets: assets}
}

// Put adds or replaces an asset.
func (a *AssetSource) Put(path string, data []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.assets[path] = data
}

func (a *AssetSource) Fetch(ctx context.Context, layer domain.TraitLayer) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, p := range []string{layer.Path, layer.Fallback} {
		if data, ok := a.assets[p]; ok && p != "" {
			return slices.Clone(data), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrAssetUnavailable, layer.Path)
}

// Variants returns the variant ids whose labimages asset exists.
func (a *AssetSource) Variants(ctx context.Context, traitID string) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []string
	for c := 'a'; c <= 'j'; c++ {
		id := traitID + string(c)
		if _, ok := a.assets["labimages/"+id+".svg"]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

// Catalog implements ports.TraitCatalog from a fixed table.
type Catalog map[string]domain.TraitInfo

func (c Catalog) Lookup(ctx context.Context, traitID string) (domain.TraitInfo, error) {
	info, ok := c[traitID]
	if !ok {
		return domain.TraitInfo{}, fmt.Errorf("%w: trait %s", domain.ErrNotFound, traitID)
	}
	return info, nil
}
