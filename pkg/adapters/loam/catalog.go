// Package loam serves trait metadata from a directory of frontmatter
// documents managed by loam.
package loam

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/atelier/internal/logging"
	"github.com/aretw0/atelier/pkg/domain"
	"github.com/aretw0/loam"
)

// Catalog implements ports.TraitCatalog on a loam repository.
type Catalog struct {
	Repo   *loam.TypedRepository[TraitMetadata]
	dir    string
	logger *slog.Logger
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the catalog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New wraps an existing typed repository. dir is only needed by Watch.
func New(repo *loam.TypedRepository[TraitMetadata], dir string, opts ...Option) *Catalog {
	c := &Catalog{Repo: repo, dir: dir, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open initializes a read-only loam repository rooted at dir.
func Open(dir string, opts ...Option) (*Catalog, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog path: %w", err)
	}

	// Strict mode keeps numeric ids as json.Number instead of float64.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
		loam.WithVersioning(false),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[TraitMetadata](repo), absPath, opts...), nil
}

// Lookup returns the metadata of one trait.
func (c *Catalog) Lookup(ctx context.Context, traitID string) (domain.TraitInfo, error) {
	if strings.TrimSpace(traitID) == "" || strings.ContainsAny(traitID, `/\`) {
		return domain.TraitInfo{}, fmt.Errorf("%w: trait %q", domain.ErrNotFound, traitID)
	}
	doc, err := c.Repo.Get(ctx, traitID)
	if err != nil {
		c.logger.Debug("catalog miss", "trait", traitID, "err", err)
		return domain.TraitInfo{}, fmt.Errorf("%w: trait %s", domain.ErrNotFound, traitID)
	}
	return doc.Data.info(doc.ID), nil
}

// List returns every trait of the catalog sorted by id.
func (c *Catalog) List(ctx context.Context) ([]domain.TraitInfo, error) {
	docs, err := c.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string, len(docs))
	infos := make([]domain.TraitInfo, 0, len(docs))
	for _, doc := range docs {
		info := doc.Data.info(doc.ID)
		if prev, ok := seen[info.ID]; ok {
			return nil, fmt.Errorf("collision detected: trait '%s' is defined in both '%s' and '%s'", info.ID, prev, doc.ID)
		}
		seen[info.ID] = doc.ID
		infos = append(infos, info)
	}
	slices.SortFunc(infos, func(a, b domain.TraitInfo) int { return strings.Compare(a.ID, b.ID) })
	return infos, nil
}
