package loam

import (
	"path/filepath"
	"strings"

	"github.com/aretw0/atelier/pkg/domain"
)

// TraitMetadata is the frontmatter of a trait document, e.g. traits/42.md:
//
//	---
//	id: "42"
//	name: Red Cap
//	category: HEAD
//	type: Animated
//	---
//	Optional notes.
type TraitMetadata struct {
	ID       string `json:"id" mapstructure:"id"`
	Name     string `json:"name" mapstructure:"name"`
	Category string `json:"category" mapstructure:"category"`
	Type     string `json:"type" mapstructure:"type"`
	// Tags are free-form labels carried through to listings.
	Tags []string `json:"tags,omitempty" mapstructure:"tags"`
}

func (m TraitMetadata) info(docID string) domain.TraitInfo {
	id := m.ID
	if id == "" {
		id = trimExtension(docID)
	}
	return domain.TraitInfo{
		ID:       id,
		Name:     m.Name,
		Category: strings.ToUpper(m.Category),
		Type:     m.Type,
	}
}

func trimExtension(id string) string {
	id = filepath.ToSlash(id)
	if ext := filepath.Ext(id); ext != "" {
		id = strings.TrimSuffix(id, ext)
	}
	return id
}
