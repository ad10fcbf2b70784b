package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FixtureFile is the layout of a token fixtures file.
type FixtureFile struct {
	Tokens map[int]Token `yaml:"tokens" json:"tokens"`
}

// LoadTokens reads a YAML or JSON fixtures file into a TraitSource.
func LoadTokens(path string) (*TraitSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token fixtures: %w", err)
	}

	var file FixtureFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		err = json.Unmarshal(data, &file)
	} else {
		err = yaml.Unmarshal(data, &file)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	for id := range file.Tokens {
		if id < 0 {
			return nil, fmt.Errorf("invalid token id %d in %s", id, filepath.Base(path))
		}
	}
	return NewTraitSource(file.Tokens), nil
}
