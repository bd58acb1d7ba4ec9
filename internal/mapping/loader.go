package mapping

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile loads and parses a recipe file from the given path.
func LoadFile(path string) (*RecipeFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML data into a RecipeFile.
func Parse(data []byte) (*RecipeFile, error) {
	var rf RecipeFile

	err := yaml.Unmarshal(data, &rf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse recipe YAML: %w", err)
	}

	applyDefaults(&rf)

	return &rf, nil
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(rf *RecipeFile) {
	if rf.Version == "" {
		rf.Version = "1"
	}
}

// Marshal serializes a RecipeFile to YAML.
func Marshal(rf *RecipeFile) ([]byte, error) {
	return yaml.Marshal(rf)
}

// WriteFile writes a RecipeFile to the given path.
func WriteFile(rf *RecipeFile, path string) error {
	data, err := Marshal(rf)
	if err != nil {
		return fmt.Errorf("failed to marshal recipe: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write recipe file %s: %w", path, err)
	}

	return nil
}

// NormalizeConversion expands the 121 shorthand into Fields entries placed
// first, sorted by source field.
func NormalizeConversion(c *ConversionRecipe) {
	if len(c.OneToOne) == 0 {
		return
	}

	expanded := make([]FieldLink, 0, len(c.OneToOne))
	for _, src := range sortedKeys(c.OneToOne) {
		expanded = append(expanded, FieldLink{Source: src, Target: c.OneToOne[src]})
	}

	c.Fields = append(expanded, c.Fields...)
	c.OneToOne = nil
}
