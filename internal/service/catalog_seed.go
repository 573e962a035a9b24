package service

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pageza/pantry-chef/backend/internal/models"
)

// catalogFile is the YAML layout read by the seed command
type catalogFile struct {
	Ingredients []models.Ingredient `yaml:"ingredients"`
}

// LoadCatalogYAML decodes and checks a catalog file. Names are compared
// case-insensitively and must be unique; categories must be known.
func LoadCatalogYAML(r io.Reader) ([]models.Ingredient, error) {
	var file catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("catalog file is empty")
		}
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	seen := make(map[string]int, len(file.Ingredients))
	var problems []string
	for i := range file.Ingredients {
		ing := &file.Ingredients[i]
		name := strings.ToLower(strings.TrimSpace(ing.Name))
		if name == "" {
			problems = append(problems, fmt.Sprintf("entry %d: name is required", i+1))
			continue
		}
		if prev, ok := seen[name]; ok {
			problems = append(problems, fmt.Sprintf("entry %d: %q duplicates entry %d", i+1, name, prev))
			continue
		}
		seen[name] = i + 1

		category, ok := models.ParseIngredientCategory(string(ing.Category))
		if !ok {
			problems = append(problems, fmt.Sprintf("entry %d: unknown category %q", i+1, ing.Category))
			continue
		}
		ing.Name = name
		ing.Category = category
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid catalog: %s", strings.Join(problems, "; "))
	}
	return file.Ingredients, nil
}
