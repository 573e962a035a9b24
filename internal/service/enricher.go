package service

import (
	"context"
	"strings"

	"github.com/pageza/pantry-chef/backend/internal/models"
)

// CategoryUnknown marks ingredients the catalog does not know
const CategoryUnknown models.IngredientCategory = "unknown"

// IngredientInput is one user supplied ingredient
type IngredientInput struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity,omitempty"`
}

// EnrichedIngredient is an input annotated with catalog data
type EnrichedIngredient struct {
	IngredientInput
	Validated            bool                      `json:"validated"`
	Category             models.IngredientCategory `json:"category"`
	NutritionalReference *models.NutritionalFacts  `json:"nutritional_reference,omitempty"`
}

// IngredientValidator enriches user ingredients with catalog data
type IngredientValidator struct {
	catalog IngredientCatalog
}

// NewIngredientValidator creates a validator backed by the given catalog
func NewIngredientValidator(catalog IngredientCatalog) *IngredientValidator {
	return &IngredientValidator{catalog: catalog}
}

// Enrich performs a single catalog lookup and returns one entry per input, in
// input order. Matching is exact name equality ignoring case; alternative names
// are not consulted. Catalog errors are returned as is.
func (v *IngredientValidator) Enrich(ctx context.Context, inputs []IngredientInput) ([]EnrichedIngredient, error) {
	names := make([]string, len(inputs))
	for i, in := range inputs {
		names[i] = in.Name
	}

	entries, err := v.catalog.LookupByNames(ctx, names)
	if err != nil {
		return nil, err
	}

	enriched := make([]EnrichedIngredient, len(inputs))
	for i, in := range inputs {
		e := EnrichedIngredient{IngredientInput: in, Category: CategoryUnknown}
		for _, entry := range entries {
			if strings.EqualFold(entry.Name, in.Name) {
				facts := entry.NutritionalData
				e.Validated = true
				e.Category = entry.Category
				e.NutritionalReference = &facts
				break
			}
		}
		enriched[i] = e
	}
	return enriched, nil
}
