package service

import (
	"context"

	"github.com/pageza/pantry-chef/backend/internal/models"
)

// PlaceholderNutrition is returned for every recipe by FixedNutritionEstimator
var PlaceholderNutrition = models.NutritionalFacts{
	Calories: 450,
	Protein:  20,
	Carbs:    55,
	Fat:      15,
	Fiber:    8,
	Sugar:    10,
}

// FixedNutritionEstimator is a stand-in that ignores the recipe and returns
// PlaceholderNutrition.
// TODO: aggregate EnrichedIngredient.NutritionalReference per serving once quantities are parsed into grams.
type FixedNutritionEstimator struct{}

func (FixedNutritionEstimator) Estimate(_ context.Context, _ *GeneratedRecipe) (models.NutritionalFacts, error) {
	return PlaceholderNutrition, nil
}
