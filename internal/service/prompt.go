package service

import (
	"fmt"
	"strings"

	"github.com/pageza/pantry-chef/backend/internal/models"
)

// ComposePrompt renders the completion prompt. Only ingredient names are sent;
// quantities stay on the enriched list. Output is byte-identical for identical input.
func ComposePrompt(ingredients []EnrichedIngredient, dietaryPreferences []string, complexity models.Complexity) string {
	names := make([]string, len(ingredients))
	for i, ing := range ingredients {
		names[i] = ing.Name
	}

	return fmt.Sprintf(
		"Create a %s level recipe using some or all of these ingredients: %s.\n"+
			"Dietary preferences: %s.\n"+
			"Format the response as a JSON object with title, description, ingredients (with quantities), "+
			"instructions (as an array of steps), prepTime, cookTime, and servings.",
		complexity,
		strings.Join(names, ", "),
		strings.Join(dietaryPreferences, ", "),
	)
}
