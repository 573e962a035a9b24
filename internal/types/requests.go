package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pageza/pantry-chef/backend/internal/models"
)

// IngredientRequest is one user supplied ingredient. Clients may send either a
// bare string ("eggs") or an object ({"name":"eggs","quantity":"2"}).
type IngredientRequest struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity,omitempty"`
}

func (i *IngredientRequest) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		i.Name = strings.TrimSpace(name)
		return nil
	}

	var obj struct {
		Name     string          `json:"name"`
		Quantity json.RawMessage `json:"quantity"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid ingredient format")
	}
	i.Name = strings.TrimSpace(obj.Name)
	i.Quantity = rawToString(obj.Quantity)
	return nil
}

// rawToString accepts "2 cups" as well as 2
func rawToString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(raw))
}

// GenerateRecipeRequest represents the request body for recipe generation
type GenerateRecipeRequest struct {
	Ingredients        []IngredientRequest `json:"ingredients"`
	DietaryPreferences []string            `json:"dietary_preferences"`
	Complexity         string              `json:"complexity"`
}

// SaveRecipeRequest persists either a cached draft (DraftID) or an explicit recipe body
type SaveRecipeRequest struct {
	DraftID         string                    `json:"draft_id"`
	Title           string                    `json:"title"`
	Description     string                    `json:"description"`
	Ingredients     []models.RecipeIngredient `json:"ingredients"`
	Instructions    []string                  `json:"instructions"`
	PrepTime        string                    `json:"prep_time"`
	CookTime        string                    `json:"cook_time"`
	Servings        int                       `json:"servings" binding:"omitempty,min=1,max=100"`
	Complexity      string                    `json:"complexity"`
	NutritionalInfo *models.NutritionalFacts  `json:"nutritional_info"`
	Dietary         *models.DietaryFlags      `json:"dietary"`
	Tags            []string                  `json:"tags"`
	Cuisine         string                    `json:"cuisine"`
}

// UpdateRecipeRequest carries a partial update; nil fields are left untouched
type UpdateRecipeRequest struct {
	Title           *string                   `json:"title"`
	Description     *string                   `json:"description"`
	Ingredients     []models.RecipeIngredient `json:"ingredients"`
	Instructions    []string                  `json:"instructions"`
	PrepTime        *string                   `json:"prep_time"`
	CookTime        *string                   `json:"cook_time"`
	Servings        *int                      `json:"servings" binding:"omitempty,min=1,max=100"`
	Complexity      *string                   `json:"complexity"`
	NutritionalInfo *models.NutritionalFacts  `json:"nutritional_info"`
	Dietary         *models.DietaryFlags      `json:"dietary"`
	Tags            []string                  `json:"tags"`
	Cuisine         *string                   `json:"cuisine"`
}

// RateRecipeRequest represents a 1-5 score
type RateRecipeRequest struct {
	Score   int    `json:"score" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=1000"`
}

// ListRecipesQuery holds the query string filters of the recipe listing
type ListRecipesQuery struct {
	Dietary     string `form:"dietary"`
	Complexity  string `form:"complexity"`
	Ingredients string `form:"ingredients"`
	Query       string `form:"query"`
	Limit       int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Skip        int    `form:"skip" binding:"omitempty,min=0"`
	Sort        string `form:"sort"`
}

// RegisterRequest represents the request body for sign up
type RegisterRequest struct {
	Name               string   `json:"name" binding:"required,max=100"`
	Email              string   `json:"email" binding:"required,email"`
	Password           string   `json:"password" binding:"required,min=8"`
	DietaryPreferences []string `json:"dietary_preferences"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// SplitCSV splits a comma separated query value, dropping blanks
func SplitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
