package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/pantry-chef/backend/internal/models"
	"github.com/pageza/pantry-chef/backend/internal/types"
)

// CatalogEntry is the subset of a catalog ingredient the pipeline needs
type CatalogEntry struct {
	Name            string
	Category        models.IngredientCategory
	NutritionalData models.NutritionalFacts
}

// IngredientCatalog looks up ingredients by exact, case-insensitive name
type IngredientCatalog interface {
	LookupByNames(ctx context.Context, names []string) ([]CatalogEntry, error)
}

// CompletionRequest is one text-completion call
type CompletionRequest struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Completer returns the text of the first completion choice
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// NutritionEstimator computes per-serving facts for a generated recipe
type NutritionEstimator interface {
	Estimate(ctx context.Context, recipe *GeneratedRecipe) (models.NutritionalFacts, error)
}

// GenerationRecorder receives pipeline outcomes; implemented by the metrics package
type GenerationRecorder interface {
	ObserveGeneration(outcome string, elapsed time.Duration)
	ObserveModelRequest(status string, elapsed time.Duration)
}

// IRecipeGenerator defines the generation entry point used by the API
type IRecipeGenerator interface {
	Generate(ctx context.Context, in GenerateInput) (*GenerationResult, error)
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	CreateRecipe(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error)
	GetRecipe(ctx context.Context, id uuid.UUID) (*models.Recipe, error)
	UpdateRecipe(ctx context.Context, id, userID uuid.UUID, req *types.UpdateRecipeRequest) (*models.Recipe, error)
	DeleteRecipe(ctx context.Context, id, userID uuid.UUID) error
	ListRecipes(ctx context.Context, filter RecipeFilter) ([]models.Recipe, int64, error)
	RateRecipe(ctx context.Context, id, userID uuid.UUID, score int, comment string) (*RatingSummary, error)
	SetImageKey(ctx context.Context, id, userID uuid.UUID, key string) (*models.Recipe, error)
}

// ICatalogService defines the interface for ingredient catalog browsing
type ICatalogService interface {
	IngredientCatalog
	ListIngredients(ctx context.Context, filter IngredientFilter) ([]models.Ingredient, error)
}

// IDraftStore defines the interface for short-lived generated drafts
type IDraftStore interface {
	SaveDraft(ctx context.Context, draft *RecipeDraft) error
	GetDraft(ctx context.Context, id string) (*RecipeDraft, error)
	DeleteDraft(ctx context.Context, id string) error
}

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(ctx context.Context, req *types.RegisterRequest) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	ValidateToken(token string) (*types.TokenClaims, error)
}

// IImageService defines the interface for recipe image storage
type IImageService interface {
	UploadRecipeImage(ctx context.Context, recipeID uuid.UUID, contentType string, body io.Reader) (string, error)
	ImageURL(ctx context.Context, key string) (string, error)
}
