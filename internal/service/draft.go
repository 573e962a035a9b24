package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/pageza/pantry-chef/backend/internal/models"
)

// DraftTTL is how long a generated recipe can be saved after generation
const DraftTTL = 24 * time.Hour

// RecipeDraft is a generated recipe waiting to be saved
type RecipeDraft struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	Result    GenerationResult `json:"result"`
}

// NewRecipeDraft wraps a generation result for the given user (empty for anonymous callers)
func NewRecipeDraft(result *GenerationResult, userID string) *RecipeDraft {
	return &RecipeDraft{UserID: userID, Result: *result}
}

// DraftStore keeps drafts in redis under recipe:draft:<id>
type DraftStore struct {
	redis redis.Cmdable
	ttl   time.Duration
}

// NewDraftStore creates a new DraftStore instance
func NewDraftStore(client redis.Cmdable) *DraftStore {
	return &DraftStore{redis: client, ttl: DraftTTL}
}

func draftKey(id string) string {
	return fmt.Sprintf("recipe:draft:%s", id)
}

// SaveDraft assigns an ID and stores the draft with the draft TTL
func (s *DraftStore) SaveDraft(ctx context.Context, draft *RecipeDraft) error {
	draft.ID = uuid.New().String()
	draft.CreatedAt = time.Now().UTC()

	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}

	if err := s.redis.Set(ctx, draftKey(draft.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save draft to Redis: %w", err)
	}
	return nil
}

// GetDraft returns ErrDraftNotFound for unknown or expired IDs
func (s *DraftStore) GetDraft(ctx context.Context, id string) (*RecipeDraft, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrDraftNotFound
	}

	data, err := s.redis.Get(ctx, draftKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("failed to get draft from Redis: %w", err)
	}

	var draft RecipeDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft: %w", err)
	}
	return &draft, nil
}

func (s *DraftStore) DeleteDraft(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, draftKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete draft from Redis: %w", err)
	}
	return nil
}

// ToRecipe converts a generation result into a recipe ready to persist
func (r *GenerationResult) ToRecipe(creatorID *uuid.UUID) *models.Recipe {
	gen := r.Recipe

	ingredients := make(models.RecipeIngredients, 0, len(gen.Ingredients))
	for _, ing := range gen.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			continue
		}
		ingredients = append(ingredients, models.RecipeIngredient{
			Name:     ing.Name,
			Quantity: ing.Quantity,
			Unit:     ing.Unit,
		})
	}

	instructions := make(models.JSONBStringArray, 0, len(gen.Instructions))
	for _, step := range gen.Instructions {
		if step != "" {
			instructions = append(instructions, step)
		}
	}

	recipe := &models.Recipe{
		Title:         gen.Title,
		Description:   gen.Description,
		Ingredients:   ingredients,
		Instructions:  instructions,
		PrepTime:      string(gen.PrepTime),
		CookTime:      string(gen.CookTime),
		Servings:      int(gen.Servings),
		Complexity:    r.Complexity,
		Dietary:       models.DietaryFlagsFromPreferences(r.DietaryPreferences),
		Tags:          models.JSONBStringArray(append([]string{}, r.DietaryPreferences...)),
		CreatorID:     creatorID,
		GeneratedByAI: true,
		ParseKind:     string(r.ParseKind),
	}
	if gen.Nutrition != nil {
		recipe.Nutrition = *gen.Nutrition
	}
	if recipe.Title == "" {
		recipe.Title = "Untitled recipe"
	}
	return recipe
}
