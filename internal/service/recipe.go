package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/pantry-chef/backend/internal/models"
	"github.com/pageza/pantry-chef/backend/internal/types"
)

const (
	defaultListLimit = 10
	maxListLimit     = 100
)

// sortColumns whitelists the accepted sort keys. A leading '-' means descending.
var sortColumns = map[string]string{
	"createdat":      "created_at",
	"created_at":     "created_at",
	"updatedat":      "updated_at",
	"updated_at":     "updated_at",
	"title":          "title",
	"averagerating":  "average_rating",
	"average_rating": "average_rating",
	"ratingscount":   "ratings_count",
	"ratings_count":  "ratings_count",
}

// RecipeFilter holds listing filters
type RecipeFilter struct {
	Dietary     []string
	Complexity  string
	Ingredients []string
	Query       string
	CreatorID   *uuid.UUID
	Limit       int
	Skip        int
	Sort        string
}

// RatingSummary is returned after a rating is recorded
type RatingSummary struct {
	AverageRating float64 `json:"average_rating"`
	RatingsCount  int     `json:"ratings_count"`
}

// RecipeService handles recipe operations
type RecipeService struct {
	db *gorm.DB
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB) *RecipeService {
	return &RecipeService{db: db}
}

// CreateRecipe creates a new recipe
func (s *RecipeService) CreateRecipe(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error) {
	recipe.Embedding = GenerateEmbedding(recipe.Title + " " + recipe.Description)
	if err := s.db.WithContext(ctx).Create(recipe).Error; err != nil {
		return nil, err
	}
	return recipe, nil
}

// GetRecipe retrieves a recipe by ID
func (s *RecipeService) GetRecipe(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

// getOwned loads a recipe and checks that userID created it. Recipes saved
// anonymously have no owner and cannot be modified.
func (s *RecipeService) getOwned(ctx context.Context, id, userID uuid.UUID) (*models.Recipe, error) {
	recipe, err := s.GetRecipe(ctx, id)
	if err != nil {
		return nil, err
	}
	if !recipe.IsOwnedBy(userID) {
		return nil, ErrForbidden
	}
	return recipe, nil
}

// UpdateRecipe applies a partial update on behalf of the recipe's creator
func (s *RecipeService) UpdateRecipe(ctx context.Context, id, userID uuid.UUID, req *types.UpdateRecipeRequest) (*models.Recipe, error) {
	recipe, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		recipe.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		recipe.Description = *req.Description
	}
	if req.Ingredients != nil {
		recipe.Ingredients = models.RecipeIngredients(req.Ingredients)
	}
	if req.Instructions != nil {
		recipe.Instructions = models.JSONBStringArray(req.Instructions)
	}
	if req.PrepTime != nil {
		recipe.PrepTime = *req.PrepTime
	}
	if req.CookTime != nil {
		recipe.CookTime = *req.CookTime
	}
	if req.Servings != nil {
		recipe.Servings = *req.Servings
	}
	if req.Complexity != nil {
		c, err := models.ParseComplexity(*req.Complexity)
		if err != nil {
			return nil, err
		}
		recipe.Complexity = c
	}
	if req.NutritionalInfo != nil {
		recipe.Nutrition = *req.NutritionalInfo
	}
	if req.Dietary != nil {
		recipe.Dietary = *req.Dietary
	}
	if req.Tags != nil {
		recipe.Tags = models.JSONBStringArray(req.Tags)
	}
	if req.Cuisine != nil {
		recipe.Cuisine = *req.Cuisine
	}

	recipe.Embedding = GenerateEmbedding(recipe.Title + " " + recipe.Description)
	if err := s.db.WithContext(ctx).Save(recipe).Error; err != nil {
		return nil, err
	}
	return recipe, nil
}

// DeleteRecipe soft deletes a recipe and removes its ratings
func (s *RecipeService) DeleteRecipe(ctx context.Context, id, userID uuid.UUID) error {
	recipe, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeRating{}).Error; err != nil {
			return err
		}
		return tx.Delete(recipe).Error
	})
}

// SetImageKey records the storage key of an uploaded image
func (s *RecipeService) SetImageKey(ctx context.Context, id, userID uuid.UUID, key string) (*models.Recipe, error) {
	recipe, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(recipe).UpdateColumn("image_key", key).Error; err != nil {
		return nil, err
	}
	recipe.ImageKey = key
	return recipe, nil
}

// ListRecipes returns one page of recipes plus the total matching count
func (s *RecipeService) ListRecipes(ctx context.Context, filter RecipeFilter) ([]models.Recipe, int64, error) {
	order, err := parseSort(filter.Sort)
	if err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	skip := filter.Skip
	if skip < 0 {
		skip = 0
	}

	isPostgres := s.db.Dialector.Name() == "postgres"
	query := s.db.WithContext(ctx).Model(&models.Recipe{})

	for _, diet := range filter.Dietary {
		col, ok := models.DietaryColumn(diet)
		if !ok {
			continue
		}
		query = query.Where(col+" = ?", true)
	}
	if filter.Complexity != "" {
		c, err := models.ParseComplexity(filter.Complexity)
		if err != nil {
			return nil, 0, err
		}
		query = query.Where("complexity = ?", c)
	}
	if filter.CreatorID != nil {
		query = query.Where("creator_id = ?", *filter.CreatorID)
	}

	ingredientsCol := "LOWER(ingredients)"
	if isPostgres {
		ingredientsCol = "LOWER(ingredients::text)"
	}
	for _, name := range filter.Ingredients {
		query = query.Where(ingredientsCol+" LIKE ?", "%"+strings.ToLower(strings.TrimSpace(name))+"%")
	}

	q := strings.ToLower(strings.TrimSpace(filter.Query))
	if q != "" {
		like := "%" + q + "%"
		query = query.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR "+ingredientsCol+" LIKE ?)", like, like, like)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if q != "" && isPostgres {
		// keyword matches are ranked by embedding distance before the requested order
		query = query.Clauses(clause.OrderBy{
			Expression: clause.Expr{SQL: "embedding <-> ?, " + order, Vars: []interface{}{GenerateEmbedding(q)}},
		})
	} else {
		query = query.Order(order)
	}

	var recipes []models.Recipe
	if err := query.Limit(limit).Offset(skip).Find(&recipes).Error; err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

func parseSort(sort string) (string, error) {
	sort = strings.TrimSpace(sort)
	if sort == "" {
		return "created_at DESC", nil
	}
	dir := "ASC"
	if strings.HasPrefix(sort, "-") {
		dir = "DESC"
		sort = sort[1:]
	}
	col, ok := sortColumns[strings.ToLower(sort)]
	if !ok {
		return "", ErrInvalidSort
	}
	return col + " " + dir, nil
}

// RateRecipe records or replaces userID's score and refreshes the recipe average
func (s *RecipeService) RateRecipe(ctx context.Context, id, userID uuid.UUID, score int, comment string) (*RatingSummary, error) {
	if score < 1 || score > 5 {
		return nil, ErrInvalidRating
	}

	var summary RatingSummary
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.Select("id").First(&recipe, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecipeNotFound
			}
			return err
		}

		rating := models.RecipeRating{RecipeID: id, UserID: userID, Score: score, Comment: comment}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "recipe_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"score", "comment", "updated_at"}),
		}).Create(&rating).Error; err != nil {
			return err
		}

		var agg struct {
			Average float64
			Count   int
		}
		if err := tx.Model(&models.RecipeRating{}).
			Select("COALESCE(AVG(score), 0) AS average, COUNT(*) AS count").
			Where("recipe_id = ?", id).
			Scan(&agg).Error; err != nil {
			return err
		}

		summary = RatingSummary{AverageRating: agg.Average, RatingsCount: agg.Count}
		return tx.Model(&models.Recipe{}).Where("id = ?", id).UpdateColumns(map[string]interface{}{
			"average_rating": summary.AverageRating,
			"ratings_count":  summary.RatingsCount,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}
