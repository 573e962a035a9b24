package service

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/pantry-chef/backend/internal/models"
)

// IngredientFilter narrows the catalog listing
type IngredientFilter struct {
	Category string
	Query    string
	Limit    int
}

// CatalogService reads and seeds the ingredient catalog
type CatalogService struct {
	db *gorm.DB
}

// NewCatalogService creates a new CatalogService instance
func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// LookupByNames returns the catalog entries whose name equals one of names, ignoring case
func (s *CatalogService) LookupByNames(ctx context.Context, names []string) ([]CatalogEntry, error) {
	seen := make(map[string]struct{}, len(names))
	lowered := make([]string, 0, len(names))
	for _, n := range names {
		key := strings.ToLower(strings.TrimSpace(n))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		lowered = append(lowered, key)
	}
	if len(lowered) == 0 {
		return nil, nil
	}

	var ingredients []models.Ingredient
	if err := s.db.WithContext(ctx).Where("LOWER(name) IN ?", lowered).Find(&ingredients).Error; err != nil {
		return nil, err
	}

	entries := make([]CatalogEntry, len(ingredients))
	for i, ing := range ingredients {
		entries[i] = CatalogEntry{
			Name:            ing.Name,
			Category:        ing.Category,
			NutritionalData: ing.NutritionalData,
		}
	}
	return entries, nil
}

// ListIngredients browses the catalog by category and name prefix
func (s *CatalogService) ListIngredients(ctx context.Context, filter IngredientFilter) ([]models.Ingredient, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := s.db.WithContext(ctx).Model(&models.Ingredient{})
	if filter.Category != "" {
		query = query.Where("category = ?", strings.ToLower(filter.Category))
	}
	if q := strings.ToLower(strings.TrimSpace(filter.Query)); q != "" {
		query = query.Where("name LIKE ?", q+"%")
	}

	var ingredients []models.Ingredient
	if err := query.Order("name ASC").Limit(limit).Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}

// UpsertIngredients inserts new catalog entries and refreshes existing ones by name
func (s *CatalogService) UpsertIngredients(ctx context.Context, ingredients []models.Ingredient) (int64, error) {
	if len(ingredients) == 0 {
		return 0, nil
	}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"category", "description", "serving_size", "common_unit", "alternative_names",
			"is_allergen", "allergen_type", "updated_at",
			"nutrition_calories", "nutrition_protein", "nutrition_carbs",
			"nutrition_fat", "nutrition_fiber", "nutrition_sugar",
		}),
	}).CreateInBatches(ingredients, 100)
	return result.RowsAffected, result.Error
}
