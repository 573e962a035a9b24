package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IngredientCategory classifies catalog entries
type IngredientCategory string

const (
	CategoryVegetable IngredientCategory = "vegetable"
	CategoryFruit     IngredientCategory = "fruit"
	CategoryGrain     IngredientCategory = "grain"
	CategoryProtein   IngredientCategory = "protein"
	CategoryDairy     IngredientCategory = "dairy"
	CategoryHerb      IngredientCategory = "herb"
	CategorySpice     IngredientCategory = "spice"
	CategoryOil       IngredientCategory = "oil"
	CategoryCondiment IngredientCategory = "condiment"
	CategoryOther     IngredientCategory = "other"
)

// IngredientCategories lists every valid category
var IngredientCategories = []IngredientCategory{
	CategoryVegetable, CategoryFruit, CategoryGrain, CategoryProtein, CategoryDairy,
	CategoryHerb, CategorySpice, CategoryOil, CategoryCondiment, CategoryOther,
}

// ParseIngredientCategory reports whether s names a known category
func ParseIngredientCategory(s string) (IngredientCategory, bool) {
	c := IngredientCategory(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range IngredientCategories {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// NutritionalFacts per serving. Embedded into both ingredients and recipes.
type NutritionalFacts struct {
	Calories float64 `gorm:"column:calories" json:"calories" yaml:"calories"`
	Protein  float64 `gorm:"column:protein" json:"protein" yaml:"protein"`
	Carbs    float64 `gorm:"column:carbs" json:"carbs" yaml:"carbs"`
	Fat      float64 `gorm:"column:fat" json:"fat" yaml:"fat"`
	Fiber    float64 `gorm:"column:fiber" json:"fiber" yaml:"fiber"`
	Sugar    float64 `gorm:"column:sugar" json:"sugar" yaml:"sugar"`
}

// Ingredient is a catalog entry used to enrich user supplied ingredients
type Ingredient struct {
	ID               uuid.UUID          `gorm:"type:varchar(36);primarykey" json:"id" yaml:"-"`
	CreatedAt        time.Time          `json:"created_at" yaml:"-"`
	UpdatedAt        time.Time          `json:"updated_at" yaml:"-"`
	Name             string             `gorm:"size:100;not null;uniqueIndex" json:"name" yaml:"name"`
	Category         IngredientCategory `gorm:"size:20;not null;index" json:"category" yaml:"category"`
	Description      string             `gorm:"type:text" json:"description,omitempty" yaml:"description"`
	NutritionalData  NutritionalFacts   `gorm:"embedded;embeddedPrefix:nutrition_" json:"nutritional_data" yaml:"nutrition"`
	ServingSize      string             `gorm:"size:30" json:"serving_size" yaml:"serving_size"`
	CommonUnit       string             `gorm:"size:30" json:"common_unit,omitempty" yaml:"common_unit"`
	AlternativeNames JSONBStringArray   `gorm:"type:jsonb" json:"alternative_names" yaml:"alternative_names"`
	IsAllergen       bool               `json:"is_allergen" yaml:"is_allergen"`
	AllergenType     string             `gorm:"size:50" json:"allergen_type,omitempty" yaml:"allergen_type"`
}

// BeforeCreate assigns the primary key
func (i *Ingredient) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// BeforeSave normalizes the name and fills defaults
func (i *Ingredient) BeforeSave(tx *gorm.DB) error {
	i.Name = strings.ToLower(strings.TrimSpace(i.Name))
	if c, ok := ParseIngredientCategory(string(i.Category)); ok {
		i.Category = c
	} else {
		i.Category = CategoryOther
	}
	if i.ServingSize == "" {
		i.ServingSize = "100g"
	}
	if i.AlternativeNames == nil {
		i.AlternativeNames = JSONBStringArray{}
	}
	return nil
}
