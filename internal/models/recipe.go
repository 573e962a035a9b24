package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// Complexity is the requested difficulty of a generated recipe
type Complexity string

const (
	ComplexityBeginner     Complexity = "beginner"
	ComplexityIntermediate Complexity = "intermediate"
	ComplexityAdvanced     Complexity = "advanced"
)

// ErrInvalidComplexity is returned for levels outside beginner/intermediate/advanced
var ErrInvalidComplexity = errors.New("complexity must be beginner, intermediate or advanced")

// ParseComplexity accepts any casing. An empty value means intermediate.
func ParseComplexity(s string) (Complexity, error) {
	switch c := Complexity(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return ComplexityIntermediate, nil
	case ComplexityBeginner, ComplexityIntermediate, ComplexityAdvanced:
		return c, nil
	default:
		return "", ErrInvalidComplexity
	}
}

// DietaryFlags marks which diets a recipe is suitable for
type DietaryFlags struct {
	Vegetarian bool `gorm:"column:vegetarian" json:"vegetarian"`
	Vegan      bool `gorm:"column:vegan" json:"vegan"`
	GlutenFree bool `gorm:"column:gluten_free" json:"gluten_free"`
	DairyFree  bool `gorm:"column:dairy_free" json:"dairy_free"`
	NutFree    bool `gorm:"column:nut_free" json:"nut_free"`
	LowCarb    bool `gorm:"column:low_carb" json:"low_carb"`
}

var dietaryColumns = map[string]string{
	"vegetarian": "dietary_vegetarian",
	"vegan":      "dietary_vegan",
	"glutenfree": "dietary_gluten_free",
	"dairyfree":  "dietary_dairy_free",
	"nutfree":    "dietary_nut_free",
	"lowcarb":    "dietary_low_carb",
}

// DietaryColumn maps a diet name such as "gluten-free" or "glutenFree" to its column
func DietaryColumn(name string) (string, bool) {
	key := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(name))
	col, ok := dietaryColumns[key]
	return col, ok
}

// DietaryFlagsFromPreferences sets the flags named in prefs; unknown names are ignored
func DietaryFlagsFromPreferences(prefs []string) DietaryFlags {
	var f DietaryFlags
	for _, p := range prefs {
		col, ok := DietaryColumn(p)
		if !ok {
			continue
		}
		switch col {
		case "dietary_vegetarian":
			f.Vegetarian = true
		case "dietary_vegan":
			f.Vegan = true
			f.Vegetarian = true
		case "dietary_gluten_free":
			f.GlutenFree = true
		case "dietary_dairy_free":
			f.DairyFree = true
		case "dietary_nut_free":
			f.NutFree = true
		case "dietary_low_carb":
			f.LowCarb = true
		}
	}
	return f
}

// Recipe is a persisted recipe, generated or hand written
type Recipe struct {
	ID            uuid.UUID         `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	DeletedAt     gorm.DeletedAt    `gorm:"index" json:"-"`
	Title         string            `gorm:"size:255;not null" json:"title"`
	Description   string            `gorm:"type:text" json:"description"`
	Ingredients   RecipeIngredients `gorm:"type:jsonb;not null" json:"ingredients"`
	Instructions  JSONBStringArray  `gorm:"type:jsonb;not null" json:"instructions"`
	PrepTime      string            `gorm:"size:50" json:"prep_time"`
	CookTime      string            `gorm:"size:50" json:"cook_time"`
	TotalTime     string            `gorm:"size:110" json:"total_time"`
	Servings      int               `gorm:"not null" json:"servings"`
	Complexity    Complexity        `gorm:"size:20;not null;index" json:"complexity"`
	ImageKey      string            `gorm:"size:255" json:"image_key,omitempty"`
	Nutrition     NutritionalFacts  `gorm:"embedded;embeddedPrefix:nutrition_" json:"nutritional_info"`
	Dietary       DietaryFlags      `gorm:"embedded;embeddedPrefix:dietary_" json:"dietary"`
	Tags          JSONBStringArray  `gorm:"type:jsonb" json:"tags"`
	Cuisine       string            `gorm:"size:50" json:"cuisine,omitempty"`
	CreatorID     *uuid.UUID        `gorm:"type:varchar(36);index" json:"creator_id,omitempty"`
	GeneratedByAI bool              `json:"generated_by_ai"`
	ParseKind     string            `gorm:"size:20" json:"parse_kind,omitempty"`
	AverageRating float64           `gorm:"not null;default:0" json:"average_rating"`
	RatingsCount  int               `gorm:"not null;default:0" json:"ratings_count"`
	Embedding     pgvector.Vector   `gorm:"type:vector(3)" json:"-"`
}

// BeforeCreate assigns the primary key
func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// BeforeSave fills defaults and derives the total time
func (r *Recipe) BeforeSave(tx *gorm.DB) error {
	if r.Servings <= 0 {
		r.Servings = 4
	}
	if r.Complexity == "" {
		r.Complexity = ComplexityIntermediate
	}
	if r.Ingredients == nil {
		r.Ingredients = RecipeIngredients{}
	}
	if r.Instructions == nil {
		r.Instructions = JSONBStringArray{}
	}
	if r.Tags == nil {
		r.Tags = JSONBStringArray{}
	}
	if len(r.Embedding.Slice()) != EmbeddingDimensions {
		r.Embedding = pgvector.NewVector(make([]float32, EmbeddingDimensions))
	}
	r.TotalTime = TotalTime(r.PrepTime, r.CookTime)
	return nil
}

// EmbeddingDimensions matches the vector(3) column
const EmbeddingDimensions = 3

// TotalTime joins prep and cook time as "prep + cook"
func TotalTime(prep, cook string) string {
	switch {
	case prep != "" && cook != "":
		return prep + " + " + cook
	case prep != "":
		return prep
	default:
		return cook
	}
}

// IsOwnedBy reports whether userID created the recipe. Anonymous recipes have no owner.
func (r *Recipe) IsOwnedBy(userID uuid.UUID) bool {
	return r.CreatorID != nil && *r.CreatorID == userID
}

// RecipeRating is one user's score for a recipe
type RecipeRating struct {
	ID        uuid.UUID `gorm:"type:varchar(36);primarykey" json:"id"`
	RecipeID  uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_rating_recipe_user" json:"recipe_id"`
	UserID    uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_rating_recipe_user" json:"user_id"`
	Score     int       `gorm:"not null;check:score >= 1 AND score <= 5" json:"score"`
	Comment   string    `gorm:"type:text" json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns the primary key
func (r *RecipeRating) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
