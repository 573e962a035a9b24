package service_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/pantry-chef/backend/internal/models"
	"github.com/pageza/pantry-chef/backend/internal/service"
	"github.com/pageza/pantry-chef/backend/internal/testhelpers"
)

func seedCatalog(t *testing.T, svc *service.CatalogService) {
	t.Helper()
	n, err := svc.UpsertIngredients(context.Background(), []models.Ingredient{
		{Name: "Tomato", Category: models.CategoryVegetable, NutritionalData: models.NutritionalFacts{Calories: 18}},
		{Name: "basil", Category: models.CategoryHerb},
		{Name: "beef", Category: models.CategoryProtein, IsAllergen: false},
		{Name: "butter", Category: models.CategoryDairy, IsAllergen: true, AllergenType: "milk"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
}

func TestCatalogLookupByNames(t *testing.T) {
	svc := service.NewCatalogService(testhelpers.SetupTestDB(t))
	seedCatalog(t, svc)

	entries, err := svc.LookupByNames(context.Background(), []string{"TOMATO", "Basil", "tomato", "unicorn", " "})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byName := map[string]service.CatalogEntry{}
	for _, e := range entries {
		byName[e.Name] = e
	}
	assert.Equal(t, models.CategoryVegetable, byName["tomato"].Category)
	assert.Equal(t, 18.0, byName["tomato"].NutritionalData.Calories)
	assert.Equal(t, models.CategoryHerb, byName["basil"].Category)

	entries, err = svc.LookupByNames(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCatalogUpsertRefreshesExisting(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := service.NewCatalogService(db)
	seedCatalog(t, svc)

	_, err := svc.UpsertIngredients(context.Background(), []models.Ingredient{
		{Name: "tomato", Category: models.CategoryFruit, NutritionalData: models.NutritionalFacts{Calories: 20}},
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Ingredient{}).Count(&count).Error)
	assert.EqualValues(t, 4, count)

	entries, err := svc.LookupByNames(context.Background(), []string{"tomato"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.CategoryFruit, entries[0].Category)
	assert.Equal(t, 20.0, entries[0].NutritionalData.Calories)
}

func TestCatalogListIngredients(t *testing.T) {
	svc := service.NewCatalogService(testhelpers.SetupTestDB(t))
	seedCatalog(t, svc)
	ctx := context.Background()

	all, err := svc.ListIngredients(ctx, service.IngredientFilter{})
	require.NoError(t, err)
	names := make([]string, len(all))
	for i, ing := range all {
		names[i] = ing.Name
	}
	assert.Equal(t, []string{"basil", "beef", "butter", "tomato"}, names)

	prefixed, err := svc.ListIngredients(ctx, service.IngredientFilter{Query: "B", Limit: 2})
	require.NoError(t, err)
	require.Len(t, prefixed, 2)
	assert.Equal(t, "basil", prefixed[0].Name)

	dairy, err := svc.ListIngredients(ctx, service.IngredientFilter{Category: "Dairy"})
	require.NoError(t, err)
	require.Len(t, dairy, 1)
	assert.Equal(t, "butter", dairy[0].Name)
	assert.True(t, dairy[0].IsAllergen)
}

func TestValidatorAgainstCatalog(t *testing.T) {
	svc := service.NewCatalogService(testhelpers.SetupTestDB(t))
	seedCatalog(t, svc)

	out, err := service.NewIngredientValidator(svc).Enrich(context.Background(), []service.IngredientInput{
		{Name: "Butter"}, {Name: "saffron"},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.True(t, out[0].Validated)
	assert.Equal(t, models.CategoryDairy, out[0].Category)
	assert.False(t, out[1].Validated)
	assert.Equal(t, service.CategoryUnknown, out[1].Category)
}

func TestLoadCatalogYAML(t *testing.T) {
	ingredients, err := service.LoadCatalogYAML(strings.NewReader(`
ingredients:
  - name: " Basil "
    category: HERB
    nutrition: {calories: 23}
  - name: olive oil
    category: oil
    alternative_names: [evoo]
`))
	require.NoError(t, err)
	require.Len(t, ingredients, 2)
	assert.Equal(t, "basil", ingredients[0].Name)
	assert.Equal(t, models.CategoryHerb, ingredients[0].Category)
	assert.Equal(t, 23.0, ingredients[0].NutritionalData.Calories)
	assert.Equal(t, models.JSONBStringArray{"evoo"}, ingredients[1].AlternativeNames)
}

func TestLoadCatalogYAMLRejectsBadEntries(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty", ``, "empty"},
		{"missing name", "ingredients:\n  - category: herb\n", "name is required"},
		{"duplicate", "ingredients:\n  - {name: Egg, category: protein}\n  - {name: egg, category: protein}\n", "duplicates entry 1"},
		{"unknown category", "ingredients:\n  - {name: egg, category: bird}\n", `unknown category "bird"`},
		{"unknown field", "ingredients:\n  - {name: egg, category: protein, colour: white}\n", "field colour not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.LoadCatalogYAML(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestStarterCatalogSeeds(t *testing.T) {
	f, err := os.Open(filepath.Join("..", "..", "data", "ingredients.yaml"))
	require.NoError(t, err)
	defer f.Close()

	ingredients, err := service.LoadCatalogYAML(f)
	require.NoError(t, err)
	require.NotEmpty(t, ingredients)

	svc := service.NewCatalogService(testhelpers.SetupTestDB(t))
	n, err := svc.UpsertIngredients(context.Background(), ingredients)
	require.NoError(t, err)
	assert.EqualValues(t, len(ingredients), n)

	entries, err := svc.LookupByNames(context.Background(), []string{"Egg", "olive oil"})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
