package mocks

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/pageza/pantry-chef/backend/internal/models"
	"github.com/pageza/pantry-chef/backend/internal/service"
)

// MockRecipeGenerator is a mock implementation of the generation pipeline
type MockRecipeGenerator struct {
	mock.Mock
}

var _ service.IRecipeGenerator = (*MockRecipeGenerator)(nil)

func (m *MockRecipeGenerator) Generate(ctx context.Context, in service.GenerateInput) (*service.GenerationResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.GenerationResult), args.Error(1)
}

// MockDraftStore is a mock implementation of the draft store
type MockDraftStore struct {
	mock.Mock
}

var _ service.IDraftStore = (*MockDraftStore)(nil)

func (m *MockDraftStore) SaveDraft(ctx context.Context, draft *service.RecipeDraft) error {
	args := m.Called(ctx, draft)
	return args.Error(0)
}

func (m *MockDraftStore) GetDraft(ctx context.Context, id string) (*service.RecipeDraft, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RecipeDraft), args.Error(1)
}

func (m *MockDraftStore) DeleteDraft(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockCatalogService is a mock implementation of the ingredient catalog
type MockCatalogService struct {
	mock.Mock
}

var _ service.ICatalogService = (*MockCatalogService)(nil)

func (m *MockCatalogService) LookupByNames(ctx context.Context, names []string) ([]service.CatalogEntry, error) {
	args := m.Called(ctx, names)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.CatalogEntry), args.Error(1)
}

func (m *MockCatalogService) ListIngredients(ctx context.Context, filter service.IngredientFilter) ([]models.Ingredient, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Ingredient), args.Error(1)
}

// MockImageService is a mock implementation of recipe image storage
type MockImageService struct {
	mock.Mock
}

var _ service.IImageService = (*MockImageService)(nil)

func (m *MockImageService) UploadRecipeImage(ctx context.Context, recipeID uuid.UUID, contentType string, body io.Reader) (string, error) {
	args := m.Called(ctx, recipeID, contentType, body)
	return args.String(0), args.Error(1)
}

func (m *MockImageService) ImageURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}
