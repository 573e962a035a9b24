package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pageza/pantry-chef/backend/internal/middleware"
	"github.com/pageza/pantry-chef/backend/internal/models"
	"github.com/pageza/pantry-chef/backend/internal/service"
	"github.com/pageza/pantry-chef/backend/internal/testhelpers"
	"github.com/pageza/pantry-chef/backend/internal/types"
)

const testJWTSecret = "test-secret-key-for-handlers"

const strictRecipe = `{"title":"Omelette","description":"Fluffy","ingredients":["2 eggs"],"instructions":["Whisk","Cook"],"prepTime":"5 minutes","cookTime":"5 minutes","servings":1}`

func init() {
	gin.SetMode(gin.TestMode)
}

type stubCompleter struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int
}

func (s *stubCompleter) Complete(context.Context, service.CompletionRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.text, s.err
}

// memoryDrafts keeps drafts in a map so handler tests run without redis
type memoryDrafts struct {
	mu     sync.Mutex
	drafts map[string]*service.RecipeDraft
}

func newMemoryDrafts() *memoryDrafts {
	return &memoryDrafts{drafts: make(map[string]*service.RecipeDraft)}
}

func (m *memoryDrafts) SaveDraft(_ context.Context, d *service.RecipeDraft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.ID = uuid.NewString()
	d.CreatedAt = time.Now()
	m.drafts[d.ID] = d
	return nil
}

func (m *memoryDrafts) GetDraft(_ context.Context, id string) (*service.RecipeDraft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[id]
	if !ok {
		return nil, service.ErrDraftNotFound
	}
	return d, nil
}

func (m *memoryDrafts) DeleteDraft(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, id)
	return nil
}

type fakeImages struct {
	uploads map[string][]byte
}

func (f *fakeImages) UploadRecipeImage(_ context.Context, recipeID uuid.UUID, contentType string, body io.Reader) (string, error) {
	ext, err := service.ImageExtension(contentType)
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	key := service.RecipeImageKey(recipeID, ext)
	f.uploads[key] = data
	return key, nil
}

func (f *fakeImages) ImageURL(_ context.Context, key string) (string, error) {
	return "https://images.example.com/" + key + "?signed=1", nil
}

type testEnv struct {
	router    *gin.Engine
	auth      *service.AuthService
	recipes   *service.RecipeService
	catalog   *service.CatalogService
	completer *stubCompleter
	drafts    *memoryDrafts
	images    *fakeImages
}

type envOption func(*Deps)

func withoutDrafts() envOption {
	return func(d *Deps) { d.Drafts = nil }
}

func withoutImages() envOption {
	return func(d *Deps) { d.Images = nil }
}

func withLimiter(limit int) envOption {
	return func(d *Deps) {
		d.Limiter = middleware.NewGenerationRateLimiter(nil, limit, time.Hour, nil)
	}
}

func setupTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	db := testhelpers.SetupTestDB(t)

	env := &testEnv{
		auth:      service.NewAuthService(db, testJWTSecret, time.Hour),
		recipes:   service.NewRecipeService(db),
		catalog:   service.NewCatalogService(db),
		completer: &stubCompleter{text: strictRecipe},
		drafts:    newMemoryDrafts(),
		images:    &fakeImages{uploads: make(map[string][]byte)},
	}

	_, err := env.catalog.UpsertIngredients(context.Background(), []models.Ingredient{
		{Name: "egg", Category: models.CategoryProtein},
		{Name: "tomato", Category: models.CategoryVegetable},
	})
	require.NoError(t, err)

	deps := Deps{
		Auth:      env.auth,
		Recipes:   env.recipes,
		Catalog:   env.catalog,
		Generator: service.NewRecipeGenerator(env.catalog, env.completer),
		Drafts:    env.drafts,
		Images:    env.images,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	env.router = gin.New()
	RegisterRoutes(env.router, deps)
	return env
}

// registerUser creates an account and returns its id and bearer token
func (e *testEnv) registerUser(t *testing.T, email string) (uuid.UUID, string) {
	t.Helper()
	user, token, err := e.auth.Register(context.Background(), &types.RegisterRequest{
		Name:     "Test Cook",
		Email:    email,
		Password: "s3cure-enough",
	})
	require.NoError(t, err)
	return user.ID, token
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (e *testEnv) seedRecipe(t *testing.T, title string, owner *uuid.UUID) *models.Recipe {
	t.Helper()
	r, err := e.recipes.CreateRecipe(context.Background(), &models.Recipe{
		Title:        title,
		Description:  "seeded",
		Ingredients:  models.RecipeIngredients{{Name: "water"}},
		Instructions: models.JSONBStringArray{"Cook"},
		CreatorID:    owner,
	})
	require.NoError(t, err)
	return r
}
