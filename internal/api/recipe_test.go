package api

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	env := setupTestEnv(t)
	for _, path := range []string{"/health", "/api/health"} {
		w := env.do(t, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
	}
}

func TestGenerateRecipe(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/recipes/generate", map[string]interface{}{
		"ingredients":         []interface{}{"egg", map[string]interface{}{"name": "chives", "quantity": 1}},
		"dietary_preferences": []string{"vegetarian"},
		"complexity":          "beginner",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode(t, w)
	assert.Equal(t, "success", resp["status"])
	assert.Equal(t, "strict", resp["parse_kind"])
	draftID, ok := resp["draft_id"].(string)
	require.True(t, ok)
	assert.NotEmpty(t, draftID)

	data := resp["data"].(map[string]interface{})
	recipe := data["recipe"].(map[string]interface{})
	assert.Equal(t, "Omelette", recipe["title"])
	enriched := data["enriched_ingredients"].([]interface{})
	require.Len(t, enriched, 2)
	assert.Equal(t, 1, env.completer.calls)
}

func TestGenerateRecipeValidation(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{"no ingredients", map[string]interface{}{"ingredients": []string{}}},
		{"blank ingredient", map[string]interface{}{"ingredients": []string{"  "}}},
		{"bad complexity", map[string]interface{}{"ingredients": []string{"egg"}, "complexity": "expert"}},
		{"not json", "eggs please"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/v1/recipes/generate", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "error", decode(t, w)["status"])
		})
	}
	assert.Zero(t, env.completer.calls)
}

func TestGenerateRecipeFailureIsOpaque(t *testing.T) {
	env := setupTestEnv(t)
	env.completer.err = errors.New("upstream said: invalid api key sk-123")

	w := env.do(t, http.MethodPost, "/api/v1/recipes/generate", map[string]interface{}{
		"ingredients": []string{"egg"},
	}, "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"Failed to generate recipe"}`, w.Body.String())
}

func TestGenerateRecipeWithoutDrafts(t *testing.T) {
	env := setupTestEnv(t, withoutDrafts())

	w := env.do(t, http.MethodPost, "/api/v1/recipes/generate", map[string]interface{}{
		"ingredients": []string{"egg"},
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, decode(t, w), "draft_id")

	w = env.do(t, http.MethodPost, "/api/v1/recipes/save", map[string]interface{}{"draft_id": uuid.NewString()}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGenerateRecipeRateLimited(t *testing.T) {
	env := setupTestEnv(t, withLimiter(1))
	body := map[string]interface{}{"ingredients": []string{"egg"}}

	first := env.do(t, http.MethodPost, "/api/v1/recipes/generate", body, "")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))

	second := env.do(t, http.MethodPost, "/api/v1/recipes/generate", body, "")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Contains(t, decode(t, second), "retry_after")
	assert.Equal(t, 1, env.completer.calls)
}

func TestSaveRecipeFromDraft(t *testing.T) {
	env := setupTestEnv(t)
	userID, token := env.registerUser(t, "chef@example.com")

	w := env.do(t, http.MethodPost, "/api/v1/recipes/generate", map[string]interface{}{
		"ingredients":         []string{"egg"},
		"dietary_preferences": []string{"vegetarian"},
	}, token)
	require.Equal(t, http.StatusOK, w.Code)
	draftID := decode(t, w)["draft_id"].(string)

	w = env.do(t, http.MethodPost, "/api/v1/recipes/save", map[string]interface{}{"draft_id": draftID}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	saved := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "Omelette", saved["title"])
	assert.Equal(t, userID.String(), saved["creator_id"])
	assert.Equal(t, true, saved["generated_by_ai"])
	assert.Equal(t, true, saved["dietary"].(map[string]interface{})["vegetarian"])

	w = env.do(t, http.MethodPost, "/api/v1/recipes/save", map[string]interface{}{"draft_id": draftID}, token)
	assert.Equal(t, http.StatusNotFound, w.Code, "draft is consumed by the first save")
}

func TestSaveRecipeDraftOwnedByAnotherUser(t *testing.T) {
	env := setupTestEnv(t)
	_, owner := env.registerUser(t, "owner@example.com")
	_, other := env.registerUser(t, "other@example.com")

	w := env.do(t, http.MethodPost, "/api/v1/recipes/generate", map[string]interface{}{"ingredients": []string{"egg"}}, owner)
	require.Equal(t, http.StatusOK, w.Code)
	draftID := decode(t, w)["draft_id"].(string)

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPost, "/api/v1/recipes/save", map[string]interface{}{"draft_id": draftID}, other).Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPost, "/api/v1/recipes/save", map[string]interface{}{"draft_id": draftID}, "").Code)
}

func TestSaveRecipeFromBody(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/recipes/save", map[string]interface{}{
		"title":        "Salad",
		"ingredients":  []map[string]string{{"name": "tomato", "quantity": "2"}},
		"instructions": []string{"Chop", "Toss"},
		"complexity":   "Beginner",
		"servings":     2,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	saved := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "beginner", saved["complexity"])
	assert.NotContains(t, saved, "creator_id")

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing title", map[string]interface{}{"ingredients": []map[string]string{{"name": "x"}}, "instructions": []string{"a"}}},
		{"missing instructions", map[string]interface{}{"title": "x", "ingredients": []map[string]string{{"name": "x"}}}},
		{"bad complexity", map[string]interface{}{"title": "x", "ingredients": []map[string]string{{"name": "x"}}, "instructions": []string{"a"}, "complexity": "chef"}},
		{"too many servings", map[string]interface{}{"title": "x", "ingredients": []map[string]string{{"name": "x"}}, "instructions": []string{"a"}, "servings": 500}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/v1/recipes/save", tt.body, "").Code)
		})
	}
}

func TestListRecipes(t *testing.T) {
	env := setupTestEnv(t)
	userID, token := env.registerUser(t, "lister@example.com")
	env.seedRecipe(t, "Tomato Soup", &userID)
	env.seedRecipe(t, "Tomato Salad", nil)
	env.seedRecipe(t, "Garlic Bread", nil)

	w := env.do(t, http.MethodGet, "/api/v1/recipes?query=tomato&limit=1&sort=title", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode(t, w)
	assert.Equal(t, float64(1), resp["results"])
	assert.Equal(t, float64(2), resp["total"])
	assert.Equal(t, "Tomato Salad", resp["data"].([]interface{})[0].(map[string]interface{})["title"])

	w = env.do(t, http.MethodGet, "/api/v1/recipes/mine", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["total"])

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/v1/recipes/mine", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/v1/recipes?sort=calories", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/v1/recipes?limit=1000", nil, "").Code)
}

func TestGetRecipe(t *testing.T) {
	env := setupTestEnv(t)
	r := env.seedRecipe(t, "Tomato Soup", nil)

	w := env.do(t, http.MethodGet, "/api/v1/recipes/"+r.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Tomato Soup", decode(t, w)["data"].(map[string]interface{})["title"])

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/v1/recipes/"+uuid.NewString(), nil, "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/v1/recipes/not-a-uuid", nil, "").Code)
}

func TestUpdateAndDeleteRecipeOwnership(t *testing.T) {
	env := setupTestEnv(t)
	ownerID, owner := env.registerUser(t, "owner@example.com")
	_, intruder := env.registerUser(t, "intruder@example.com")
	r := env.seedRecipe(t, "Tomato Soup", &ownerID)
	path := "/api/v1/recipes/" + r.ID.String()

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPut, path, map[string]string{"title": "Mine"}, "").Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPut, path, map[string]string{"title": "Mine"}, intruder).Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodDelete, path, nil, intruder).Code)

	w := env.do(t, http.MethodPut, path, map[string]string{"title": "Roasted Tomato Soup"}, owner)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Roasted Tomato Soup", decode(t, w)["data"].(map[string]interface{})["title"])

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPut, path, map[string]string{"complexity": "impossible"}, owner).Code)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, path, nil, owner).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, path, nil, "").Code)
}

func TestAnonymousRecipeIsReadOnly(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.registerUser(t, "someone@example.com")
	r := env.seedRecipe(t, "Community Soup", nil)

	w := env.do(t, http.MethodDelete, "/api/v1/recipes/"+r.ID.String(), nil, token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRateRecipe(t *testing.T) {
	env := setupTestEnv(t)
	_, alice := env.registerUser(t, "alice@example.com")
	_, bob := env.registerUser(t, "bob@example.com")
	r := env.seedRecipe(t, "Tomato Soup", nil)
	path := "/api/v1/recipes/" + r.ID.String() + "/rate"

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, path, map[string]int{"score": 5}, alice).Code)
	w := env.do(t, http.MethodPost, path, map[string]int{"score": 2}, bob)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.InDelta(t, 3.5, resp["averageRating"], 0.001)
	assert.Equal(t, float64(2), resp["ratingsCount"])

	w = env.do(t, http.MethodPost, path, map[string]int{"score": 4}, bob)
	resp = decode(t, w)
	assert.InDelta(t, 4.5, resp["averageRating"], 0.001, "re-rating replaces the previous score")
	assert.Equal(t, float64(2), resp["ratingsCount"])

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, path, map[string]int{"score": 6}, alice).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, path, map[string]int{"score": 3}, "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/v1/recipes/"+uuid.NewString()+"/rate", map[string]int{"score": 3}, alice).Code)
}

func imageRequest(t *testing.T, path, token, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="dish"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestUploadImage(t *testing.T) {
	env := setupTestEnv(t)
	ownerID, owner := env.registerUser(t, "owner@example.com")
	_, intruder := env.registerUser(t, "intruder@example.com")
	r := env.seedRecipe(t, "Tomato Soup", &ownerID)
	path := fmt.Sprintf("/api/v1/recipes/%s/image", r.ID)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, imageRequest(t, path, owner, "image/png", []byte("\x89PNG fake")))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode(t, w)
	key := resp["data"].(map[string]interface{})["image_key"].(string)
	assert.Regexp(t, `^recipes/`+r.ID.String()+`/.+\.png$`, key)
	assert.Contains(t, resp["image_url"], key)
	assert.Contains(t, env.images.uploads, key)

	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, imageRequest(t, path, owner, "image/gif", []byte("GIF89a")))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, imageRequest(t, path, intruder, "image/png", []byte("x")))
	assert.Equal(t, http.StatusForbidden, w.Code)

	got := env.do(t, http.MethodGet, "/api/v1/recipes/"+r.ID.String(), nil, "")
	assert.Contains(t, decode(t, got)["image_url"], key)
}

func TestUploadImageWithoutStorage(t *testing.T) {
	env := setupTestEnv(t, withoutImages())
	ownerID, owner := env.registerUser(t, "owner@example.com")
	r := env.seedRecipe(t, "Tomato Soup", &ownerID)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, imageRequest(t, "/api/v1/recipes/"+r.ID.String()+"/image", owner, "image/png", []byte("x")))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
