package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/auth/register", map[string]interface{}{
		"name":     "Julia",
		"email":    "Julia@Example.com",
		"password": "mastering-the-art",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := decode(t, w)["data"].(map[string]interface{})
	token := data["token"].(string)
	assert.NotEmpty(t, token)
	user := data["user"].(map[string]interface{})
	assert.Equal(t, "julia@example.com", user["email"])
	assert.NotContains(t, user, "password_hash")

	w = env.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "julia@example.com",
		"password": "mastering-the-art",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["data"].(map[string]interface{})["token"])

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/v1/recipes/mine", nil, token).Code)
}

func TestRegisterErrors(t *testing.T) {
	env := setupTestEnv(t)
	env.registerUser(t, "taken@example.com")

	tests := []struct {
		name   string
		body   map[string]string
		status int
	}{
		{"duplicate email", map[string]string{"name": "A", "email": "taken@example.com", "password": "long-enough-1"}, http.StatusConflict},
		{"weak password", map[string]string{"name": "A", "email": "new@example.com", "password": "MyPassword1"}, http.StatusBadRequest},
		{"short password", map[string]string{"name": "A", "email": "new@example.com", "password": "short"}, http.StatusBadRequest},
		{"bad email", map[string]string{"name": "A", "email": "nope", "password": "long-enough-1"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/v1/auth/register", tt.body, "")
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "error", decode(t, w)["status"])
		})
	}
}

func TestLoginWrongPassword(t *testing.T) {
	env := setupTestEnv(t)
	env.registerUser(t, "cook@example.com")

	w := env.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "cook@example.com",
		"password": "not-the-right-one",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid email or password", decode(t, w)["message"])
}

func TestIngredientsListing(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/ingredients?category=vegetable", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, float64(1), resp["results"])
	assert.Equal(t, "tomato", resp["data"].([]interface{})[0].(map[string]interface{})["name"])

	w = env.do(t, http.MethodGet, "/api/v1/ingredients?q=EG", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["results"])

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/v1/ingredients?limit=zero", nil, "").Code)
}
