package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/pantry-chef/backend/internal/service"
	"github.com/pageza/pantry-chef/backend/internal/testhelpers"
	"github.com/pageza/pantry-chef/backend/internal/types"
)

func setupAuthTest(t *testing.T) *service.AuthService {
	t.Helper()
	return service.NewAuthService(testhelpers.SetupTestDB(t), "test-secret", time.Hour)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := setupAuthTest(t)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, &types.RegisterRequest{
		Name:               "Test User",
		Email:              "Test@Example.com",
		Password:           "s3cure-pass",
		DietaryPreferences: []string{"vegan", ""},
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "test@example.com", user.Email)
	assert.NotEqual(t, "s3cure-pass", user.PasswordHash)
	assert.Equal(t, []string{"vegan"}, []string(user.DietaryPreferences))
	assert.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "test@example.com", claims.Email)

	_, _, err = svc.Register(ctx, &types.RegisterRequest{Name: "Dup", Email: "test@example.com", Password: "another-one"})
	assert.ErrorIs(t, err, service.ErrUserExists)

	loggedIn, token, err := svc.Login(ctx, "TEST@example.com", "s3cure-pass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.NotEmpty(t, token)

	_, _, err = svc.Login(ctx, "test@example.com", "wrong-pass")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody@example.com", "s3cure-pass")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestRegisterRejectsWeakPasswords(t *testing.T) {
	svc := setupAuthTest(t)

	for _, pw := range []string{"short", "MyPassword1"} {
		_, _, err := svc.Register(context.Background(), &types.RegisterRequest{Name: "x", Email: "x@example.com", Password: pw})
		assert.ErrorIs(t, err, service.ErrWeakPassword, pw)
	}
}

func TestValidateToken(t *testing.T) {
	svc := setupAuthTest(t)

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, service.ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := service.NewAuthService(testhelpers.SetupTestDB(t), "other-secret", time.Hour)
		_, token, err := other.Register(context.Background(), &types.RegisterRequest{Name: "x", Email: "x@example.com", Password: "long-enough"})
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, service.ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		claims := types.TokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
			UserID:           uuid.New(),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, service.ErrInvalidToken)
	})

	t.Run("missing user id", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, types.TokenClaims{}).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, service.ErrInvalidToken)
	})
}
