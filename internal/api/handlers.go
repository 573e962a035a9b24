package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pageza/pantry-chef/backend/config"
	"github.com/pageza/pantry-chef/backend/internal/logger"
	"github.com/pageza/pantry-chef/backend/internal/metrics"
	"github.com/pageza/pantry-chef/backend/internal/middleware"
	"github.com/pageza/pantry-chef/backend/internal/service"
)

// Deps carries the services behind the HTTP API. Drafts, Images, Limiter and
// Metrics are optional.
type Deps struct {
	Auth      service.IAuthService
	Recipes   service.IRecipeService
	Catalog   service.ICatalogService
	Generator service.IRecipeGenerator
	Drafts    service.IDraftStore
	Images    service.IImageService
	Limiter   *middleware.RateLimiter
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// HealthCheck returns the health status of the API
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router *gin.Engine, deps Deps) {
	log := logger.OrNop(deps.Logger)

	router.GET("/health", HealthCheck)
	router.GET("/api/health", HealthCheck)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	v1 := router.Group("/api/v1")
	NewAuthHandler(deps.Auth, log).RegisterRoutes(v1)
	NewRecipeHandler(deps, log).RegisterRoutes(v1)
	NewIngredientHandler(deps.Catalog, log).RegisterRoutes(v1)
}

// respondError maps service errors onto status codes. Unknown errors become a
// generic 500 and are only logged.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, service.ErrRecipeNotFound):
		status, message = http.StatusNotFound, "Recipe not found"
	case errors.Is(err, service.ErrDraftNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrForbidden):
		status, message = http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrInvalidRating),
		errors.Is(err, service.ErrInvalidSort),
		errors.Is(err, service.ErrInvalidComplexity),
		errors.Is(err, service.ErrNoIngredients),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrUnsupportedImage),
		errors.Is(err, errIncompleteRecipe):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrImageTooLarge):
		status, message = http.StatusRequestEntityTooLarge, err.Error()
	case errors.Is(err, service.ErrUserExists):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials):
		status, message = http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, config.ErrStorageDisabled):
		status, message = http.StatusServiceUnavailable, err.Error()
	default:
		log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(middleware.ContextRequestID)),
			zap.Error(err),
		)
	}

	c.JSON(status, gin.H{"status": "error", "message": message})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": message})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Recipe not found"})
		return uuid.Nil, false
	}
	return id, true
}

func requireUser(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "User not authenticated"})
	}
	return id, ok
}
