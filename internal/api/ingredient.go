package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/pantry-chef/backend/internal/service"
)

// IngredientHandler exposes the ingredient catalog
type IngredientHandler struct {
	catalog service.ICatalogService
	logger  *zap.Logger
}

func NewIngredientHandler(catalog service.ICatalogService, log *zap.Logger) *IngredientHandler {
	return &IngredientHandler{catalog: catalog, logger: log}
}

func (h *IngredientHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ingredients", h.ListIngredients)
}

// ListIngredients supports ?category=, ?q= and ?limit=
func (h *IngredientHandler) ListIngredients(c *gin.Context) {
	filter := service.IngredientFilter{
		Category: c.Query("category"),
		Query:    c.Query("q"),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			badRequest(c, "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}

	ingredients, err := h.catalog.ListIngredients(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"results": len(ingredients),
		"data":    ingredients,
	})
}
