package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pageza/pantry-chef/backend/config"
	"github.com/pageza/pantry-chef/backend/internal/middleware"
	"github.com/pageza/pantry-chef/backend/internal/models"
	"github.com/pageza/pantry-chef/backend/internal/service"
	"github.com/pageza/pantry-chef/backend/internal/types"
)

// RecipeHandler serves generation, persistence and browsing of recipes
type RecipeHandler struct {
	auth      service.IAuthService
	recipes   service.IRecipeService
	generator service.IRecipeGenerator
	drafts    service.IDraftStore
	images    service.IImageService
	limiter   *middleware.RateLimiter
	logger    *zap.Logger
}

func NewRecipeHandler(deps Deps, log *zap.Logger) *RecipeHandler {
	return &RecipeHandler{
		auth:      deps.Auth,
		recipes:   deps.Recipes,
		generator: deps.Generator,
		drafts:    deps.Drafts,
		images:    deps.Images,
		limiter:   deps.Limiter,
		logger:    log,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	optional := middleware.OptionalAuth(h.auth)
	required := middleware.AuthMiddleware(h.auth)

	generate := []gin.HandlerFunc{optional}
	if h.limiter != nil {
		generate = append(generate, h.limiter.RateLimitMiddleware())
	}
	generate = append(generate, h.GenerateRecipe)

	recipes := router.Group("/recipes")
	{
		recipes.POST("/generate", generate...)
		recipes.POST("/save", optional, h.SaveRecipe)
		recipes.GET("", h.ListRecipes)
		recipes.GET("/mine", required, h.ListMyRecipes)
		recipes.GET("/:id", h.GetRecipe)
		recipes.PUT("/:id", required, h.UpdateRecipe)
		recipes.DELETE("/:id", required, h.DeleteRecipe)
		recipes.POST("/:id/rate", required, h.RateRecipe)
		recipes.POST("/:id/image", required, h.UploadImage)
	}
}

// GenerateRecipe runs the generation pipeline. Pipeline failures never expose
// their cause to the client.
func (h *RecipeHandler) GenerateRecipe(c *gin.Context) {
	var req types.GenerateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	in := service.GenerateInput{
		Ingredients:        make([]service.IngredientInput, 0, len(req.Ingredients)),
		DietaryPreferences: req.DietaryPreferences,
		Complexity:         req.Complexity,
	}
	for _, ing := range req.Ingredients {
		in.Ingredients = append(in.Ingredients, service.IngredientInput{Name: ing.Name, Quantity: ing.Quantity})
	}

	result, err := h.generator.Generate(c.Request.Context(), in)
	if err != nil {
		if errors.Is(err, service.ErrNoIngredients) || errors.Is(err, service.ErrInvalidComplexity) {
			badRequest(c, err.Error())
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to generate recipe"})
		return
	}

	resp := gin.H{
		"status":     "success",
		"data":       result,
		"parse_kind": result.ParseKind,
	}
	if draftID := h.storeDraft(c, result); draftID != "" {
		resp["draft_id"] = draftID
	}
	c.JSON(http.StatusOK, resp)
}

// storeDraft caches the result for a later save. A failure only costs the draft id.
func (h *RecipeHandler) storeDraft(c *gin.Context, result *service.GenerationResult) string {
	if h.drafts == nil {
		return ""
	}
	var owner string
	if id, ok := middleware.UserID(c); ok {
		owner = id.String()
	}
	draft := service.NewRecipeDraft(result, owner)
	if err := h.drafts.SaveDraft(c.Request.Context(), draft); err != nil {
		h.logger.Warn("failed to store recipe draft", zap.Error(err))
		return ""
	}
	return draft.ID
}

// SaveRecipe persists a cached draft ({"draft_id": ...}) or an explicit recipe body
func (h *RecipeHandler) SaveRecipe(c *gin.Context) {
	var req types.SaveRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	var creator *uuid.UUID
	if id, ok := middleware.UserID(c); ok {
		creator = &id
	}

	var (
		recipe *models.Recipe
		err    error
	)
	if req.DraftID != "" {
		recipe, err = h.recipeFromDraft(c.Request.Context(), req.DraftID, creator)
	} else {
		recipe, err = recipeFromRequest(&req, creator)
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	saved, err := h.recipes.CreateRecipe(c.Request.Context(), recipe)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if req.DraftID != "" {
		if err := h.drafts.DeleteDraft(c.Request.Context(), req.DraftID); err != nil {
			h.logger.Warn("failed to delete saved draft", zap.String("draft_id", req.DraftID), zap.Error(err))
		}
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": saved})
}

func (h *RecipeHandler) recipeFromDraft(ctx context.Context, draftID string, creator *uuid.UUID) (*models.Recipe, error) {
	if h.drafts == nil {
		return nil, service.ErrDraftNotFound
	}
	draft, err := h.drafts.GetDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if draft.UserID != "" && (creator == nil || creator.String() != draft.UserID) {
		return nil, service.ErrForbidden
	}
	return draft.Result.ToRecipe(creator), nil
}

var errIncompleteRecipe = errors.New("title, ingredients and instructions are required")

func recipeFromRequest(req *types.SaveRecipeRequest, creator *uuid.UUID) (*models.Recipe, error) {
	if strings.TrimSpace(req.Title) == "" || len(req.Ingredients) == 0 || len(req.Instructions) == 0 {
		return nil, errIncompleteRecipe
	}
	complexity, err := models.ParseComplexity(req.Complexity)
	if err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Ingredients:  models.RecipeIngredients(req.Ingredients),
		Instructions: models.JSONBStringArray(req.Instructions),
		PrepTime:     req.PrepTime,
		CookTime:     req.CookTime,
		Servings:     req.Servings,
		Complexity:   complexity,
		Tags:         models.JSONBStringArray(req.Tags),
		Cuisine:      req.Cuisine,
		CreatorID:    creator,
	}
	if req.NutritionalInfo != nil {
		recipe.Nutrition = *req.NutritionalInfo
	}
	if req.Dietary != nil {
		recipe.Dietary = *req.Dietary
	}
	return recipe, nil
}

// ListRecipes supports dietary, complexity, ingredients, query, limit, skip and sort
func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	h.list(c, nil)
}

// ListMyRecipes is ListRecipes restricted to the caller's recipes
func (h *RecipeHandler) ListMyRecipes(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	h.list(c, &userID)
}

func (h *RecipeHandler) list(c *gin.Context, creator *uuid.UUID) {
	var q types.ListRecipesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "Invalid query parameters")
		return
	}

	recipes, total, err := h.recipes.ListRecipes(c.Request.Context(), service.RecipeFilter{
		Dietary:     types.SplitCSV(q.Dietary),
		Complexity:  q.Complexity,
		Ingredients: types.SplitCSV(q.Ingredients),
		Query:       q.Query,
		CreatorID:   creator,
		Limit:       q.Limit,
		Skip:        q.Skip,
		Sort:        q.Sort,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"results": len(recipes),
		"total":   total,
		"data":    recipes,
	})
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	recipe, err := h.recipes.GetRecipe(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	resp := gin.H{"status": "success", "data": recipe}
	if url := h.imageURL(c.Request.Context(), recipe.ImageKey); url != "" {
		resp["image_url"] = url
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req types.UpdateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	recipe, err := h.recipes.UpdateRecipe(c.Request.Context(), id, userID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": recipe})
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.recipes.DeleteRecipe(c.Request.Context(), id, userID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Recipe deleted"})
}

func (h *RecipeHandler) RateRecipe(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req types.RateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, service.ErrInvalidRating.Error())
		return
	}

	summary, err := h.recipes.RateRecipe(c.Request.Context(), id, userID, req.Score, req.Comment)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "success",
		"averageRating": summary.AverageRating,
		"ratingsCount":  summary.RatingsCount,
	})
}

// UploadImage stores the multipart "image" field and attaches it to the recipe
func (h *RecipeHandler) UploadImage(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	if h.images == nil {
		respondError(c, h.logger, config.ErrStorageDisabled)
		return
	}

	recipe, err := h.recipes.GetRecipe(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if !recipe.IsOwnedBy(userID) {
		respondError(c, h.logger, service.ErrForbidden)
		return
	}

	header, err := c.FormFile("image")
	if err != nil {
		badRequest(c, "image file is required")
		return
	}
	if header.Size > service.MaxImageBytes {
		respondError(c, h.logger, service.ErrImageTooLarge)
		return
	}
	file, err := header.Open()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer file.Close()

	key, err := h.images.UploadRecipeImage(c.Request.Context(), id, header.Header.Get("Content-Type"), file)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	updated, err := h.recipes.SetImageKey(c.Request.Context(), id, userID, key)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	resp := gin.H{"status": "success", "data": updated}
	if url := h.imageURL(c.Request.Context(), key); url != "" {
		resp["image_url"] = url
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RecipeHandler) imageURL(ctx context.Context, key string) string {
	if h.images == nil || key == "" {
		return ""
	}
	url, err := h.images.ImageURL(ctx, key)
	if err != nil {
		h.logger.Warn("failed to presign image url", zap.String("key", key), zap.Error(err))
		return ""
	}
	return url
}
