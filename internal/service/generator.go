package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pageza/pantry-chef/backend/internal/logger"
	"github.com/pageza/pantry-chef/backend/internal/models"
)

// Default decoding budget for recipe completions
const (
	DefaultMaxTokens   = 1000
	DefaultTemperature = 0.7
)

// GenerateInput is one generation request
type GenerateInput struct {
	Ingredients        []IngredientInput
	DietaryPreferences []string
	Complexity         string
}

// GenerationResult is the all-or-nothing output of a successful call
type GenerationResult struct {
	Recipe              GeneratedRecipe      `json:"recipe"`
	ParseKind           ParseKind            `json:"parse_kind"`
	FallbackReason      string               `json:"fallback_reason,omitempty"`
	Complexity          models.Complexity    `json:"complexity"`
	DietaryPreferences  []string             `json:"dietary_preferences"`
	EnrichedIngredients []EnrichedIngredient `json:"enriched_ingredients"`
	Prompt              string               `json:"-"`
}

// RecipeGenerator runs validate, prompt, model, normalize and nutrition in
// order. Calls share no mutable state.
type RecipeGenerator struct {
	validator      *IngredientValidator
	completer      Completer
	normalizer     *ResponseNormalizer
	estimator      NutritionEstimator
	recorder       GenerationRecorder
	logger         *zap.Logger
	maxTokens      int
	temperature    float64
	catalogTimeout time.Duration
	modelTimeout   time.Duration
}

// GeneratorOption customizes a RecipeGenerator
type GeneratorOption func(*RecipeGenerator)

// WithEstimator replaces the placeholder nutrition estimator
func WithEstimator(e NutritionEstimator) GeneratorOption {
	return func(g *RecipeGenerator) { g.estimator = e }
}

// WithGeneratorLogger sets the logger used for stage failures and fallbacks
func WithGeneratorLogger(l *zap.Logger) GeneratorOption {
	return func(g *RecipeGenerator) { g.logger = logger.OrNop(l) }
}

// WithRecorder reports outcomes to metrics
func WithRecorder(r GenerationRecorder) GeneratorOption {
	return func(g *RecipeGenerator) { g.recorder = r }
}

// WithDecoding overrides the completion budget
func WithDecoding(maxTokens int, temperature float64) GeneratorOption {
	return func(g *RecipeGenerator) {
		g.maxTokens = maxTokens
		g.temperature = temperature
	}
}

// WithTimeouts bounds the catalog lookup and the model call separately
func WithTimeouts(catalog, model time.Duration) GeneratorOption {
	return func(g *RecipeGenerator) {
		g.catalogTimeout = catalog
		g.modelTimeout = model
	}
}

// NewRecipeGenerator wires the pipeline around its two external collaborators
func NewRecipeGenerator(catalog IngredientCatalog, completer Completer, opts ...GeneratorOption) *RecipeGenerator {
	g := &RecipeGenerator{
		validator:      NewIngredientValidator(catalog),
		completer:      completer,
		estimator:      FixedNutritionEstimator{},
		logger:         zap.NewNop(),
		maxTokens:      DefaultMaxTokens,
		temperature:    DefaultTemperature,
		catalogTimeout: 5 * time.Second,
		modelTimeout:   60 * time.Second,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.normalizer = NewResponseNormalizer(g.logger)
	return g
}

// Generate produces one recipe. Input validation problems return ErrNoIngredients
// or ErrInvalidComplexity. Pipeline failures return a *GenerationError whose
// message is always "recipe generation failed"; a catalog failure is never
// followed by a model call.
func (g *RecipeGenerator) Generate(ctx context.Context, in GenerateInput) (*GenerationResult, error) {
	start := time.Now()

	ingredients, err := cleanIngredients(in.Ingredients)
	if err != nil {
		return nil, err
	}
	complexity, err := models.ParseComplexity(in.Complexity)
	if err != nil {
		return nil, err
	}
	prefs := cleanPreferences(in.DietaryPreferences)

	enriched, err := g.enrich(ctx, ingredients)
	if err != nil {
		return nil, g.fail(StageValidate, err, start)
	}

	prompt := ComposePrompt(enriched, prefs, complexity)

	raw, err := g.callModel(ctx, prompt)
	if err != nil {
		return nil, g.fail(StageModel, err, start)
	}

	normalized := g.normalizer.Normalize(raw)
	recipe := normalized.Recipe

	facts, err := g.estimator.Estimate(ctx, &recipe)
	if err != nil {
		return nil, g.fail(StageNutrition, err, start)
	}
	recipe.Nutrition = &facts

	g.observe(string(normalized.Kind), start)
	g.logger.Info("recipe generated",
		zap.String("parse_kind", string(normalized.Kind)),
		zap.Int("ingredients", len(enriched)),
		zap.String("complexity", string(complexity)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &GenerationResult{
		Recipe:              recipe,
		ParseKind:           normalized.Kind,
		FallbackReason:      normalized.FallbackReason,
		Complexity:          complexity,
		DietaryPreferences:  prefs,
		EnrichedIngredients: enriched,
		Prompt:              prompt,
	}, nil
}

func (g *RecipeGenerator) enrich(ctx context.Context, ingredients []IngredientInput) ([]EnrichedIngredient, error) {
	ctx, cancel := context.WithTimeout(ctx, g.catalogTimeout)
	defer cancel()
	return g.validator.Enrich(ctx, ingredients)
}

func (g *RecipeGenerator) callModel(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.modelTimeout)
	defer cancel()
	return g.completer.Complete(ctx, CompletionRequest{
		Prompt:      prompt,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	})
}

func (g *RecipeGenerator) fail(stage Stage, cause error, start time.Time) error {
	g.logger.Error("recipe generation failed",
		zap.String("stage", string(stage)),
		zap.Error(cause),
		zap.Duration("elapsed", time.Since(start)),
	)
	g.observe("failed", start)
	return &GenerationError{Stage: stage, Cause: cause}
}

func (g *RecipeGenerator) observe(outcome string, start time.Time) {
	if g.recorder != nil {
		g.recorder.ObserveGeneration(outcome, time.Since(start))
	}
}

// cleanIngredients copies the input, trimming names. Blank names are rejected.
func cleanIngredients(in []IngredientInput) ([]IngredientInput, error) {
	if len(in) == 0 {
		return nil, ErrNoIngredients
	}
	out := make([]IngredientInput, len(in))
	for i, ing := range in {
		name := strings.TrimSpace(ing.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: ingredient %d has no name", ErrNoIngredients, i+1)
		}
		out[i] = IngredientInput{Name: name, Quantity: strings.TrimSpace(ing.Quantity)}
	}
	return out, nil
}

// cleanPreferences copies the preferences, dropping blanks. Values are otherwise passed through.
func cleanPreferences(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
