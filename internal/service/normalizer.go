package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pageza/pantry-chef/backend/internal/logger"
	"github.com/pageza/pantry-chef/backend/internal/models"
)

// ParseKind tells which normalizer path produced a recipe
type ParseKind string

const (
	ParseStrict    ParseKind = "strict"
	ParseHeuristic ParseKind = "heuristic"
)

// GeneratedIngredient is one ingredient line of model output. The model may
// send a plain string or an object with name, quantity and unit.
type GeneratedIngredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity,omitempty"`
	Unit     string `json:"unit,omitempty"`
}

func (g *GeneratedIngredient) UnmarshalJSON(data []byte) error {
	var line string
	if err := json.Unmarshal(data, &line); err == nil {
		g.Name = strings.TrimSpace(line)
		return nil
	}

	var obj struct {
		Name     string   `json:"name"`
		Item     string   `json:"item"`
		Quantity FlexText `json:"quantity"`
		Amount   FlexText `json:"amount"`
		Unit     string   `json:"unit"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid ingredient format")
	}
	g.Name = strings.TrimSpace(firstNonEmpty(obj.Name, obj.Item))
	g.Quantity = strings.TrimSpace(firstNonEmpty(string(obj.Quantity), string(obj.Amount)))
	g.Unit = strings.TrimSpace(obj.Unit)
	return nil
}

// String renders the ingredient as a single display line
func (g GeneratedIngredient) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{g.Quantity, g.Unit, g.Name} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// InstructionList accepts an array of strings or of {step, description} objects
type InstructionList []string

func (l *InstructionList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = nil
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("instructions must be an array")
	}

	out := make(InstructionList, 0, len(raw))
	for _, item := range raw {
		var text string
		if err := json.Unmarshal(item, &text); err == nil {
			out = append(out, strings.TrimSpace(text))
			continue
		}
		var obj struct {
			Description string `json:"description"`
			Text        string `json:"text"`
			Instruction string `json:"instruction"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			return fmt.Errorf("invalid instruction format")
		}
		out = append(out, strings.TrimSpace(firstNonEmpty(obj.Description, obj.Text, obj.Instruction)))
	}
	*l = out
	return nil
}

// FlexText accepts a string or a number. Numbers are kept verbatim, so a
// prepTime of 10 becomes "10".
type FlexText string

func (f *FlexText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexText(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexText(n.String())
		return nil
	}
	if string(data) == "null" {
		*f = ""
		return nil
	}
	return fmt.Errorf("expected string or number")
}

// Servings can handle both string and number values. Negative or absurd
// counts decode to 0 so the recipe default applies.
type Servings int

const maxServings = 1000

func (s *Servings) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		if num < 0 || num > maxServings {
			num = 0
		}
		*s = Servings(int(num))
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = Servings(leadingInt(str))
		return nil
	}

	if string(data) == "null" {
		*s = 0
		return nil
	}
	return fmt.Errorf("invalid servings format")
}

// leadingInt extracts the first run of digits ("4-6 people" -> 4); 0 when absent
func leadingInt(s string) int {
	start := strings.IndexAny(s, "0123456789")
	if start < 0 {
		return 0
	}
	end := start
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[start:end])
	if err != nil || n > maxServings {
		return 0
	}
	return n
}

// GeneratedRecipe is the normalized shape of model output
type GeneratedRecipe struct {
	Title        string                   `json:"title" validate:"required"`
	Description  string                   `json:"description"`
	Ingredients  []GeneratedIngredient    `json:"ingredients" validate:"required"`
	Instructions InstructionList          `json:"instructions" validate:"required"`
	PrepTime     FlexText                 `json:"prepTime"`
	CookTime     FlexText                 `json:"cookTime"`
	Servings     Servings                 `json:"servings"`
	Nutrition    *models.NutritionalFacts `json:"nutritionalInfo,omitempty" validate:"-"`
}

// IngredientLines returns each ingredient as a display string
func (r *GeneratedRecipe) IngredientLines() []string {
	lines := make([]string, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		lines[i] = ing.String()
	}
	return lines
}

// NormalizedRecipe tags a recipe with the path that produced it
type NormalizedRecipe struct {
	Kind           ParseKind
	Recipe         GeneratedRecipe
	FallbackReason string
}

// ResponseNormalizer turns raw model text into a GeneratedRecipe
type ResponseNormalizer struct {
	validate *validator.Validate
	logger   *zap.Logger
}

// NewResponseNormalizer creates a normalizer; a nil logger disables logging
func NewResponseNormalizer(l *zap.Logger) *ResponseNormalizer {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &ResponseNormalizer{validate: v, logger: logger.OrNop(l)}
}

var fenceStripper = strings.NewReplacer("```json", "", "```", "")

// ParseStrict strips code fences, decodes JSON and checks required fields.
// Any failure is a *MalformedOutputError.
func (n *ResponseNormalizer) ParseStrict(raw string) (*GeneratedRecipe, error) {
	cleaned := strings.TrimSpace(fenceStripper.Replace(raw))

	var recipe GeneratedRecipe
	if err := json.Unmarshal([]byte(cleaned), &recipe); err != nil {
		return nil, &MalformedOutputError{Err: err}
	}

	if err := n.validate.Struct(&recipe); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			missing := make([]string, len(verrs))
			for i, fe := range verrs {
				missing[i] = fe.Field()
			}
			return nil, &MalformedOutputError{Missing: missing, Err: err}
		}
		return nil, &MalformedOutputError{Err: err}
	}
	return &recipe, nil
}

// Normalize never fails: output that does not pass ParseStrict is rebuilt by
// the line scanner and tagged ParseHeuristic.
func (n *ResponseNormalizer) Normalize(raw string) NormalizedRecipe {
	recipe, err := n.ParseStrict(raw)
	if err == nil {
		return NormalizedRecipe{Kind: ParseStrict, Recipe: *recipe}
	}

	n.logger.Warn("model output failed strict parsing, using heuristic fallback",
		zap.Error(err),
		zap.Int("raw_length", len(raw)),
	)
	return NormalizedRecipe{
		Kind:           ParseHeuristic,
		Recipe:         ParseHeuristicRecipe(raw),
		FallbackReason: err.Error(),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
