package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pageza/pantry-chef/backend/internal/models"
)

var (
	// ErrGenerationFailed is the single caller-facing failure of the generation pipeline
	ErrGenerationFailed = errors.New("recipe generation failed")
	// ErrNoIngredients rejects a generation request without usable ingredients
	ErrNoIngredients = errors.New("at least one ingredient is required")
	// ErrInvalidComplexity rejects unknown complexity levels
	ErrInvalidComplexity = models.ErrInvalidComplexity

	ErrModelInvocation      = errors.New("model invocation failed")
	ErrMalformedModelOutput = errors.New("malformed model output")

	ErrRecipeNotFound     = errors.New("recipe not found")
	ErrForbidden          = errors.New("not allowed to modify this recipe")
	ErrInvalidRating      = errors.New("score must be between 1 and 5")
	ErrInvalidSort        = errors.New("unsupported sort field")
	ErrDraftNotFound      = errors.New("draft not found or expired")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWeakPassword       = errors.New("password must be at least 8 characters and must not contain \"password\"")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUnsupportedImage   = errors.New("image must be jpeg, png or webp")
	ErrImageTooLarge      = errors.New("image exceeds 5MB")
)

// Stage names a step of the generation pipeline
type Stage string

const (
	StageValidate  Stage = "validate"
	StagePrompt    Stage = "prompt"
	StageModel     Stage = "model"
	StageNormalize Stage = "normalize"
	StageNutrition Stage = "nutrition"
)

// GenerationError reports which pipeline stage aborted a call. Its message is
// always the generic ErrGenerationFailed text; the cause is reachable through
// errors.Is and errors.As.
type GenerationError struct {
	Stage Stage
	Cause error
}

func (e *GenerationError) Error() string {
	return ErrGenerationFailed.Error()
}

func (e *GenerationError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrGenerationFailed}
	}
	return []error{ErrGenerationFailed, e.Cause}
}

// ModelFailure classifies a failed completion call
type ModelFailure string

const (
	FailureTransport   ModelFailure = "transport"
	FailureAuth        ModelFailure = "auth"
	FailureRateLimited ModelFailure = "rate_limited"
	FailureUpstream    ModelFailure = "upstream"
	FailureDecode      ModelFailure = "decode"
	FailureNoChoices   ModelFailure = "no_choices"
)

// ModelError is returned by the completion client for every failure mode
type ModelError struct {
	Reason     ModelFailure
	StatusCode int
	Message    string
	Err        error
}

func (e *ModelError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s", ErrModelInvocation, e.Reason)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ", status %d", e.StatusCode)
	}
	b.WriteString(")")
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *ModelError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrModelInvocation}
	}
	return []error{ErrModelInvocation, e.Err}
}

// MalformedOutputError is returned by the strict parser when model output is
// not JSON or lacks required recipe fields
type MalformedOutputError struct {
	Missing []string
	Err     error
}

func (e *MalformedOutputError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("%s: missing %s", ErrMalformedModelOutput, strings.Join(e.Missing, ", "))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", ErrMalformedModelOutput, e.Err)
	}
	return ErrMalformedModelOutput.Error()
}

func (e *MalformedOutputError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedModelOutput}
	}
	return []error{ErrMalformedModelOutput, e.Err}
}
