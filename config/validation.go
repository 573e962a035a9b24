package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in one pass
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "\n")
}

// requiredSecrets lists the sensitive settings each environment must provide
var requiredSecrets = map[Environment][]string{
	Development: {"auth.jwt_secret"},
	Test:        {},
	CI:          {"auth.jwt_secret"},
	Production:  {"auth.jwt_secret", "llm.api_key", "db.password"},
}

// ValidateConfig checks if the configuration meets the requirements for its environment
func ValidateConfig(cfg *Config) error {
	var errs ValidationErrors

	for _, key := range requiredSecrets[cfg.Env] {
		if secretValue(cfg, key) == "" {
			errs = append(errs, ValidationError{Field: key, Message: fmt.Sprintf("required in %s environment", cfg.Env)})
		}
	}

	switch cfg.Database.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, ValidationError{Field: "db.driver", Message: "must be postgres or sqlite"})
	}
	if cfg.Server.Port == "" {
		errs = append(errs, ValidationError{Field: "server.port", Message: "must be set"})
	}
	if cfg.LLM.MaxTokens <= 0 {
		errs = append(errs, ValidationError{Field: "llm.max_tokens", Message: "must be positive"})
	}
	if cfg.LLM.Temperature <= 0 || cfg.LLM.Temperature > 2 {
		errs = append(errs, ValidationError{Field: "llm.temperature", Message: "must be in (0, 2]"})
	}
	if cfg.LLM.Timeout <= 0 {
		errs = append(errs, ValidationError{Field: "llm.timeout", Message: "must be positive"})
	}
	if cfg.Generation.CatalogTimeout <= 0 {
		errs = append(errs, ValidationError{Field: "generation.catalog_timeout", Message: "must be positive"})
	}
	if cfg.Generation.RateLimit < 0 {
		errs = append(errs, ValidationError{Field: "generation.rate_limit", Message: "must not be negative"})
	}
	if cfg.Auth.TokenTTL <= 0 {
		errs = append(errs, ValidationError{Field: "auth.token_ttl", Message: "must be positive"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func secretValue(cfg *Config, key string) string {
	switch key {
	case "auth.jwt_secret":
		return cfg.Auth.JWTSecret
	case "llm.api_key":
		return cfg.LLM.APIKey
	case "db.password":
		if cfg.Database.Driver == "sqlite" {
			return "n/a"
		}
		return cfg.Database.Password
	case "redis.password":
		return cfg.Redis.Password
	}
	return ""
}
