package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/pageza/pantry-chef/backend/internal/logger"
)

const maxModelResponseBytes = 1 << 20

// LLMConfig configures the completion client
type LLMConfig struct {
	APIKey  string
	APIURL  string
	Model   string
	Timeout time.Duration
}

// LLMService calls an OpenAI compatible /v1/completions endpoint. It makes a
// single attempt per call; there is no retry or backoff.
type LLMService struct {
	apiKey   string
	apiURL   string
	model    string
	client   *http.Client
	logger   *zap.Logger
	recorder GenerationRecorder
}

// LLMOption customizes an LLMService
type LLMOption func(*LLMService)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(c *http.Client) LLMOption {
	return func(s *LLMService) { s.client = c }
}

// WithLLMLogger sets the logger
func WithLLMLogger(l *zap.Logger) LLMOption {
	return func(s *LLMService) { s.logger = logger.OrNop(l) }
}

// WithLLMRecorder records request latency by status
func WithLLMRecorder(r GenerationRecorder) LLMOption {
	return func(s *LLMService) { s.recorder = r }
}

// NewLLMService creates a new LLMService instance
func NewLLMService(cfg LLMConfig, opts ...LLMOption) (*LLMService, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("llm api url must be set")
	}
	if _, err := url.ParseRequestURI(cfg.APIURL); err != nil {
		return nil, fmt.Errorf("invalid llm api url: %w", err)
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	s := &LLMService{
		apiKey: cfg.APIKey,
		apiURL: cfg.APIURL,
		model:  cfg.Model,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// completionRequest represents a request to the completions API
type completionRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

type apiErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends the prompt and returns the text of the first choice
func (s *LLMService) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	start := time.Now()
	text, err := s.complete(ctx, req)

	status := "ok"
	var merr *ModelError
	if errors.As(err, &merr) {
		status = string(merr.Reason)
	}
	if s.recorder != nil {
		s.recorder.ObserveModelRequest(status, time.Since(start))
	}
	return text, err
}

func (s *LLMService) complete(ctx context.Context, req CompletionRequest) (string, error) {
	payload, err := json.Marshal(completionRequest{
		Model:       s.model,
		Prompt:      req.Prompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", &ModelError{Reason: FailureTransport, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxModelResponseBytes))
	if err != nil {
		return "", &ModelError{Reason: FailureTransport, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		merr := &ModelError{
			Reason:     classifyStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Message:    upstreamMessage(body),
		}
		s.logger.Warn("completion request rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("reason", string(merr.Reason)),
			zap.String("message", merr.Message),
		)
		return "", merr
	}

	var result completionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &ModelError{Reason: FailureDecode, StatusCode: resp.StatusCode, Err: err}
	}
	if len(result.Choices) == 0 {
		return "", &ModelError{Reason: FailureNoChoices, StatusCode: resp.StatusCode, Message: "no choices in API response"}
	}

	s.logger.Debug("completion received", zap.Int("length", len(result.Choices[0].Text)))
	return result.Choices[0].Text, nil
}

func classifyStatus(code int) ModelFailure {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return FailureAuth
	case http.StatusTooManyRequests:
		return FailureRateLimited
	default:
		return FailureUpstream
	}
}

// upstreamMessage extracts the provider's error message, falling back to a
// truncated body
func upstreamMessage(body []byte) string {
	var apiErr apiErrorBody
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return apiErr.Error.Message
	}
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "... (" + strconv.Itoa(len(body)) + " bytes)"
	}
	return string(body)
}
