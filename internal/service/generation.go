package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Sentinel errors surfaced by the generation client. Callers only ever use
// them to decide logging; every generation error degrades to the template
// fallback.
var (
	ErrRateLimited  = errors.New("generation service rate limited")
	ErrUnauthorized = errors.New("generation service unauthorized")
)

// GenerationService calls an OpenAI-compatible chat-completions endpoint.
type GenerationService struct {
	client    *resty.Client
	model     string
	endpoint  string
	maxTokens int
}

// GenerationServiceConfig holds configuration for the generation client.
type GenerationServiceConfig struct {
	Model     string
	APIKey    string
	BaseURL   string
	MaxTokens int
}

// NewGenerationService creates a new generation service client.
func NewGenerationService(cfg *GenerationServiceConfig) *GenerationService {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(30 * time.Second)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 500
	}

	return &GenerationService{
		client:    client,
		model:     cfg.Model,
		endpoint:  baseURL + "/chat/completions",
		maxTokens: maxTokens,
	}
}

// llmRequest represents the request to the LLM API.
type llmRequest struct {
	Model       string       `json:"model"`
	Messages    []llmMessage `json:"messages"`
	MaxTokens   int          `json:"max_tokens"`
	Temperature float32      `json:"temperature"`
	TopP        float32      `json:"top_p"`
}

type llmMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type llmResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate sends the prompt with the caller's sampling parameters and
// returns the raw completion text.
func (s *GenerationService) Generate(ctx context.Context, prompt string, temperature, topP float32) (string, error) {
	req := llmRequest{
		Model: s.model,
		Messages: []llmMessage{
			{Role: "user", Content: prompt},
		},
		MaxTokens:   s.maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	var resp llmResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post(s.endpoint)

	if err != nil {
		return "", fmt.Errorf("failed to call generation API: %w", err)
	}

	switch code := httpResp.StatusCode(); {
	case code == 429:
		return "", fmt.Errorf("%w: status %d", ErrRateLimited, code)
	case code == 401 || code == 403:
		return "", fmt.Errorf("%w: status %d", ErrUnauthorized, code)
	case code < 200 || code >= 300:
		if resp.Error != nil && resp.Error.Message != "" {
			return "", fmt.Errorf("generation API error: %s", resp.Error.Message)
		}
		return "", fmt.Errorf("generation API error: status %d", code)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty generation response")
	}

	return resp.Choices[0].Message.Content, nil
}
