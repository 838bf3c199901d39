package service

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// EmbeddingService handles text embedding generation against a
// Jina-compatible embeddings endpoint.
type EmbeddingService struct {
	client     *resty.Client
	endpoint   string
	model      string
	dimensions int
}

// EmbeddingConfig holds configuration for embedding service
type EmbeddingConfig struct {
	Model      string
	APIKey     string
	BaseURL    string
	Dimensions int
}

// NewEmbeddingService creates a new embedding service
func NewEmbeddingService(cfg *EmbeddingConfig) *EmbeddingService {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.jina.ai/v1"
	}

	return &EmbeddingService{
		client:     client,
		endpoint:   baseURL + "/embeddings",
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}
}

// Dimensions returns the configured embedding dimensionality.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// Embedding API request/response structures
type embedRequest struct {
	Model         string   `json:"model"`
	Task          string   `json:"task,omitempty"`
	Dimensions    int      `json:"dimensions,omitempty"`
	Input         []string `json:"input"`
	EmbeddingType string   `json:"embedding_type,omitempty"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Detail string `json:"detail,omitempty"`
}

// EmbedQuery generates an embedding optimized for query/search.
func (s *EmbeddingService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	req := embedRequest{
		Model:         s.model,
		Task:          "retrieval.query",
		Dimensions:    s.dimensions,
		Input:         []string{query},
		EmbeddingType: "float",
	}

	var resp embedResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post(s.endpoint)

	if err != nil {
		return nil, fmt.Errorf("failed to call embedding API: %w", err)
	}

	if httpResp.StatusCode() != 200 {
		if resp.Detail != "" {
			return nil, fmt.Errorf("embedding API error: %s", resp.Detail)
		}
		return nil, fmt.Errorf("embedding API error: status %d", httpResp.StatusCode())
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}

	return resp.Data[0].Embedding, nil
}
