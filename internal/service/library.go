package service

import (
	"context"

	"github.com/aprilhs/copyforge/internal/domain"
	"github.com/aprilhs/copyforge/internal/repository"
)

// LibraryService exposes read access to the reference-example library and
// aggregate cache statistics for the serving API.
type LibraryService struct {
	examples *repository.ExampleRepository
	embCache *repository.EmbeddingCacheRepository
	genCache *repository.GenerationCacheRepository
}

// NewLibraryService creates a new library service.
func NewLibraryService(
	examples *repository.ExampleRepository,
	embCache *repository.EmbeddingCacheRepository,
	genCache *repository.GenerationCacheRepository,
) *LibraryService {
	return &LibraryService{
		examples: examples,
		embCache: embCache,
		genCache: genCache,
	}
}

// List returns a page of reference examples, optionally filtered by
// industry.
func (s *LibraryService) List(ctx context.Context, industry string, limit, offset int) ([]domain.ReferenceExample, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.examples.ListByIndustry(ctx, industry, limit, offset)
}

// Get returns one reference example by ID.
func (s *LibraryService) Get(ctx context.Context, id string) (*domain.ReferenceExample, error) {
	return s.examples.GetByID(ctx, id)
}

// Stats is the aggregate view served by the stats endpoint.
type Stats struct {
	ExampleCount         int64    `json:"example_count"`
	Industries           []string `json:"industries"`
	EmbeddingCacheCount  int64    `json:"embedding_cache_count"`
	GenerationCacheCount int64    `json:"generation_cache_count"`
}

// GetStats collects library and cache counts.
func (s *LibraryService) GetStats(ctx context.Context) (*Stats, error) {
	exampleCount, err := s.examples.Count(ctx)
	if err != nil {
		return nil, err
	}
	industries, err := s.examples.GetIndustries(ctx)
	if err != nil {
		return nil, err
	}
	embCount, err := s.embCache.Count(ctx)
	if err != nil {
		return nil, err
	}
	genCount, err := s.genCache.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		ExampleCount:         exampleCount,
		Industries:           industries,
		EmbeddingCacheCount:  embCount,
		GenerationCacheCount: genCount,
	}, nil
}
