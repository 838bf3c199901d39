package service

import (
	"context"
	"strings"
	"time"

	"github.com/aprilhs/copyforge/internal/domain"
	"github.com/aprilhs/copyforge/internal/logger"
	"github.com/aprilhs/copyforge/internal/repository"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorSearcher runs similarity search over the reference library.
type VectorSearcher interface {
	Search(ctx context.Context, vector []float32, topK int, threshold float32) ([]repository.ExampleHit, error)
}

// EmbeddingStore is the persistent embedding-cache tier.
type EmbeddingStore interface {
	Get(ctx context.Context, contentHash string) ([]float32, error)
	Put(ctx context.Context, contentHash string, vector []float32) error
}

// ExampleFinder loads full reference-example rows for enrichment.
type ExampleFinder interface {
	GetByIDs(ctx context.Context, ids []string) ([]domain.ReferenceExample, error)
}

// RetrievalConfig holds configuration for the retrieval service.
type RetrievalConfig struct {
	TopK           int
	ScoreThreshold float32
	LRUSize        int
	LRUTTL         time.Duration
}

// RetrievalService resolves a request into the top-K most similar
// reference examples. Embeddings resolve through three tiers: a bounded
// in-process LRU, the persistent embedding cache, and the embedding
// service, with write-through backfill on compute.
type RetrievalService struct {
	embedder  Embedder
	vectors   VectorSearcher
	embCache  EmbeddingStore
	examples  ExampleFinder
	memCache  *expirable.LRU[string, []float32]
	topK      int
	threshold float32
}

// NewRetrievalService creates a new retrieval service.
func NewRetrievalService(
	embedder Embedder,
	vectors VectorSearcher,
	embCache EmbeddingStore,
	examples ExampleFinder,
	cfg *RetrievalConfig,
) *RetrievalService {
	topK := 3
	var threshold float32 = 0.6
	lruSize := 512
	lruTTL := time.Hour
	if cfg != nil {
		if cfg.TopK > 0 {
			topK = cfg.TopK
		}
		if cfg.ScoreThreshold > 0 {
			threshold = cfg.ScoreThreshold
		}
		if cfg.LRUSize > 0 {
			lruSize = cfg.LRUSize
		}
		if cfg.LRUTTL > 0 {
			lruTTL = cfg.LRUTTL
		}
	}

	return &RetrievalService{
		embedder:  embedder,
		vectors:   vectors,
		embCache:  embCache,
		examples:  examples,
		memCache:  expirable.NewLRU[string, []float32](lruSize, nil, lruTTL),
		topK:      topK,
		threshold: threshold,
	}
}

// QueryText builds the retrieval query from the request's positioning
// fields, space-joined in a fixed order.
func QueryText(req *domain.CoreMessaging) string {
	parts := make([]string, 0, 4+len(req.ICP))
	parts = append(parts, req.PrimaryAnchor.Content)
	if req.SecondaryAnchor != nil {
		parts = append(parts, req.SecondaryAnchor.Content)
	}
	parts = append(parts, req.Problem, req.Differentiator)
	parts = append(parts, req.ICP...)

	nonEmpty := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}

// Retrieve returns the top-K reference examples ordered by descending
// similarity. Failures along the embedding or search path fall back to the
// static example set; this method never fails the request.
func (s *RetrievalService) Retrieve(ctx context.Context, req *domain.CoreMessaging) []domain.ScoredExample {
	query := QueryText(req)

	vector, err := s.resolveEmbedding(ctx, query)
	if err != nil {
		logger.CtxWarn(ctx, "Embedding failed, serving static examples: error=%v", err)
		return FallbackExamples()
	}

	hits, err := s.vectors.Search(ctx, vector, s.topK, s.threshold)
	if err != nil {
		logger.CtxWarn(ctx, "Vector search failed, serving static examples: error=%v", err)
		return FallbackExamples()
	}
	if len(hits) == 0 {
		logger.CtxWarn(ctx, "No examples above threshold %.2f, serving static examples", s.threshold)
		return FallbackExamples()
	}

	return s.enrich(ctx, hits)
}

// resolveEmbedding walks the cache tiers, backfilling every tier that
// missed once a vector is available.
func (s *RetrievalService) resolveEmbedding(ctx context.Context, query string) ([]float32, error) {
	hash := ContentHash(query)

	if vector, ok := s.memCache.Get(hash); ok {
		return vector, nil
	}

	if s.embCache != nil {
		vector, err := s.embCache.Get(ctx, hash)
		if err != nil {
			logger.CtxWarn(ctx, "Embedding cache read failed: error=%v", err)
		} else if vector != nil {
			s.memCache.Add(hash, vector)
			return vector, nil
		}
	}

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	s.memCache.Add(hash, vector)
	if s.embCache != nil {
		if err := s.embCache.Put(ctx, hash, vector); err != nil {
			logger.CtxWarn(ctx, "Embedding cache write failed: error=%v", err)
		}
	}

	return vector, nil
}

// enrich replaces payload-only hits with full rows from the relational
// store where available.
func (s *RetrievalService) enrich(ctx context.Context, hits []repository.ExampleHit) []domain.ScoredExample {
	results := make([]domain.ScoredExample, 0, len(hits))
	for i := range hits {
		results = append(results, hits[i].ToScoredExample())
	}

	if s.examples == nil {
		return results
	}

	ids := make([]string, len(results))
	for i := range results {
		ids[i] = results[i].ID
	}

	rows, err := s.examples.GetByIDs(ctx, ids)
	if err != nil {
		logger.CtxWarn(ctx, "Failed to enrich examples from database: error=%v", err)
		return results
	}

	rowMap := make(map[string]*domain.ReferenceExample, len(rows))
	for i := range rows {
		rowMap[rows[i].ID] = &rows[i]
	}

	for i := range results {
		if row, ok := rowMap[results[i].ID]; ok {
			similarity := results[i].Similarity
			results[i] = domain.ScoredExample{ReferenceExample: *row, Similarity: similarity}
		}
	}

	return results
}

// FallbackExamples is the static, known-good example set served whenever
// retrieval cannot reach the embedding service or the vector store.
func FallbackExamples() []domain.ScoredExample {
	return []domain.ScoredExample{
		{
			ReferenceExample: domain.ReferenceExample{
				ID:             "fallback-slack",
				Company:        "Slack",
				Tagline:        "Where work happens",
				AnchorType:     domain.AnchorCompetitiveAlternative,
				PrimaryAnchor:  "email",
				Problem:        "Internal email buries decisions in endless threads nobody can search",
				Differentiator: "Organized channels that keep every conversation findable",
				Industry:       "productivity",
				Effectiveness:  domain.EffectivenessHigh,
				ICPSegments:    domain.StringArray{"fast-growing product teams", "remote-first companies"},
				Structure:      "place-of-work metaphor",
			},
		},
		{
			ReferenceExample: domain.ReferenceExample{
				ID:             "fallback-loom",
				Company:        "Loom",
				Tagline:        "One video is worth a thousand words",
				AnchorType:     domain.AnchorUseCase,
				PrimaryAnchor:  "async video updates",
				Problem:        "Status meetings eat hours that should go to actual work",
				Differentiator: "Recorded walkthroughs teammates watch on their own time",
				Industry:       "collaboration",
				Effectiveness:  domain.EffectivenessHigh,
				ICPSegments:    domain.StringArray{"distributed engineering teams", "design reviewers"},
				Structure:      "value-comparison",
			},
		},
		{
			ReferenceExample: domain.ReferenceExample{
				ID:             "fallback-stripe",
				Company:        "Stripe",
				Tagline:        "Payments infrastructure for the internet",
				AnchorType:     domain.AnchorProductCategory,
				PrimaryAnchor:  "payments infrastructure",
				Problem:        "Accepting payments online means months of banking integrations",
				Differentiator: "Seven lines of code to start charging customers",
				Industry:       "fintech",
				Effectiveness:  domain.EffectivenessHigh,
				ICPSegments:    domain.StringArray{"startup founders", "platform engineering teams"},
				Structure:      "category-definition",
			},
		},
	}
}
