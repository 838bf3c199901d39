package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aprilhs/copyforge/internal/domain"
	"github.com/aprilhs/copyforge/internal/highlight"
	"github.com/aprilhs/copyforge/internal/logger"
	"golang.org/x/sync/singleflight"
)

// GenerationCache is the persistent gate in front of the generation
// pipeline.
type GenerationCache interface {
	Get(ctx context.Context, cacheKey string) (*domain.GenerationCacheEntry, error)
	Put(ctx context.Context, cacheKey, payload string, ttl time.Duration) error
	IncrementHit(ctx context.Context, cacheKey string) error
}

// Retriever fetches the reference examples most similar to a request.
type Retriever interface {
	Retrieve(ctx context.Context, req *domain.CoreMessaging) []domain.ScoredExample
}

// ContentGenerator runs one grounded generation for a request.
type ContentGenerator interface {
	Generate(ctx context.Context, req *domain.CoreMessaging, examples []domain.ScoredExample) *GenerationResult
}

// ExampleSummary is the slice of a retrieved example the response carries.
type ExampleSummary struct {
	ID         string  `json:"id"`
	Company    string  `json:"company"`
	Tagline    string  `json:"tagline"`
	Industry   string  `json:"industry"`
	Similarity float32 `json:"similarity"`
}

// Highlights holds the attributed render runs for each generated field.
type Highlights struct {
	Headline    []highlight.Run `json:"headline"`
	Subheadline []highlight.Run `json:"subheadline"`
	Opportunity []highlight.Run `json:"opportunity"`
}

// CopyResult is the full pipeline output for one request.
type CopyResult struct {
	Content    *domain.GeneratedContent `json:"content"`
	Cached     bool                     `json:"cached"`
	Fallback   bool                     `json:"fallback"`
	Degraded   bool                     `json:"degraded"`
	Examples   []ExampleSummary         `json:"examples,omitempty"`
	Highlights *Highlights              `json:"highlights"`
}

// CopyService runs the copy pipeline: cache gate, retrieval, generation,
// cache write-back, and phrase attribution. Concurrent identical requests
// are coalesced onto a single generation.
type CopyService struct {
	cache     GenerationCache
	retriever Retriever
	generator ContentGenerator
	annotator *highlight.Annotator
	ttl       time.Duration
	flight    singleflight.Group
}

// pipelineOutcome is what one coalesced pipeline run produces; highlights
// are computed per caller afterwards.
type pipelineOutcome struct {
	content  *domain.GeneratedContent
	fallback bool
	degraded bool
	examples []ExampleSummary
}

// NewCopyService creates a new copy service. ttl bounds how long a
// generation stays cached.
func NewCopyService(
	cache GenerationCache,
	retriever Retriever,
	generator ContentGenerator,
	annotator *highlight.Annotator,
	ttl time.Duration,
) *CopyService {
	if annotator == nil {
		annotator = highlight.NewAnnotator(nil)
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &CopyService{
		cache:     cache,
		retriever: retriever,
		generator: generator,
		annotator: annotator,
		ttl:       ttl,
	}
}

// GenerateCopy produces copy for the request, serving from cache when a
// fresh entry exists. It never fails: every error path degrades to the
// template fallback inside the generation step.
func (s *CopyService) GenerateCopy(ctx context.Context, req *domain.CoreMessaging) *CopyResult {
	key := CacheKey(req)
	ctx = logger.WithFields(ctx, logger.Fields{logger.FieldCacheKey: key})

	if content := s.readCache(ctx, key); content != nil {
		attachRequestPassthrough(content, req)
		return &CopyResult{
			Content:    content,
			Cached:     true,
			Highlights: s.highlights(content, req),
		}
	}

	result, _, _ := s.flight.Do(key, func() (interface{}, error) {
		return s.runPipeline(ctx, key, req), nil
	})
	outcome := result.(*pipelineOutcome)

	content := cloneContent(outcome.content)
	attachRequestPassthrough(content, req)

	return &CopyResult{
		Content:    content,
		Fallback:   outcome.fallback,
		Degraded:   outcome.degraded,
		Examples:   outcome.examples,
		Highlights: s.highlights(content, req),
	}
}

// readCache returns the cached content for a key, or nil on miss. Decode
// failures and read errors count as misses.
func (s *CopyService) readCache(ctx context.Context, key string) *domain.GeneratedContent {
	entry, err := s.cache.Get(ctx, key)
	if err != nil {
		logger.CtxWarn(ctx, "Generation cache read failed, regenerating: error=%v", err)
		return nil
	}
	if entry == nil {
		return nil
	}

	content, err := entry.Content()
	if err != nil {
		logger.CtxWarn(ctx, "Cached payload undecodable, regenerating: error=%v", err)
		return nil
	}

	if err := s.cache.IncrementHit(ctx, key); err != nil {
		logger.CtxWarn(ctx, "Failed to bump cache hit count: error=%v", err)
	}
	logger.CtxInfo(ctx, "Serving generation from cache (hits=%d)", entry.HitCount+1)
	return content
}

// runPipeline is the coalesced miss path: retrieve, generate, and cache
// the result unless it came from the template fallback.
func (s *CopyService) runPipeline(ctx context.Context, key string, req *domain.CoreMessaging) *pipelineOutcome {
	start := time.Now()

	examples := s.retriever.Retrieve(ctx, req)
	generated := s.generator.Generate(ctx, req, examples)

	if !generated.Fallback {
		s.writeCache(ctx, key, generated.Content)
	}

	logger.CtxInfo(ctx, "Pipeline completed: examples=%d fallback=%v degraded=%v duration_ms=%d",
		len(examples), generated.Fallback, generated.Degraded, time.Since(start).Milliseconds())

	return &pipelineOutcome{
		content:  generated.Content,
		fallback: generated.Fallback,
		degraded: generated.Degraded,
		examples: summarize(examples),
	}
}

func (s *CopyService) writeCache(ctx context.Context, key string, content *domain.GeneratedContent) {
	payload, err := json.Marshal(content)
	if err != nil {
		logger.CtxWarn(ctx, "Failed to encode generation for cache: error=%v", err)
		return
	}
	if err := s.cache.Put(ctx, key, string(payload), s.ttl); err != nil {
		logger.CtxWarn(ctx, "Generation cache write failed: error=%v", err)
	}
}

func (s *CopyService) highlights(content *domain.GeneratedContent, req *domain.CoreMessaging) *Highlights {
	return &Highlights{
		Headline:    s.annotator.Runs(content.Headline, req),
		Subheadline: s.annotator.Runs(content.Subheadline, req),
		Opportunity: s.annotator.Runs(content.Opportunity, req),
	}
}

func summarize(examples []domain.ScoredExample) []ExampleSummary {
	summaries := make([]ExampleSummary, len(examples))
	for i := range examples {
		summaries[i] = ExampleSummary{
			ID:         examples[i].ID,
			Company:    examples[i].Company,
			Tagline:    examples[i].Tagline,
			Industry:   examples[i].Industry,
			Similarity: examples[i].Similarity,
		}
	}
	return summaries
}

// attachRequestPassthrough copies thesis and risks from the caller's own
// request so coalesced callers never see each other's passthrough fields.
func attachRequestPassthrough(content *domain.GeneratedContent, req *domain.CoreMessaging) {
	content.Thesis = req.Thesis
	content.Risks = req.Risks
}

func cloneContent(content *domain.GeneratedContent) *domain.GeneratedContent {
	clone := *content
	return &clone
}
