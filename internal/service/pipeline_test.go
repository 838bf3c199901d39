package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aprilhs/copyforge/internal/domain"
)

// memoryGenerationCache is an in-memory GenerationCache for pipeline tests.
type memoryGenerationCache struct {
	entries map[string]*domain.GenerationCacheEntry
	getErr  error
	puts    int
	hits    int
}

func newMemoryGenerationCache() *memoryGenerationCache {
	return &memoryGenerationCache{entries: map[string]*domain.GenerationCacheEntry{}}
}

func (c *memoryGenerationCache) Get(_ context.Context, key string) (*domain.GenerationCacheEntry, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	entry, ok := c.entries[key]
	if !ok || entry.Expired(time.Now()) {
		return nil, nil
	}
	return entry, nil
}

func (c *memoryGenerationCache) Put(_ context.Context, key, payload string, ttl time.Duration) error {
	c.puts++
	now := time.Now()
	c.entries[key] = &domain.GenerationCacheEntry{
		CacheKey:  key,
		Payload:   payload,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	return nil
}

func (c *memoryGenerationCache) IncrementHit(_ context.Context, key string) error {
	c.hits++
	if entry, ok := c.entries[key]; ok {
		entry.HitCount++
	}
	return nil
}

type staticRetriever struct {
	calls int
}

func (r *staticRetriever) Retrieve(_ context.Context, _ *domain.CoreMessaging) []domain.ScoredExample {
	r.calls++
	return FallbackExamples()
}

type stubContentGenerator struct {
	result *GenerationResult
	calls  int
}

func (g *stubContentGenerator) Generate(_ context.Context, req *domain.CoreMessaging, _ []domain.ScoredExample) *GenerationResult {
	g.calls++
	result := *g.result
	content := *result.Content
	content.Thesis = req.Thesis
	content.Risks = req.Risks
	result.Content = &content
	return &result
}

func successResult() *GenerationResult {
	return &GenerationResult{
		Content: &domain.GeneratedContent{
			Headline:    "project management software for busy teams",
			Subheadline: "Plan, track and ship without the spreadsheet sprawl.",
			Opportunity: "Win the teams stuck in manual tracking.",
		},
	}
}

func TestGenerateCopyMissThenHit(t *testing.T) {
	cache := newMemoryGenerationCache()
	retriever := &staticRetriever{}
	generator := &stubContentGenerator{result: successResult()}
	svc := NewCopyService(cache, retriever, generator, nil, time.Hour)

	req := baseRequest()

	first := svc.GenerateCopy(context.Background(), req)
	if first.Cached {
		t.Fatal("first request must miss the cache")
	}
	if generator.calls != 1 {
		t.Fatalf("expected 1 generation, got %d", generator.calls)
	}
	if cache.puts != 1 {
		t.Fatalf("successful generation must be cached, puts=%d", cache.puts)
	}

	second := svc.GenerateCopy(context.Background(), req)
	if !second.Cached {
		t.Fatal("second identical request must hit the cache")
	}
	if generator.calls != 1 {
		t.Errorf("cache hit must not invoke the generator, calls=%d", generator.calls)
	}
	if retriever.calls != 1 {
		t.Errorf("cache hit must not invoke retrieval, calls=%d", retriever.calls)
	}
	if cache.hits != 1 {
		t.Errorf("cache hit should bump the hit counter, hits=%d", cache.hits)
	}
	if second.Content.Headline != first.Content.Headline {
		t.Error("cached content must match the originally generated content")
	}
}

func TestGenerateCopyFallbackNotCached(t *testing.T) {
	cache := newMemoryGenerationCache()
	generator := &stubContentGenerator{result: &GenerationResult{
		Content: &domain.GeneratedContent{
			Headline:    "Professional project management software",
			Subheadline: "Solve it.",
			Opportunity: defaultOpportunity,
		},
		Fallback: true,
	}}
	svc := NewCopyService(cache, &staticRetriever{}, generator, nil, time.Hour)

	result := svc.GenerateCopy(context.Background(), baseRequest())

	if !result.Fallback {
		t.Fatal("expected fallback result")
	}
	if cache.puts != 0 {
		t.Errorf("fallback results must not be cached, puts=%d", cache.puts)
	}

	// The next request generates again instead of hitting the cache.
	svc.GenerateCopy(context.Background(), baseRequest())
	if generator.calls != 2 {
		t.Errorf("expected regeneration after uncached fallback, calls=%d", generator.calls)
	}
}

func TestGenerateCopyCacheReadErrorRegenerates(t *testing.T) {
	cache := newMemoryGenerationCache()
	cache.getErr = errors.New("db down")
	generator := &stubContentGenerator{result: successResult()}
	svc := NewCopyService(cache, &staticRetriever{}, generator, nil, time.Hour)

	result := svc.GenerateCopy(context.Background(), baseRequest())
	if result.Cached {
		t.Error("cache read failure must be treated as a miss")
	}
	if generator.calls != 1 {
		t.Errorf("expected generation after cache read failure, calls=%d", generator.calls)
	}
}

func TestGenerateCopyUndecodablePayloadRegenerates(t *testing.T) {
	cache := newMemoryGenerationCache()
	generator := &stubContentGenerator{result: successResult()}
	svc := NewCopyService(cache, &staticRetriever{}, generator, nil, time.Hour)

	req := baseRequest()
	key := CacheKey(req)
	now := time.Now()
	cache.entries[key] = &domain.GenerationCacheEntry{
		CacheKey:  key,
		Payload:   "{not json",
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}

	result := svc.GenerateCopy(context.Background(), req)
	if result.Cached {
		t.Error("undecodable payload must be treated as a miss")
	}
	if generator.calls != 1 {
		t.Errorf("expected regeneration, calls=%d", generator.calls)
	}
}

func TestGenerateCopyPassthroughOnCacheHit(t *testing.T) {
	cache := newMemoryGenerationCache()
	generator := &stubContentGenerator{result: successResult()}
	svc := NewCopyService(cache, &staticRetriever{}, generator, nil, time.Hour)

	req := baseRequest()
	req.Thesis = "original thesis"
	svc.GenerateCopy(context.Background(), req)

	// Same key, different passthrough fields.
	req2 := baseRequest()
	req2.Thesis = "caller two thesis"
	req2.Risks = "caller two risks"

	result := svc.GenerateCopy(context.Background(), req2)
	if !result.Cached {
		t.Fatal("expected cache hit")
	}
	if result.Content.Thesis != "caller two thesis" || result.Content.Risks != "caller two risks" {
		t.Errorf("passthrough fields must come from the caller's request, got %q / %q",
			result.Content.Thesis, result.Content.Risks)
	}
}

func TestGenerateCopyHighlightsCoverText(t *testing.T) {
	cache := newMemoryGenerationCache()
	generator := &stubContentGenerator{result: successResult()}
	svc := NewCopyService(cache, &staticRetriever{}, generator, nil, time.Hour)

	result := svc.GenerateCopy(context.Background(), baseRequest())

	if result.Highlights == nil {
		t.Fatal("expected highlights on the result")
	}
	var rebuilt string
	for _, run := range result.Highlights.Headline {
		rebuilt += run.Text
	}
	if rebuilt != result.Content.Headline {
		t.Errorf("headline runs must reconstruct the headline: %q vs %q", rebuilt, result.Content.Headline)
	}
}

func TestGenerateCopyCachedPayloadRoundTrip(t *testing.T) {
	cache := newMemoryGenerationCache()
	generator := &stubContentGenerator{result: successResult()}
	svc := NewCopyService(cache, &staticRetriever{}, generator, nil, time.Hour)

	req := baseRequest()
	svc.GenerateCopy(context.Background(), req)

	entry := cache.entries[CacheKey(req)]
	if entry == nil {
		t.Fatal("expected cached entry")
	}
	var content domain.GeneratedContent
	if err := json.Unmarshal([]byte(entry.Payload), &content); err != nil {
		t.Fatalf("cached payload must be valid JSON: %v", err)
	}
	if content.Headline != successResult().Content.Headline {
		t.Errorf("cached headline = %q", content.Headline)
	}
}
