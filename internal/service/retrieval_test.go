package service

import (
	"context"
	"errors"
	"testing"

	"github.com/aprilhs/copyforge/internal/domain"
	"github.com/aprilhs/copyforge/internal/repository"
)

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	return f.vector, f.err
}

type fakeSearcher struct {
	hits []repository.ExampleHit
	err  error
}

func (f *fakeSearcher) Search(_ context.Context, _ []float32, _ int, _ float32) ([]repository.ExampleHit, error) {
	return f.hits, f.err
}

type fakeEmbeddingStore struct {
	entries map[string][]float32
	getErr  error
	puts    int
}

func (f *fakeEmbeddingStore) Get(_ context.Context, hash string) ([]float32, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.entries[hash], nil
}

func (f *fakeEmbeddingStore) Put(_ context.Context, hash string, vector []float32) error {
	f.puts++
	if f.entries == nil {
		f.entries = map[string][]float32{}
	}
	f.entries[hash] = vector
	return nil
}

type fakeFinder struct {
	rows []domain.ReferenceExample
	err  error
}

func (f *fakeFinder) GetByIDs(_ context.Context, _ []string) ([]domain.ReferenceExample, error) {
	return f.rows, f.err
}

func sampleHits() []repository.ExampleHit {
	return []repository.ExampleHit{
		{
			ID:    "ex-1",
			Score: 0.91,
			Payload: &repository.ExamplePayload{
				ExampleID: "ex-1",
				Company:   "Acme",
				Tagline:   "Acme tagline",
			},
		},
		{
			ID:    "ex-2",
			Score: 0.74,
			Payload: &repository.ExamplePayload{
				ExampleID: "ex-2",
				Company:   "Globex",
			},
		},
	}
}

func TestRetrieveReturnsScoredExamples(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1, 0.2}}
	svc := NewRetrievalService(embedder, &fakeSearcher{hits: sampleHits()}, &fakeEmbeddingStore{}, nil, nil)

	results := svc.Retrieve(context.Background(), baseRequest())

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Company != "Acme" || results[0].Similarity != 0.91 {
		t.Errorf("unexpected first result: %+v", results[0])
	}
}

func TestRetrieveFallsBackOnEmbeddingError(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("embed down")}
	svc := NewRetrievalService(embedder, &fakeSearcher{hits: sampleHits()}, &fakeEmbeddingStore{}, nil, nil)

	results := svc.Retrieve(context.Background(), baseRequest())

	if len(results) != len(FallbackExamples()) {
		t.Fatalf("expected static fallback set, got %d results", len(results))
	}
	if results[0].Company != "Slack" {
		t.Errorf("unexpected fallback company: %q", results[0].Company)
	}
}

func TestRetrieveFallsBackOnSearchError(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1}}
	svc := NewRetrievalService(embedder, &fakeSearcher{err: errors.New("qdrant down")}, &fakeEmbeddingStore{}, nil, nil)

	results := svc.Retrieve(context.Background(), baseRequest())
	if len(results) != len(FallbackExamples()) {
		t.Fatalf("expected static fallback set, got %d results", len(results))
	}
}

func TestRetrieveFallsBackOnZeroRows(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1}}
	svc := NewRetrievalService(embedder, &fakeSearcher{}, &fakeEmbeddingStore{}, nil, nil)

	results := svc.Retrieve(context.Background(), baseRequest())
	if len(results) == 0 {
		t.Fatal("zero search rows must still yield the fallback set")
	}
}

func TestResolveEmbeddingTiers(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.5, 0.5}}
	store := &fakeEmbeddingStore{}
	svc := NewRetrievalService(embedder, &fakeSearcher{hits: sampleHits()}, store, nil, nil)

	req := baseRequest()

	// First call computes and backfills both cache tiers.
	svc.Retrieve(context.Background(), req)
	if embedder.calls != 1 {
		t.Fatalf("expected 1 embed call, got %d", embedder.calls)
	}
	if store.puts != 1 {
		t.Fatalf("expected 1 persistent cache write, got %d", store.puts)
	}

	// Second call is served from the in-process LRU.
	svc.Retrieve(context.Background(), req)
	if embedder.calls != 1 {
		t.Errorf("repeat query should not re-embed, got %d calls", embedder.calls)
	}
}

func TestResolveEmbeddingPersistentHitSkipsEmbedder(t *testing.T) {
	req := baseRequest()
	hash := ContentHash(QueryText(req))

	embedder := &fakeEmbedder{vector: []float32{0.5}}
	store := &fakeEmbeddingStore{entries: map[string][]float32{hash: {0.9, 0.8}}}
	svc := NewRetrievalService(embedder, &fakeSearcher{hits: sampleHits()}, store, nil, nil)

	svc.Retrieve(context.Background(), req)
	if embedder.calls != 0 {
		t.Errorf("persistent cache hit should not invoke the embedder, got %d calls", embedder.calls)
	}
}

func TestRetrieveEnrichesFromDatabase(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1}}
	finder := &fakeFinder{rows: []domain.ReferenceExample{
		{ID: "ex-1", Company: "Acme", Industry: "manufacturing", Tone: "confident"},
	}}
	svc := NewRetrievalService(embedder, &fakeSearcher{hits: sampleHits()}, &fakeEmbeddingStore{}, finder, nil)

	results := svc.Retrieve(context.Background(), baseRequest())

	if results[0].Industry != "manufacturing" || results[0].Tone != "confident" {
		t.Errorf("expected first result enriched from database, got %+v", results[0].ReferenceExample)
	}
	if results[0].Similarity != 0.91 {
		t.Errorf("enrichment must preserve similarity, got %f", results[0].Similarity)
	}
	// Second hit has no relational row and keeps its payload data.
	if results[1].Company != "Globex" {
		t.Errorf("payload-only hit lost its data: %+v", results[1].ReferenceExample)
	}
}

func TestQueryTextJoinsFields(t *testing.T) {
	req := baseRequest()
	req.SecondaryAnchor = &domain.Anchor{Type: domain.AnchorUseCase, Content: "sprint planning"}

	got := QueryText(req)
	want := "project management software sprint planning Teams waste hours manually tracking tasks Automated real-time dashboards that update instantly engineering managers"
	if got != want {
		t.Errorf("query text = %q, want %q", got, want)
	}
}
