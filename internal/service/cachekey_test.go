package service

import (
	"strings"
	"testing"

	"github.com/aprilhs/copyforge/internal/domain"
)

func baseRequest() *domain.CoreMessaging {
	return &domain.CoreMessaging{
		PrimaryAnchor: domain.Anchor{
			Type:    domain.AnchorProductCategory,
			Content: "project management software",
		},
		Problem:        "Teams waste hours manually tracking tasks",
		Differentiator: "Automated real-time dashboards that update instantly",
		ICP:            []string{"engineering managers"},
		Settings:       domain.GenerationSettings{Temperature: 0.7, TopP: 0.9},
	}
}

func TestCacheKeyDeterministic(t *testing.T) {
	r1 := baseRequest()
	r2 := baseRequest()

	if CacheKey(r1) != CacheKey(r2) {
		t.Error("identical requests should produce identical cache keys")
	}
}

func TestCacheKeyIgnoresNonKeyFields(t *testing.T) {
	r1 := baseRequest()

	r2 := baseRequest()
	r2.ICP = []string{"completely different segment"}
	r2.SecondaryAnchor = &domain.Anchor{Type: domain.AnchorUseCase, Content: "sprint planning"}
	r2.Thesis = "a thesis"
	r2.Risks = "some risks"

	if CacheKey(r1) != CacheKey(r2) {
		t.Error("fields outside the key set should not change the cache key")
	}
}

func TestCacheKeyCaseInsensitiveAnchor(t *testing.T) {
	r1 := baseRequest()
	r2 := baseRequest()
	r2.PrimaryAnchor.Content = "Project Management SOFTWARE"

	if CacheKey(r1) != CacheKey(r2) {
		t.Error("anchor content casing should not change the cache key")
	}
}

func TestCacheKeyPrefixBound(t *testing.T) {
	long := strings.Repeat("a", 50)

	r1 := baseRequest()
	r1.Problem = long + " tail one"

	r2 := baseRequest()
	r2.Problem = long + " a completely different tail"

	if CacheKey(r1) != CacheKey(r2) {
		t.Error("problem text beyond the 50-char prefix should not change the cache key")
	}

	r3 := baseRequest()
	r3.Problem = "b" + long

	if CacheKey(r1) == CacheKey(r3) {
		t.Error("problem text within the prefix should change the cache key")
	}
}

func TestCacheKeyTemperatureBuckets(t *testing.T) {
	tests := []struct {
		name   string
		t1, t2 float32
		same   bool
	}{
		{"0.31 and 0.34 share a bucket", 0.31, 0.34, true},
		{"0.34 and 0.36 split buckets", 0.34, 0.36, false},
		{"0.7 and 0.7 identical", 0.7, 0.7, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r1 := baseRequest()
			r1.Settings.Temperature = tt.t1
			r2 := baseRequest()
			r2.Settings.Temperature = tt.t2

			same := CacheKey(r1) == CacheKey(r2)
			if same != tt.same {
				t.Errorf("temperatures %.2f and %.2f: same=%v, want %v", tt.t1, tt.t2, same, tt.same)
			}
		})
	}
}

func TestContentHashNormalizes(t *testing.T) {
	if ContentHash("  Hello World  ") != ContentHash("hello world") {
		t.Error("content hash should be case- and whitespace-insensitive at the edges")
	}
	if ContentHash("hello world") == ContentHash("hello  world") {
		t.Error("interior whitespace should still distinguish inputs")
	}
}
