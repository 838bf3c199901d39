package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aprilhs/copyforge/internal/domain"
)

// fakeGenerator returns a canned completion or error.
type fakeGenerator struct {
	response string
	err      error
	calls    int
}

func (f *fakeGenerator) Generate(_ context.Context, _ string, _, _ float32) (string, error) {
	f.calls++
	return f.response, f.err
}

func TestGenerateParsesStructuredResponse(t *testing.T) {
	gen := &fakeGenerator{response: "HEADLINE: Project management software for teams\nSUBHEADLINE: Track everything in one place.\nOPPORTUNITY: Win the teams drowning in spreadsheets."}
	o := NewOrchestrator(gen)

	result := o.Generate(context.Background(), baseRequest(), nil)

	if result.Fallback || result.Degraded {
		t.Fatalf("expected clean parse, got fallback=%v degraded=%v", result.Fallback, result.Degraded)
	}
	if result.Content.Headline != "Project management software for teams" {
		t.Errorf("unexpected headline: %q", result.Content.Headline)
	}
	if result.Content.Subheadline != "Track everything in one place." {
		t.Errorf("unexpected subheadline: %q", result.Content.Subheadline)
	}
	if result.Content.Opportunity != "Win the teams drowning in spreadsheets." {
		t.Errorf("unexpected opportunity: %q", result.Content.Opportunity)
	}
}

func TestGenerateMultiLineOpportunity(t *testing.T) {
	raw := strings.Join([]string{
		"HEADLINE: The headline",
		"SUBHEADLINE: The subheadline.",
		"OPPORTUNITY: First part of the opportunity",
		"continues on a second line",
		"Note: this trailing aside is not part of it",
	}, "\n")

	content, ok := parseStructured(raw)
	if !ok {
		t.Fatal("expected structured parse to succeed")
	}
	want := "First part of the opportunity continues on a second line"
	if content.Opportunity != want {
		t.Errorf("opportunity = %q, want %q", content.Opportunity, want)
	}
}

func TestGenerateDegradedParse(t *testing.T) {
	gen := &fakeGenerator{response: "your team finally ships on time. No more status meetings, no more guesswork."}
	o := NewOrchestrator(gen)

	result := o.Generate(context.Background(), baseRequest(), nil)

	if !result.Degraded {
		t.Fatal("expected degraded parse for unstructured completion")
	}
	if result.Fallback {
		t.Error("degraded parse should not be marked as fallback")
	}
	if result.Content.Headline != "Your team finally ships on time." {
		t.Errorf("unexpected headline: %q", result.Content.Headline)
	}
	if result.Content.Subheadline == "" {
		t.Error("expected non-empty subheadline")
	}
	if result.Content.Opportunity != defaultOpportunity {
		t.Errorf("expected default opportunity, got %q", result.Content.Opportunity)
	}
}

func TestGenerateTemplateFallbackOnError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("boom")}
	o := NewOrchestrator(gen)

	req := baseRequest()
	result := o.Generate(context.Background(), req, nil)

	if !result.Fallback {
		t.Fatal("expected fallback on generation error")
	}
	if result.Content.Headline != "Professional project management software" {
		t.Errorf("unexpected fallback headline: %q", result.Content.Headline)
	}
	wantSub := "Solve Teams waste hours manually tracking tasks with Automated real-time dashboards that update instantly"
	if result.Content.Subheadline != wantSub {
		t.Errorf("fallback subheadline = %q, want %q", result.Content.Subheadline, wantSub)
	}
}

func TestGenerateFallbackUsesSecondaryAnchor(t *testing.T) {
	gen := &fakeGenerator{err: ErrRateLimited}
	o := NewOrchestrator(gen)

	req := baseRequest()
	req.SecondaryAnchor = &domain.Anchor{Type: domain.AnchorUseCase, Content: "sprint planning"}
	result := o.Generate(context.Background(), req, nil)

	want := "project management software for sprint planning"
	if result.Content.Headline != want {
		t.Errorf("fallback headline = %q, want %q", result.Content.Headline, want)
	}
}

func TestGenerateCopiesThesisAndRisks(t *testing.T) {
	tests := []struct {
		name string
		gen  *fakeGenerator
	}{
		{"structured", &fakeGenerator{response: "HEADLINE: H\nSUBHEADLINE: S\nOPPORTUNITY: O"}},
		{"degraded", &fakeGenerator{response: "free-form text without markers."}},
		{"fallback", &fakeGenerator{err: errors.New("down")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest()
			req.Thesis = "the thesis"
			req.Risks = "the risks"

			result := NewOrchestrator(tt.gen).Generate(context.Background(), req, nil)
			if result.Content.Thesis != "the thesis" || result.Content.Risks != "the risks" {
				t.Errorf("thesis/risks not copied: got %q / %q", result.Content.Thesis, result.Content.Risks)
			}
		})
	}
}

func TestDegradedParseStripsLeadingSolve(t *testing.T) {
	content, ok := degradedParse("Solve slow deploys once and for all. Ship daily.")
	if !ok {
		t.Fatal("expected degraded parse to succeed")
	}
	if content.Headline != "Slow deploys once and for all." {
		t.Errorf("unexpected headline: %q", content.Headline)
	}
	if content.Subheadline != "Ship daily." {
		t.Errorf("unexpected subheadline: %q", content.Subheadline)
	}
}

func TestDegradedParseCapitalizesSubheadline(t *testing.T) {
	content, ok := degradedParse("Solve slow deploys. it ships daily now.")
	if !ok {
		t.Fatal("expected degraded parse to succeed")
	}
	if content.Headline != "Slow deploys." {
		t.Errorf("unexpected headline: %q", content.Headline)
	}
	if content.Subheadline != "It ships daily now." {
		t.Errorf("subheadline must be capitalized, got %q", content.Subheadline)
	}
}

func TestDegradedParseStripsMarkerLines(t *testing.T) {
	// A completion carrying only one marker fails the structured parse but
	// must not leak the literal label into the salvaged headline.
	content, ok := degradedParse("HEADLINE: teams ship faster with us")
	if !ok {
		t.Fatal("expected degraded parse to succeed")
	}
	if content.Headline != "Teams ship faster with us" {
		t.Errorf("marker label leaked into headline: %q", content.Headline)
	}
}

func TestDegradedParseEmptyInput(t *testing.T) {
	if _, ok := degradedParse("   "); ok {
		t.Error("blank completion should not parse")
	}
}

func TestParseStructuredRequiresHeadlineAndSubheadline(t *testing.T) {
	if _, ok := parseStructured("HEADLINE: only a headline"); ok {
		t.Error("missing subheadline should fail structured parse")
	}
	content, ok := parseStructured("HEADLINE: H\nSUBHEADLINE: S")
	if !ok {
		t.Fatal("headline plus subheadline should parse")
	}
	if content.Opportunity != defaultOpportunity {
		t.Errorf("missing opportunity should fall back to default, got %q", content.Opportunity)
	}
}
