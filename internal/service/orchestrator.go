package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/aprilhs/copyforge/internal/domain"
	"github.com/aprilhs/copyforge/internal/logger"
	"github.com/aprilhs/copyforge/internal/prompts"
)

// TextGenerator produces a raw completion for a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, temperature, topP float32) (string, error)
}

// GenerationResult is the orchestrator output. Fallback marks content built
// from the deterministic templates (never cached); Degraded marks content
// recovered from a malformed completion.
type GenerationResult struct {
	Content  *domain.GeneratedContent
	Fallback bool
	Degraded bool
}

// defaultOpportunity fills the opportunity slot when the completion did not
// yield one.
const defaultOpportunity = "Reach the customers your competitors are ignoring."

// Orchestrator drives one generation: build the grounded prompt, call the
// generation service, and parse the completion, degrading in two steps
// (lenient parse, then template fallback) so a response is always produced.
type Orchestrator struct {
	generator TextGenerator
}

// NewOrchestrator creates a new orchestrator.
func NewOrchestrator(generator TextGenerator) *Orchestrator {
	return &Orchestrator{generator: generator}
}

// Generate produces content for the request grounded on the retrieved
// examples. It never returns an error: generation or parse failures land on
// the template fallback.
func (o *Orchestrator) Generate(ctx context.Context, req *domain.CoreMessaging, examples []domain.ScoredExample) *GenerationResult {
	prompt := prompts.BuildCopyPrompt(req, examples)

	raw, err := o.generator.Generate(ctx, prompt, req.Settings.Temperature, req.Settings.TopP)
	if err != nil {
		switch {
		case errors.Is(err, ErrRateLimited):
			logger.CtxWarn(ctx, "Generation rate limited, using template fallback")
		case errors.Is(err, ErrUnauthorized):
			logger.CtxError(ctx, "Generation unauthorized, using template fallback")
		default:
			logger.CtxWarn(ctx, "Generation failed, using template fallback: error=%v", err)
		}
		return &GenerationResult{Content: templateFallback(req), Fallback: true}
	}

	if content, ok := parseStructured(raw); ok {
		attachPassthrough(content, req)
		return &GenerationResult{Content: content}
	}

	if content, ok := degradedParse(raw); ok {
		logger.CtxWarn(ctx, "Completion missing structure markers, recovered via lenient parse")
		attachPassthrough(content, req)
		return &GenerationResult{Content: content, Degraded: true}
	}

	logger.CtxWarn(ctx, "Completion unusable, using template fallback")
	return &GenerationResult{Content: templateFallback(req), Fallback: true}
}

// parseStructured extracts the three labeled lines from a well-formed
// completion. The opportunity section may continue across lines; the first
// later line containing a colon ends it.
func parseStructured(raw string) (*domain.GeneratedContent, bool) {
	content := &domain.GeneratedContent{}
	lines := strings.Split(raw, "\n")

	inOpportunity := false
	var opportunity []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, "HEADLINE:"):
			content.Headline = strings.TrimSpace(strings.TrimPrefix(trimmed, "HEADLINE:"))
			inOpportunity = false
		case strings.HasPrefix(trimmed, "SUBHEADLINE:"):
			content.Subheadline = strings.TrimSpace(strings.TrimPrefix(trimmed, "SUBHEADLINE:"))
			inOpportunity = false
		case strings.HasPrefix(trimmed, "OPPORTUNITY:"):
			opportunity = append(opportunity, strings.TrimSpace(strings.TrimPrefix(trimmed, "OPPORTUNITY:")))
			inOpportunity = true
		case inOpportunity:
			if strings.Contains(trimmed, ":") {
				inOpportunity = false
				continue
			}
			if trimmed != "" {
				opportunity = append(opportunity, trimmed)
			}
		}
	}

	content.Opportunity = strings.TrimSpace(strings.Join(opportunity, " "))

	if content.Headline == "" || content.Subheadline == "" {
		return nil, false
	}
	if content.Opportunity == "" {
		content.Opportunity = defaultOpportunity
	}
	return content, true
}

// degradedParse salvages a free-form completion: the first sentence becomes
// the headline, the remainder the subheadline, both capitalized.
func degradedParse(raw string) (*domain.GeneratedContent, bool) {
	text := stripMarkers(raw)
	if text == "" {
		return nil, false
	}

	// A leading "Solve" usually means the model echoed the template prompt.
	if first, rest, found := strings.Cut(text, " "); found && first == "Solve" {
		text = rest
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil, false
	}

	headline := capitalize(sentences[0])
	subheadline := headline
	if rest := strings.TrimSpace(strings.Join(sentences[1:], " ")); rest != "" {
		subheadline = capitalize(rest)
	}

	return &domain.GeneratedContent{
		Headline:    headline,
		Subheadline: subheadline,
		Opportunity: defaultOpportunity,
	}, true
}

// templateFallback builds deterministic copy straight from the request
// fields. Results are marked so the cache gate never stores them.
func templateFallback(req *domain.CoreMessaging) *domain.GeneratedContent {
	primary := strings.TrimSpace(req.PrimaryAnchor.Content)

	var headline string
	if req.SecondaryAnchor != nil && strings.TrimSpace(req.SecondaryAnchor.Content) != "" {
		headline = fmt.Sprintf("%s for %s", primary, strings.TrimSpace(req.SecondaryAnchor.Content))
	} else {
		headline = fmt.Sprintf("Professional %s", primary)
	}

	content := &domain.GeneratedContent{
		Headline:    headline,
		Subheadline: fmt.Sprintf("Solve %s with %s", strings.TrimSpace(req.Problem), strings.TrimSpace(req.Differentiator)),
		Opportunity: defaultOpportunity,
	}
	attachPassthrough(content, req)
	return content
}

// attachPassthrough copies the request's thesis and risks verbatim.
func attachPassthrough(content *domain.GeneratedContent, req *domain.CoreMessaging) {
	content.Thesis = req.Thesis
	content.Risks = req.Risks
}

// stripMarkers removes any structure labels the completion did carry, so a
// partially labeled response never leaks literal marker text into the
// salvaged copy. Lines are rejoined with spaces.
func stripMarkers(raw string) string {
	var cleaned []string
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		for _, marker := range []string{"HEADLINE:", "SUBHEADLINE:", "OPPORTUNITY:"} {
			if strings.HasPrefix(trimmed, marker) {
				trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, marker))
				break
			}
		}
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return strings.Join(cleaned, " ")
}

// splitSentences splits text on terminal punctuation, keeping the
// punctuation with each sentence and dropping empty pieces.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// capitalize upper-cases the first rune.
func capitalize(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
