package prompts

import (
	"fmt"
	"strings"

	"github.com/aprilhs/copyforge/internal/domain"
)

// BannedPhrases is the boilerplate the generation service is told to avoid.
// The list mirrors the phrases most overused in SaaS landing pages.
var BannedPhrases = []string{"transform", "unlock", "say goodbye"}

// anchorTypeLabels maps anchor enum values to the wording used in prompts.
var anchorTypeLabels = map[domain.AnchorType]string{
	domain.AnchorProductCategory:        "Product Category",
	domain.AnchorUseCase:                "Use Case",
	domain.AnchorCompetitiveAlternative: "Competitive Alternative",
}

// AnchorTypeLabel returns the human-readable label for an anchor type.
func AnchorTypeLabel(t domain.AnchorType) string {
	if label, ok := anchorTypeLabels[t]; ok {
		return label
	}
	return string(t)
}

// RenderExample renders one retrieved reference example into the fixed
// context-block template.
func RenderExample(ex *domain.ScoredExample) string {
	return fmt.Sprintf("%s (%s): %q / ICP: %s / Problem: %s / Solution: %s / Structure: %s",
		ex.Company,
		AnchorTypeLabel(ex.AnchorType),
		ex.Tagline,
		strings.Join(ex.ICPSegments, ", "),
		ex.Problem,
		ex.Differentiator,
		ex.Structure,
	)
}

// ContextBlock joins rendered examples with blank lines.
func ContextBlock(examples []domain.ScoredExample) string {
	rendered := make([]string, len(examples))
	for i := range examples {
		rendered[i] = RenderExample(&examples[i])
	}
	return strings.Join(rendered, "\n\n")
}

// BuildCopyPrompt assembles the grounded generation prompt: retrieved
// context, the request's literal field values, formatting rules, and the
// strict three-line output contract.
func BuildCopyPrompt(req *domain.CoreMessaging, examples []domain.ScoredExample) string {
	var b strings.Builder

	b.WriteString("Here is positioning copy from comparable companies:\n\n")
	b.WriteString(ContextBlock(examples))
	b.WriteString("\n\nWrite landing-page copy for the following positioning strategy:\n")

	fmt.Fprintf(&b, "Primary anchor (%s): %s\n", AnchorTypeLabel(req.PrimaryAnchor.Type), req.PrimaryAnchor.Content)
	if req.SecondaryAnchor != nil && strings.TrimSpace(req.SecondaryAnchor.Content) != "" {
		fmt.Fprintf(&b, "Secondary anchor (%s): %s\n", AnchorTypeLabel(req.SecondaryAnchor.Type), req.SecondaryAnchor.Content)
	}
	fmt.Fprintf(&b, "Problem: %s\n", req.Problem)
	fmt.Fprintf(&b, "Differentiator: %s\n", req.Differentiator)
	fmt.Fprintf(&b, "Target customers: %s\n", strings.Join(req.ICP, ", "))

	b.WriteString("\nRules:\n")
	fmt.Fprintf(&b, "- The headline must contain the exact phrase %q.\n", req.PrimaryAnchor.Content)
	fmt.Fprintf(&b, "- Never use the words %q, %q or %q.\n", BannedPhrases[0], BannedPhrases[1], BannedPhrases[2])
	b.WriteString("- Keep the subheadline to 1-2 sentences.\n")
	b.WriteString("- Respond with exactly three lines in this format:\n\n")
	b.WriteString("HEADLINE: <text>\nSUBHEADLINE: <text>\nOPPORTUNITY: <text>")

	return b.String()
}
