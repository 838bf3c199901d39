package domain

// AnchorType classifies how a company positions itself in the market.
type AnchorType string

const (
	AnchorProductCategory        AnchorType = "product_category"
	AnchorUseCase                AnchorType = "use_case"
	AnchorCompetitiveAlternative AnchorType = "competitive_alternative"
)

// Anchor is a single positioning element: what the product is anchored to
// (a category, a use case, or a competitor) and the literal anchor text.
type Anchor struct {
	Type    AnchorType `json:"type"`
	Content string     `json:"content"`
}

// GenerationSettings carries the sampling parameters for the generation
// service. Both values must lie in [0,1]; validation happens at the API
// boundary before the pipeline runs.
type GenerationSettings struct {
	Temperature float32 `json:"temperature"`
	TopP        float32 `json:"top_p"`
}

// CoreMessaging is the positioning strategy submitted for copy generation.
// Thesis and Risks are carried through to the generated content verbatim;
// the pipeline never generates them.
type CoreMessaging struct {
	PrimaryAnchor   Anchor             `json:"primaryAnchor" binding:"required"`
	SecondaryAnchor *Anchor            `json:"secondaryAnchor,omitempty"`
	Problem         string             `json:"problem"`
	Differentiator  string             `json:"differentiator"`
	ICP             []string           `json:"icp"`
	Thesis          string             `json:"thesis,omitempty"`
	Risks           string             `json:"risks,omitempty"`
	Settings        GenerationSettings `json:"generationSettings"`
}

// GeneratedContent is the pipeline output. Headline, Subheadline and
// Opportunity are produced by generation (or one of its fallbacks);
// Thesis and Risks are copied from the request.
type GeneratedContent struct {
	Headline    string `json:"headline"`
	Subheadline string `json:"subheadline"`
	Opportunity string `json:"opportunity"`
	Thesis      string `json:"thesis,omitempty"`
	Risks       string `json:"risks,omitempty"`
}
