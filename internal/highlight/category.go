package highlight

// Category identifies which request field a span of generated text traces
// back to.
type Category string

const (
	CategoryPrimaryAnchor   Category = "primary_anchor"
	CategorySecondaryAnchor Category = "secondary_anchor"
	CategoryICP             Category = "icp"
	CategoryProblem         Category = "problem"
	CategorySolution        Category = "solution"
)

// categoryColors maps each category to its display color.
var categoryColors = map[Category]string{
	CategoryPrimaryAnchor:   "#2563EB",
	CategorySecondaryAnchor: "#7C3AED",
	CategoryICP:             "#0D9488",
	CategoryProblem:         "#DC2626",
	CategorySolution:        "#16A34A",
}

// Color returns the display color for the category, or empty for an
// unknown one.
func (c Category) Color() string {
	return categoryColors[c]
}

// Span is a half-open byte range [Start, End) over the generated text,
// tagged with the category it is attributed to.
type Span struct {
	Start    int      `json:"start"`
	End      int      `json:"end"`
	Category Category `json:"category"`
}

// Run is one piece of the rendered text. Runs concatenated in order
// reconstruct the source text exactly; Highlighted runs carry the category
// and color they were attributed to.
type Run struct {
	Text        string   `json:"text"`
	Category    Category `json:"category,omitempty"`
	Color       string   `json:"color,omitempty"`
	Highlighted bool     `json:"highlighted"`
}
