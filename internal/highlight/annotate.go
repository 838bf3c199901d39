package highlight

import (
	"sort"
	"strings"

	"github.com/aprilhs/copyforge/internal/domain"
)

// mergeGap is the largest character gap between two same-category spans
// that still collapses them into one.
const mergeGap = 2

// conjunctionMarkers split clauses inside a sentence in addition to the
// sentence terminators.
var conjunctionMarkers = []string{", but", ", however", ", and our"}

// Annotator computes the attributed spans for generated text. It combines
// exact-match lookup of the literal request phrases with heuristic clause
// classification for the paraphrased problem/solution material.
type Annotator struct {
	classifier ClauseClassifier
}

// NewAnnotator creates an annotator with the given clause classifier; nil
// selects the built-in lexicon classifier.
func NewAnnotator(classifier ClauseClassifier) *Annotator {
	if classifier == nil {
		classifier = NewLexiconClassifier()
	}
	return &Annotator{classifier: classifier}
}

// Annotate returns the non-overlapping attributed spans for text, sorted by
// start offset.
func (a *Annotator) Annotate(text string, req *domain.CoreMessaging) []Span {
	spans := exactMatchSpans(text, req)
	spans = append(spans, a.clauseSpans(text)...)
	return mergeByCategory(text, spans)
}

// Runs annotates the text and resolves the spans into render runs.
func (a *Annotator) Runs(text string, req *domain.CoreMessaging) []Run {
	return Resolve(text, a.Annotate(text, req))
}

// exactMatchSpans tags the first case-insensitive occurrence of each literal
// request phrase: primary anchor, then secondary anchor, then each ICP
// segment. A phrase landing inside an earlier tag is skipped.
func exactMatchSpans(text string, req *domain.CoreMessaging) []Span {
	type phrase struct {
		content  string
		category Category
	}

	phrases := []phrase{{req.PrimaryAnchor.Content, CategoryPrimaryAnchor}}
	if req.SecondaryAnchor != nil {
		phrases = append(phrases, phrase{req.SecondaryAnchor.Content, CategorySecondaryAnchor})
	}
	for _, segment := range req.ICP {
		phrases = append(phrases, phrase{segment, CategoryICP})
	}

	var spans []Span
	for _, p := range phrases {
		needle := strings.TrimSpace(p.content)
		if needle == "" {
			continue
		}
		start := indexFold(text, needle)
		if start < 0 {
			continue
		}
		end := start + len(needle)
		if overlapsAny(spans, start, end) {
			continue
		}
		spans = append(spans, Span{Start: start, End: end, Category: p.category})
	}
	return spans
}

// clauseSpans splits the text into clauses, classifies each, and emits the
// candidate word windows of every classified clause as spans located at
// their first occurrence in the text.
func (a *Annotator) clauseSpans(text string) []Span {
	var spans []Span
	seen := make(map[string]bool)

	for _, clause := range splitClauses(text) {
		kind := a.classifier.Classify(clause)
		if kind == ClauseNone {
			continue
		}

		category := CategoryProblem
		if kind == ClauseSolution {
			category = CategorySolution
		}

		for _, candidate := range wordWindows(clause) {
			if seen[candidate] {
				continue
			}
			seen[candidate] = true

			start := indexFold(text, candidate)
			if start < 0 {
				continue
			}
			spans = append(spans, Span{Start: start, End: start + len(candidate), Category: category})
		}
	}
	return spans
}

// splitClauses breaks text on sentence terminators and on the conjunction
// markers, dropping empty pieces.
func splitClauses(text string) []string {
	sentences := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	var clauses []string
	for _, s := range sentences {
		pieces := []string{s}
		for _, marker := range conjunctionMarkers {
			var next []string
			for _, piece := range pieces {
				next = append(next, splitOnFold(piece, marker)...)
			}
			pieces = next
		}
		for _, piece := range pieces {
			if trimmed := strings.TrimSpace(piece); trimmed != "" {
				clauses = append(clauses, trimmed)
			}
		}
	}
	return clauses
}

// splitOnFold splits s on every case-insensitive occurrence of marker.
func splitOnFold(s, marker string) []string {
	var parts []string
	for {
		i := indexFold(s, marker)
		if i < 0 {
			break
		}
		parts = append(parts, s[:i])
		s = s[i+len(marker):]
	}
	return append(parts, s)
}

// wordWindows yields the overlapping 4-8 word windows of the clause, plus
// the whole clause when it has at most 8 words.
func wordWindows(clause string) []string {
	words := strings.Fields(clause)

	var windows []string
	if len(words) <= 8 {
		windows = append(windows, strings.Join(words, " "))
	}
	for size := 4; size <= 8; size++ {
		for i := 0; i+size <= len(words); i++ {
			windows = append(windows, strings.Join(words[i:i+size], " "))
		}
	}
	return windows
}

// mergeByCategory collapses near-adjacent spans of the same category. Spans
// of one category come out disjoint and separated by more than mergeGap
// characters.
func mergeByCategory(text string, spans []Span) []Span {
	byCategory := make(map[Category][]Span)
	for _, s := range spans {
		if s.Start < 0 || s.End > len(text) || s.Start >= s.End {
			continue
		}
		byCategory[s.Category] = append(byCategory[s.Category], s)
	}

	var merged []Span
	for _, group := range byCategory {
		sort.Slice(group, func(i, j int) bool {
			if group[i].Start != group[j].Start {
				return group[i].Start < group[j].Start
			}
			return group[i].End > group[j].End
		})

		current := group[0]
		for _, s := range group[1:] {
			if s.Start-current.End <= mergeGap {
				if s.End > current.End {
					current.End = s.End
				}
				continue
			}
			merged = append(merged, current)
			current = s
		}
		merged = append(merged, current)
	}

	sort.Slice(merged, func(i, j int) bool { return merged[i].Start < merged[j].Start })
	return merged
}

func overlapsAny(spans []Span, start, end int) bool {
	for _, s := range spans {
		if start < s.End && end > s.Start {
			return true
		}
	}
	return false
}

// indexFold is a case-insensitive strings.Index over ASCII letters.
func indexFold(haystack, needle string) int {
	if needle == "" {
		return -1
	}
	n := len(needle)
	for i := 0; i+n <= len(haystack); i++ {
		if equalFoldASCII(haystack[i:i+n], needle) {
			return i
		}
	}
	return -1
}

func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
