package highlight

import "sort"

// phaseRank orders categories competing for the same start offset: the
// literal phrase tags are registered before the heuristic clause tags and
// keep that precedence here.
func phaseRank(c Category) int {
	switch c {
	case CategoryPrimaryAnchor, CategorySecondaryAnchor, CategoryICP:
		return 0
	default:
		return 1
	}
}

// Resolve walks the text left to right and turns the tagged spans into a
// flat run sequence. Spans whose start falls inside an already-claimed run
// are dropped; when two spans start at the same offset the exact-match tag
// beats the clause tag. The emitted runs concatenated in order reconstruct
// the text exactly.
func Resolve(text string, spans []Span) []Run {
	if text == "" {
		return nil
	}

	sorted := make([]Span, 0, len(spans))
	for _, s := range spans {
		if s.Start >= 0 && s.End <= len(text) && s.Start < s.End {
			sorted = append(sorted, s)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		ri, rj := phaseRank(sorted[i].Category), phaseRank(sorted[j].Category)
		if ri != rj {
			return ri < rj
		}
		return sorted[i].End > sorted[j].End
	})

	var runs []Run
	pos := 0
	for _, s := range sorted {
		if s.Start < pos {
			continue
		}
		if s.Start > pos {
			runs = append(runs, Run{Text: text[pos:s.Start]})
		}
		runs = append(runs, Run{
			Text:        text[s.Start:s.End],
			Category:    s.Category,
			Color:       s.Category.Color(),
			Highlighted: true,
		})
		pos = s.End
	}
	if pos < len(text) {
		runs = append(runs, Run{Text: text[pos:]})
	}
	return runs
}
