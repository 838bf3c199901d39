package highlight

import "strings"

// ClauseKind is the classification outcome for one clause.
type ClauseKind int

const (
	ClauseNone ClauseKind = iota
	ClauseProblem
	ClauseSolution
)

// ClauseClassifier decides whether a clause of generated text reads as a
// problem statement, a solution statement, or neither. Implementations can
// be swapped without touching the span merge and render logic.
type ClauseClassifier interface {
	Classify(clause string) ClauseKind
}

// problemTerms and solutionTerms are the keyword lexicons the default
// classifier counts against. Terms match whole words, or word prefixes for
// terms of four or more characters ("manual" hits "manually").
var problemTerms = []string{
	"lack", "no", "without", "difficult", "challenge", "issue", "problem",
	"struggle", "fail", "unable", "can't", "don't", "until", "before",
	"complain", "frustrated", "slow", "manual", "inefficient",
	"time-consuming", "expensive", "costly",
}

var solutionTerms = []string{
	"predicts", "provides", "enables", "allows", "helps", "gives", "offers",
	"delivers", "automatically", "proactive", "advance", "real-time",
	"instant", "fast", "efficient", "easy", "simple", "automated",
}

// LexiconClassifier is the default keyword-counting classifier.
type LexiconClassifier struct {
	problem  []string
	solution []string
}

// NewLexiconClassifier creates a classifier over the built-in lexicons.
func NewLexiconClassifier() *LexiconClassifier {
	return &LexiconClassifier{problem: problemTerms, solution: solutionTerms}
}

// Classify counts lexicon hits in the clause. A clause is a problem when
// problem hits strictly outnumber solution hits, a solution when solution
// hits are present and not outnumbered, otherwise unclassified.
func (c *LexiconClassifier) Classify(clause string) ClauseKind {
	words := tokenize(clause)

	problemCount := countHits(words, c.problem)
	solutionCount := countHits(words, c.solution)

	switch {
	case problemCount > solutionCount && problemCount > 0:
		return ClauseProblem
	case solutionCount > 0 && solutionCount >= problemCount:
		return ClauseSolution
	default:
		return ClauseNone
	}
}

// minPrefixTermLen guards short lexicon terms like "no" from prefix-matching
// unrelated words ("notifications").
const minPrefixTermLen = 4

func countHits(words, terms []string) int {
	count := 0
	for _, w := range words {
		for _, t := range terms {
			if w == t || (len(t) >= minPrefixTermLen && strings.HasPrefix(w, t)) {
				count++
				break
			}
		}
	}
	return count
}

// tokenize lower-cases the clause and splits it into words, trimming
// surrounding punctuation while keeping internal hyphens and apostrophes
// ("real-time", "can't").
func tokenize(clause string) []string {
	fields := strings.Fields(strings.ToLower(clause))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.TrimFunc(f, func(r rune) bool {
			return !isWordRune(r)
		})
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

func isWordRune(r rune) bool {
	return r == '-' || r == '\'' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
