package match

import (
	"strings"
	"unicode/utf8"

	"github.com/agext/levenshtein"

	"cvscreen/internal/types"
)

// DefaultFuzzyThreshold is the normalized Levenshtein similarity a token
// must exceed to count as a fuzzy match.
const DefaultFuzzyThreshold = 0.85

// fuzzyMinKeywordLen is the minimum keyword length (in runes) eligible
// for the fuzzy strategy. Shorter keywords produce too many accidental
// near-matches and are matched by the exact and synonym strategies only.
const fuzzyMinKeywordLen = 3

// Matcher matches required keywords against extracted text using three
// strategies tried in order: exact substring, synonym table, fuzzy token
// similarity. First hit wins. Matching is case-insensitive throughout.
type Matcher struct {
	table     *SynonymTable
	threshold float64
	params    *levenshtein.Params
}

// NewMatcher creates a matcher over the given synonym table. A threshold
// of 0 selects DefaultFuzzyThreshold.
func NewMatcher(table *SynonymTable, threshold float64) *Matcher {
	if table == nil {
		table = NewSynonymTable()
	}
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}
	return &Matcher{
		table:     table,
		threshold: threshold,
		params:    levenshtein.NewParams(),
	}
}

// Match partitions keywords into matched and missing. Keywords are
// trimmed before comparison; entries empty after trimming are dropped
// from both sets. Order within each result slice mirrors input order.
// The same text and keyword list always yield the same result.
func (m *Matcher) Match(text string, keywords []string) types.MatchResult {
	lowerText := strings.ToLower(text)
	tokens := tokenize(lowerText)

	result := types.MatchResult{
		Matched: []string{},
		Missing: []string{},
	}
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if m.matches(lowerText, tokens, strings.ToLower(kw)) {
			result.Matched = append(result.Matched, kw)
		} else {
			result.Missing = append(result.Missing, kw)
		}
	}
	return result
}

// matches applies the three strategies in order against pre-lowered text.
func (m *Matcher) matches(lowerText string, tokens []string, lowerKw string) bool {
	// Strategy 1: exact substring.
	if strings.Contains(lowerText, lowerKw) {
		return true
	}

	// Strategy 2: synonym table. The canonical itself is covered by the
	// exact check above; only the variants remain to test.
	for _, variant := range m.table.Variants(lowerKw) {
		if strings.Contains(lowerText, variant) {
			return true
		}
	}

	// Strategy 3: fuzzy token similarity.
	if utf8.RuneCountInString(lowerKw) < fuzzyMinKeywordLen {
		return false
	}
	for _, tok := range tokens {
		if levenshtein.Similarity(tok, lowerKw, m.params) > m.threshold {
			return true
		}
	}
	return false
}

// tokenize splits pre-lowered text on whitespace and strips surrounding
// punctuation so "communication," still fuzzy-matches "communiction".
func tokenize(lowerText string) []string {
	fields := strings.Fields(lowerText)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ",.;:!?\"'()[]")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
