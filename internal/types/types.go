package types

import "strings"

// Disposition is the categorical outcome of screening a document.
type Disposition string

const (
	DispositionShortlisted   Disposition = "shortlisted"
	DispositionFlaggedReview Disposition = "flagged_review"
	DispositionAutoRejected  Disposition = "auto_rejected"
	DispositionUnscreened    Disposition = "unscreened"
)

// ScreeningRequest describes one document to screen against a keyword list.
type ScreeningRequest struct {
	ApplicationID    string   `json:"applicationId"`
	DocumentRef      string   `json:"documentRef"`
	RequiredKeywords []string `json:"requiredKeywords"`
	PassThreshold    int      `json:"passThreshold"`
}

// NormalizeKeywords trims entries and drops empties and duplicates while
// preserving input order. The result is the effective keyword set for
// matching and scoring.
func NormalizeKeywords(keywords []string) []string {
	seen := make(map[string]bool, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		key := strings.ToLower(kw)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, kw)
	}
	return out
}

// SplitKeywords accepts the comma-separated string form of a keyword list.
func SplitKeywords(s string) []string {
	return NormalizeKeywords(strings.Split(s, ","))
}

// ExtractedDocument is the immutable result of text extraction.
type ExtractedDocument struct {
	PageCount int    `json:"pageCount"`
	RawText   string `json:"rawText"`
	// Method records which extraction path produced the text
	// ("text-layer" or "ocr").
	Method string `json:"method"`
}

// MatchResult partitions the required keywords into matched and missing.
// Order within each slice mirrors the input keyword order.
type MatchResult struct {
	Matched []string `json:"matched"`
	Missing []string `json:"missing"`
}

// QualitySignals are the structural heuristics computed over extracted text.
type QualitySignals struct {
	HasEducation      bool `json:"hasEducation"`
	HasExperience     bool `json:"hasExperience"`
	HasSkills         bool `json:"hasSkills"`
	HasContact        bool `json:"hasContact"`
	HasProjects       bool `json:"hasProjects"`
	HasCertifications bool `json:"hasCertifications"`
	HasBullets        bool `json:"hasBullets"`
	AppropriateLength bool `json:"appropriateLength"`
	WordCount         int  `json:"wordCount"`
}

// ScreeningOutcome is the terminal result of one screening run. Score is
// nil only for the unscreened disposition, where Reasoning carries the
// failure cause.
type ScreeningOutcome struct {
	ApplicationID string         `json:"applicationId"`
	Score         *int           `json:"score"`
	Matched       []string       `json:"matched"`
	Missing       []string       `json:"missing"`
	Reasoning     string         `json:"reasoning"`
	Quality       QualitySignals `json:"quality"`
	Disposition   Disposition    `json:"disposition"`
}

// Screened reports whether the run produced a score.
func (o ScreeningOutcome) Screened() bool {
	return o.Disposition != DispositionUnscreened
}
