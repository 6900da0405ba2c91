// Package score combines keyword-match results and quality signals into
// a 0-100 score, a disposition, and a human-readable reasoning summary.
package score

import (
	"fmt"
	"math"
	"strings"

	"cvscreen/internal/types"
)

// Keyword matching contributes up to 70 points; structural quality the
// remaining 30.
const (
	keywordWeight   = 70.0
	maxQualityScore = 30
)

// Quality signal weights. They sum to maxQualityScore.
const (
	weightEducation      = 5
	weightExperience     = 8
	weightSkills         = 5
	weightContact        = 4
	weightProjects       = 3
	weightCertifications = 2
	weightBullets        = 2
	weightLength         = 1
)

// Disposition thresholds. Fixed; independent of any caller-supplied pass
// threshold, which only affects labeling in the surrounding flow.
const (
	shortlistThreshold = 70
	reviewThreshold    = 40
)

// Result is the scorer's output for one screening run.
type Result struct {
	Score       int
	Disposition types.Disposition
	Reasoning   string
}

// Compute scores a match result against quality signals. It is pure
// arithmetic and never fails.
func Compute(match types.MatchResult, quality types.QualitySignals) Result {
	total := len(match.Matched) + len(match.Missing)

	keywordScore := 0.0
	if total > 0 {
		keywordScore = float64(len(match.Matched)) / float64(total) * keywordWeight
	}

	score := int(math.Round(keywordScore + float64(qualityScore(quality))))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return Result{
		Score:       score,
		Disposition: DispositionFor(score),
		Reasoning:   buildReasoning(score, match, quality),
	}
}

func qualityScore(q types.QualitySignals) int {
	score := 0
	if q.HasEducation {
		score += weightEducation
	}
	if q.HasExperience {
		score += weightExperience
	}
	if q.HasSkills {
		score += weightSkills
	}
	if q.HasContact {
		score += weightContact
	}
	if q.HasProjects {
		score += weightProjects
	}
	if q.HasCertifications {
		score += weightCertifications
	}
	if q.HasBullets {
		score += weightBullets
	}
	if q.AppropriateLength {
		score += weightLength
	}
	return score
}

// DispositionFor maps a score to its screening disposition.
func DispositionFor(score int) types.Disposition {
	switch {
	case score >= shortlistThreshold:
		return types.DispositionShortlisted
	case score >= reviewThreshold:
		return types.DispositionFlaggedReview
	default:
		return types.DispositionAutoRejected
	}
}

// buildReasoning assembles the templated summary. The opening sentence
// varies by score band; the rest covers keyword counts, key sections,
// and a length note when the document is an outlier.
func buildReasoning(score int, match types.MatchResult, quality types.QualitySignals) string {
	var b strings.Builder

	switch {
	case score >= shortlistThreshold:
		b.WriteString("Strong candidate profile. ")
	case score >= reviewThreshold:
		b.WriteString("Moderate candidate profile. ")
	default:
		b.WriteString("Weak candidate profile. ")
	}

	total := len(match.Matched) + len(match.Missing)
	fmt.Fprintf(&b, "Matched %d of %d required keywords", len(match.Matched), total)
	if len(match.Missing) > 0 {
		fmt.Fprintf(&b, " (missing: %s)", strings.Join(match.Missing, ", "))
	}
	b.WriteString(". ")

	if quality.HasExperience {
		b.WriteString("Work experience is present. ")
	} else {
		b.WriteString("No work experience section found. ")
	}
	if quality.HasEducation {
		b.WriteString("Education background is present. ")
	} else {
		b.WriteString("No education section found. ")
	}
	if quality.HasSkills {
		b.WriteString("Skills section is present. ")
	} else {
		b.WriteString("No skills section found. ")
	}

	if !quality.AppropriateLength {
		if quality.WordCount < 300 {
			fmt.Fprintf(&b, "Document is unusually short (%d words). ", quality.WordCount)
		} else {
			fmt.Fprintf(&b, "Document is unusually long (%d words). ", quality.WordCount)
		}
	}

	return strings.TrimSpace(b.String())
}
