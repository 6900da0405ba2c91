package score

import (
	"strings"
	"testing"

	"cvscreen/internal/types"
)

func allSignals() types.QualitySignals {
	return types.QualitySignals{
		HasEducation:      true,
		HasExperience:     true,
		HasSkills:         true,
		HasContact:        true,
		HasProjects:       true,
		HasCertifications: true,
		HasBullets:        true,
		AppropriateLength: true,
		WordCount:         500,
	}
}

func matchOf(matched, missing int) types.MatchResult {
	m := types.MatchResult{Matched: []string{}, Missing: []string{}}
	for i := 0; i < matched; i++ {
		m.Matched = append(m.Matched, "kw")
	}
	for i := 0; i < missing; i++ {
		m.Missing = append(m.Missing, "other")
	}
	return m
}

func TestComputeFormula(t *testing.T) {
	t.Run("PerfectScore", func(t *testing.T) {
		result := Compute(matchOf(4, 0), allSignals())
		if result.Score != 100 {
			t.Errorf("Score = %d, want 100", result.Score)
		}
		if result.Disposition != types.DispositionShortlisted {
			t.Errorf("Disposition = %s, want shortlisted", result.Disposition)
		}
	})

	t.Run("ZeroKeywordsZeroQuality", func(t *testing.T) {
		result := Compute(matchOf(0, 0), types.QualitySignals{})
		if result.Score != 0 {
			t.Errorf("Score = %d, want 0", result.Score)
		}
		if result.Disposition != types.DispositionAutoRejected {
			t.Errorf("Disposition = %s, want auto_rejected", result.Disposition)
		}
	})

	t.Run("HalfKeywordsNoQuality", func(t *testing.T) {
		result := Compute(matchOf(1, 1), types.QualitySignals{})
		if result.Score != 35 {
			t.Errorf("Score = %d, want 35", result.Score)
		}
	})

	t.Run("RoundingTwoThirds", func(t *testing.T) {
		// 2/3 * 70 = 46.67, rounds to 47.
		result := Compute(matchOf(2, 1), types.QualitySignals{})
		if result.Score != 47 {
			t.Errorf("Score = %d, want 47", result.Score)
		}
	})

	t.Run("QualityWeightsSum", func(t *testing.T) {
		result := Compute(matchOf(0, 1), allSignals())
		if result.Score != maxQualityScore {
			t.Errorf("Score = %d, want %d from quality alone", result.Score, maxQualityScore)
		}
	})
}

func TestScoreMonotonicity(t *testing.T) {
	quality := types.QualitySignals{HasExperience: true}
	prev := -1
	for matched := 0; matched <= 5; matched++ {
		result := Compute(matchOf(matched, 5-matched), quality)
		if result.Score < prev {
			t.Fatalf("score decreased from %d to %d at matched=%d", prev, result.Score, matched)
		}
		if result.Score < 0 || result.Score > 100 {
			t.Fatalf("score %d out of [0,100]", result.Score)
		}
		prev = result.Score
	}
}

func TestDispositionBoundaries(t *testing.T) {
	tests := []struct {
		score int
		want  types.Disposition
	}{
		{0, types.DispositionAutoRejected},
		{39, types.DispositionAutoRejected},
		{40, types.DispositionFlaggedReview},
		{69, types.DispositionFlaggedReview},
		{70, types.DispositionShortlisted},
		{100, types.DispositionShortlisted},
	}
	for _, tt := range tests {
		if got := DispositionFor(tt.score); got != tt.want {
			t.Errorf("DispositionFor(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestReasoningContent(t *testing.T) {
	t.Run("StrongBand", func(t *testing.T) {
		result := Compute(matchOf(4, 0), allSignals())
		if !strings.HasPrefix(result.Reasoning, "Strong candidate profile.") {
			t.Errorf("Reasoning = %q, want strong-band opening", result.Reasoning)
		}
		if !strings.Contains(result.Reasoning, "Matched 4 of 4 required keywords") {
			t.Errorf("Reasoning missing keyword count: %q", result.Reasoning)
		}
	})

	t.Run("WeakBandListsMissing", func(t *testing.T) {
		match := types.MatchResult{Matched: []string{}, Missing: []string{"Go", "SQL"}}
		result := Compute(match, types.QualitySignals{WordCount: 120})
		if !strings.HasPrefix(result.Reasoning, "Weak candidate profile.") {
			t.Errorf("Reasoning = %q, want weak-band opening", result.Reasoning)
		}
		if !strings.Contains(result.Reasoning, "missing: Go, SQL") {
			t.Errorf("Reasoning does not list missing keywords: %q", result.Reasoning)
		}
		if !strings.Contains(result.Reasoning, "No work experience section found") {
			t.Errorf("Reasoning missing experience note: %q", result.Reasoning)
		}
		if !strings.Contains(result.Reasoning, "unusually short (120 words)") {
			t.Errorf("Reasoning missing length note: %q", result.Reasoning)
		}
	})

	t.Run("ModerateBand", func(t *testing.T) {
		quality := allSignals()
		result := Compute(matchOf(1, 1), quality)
		// 35 + 30 = 65.
		if result.Score != 65 {
			t.Fatalf("Score = %d, want 65", result.Score)
		}
		if !strings.HasPrefix(result.Reasoning, "Moderate candidate profile.") {
			t.Errorf("Reasoning = %q, want moderate-band opening", result.Reasoning)
		}
	})
}
