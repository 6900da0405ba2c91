// Package quality runs structural heuristics over extracted CV text:
// section presence, bullet density, and document length. It is a pure
// function of the text with no external calls.
package quality

import (
	"regexp"
	"strings"

	"cvscreen/internal/types"
)

const (
	// minBulletLines is the bullet-line count a document must exceed
	// for HasBullets to be true.
	minBulletLines = 5

	// minWordCount and maxWordCount bound AppropriateLength.
	minWordCount = 300
	maxWordCount = 3000
)

// categoryTerms is the curated vocabulary per structural category. Each
// list is compiled into a single case-insensitive presence regex at
// startup, so the terms can be extended without touching the analysis
// logic.
var categoryTerms = map[string][]string{
	"education": {
		"education", "university", "college", "bachelor", "master",
		"phd", "doctorate", "degree", "bsc", "msc", "mba", "diploma",
		"graduated", "gpa",
	},
	"experience": {
		"experience", "employment", "employed", "internship", "intern",
		"career", "work history", "worked", "position", "role",
		"responsibilities",
	},
	"skills": {
		"skills", "proficient", "proficiency", "competencies",
		"competent", "expertise", "technologies", "tools", "languages",
	},
	"contact": {
		"@", "email", "e-mail", "phone", "tel:", "mobile", "linkedin",
		"github", "portfolio\\.", "contact",
	},
	"projects": {
		"project", "developed", "built", "created", "implemented",
		"designed", "portfolio", "open source", "open-source",
	},
	"certifications": {
		"certification", "certified", "certificate", "license",
		"licensed", "credential", "accredited",
	},
}

var categoryPatterns = compilePatterns(categoryTerms)

// bulletLine matches a line that starts with a bullet glyph, optionally
// indented. The hyphen covers plain-text resumes that use "- " bullets.
var bulletLine = regexp.MustCompile(`(?m)^\s*[•●○■▪▫►-]`)

func compilePatterns(terms map[string][]string) map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(terms))
	for category, list := range terms {
		escaped := make([]string, len(list))
		for i, term := range list {
			// A few entries carry intentional regex metacharacters.
			if strings.ContainsAny(term, `\.`) {
				escaped[i] = term
			} else {
				escaped[i] = regexp.QuoteMeta(term)
			}
		}
		patterns[category] = regexp.MustCompile(`(?i)(` + strings.Join(escaped, "|") + `)`)
	}
	return patterns
}

// Analyze computes structural signals for extracted CV text. It is
// deterministic and stateless.
func Analyze(text string) types.QualitySignals {
	wordCount := len(strings.Fields(text))
	return types.QualitySignals{
		HasEducation:      categoryPatterns["education"].MatchString(text),
		HasExperience:     categoryPatterns["experience"].MatchString(text),
		HasSkills:         categoryPatterns["skills"].MatchString(text),
		HasContact:        categoryPatterns["contact"].MatchString(text),
		HasProjects:       categoryPatterns["projects"].MatchString(text),
		HasCertifications: categoryPatterns["certifications"].MatchString(text),
		HasBullets:        countBulletLines(text) > minBulletLines,
		AppropriateLength: wordCount >= minWordCount && wordCount <= maxWordCount,
		WordCount:         wordCount,
	}
}

// countBulletLines counts lines that begin with a bullet glyph.
func countBulletLines(text string) int {
	return len(bulletLine.FindAllStringIndex(text, -1))
}
