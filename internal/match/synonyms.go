package match

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// defaultSynonyms maps a canonical keyword (lower-cased) to accepted
// textual variants. This is static domain knowledge about skills,
// technologies and soft skills; a YAML file can extend or override it at
// runtime without touching the matching logic.
var defaultSynonyms = map[string][]string{
	"javascript":       {"js", "ecmascript", "node.js", "nodejs"},
	"typescript":       {"ts"},
	"database":         {"sql", "mysql", "postgresql", "mongodb", "nosql"},
	"postgresql":       {"postgres", "psql"},
	"python":           {"py", "python3"},
	"golang":           {"go"},
	"react":            {"reactjs", "react.js"},
	"angular":          {"angularjs"},
	"vue":              {"vuejs", "vue.js"},
	"node":             {"node.js", "nodejs"},
	"kubernetes":       {"k8s"},
	"docker":           {"containers", "containerization"},
	"aws":              {"amazon web services", "ec2", "s3", "lambda"},
	"gcp":              {"google cloud"},
	"azure":            {"microsoft azure"},
	"ci/cd":            {"continuous integration", "continuous delivery", "jenkins", "github actions"},
	"machine learning": {"ml", "deep learning", "neural network"},
	"rest":             {"restful", "rest api"},
	"agile":            {"scrum", "kanban", "sprint"},
	"communication":    {"communicator", "interpersonal"},
	"leadership":       {"team lead", "mentoring", "mentored"},
	"testing":          {"unit test", "tdd", "qa"},
	"version control":  {"git", "github", "gitlab"},
}

// SynonymTable holds the canonical-to-variants mapping used by the
// synonym matching strategy. It is safe for concurrent use; the table can
// be replaced wholesale by the file watcher while matching is in flight.
type SynonymTable struct {
	mu       sync.RWMutex
	variants map[string][]string
}

// NewSynonymTable returns a table seeded with the built-in defaults.
func NewSynonymTable() *SynonymTable {
	return &SynonymTable{variants: defaultSynonyms}
}

// Variants returns the accepted variants for a canonical keyword, or nil
// when the keyword has no synonym entry. The canonical form is the
// lower-cased keyword.
func (t *SynonymTable) Variants(canonical string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.variants[canonical]
}

// Len returns the number of canonical entries.
func (t *SynonymTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.variants)
}

// LoadFile merges entries from a YAML file over the defaults. File
// entries win for canonicals present in both. The expected format is a
// mapping from canonical keyword to a list of variants.
func (t *SynonymTable) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read synonyms file: %w", err)
	}

	var loaded map[string][]string
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parse synonyms file %s: %w", path, err)
	}

	merged := make(map[string][]string, len(defaultSynonyms)+len(loaded))
	for canonical, vars := range defaultSynonyms {
		merged[canonical] = vars
	}
	for canonical, vars := range loaded {
		canonical = strings.ToLower(strings.TrimSpace(canonical))
		if canonical == "" {
			continue
		}
		lowered := make([]string, 0, len(vars))
		for _, v := range vars {
			v = strings.ToLower(strings.TrimSpace(v))
			if v != "" {
				lowered = append(lowered, v)
			}
		}
		merged[canonical] = lowered
	}

	t.mu.Lock()
	t.variants = merged
	t.mu.Unlock()
	return nil
}
