package match

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestMatchStrategies(t *testing.T) {
	m := NewMatcher(NewSynonymTable(), 0)

	t.Run("ExactSubstring", func(t *testing.T) {
		text := "Senior engineer with javascript react and node.js experience"
		result := m.Match(text, []string{"JavaScript", "React", "Python"})

		wantMatched := []string{"JavaScript", "React"}
		wantMissing := []string{"Python"}
		if !reflect.DeepEqual(result.Matched, wantMatched) {
			t.Errorf("Matched = %v, want %v", result.Matched, wantMatched)
		}
		if !reflect.DeepEqual(result.Missing, wantMissing) {
			t.Errorf("Missing = %v, want %v", result.Missing, wantMissing)
		}
	})

	t.Run("SynonymVariant", func(t *testing.T) {
		text := "Built backend services in nodejs with a mongodb datastore"
		result := m.Match(text, []string{"JavaScript", "Database"})

		if len(result.Missing) != 0 {
			t.Errorf("expected all keywords matched via synonyms, missing = %v", result.Missing)
		}
	})

	t.Run("FuzzyTypo", func(t *testing.T) {
		// "communiction" vs token "communication": similarity 12/13 > 0.85.
		text := "Excellent communication skills and team collaboration"
		result := m.Match(text, []string{"communiction"})

		if len(result.Matched) != 1 {
			t.Fatalf("expected fuzzy match for typo keyword, got missing = %v", result.Missing)
		}
	})

	t.Run("FuzzyRespectsPunctuation", func(t *testing.T) {
		text := "Strong communication, leadership."
		result := m.Match(text, []string{"communiction"})

		if len(result.Matched) != 1 {
			t.Errorf("token punctuation should not block fuzzy match, missing = %v", result.Missing)
		}
	})

	t.Run("ShortKeywordNeverFuzzy", func(t *testing.T) {
		// "gx" is one edit from "go" but below the fuzzy length floor.
		result := m.Match("writes go services", []string{"gx"})
		if len(result.Matched) != 0 {
			t.Errorf("short keyword must not fuzzy-match, matched = %v", result.Matched)
		}
	})

	t.Run("CaseInsensitive", func(t *testing.T) {
		result := m.Match("EXPERT IN KUBERNETES", []string{"kubernetes"})
		if len(result.Matched) != 1 {
			t.Errorf("matching must be case-insensitive, missing = %v", result.Missing)
		}
	})
}

func TestMatchProperties(t *testing.T) {
	m := NewMatcher(NewSynonymTable(), 0)
	text := "python developer with docker and terraform on aws"
	keywords := []string{"Python", "Docker", "Rust", "Terraform", "Scala"}

	t.Run("Idempotent", func(t *testing.T) {
		first := m.Match(text, keywords)
		second := m.Match(text, keywords)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("matcher not idempotent: %v != %v", first, second)
		}
	})

	t.Run("SetCompleteness", func(t *testing.T) {
		result := m.Match(text, keywords)
		if len(result.Matched)+len(result.Missing) != len(keywords) {
			t.Fatalf("matched(%d) + missing(%d) != keywords(%d)",
				len(result.Matched), len(result.Missing), len(keywords))
		}
		seen := make(map[string]bool)
		for _, kw := range result.Matched {
			seen[kw] = true
		}
		for _, kw := range result.Missing {
			if seen[kw] {
				t.Errorf("keyword %q appears in both matched and missing", kw)
			}
		}
	})

	t.Run("OrderMirrorsInput", func(t *testing.T) {
		result := m.Match(text, keywords)
		wantMatched := []string{"Python", "Docker", "Terraform"}
		wantMissing := []string{"Rust", "Scala"}
		if !reflect.DeepEqual(result.Matched, wantMatched) {
			t.Errorf("Matched = %v, want %v", result.Matched, wantMatched)
		}
		if !reflect.DeepEqual(result.Missing, wantMissing) {
			t.Errorf("Missing = %v, want %v", result.Missing, wantMissing)
		}
	})

	t.Run("EmptyKeywordDropped", func(t *testing.T) {
		result := m.Match(text, []string{"  ", "Python"})
		if len(result.Matched)+len(result.Missing) != 1 {
			t.Errorf("blank keyword should be dropped, got %v / %v", result.Matched, result.Missing)
		}
	})
}

func TestSynonymTableLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "synonyms.yaml")
	content := "observability:\n  - grafana\n  - prometheus\njavascript:\n  - deno\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	table := NewSynonymTable()
	if err := table.LoadFile(path); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	t.Run("NewEntryMerged", func(t *testing.T) {
		got := table.Variants("observability")
		if !reflect.DeepEqual(got, []string{"grafana", "prometheus"}) {
			t.Errorf("Variants(observability) = %v", got)
		}
	})

	t.Run("FileOverridesDefault", func(t *testing.T) {
		got := table.Variants("javascript")
		if !reflect.DeepEqual(got, []string{"deno"}) {
			t.Errorf("Variants(javascript) = %v, want file entry to win", got)
		}
	})

	t.Run("DefaultsSurviveMerge", func(t *testing.T) {
		if table.Variants("database") == nil {
			t.Error("default entry lost after file merge")
		}
	})

	t.Run("BadFileKeepsTable", func(t *testing.T) {
		if err := table.LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
			t.Fatal("expected error for missing file")
		}
		if table.Variants("observability") == nil {
			t.Error("failed load must not clear the table")
		}
	})
}

func TestTableWatcherReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "synonyms.yaml")
	if err := os.WriteFile(path, []byte("rust:\n  - cargo\n"), 0600); err != nil {
		t.Fatal(err)
	}

	table := NewSynonymTable()
	watcher := NewTableWatcher(path, table, 20*time.Millisecond, nil)
	if err := watcher.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer watcher.Stop()

	if table.Variants("rust") == nil {
		t.Fatal("initial load missing")
	}

	if err := os.WriteFile(path, []byte("rust:\n  - cargo\n  - rustc\n"), 0600); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(2 * time.Second)
	for {
		if len(table.Variants("rust")) == 2 {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("table not reloaded, variants = %v", table.Variants("rust"))
		case <-time.After(10 * time.Millisecond):
		}
	}
}
