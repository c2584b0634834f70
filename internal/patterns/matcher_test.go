package patterns_test

import (
	"testing"

	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/patterns"
)

func TestMatcher_Scan_LexiconAndExpr(t *testing.T) {
	t.Parallel()

	m, err := patterns.New([]patterns.Pattern{
		{Name: "greeting", Category: "greeting", Severity: domain.SeverityLow, Terms: []string{"hello", "good morning"}},
		{Name: "year", Category: "date", Expr: `\b20\d{2}\b`},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	matches := m.Scan("Good Morning Dubai! Hello again in 2024, othello.")
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d: %+v", len(matches), matches)
	}
	if matches[0].Pattern.Name != "greeting" || matches[0].Text != "good morning" {
		t.Errorf("unexpected first match %+v", matches[0])
	}
	if matches[2].Text != "2024" {
		t.Errorf("expected year match last, got %q", matches[2].Text)
	}
}

func TestMatcher_Scan_WholeWordsOnly(t *testing.T) {
	t.Parallel()

	m := patterns.MustNew([]patterns.Pattern{{Name: "all", Category: "absolute", Terms: []string{"all"}}})

	if m.Has("a small ball", "absolute") {
		t.Error("expected no match inside other words")
	}
	if !m.Has("All residents", "absolute") {
		t.Error("expected case-insensitive whole-word match")
	}
}

func TestMatcher_Scan_FoldsAccents(t *testing.T) {
	t.Parallel()

	m := patterns.MustNew([]patterns.Pattern{{Name: "cafe", Category: "venue", Terms: []string{"cafe"}}})

	if got := m.Count("A new Café opened near the café strip", "venue"); got != 2 {
		t.Errorf("expected 2 matches, got %d", got)
	}
}

func TestMatcher_ScanCategory(t *testing.T) {
	t.Parallel()

	text := "Click here to win. Residents of Dubai celebrate."
	got := patterns.Moderation().ScanCategory(text, patterns.CatSpam)
	if len(got) != 1 || got[0].Pattern.Category != patterns.CatSpam {
		t.Fatalf("expected one spam match, got %+v", got)
	}
	if patterns.Moderation().Has(text, patterns.CatHate) {
		t.Error("unexpected hate match")
	}
}

func TestNew_InvalidExpr(t *testing.T) {
	t.Parallel()

	if _, err := patterns.New([]patterns.Pattern{{Name: "broken", Expr: "(unclosed"}}); err == nil {
		t.Fatal("expected compile error")
	}
}

func TestIssues(t *testing.T) {
	t.Parallel()

	matches := patterns.Legal().Scan("Call 050 123 4567 for casino tickets")
	issues := patterns.Issues(matches, "legal")
	if len(issues) != 2 {
		t.Fatalf("expected 2 issues, got %d: %+v", len(issues), issues)
	}
	for _, issue := range issues {
		if issue.Type != "legal" || issue.Location == nil {
			t.Errorf("issue not populated: %+v", issue)
		}
		if issue.Confidence <= 0 || issue.Confidence > 1 {
			t.Errorf("confidence out of range: %v", issue.Confidence)
		}
	}
}

func TestBuiltinTablesCompile(t *testing.T) {
	t.Parallel()

	for name, table := range map[string]func() *patterns.Matcher{
		"moderation": patterns.Moderation,
		"bias":       patterns.Bias,
		"legal":      patterns.Legal,
		"cultural":   patterns.Cultural,
		"claims":     patterns.Claims,
		"grammar":    patterns.Grammar,
		"brand":      patterns.Brand,
		"quality":    patterns.Quality,
	} {
		if len(table().Patterns()) == 0 {
			t.Errorf("%s table is empty", name)
		}
	}
}

func TestIsUAELocation(t *testing.T) {
	t.Parallel()

	if !patterns.IsUAELocation("Abu Dhabi") {
		t.Error("expected Abu Dhabi to be recognised")
	}
	if patterns.IsUAELocation("Paris") {
		t.Error("expected Paris to be rejected")
	}
}

func TestSentencesAndParagraphs(t *testing.T) {
	t.Parallel()

	text := "First sentence. Second one!\n\nThird paragraph here?"
	if got := len(patterns.Sentences(text)); got != 3 {
		t.Errorf("expected 3 sentences, got %d", got)
	}
	if got := len(patterns.Paragraphs(text)); got != 2 {
		t.Errorf("expected 2 paragraphs, got %d", got)
	}
}

func TestSyllables(t *testing.T) {
	t.Parallel()

	tests := map[string]int{
		"the":        1,
		"water":      2,
		"beautiful":  3,
		"celebrated": 3,
		"":           0,
	}
	for word, want := range tests {
		if got := patterns.Syllables(word); got != want {
			t.Errorf("Syllables(%q) = %d, want %d", word, got, want)
		}
	}
}

func TestDuplicateSentences(t *testing.T) {
	t.Parallel()

	text := "The souk opens at nine. Visitors love it. The souk opens at nine."
	if got := patterns.DuplicateSentences(text); got != 1 {
		t.Errorf("expected 1 duplicate, got %d", got)
	}
}

func TestKeyPhrases_Deterministic(t *testing.T) {
	t.Parallel()

	text := "Dubai marina hosts the festival. The festival draws crowds to Dubai marina every winter."
	first := patterns.KeyPhrases(text, 3)
	second := patterns.KeyPhrases(text, 3)
	if len(first) != 3 {
		t.Fatalf("expected 3 phrases, got %v", first)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("key phrases not deterministic: %v vs %v", first, second)
		}
	}
	if first[0] != "dubai" || first[1] != "festival" || first[2] != "marina" {
		t.Errorf("unexpected order %v", first)
	}
}

func TestContainsWord(t *testing.T) {
	t.Parallel()

	if !patterns.ContainsWord("The RTA announced new fares", "rta") {
		t.Error("expected case-insensitive word match")
	}
	if patterns.ContainsWord("Startup news", "tup") || patterns.ContainsWord("anything", " ") {
		t.Error("expected no partial or empty match")
	}
}
