// Package patterns is the single data-driven text scanner behind moderation,
// cultural sensitivity, grammar and claim extraction.
//
// A table is a list of Pattern rows. Term rows are whole-word lexicons matched
// case and accent insensitively; an Aho-Corasick automaton over every term of a
// table finds candidate terms in one pass before occurrences are located.
// Expr rows are regular expressions.
package patterns

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	ahocorasick "github.com/cloudflare/ahocorasick"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
)

// Pattern is one row of a pattern table.
type Pattern struct {
	Name     string
	Category string
	Severity domain.Severity
	Weight   float64
	// Terms are matched as whole words after Fold.
	Terms []string
	// Expr is a regular expression, case-insensitive unless CaseSensitive.
	Expr          string
	CaseSensitive bool
	Description   string
	Suggestion    string
}

// Match is one occurrence of a pattern in scanned text.
type Match struct {
	Pattern *Pattern
	Text    string
	Span    domain.Span
}

// Matcher scans text against a compiled table. Safe for concurrent use.
type Matcher struct {
	patterns []Pattern
	regexes  []*regexp.Regexp
	terms    []string
	owners   [][]int

	// acMu serializes the automaton, whose Match keeps per-call bookkeeping in its nodes.
	acMu sync.Mutex
	ac   *ahocorasick.Matcher
}

// New compiles table. Invalid expressions are reported with the pattern name.
func New(table []Pattern) (*Matcher, error) {
	m := &Matcher{
		patterns: append([]Pattern(nil), table...),
		regexes:  make([]*regexp.Regexp, len(table)),
	}

	termIndex := make(map[string]int)
	for i := range m.patterns {
		p := &m.patterns[i]
		if p.Expr != "" {
			expr := p.Expr
			if !p.CaseSensitive {
				expr = "(?i)" + expr
			}
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("compile pattern %q: %w", p.Name, err)
			}
			m.regexes[i] = re
		}
		for _, term := range p.Terms {
			folded := strings.TrimSpace(Fold(term))
			if folded == "" {
				continue
			}
			idx, seen := termIndex[folded]
			if !seen {
				idx = len(m.terms)
				termIndex[folded] = idx
				m.terms = append(m.terms, folded)
				m.owners = append(m.owners, nil)
			}
			m.owners[idx] = append(m.owners[idx], i)
		}
	}

	if len(m.terms) > 0 {
		m.ac = ahocorasick.NewStringMatcher(m.terms)
	}
	return m, nil
}

// MustNew is New for package-level tables known to compile.
func MustNew(table []Pattern) *Matcher {
	m, err := New(table)
	if err != nil {
		panic(err)
	}
	return m
}

// Scan returns every match in text ordered by position.
func (m *Matcher) Scan(text string) []Match {
	return m.scan(text, nil)
}

// ScanCategory returns matches whose pattern belongs to one of categories.
func (m *Matcher) ScanCategory(text string, categories ...string) []Match {
	want := make(map[string]bool, len(categories))
	for _, c := range categories {
		want[c] = true
	}
	return m.scan(text, want)
}

// Count returns the number of matches in category.
func (m *Matcher) Count(text, category string) int {
	return len(m.ScanCategory(text, category))
}

// Has reports whether any pattern of category matches.
func (m *Matcher) Has(text, category string) bool {
	return m.Count(text, category) > 0
}

// Patterns returns the compiled table rows.
func (m *Matcher) Patterns() []Pattern {
	return append([]Pattern(nil), m.patterns...)
}

func (m *Matcher) scan(text string, categories map[string]bool) []Match {
	if text == "" {
		return nil
	}

	included := func(i int) bool {
		return categories == nil || categories[m.patterns[i].Category]
	}

	var matches []Match
	for i, re := range m.regexes {
		if re == nil || !included(i) {
			continue
		}
		for _, loc := range re.FindAllStringIndex(text, -1) {
			matches = append(matches, Match{
				Pattern: &m.patterns[i],
				Text:    text[loc[0]:loc[1]],
				Span:    domain.Span{Start: loc[0], End: loc[1]},
			})
		}
	}

	if m.ac != nil {
		folded := Fold(text)
		m.acMu.Lock()
		hits := m.ac.Match([]byte(folded))
		m.acMu.Unlock()
		for _, hit := range hits {
			term := m.terms[hit]
			for _, span := range findWholeWord(folded, term) {
				for _, owner := range m.owners[hit] {
					if !included(owner) {
						continue
					}
					matches = append(matches, Match{
						Pattern: &m.patterns[owner],
						Text:    term,
						Span:    span,
					})
				}
			}
		}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		if matches[a].Span.Start != matches[b].Span.Start {
			return matches[a].Span.Start < matches[b].Span.Start
		}
		return matches[a].Pattern.Name < matches[b].Pattern.Name
	})
	return matches
}

// findWholeWord returns every word-bounded occurrence of term in text.
func findWholeWord(text, term string) []domain.Span {
	var spans []domain.Span
	offset := 0
	for offset < len(text) {
		idx := strings.Index(text[offset:], term)
		if idx < 0 {
			break
		}
		start := offset + idx
		end := start + len(term)
		if atWordBoundary(text, start, end) {
			spans = append(spans, domain.Span{Start: start, End: end})
		}
		offset = start + 1
	}
	return spans
}

// Issues converts matches to issues, one per match.
func Issues(matches []Match, issueType string) []domain.Issue {
	issues := make([]domain.Issue, 0, len(matches))
	for _, mt := range matches {
		span := mt.Span
		desc := mt.Pattern.Description
		if desc == "" {
			desc = fmt.Sprintf("%s: %q", mt.Pattern.Category, mt.Text)
		}
		issues = append(issues, domain.Issue{
			Type:        issueType,
			Category:    mt.Pattern.Category,
			Severity:    mt.Pattern.Severity,
			Confidence:  confidence(mt.Pattern),
			Description: desc,
			Location:    &span,
			Suggestion:  mt.Pattern.Suggestion,
		})
	}
	return issues
}

// confidence is higher for exact lexicon hits than for heuristic expressions.
func confidence(p *Pattern) float64 {
	const (
		lexiconConfidence = 0.9
		exprConfidence    = 0.75
	)
	if len(p.Terms) > 0 {
		return lexiconConfidence
	}
	return exprConfidence
}
