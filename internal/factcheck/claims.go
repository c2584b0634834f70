package factcheck

import (
	"strings"

	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/patterns"
)

// Claim is a sentence judged to assert something checkable.
type Claim struct {
	Text       string
	Type       domain.ClaimType
	Importance domain.ClaimImportance
	Span       domain.Span
	Matches    []patterns.Match
}

// typeOrder decides a claim's type: the first category present wins.
var typeOrder = []struct {
	category string
	claim    domain.ClaimType
}{
	{patterns.CatStatistic, domain.ClaimStatistic},
	{patterns.CatDate, domain.ClaimDate},
	{patterns.CatLocation, domain.ClaimLocation},
	{patterns.CatPerson, domain.ClaimPerson},
	{patterns.CatOrganization, domain.ClaimOrganization},
	{patterns.CatEvent, domain.ClaimEvent},
}

// ExtractClaims splits text into sentences and keeps those containing a claim
// indicator, a factual pattern or absolute language.
func ExtractClaims(text string) []Claim {
	matcher := patterns.Claims()
	var claims []Claim

	offset := 0
	for _, sentence := range patterns.Sentences(text) {
		start := strings.Index(text[offset:], sentence)
		span := domain.Span{Start: -1, End: -1}
		if start >= 0 {
			span = domain.Span{Start: offset + start, End: offset + start + len(sentence)}
			offset = span.End
		}

		matches := matcher.Scan(sentence)
		if len(matches) == 0 {
			continue
		}
		categories := make(map[string]bool, len(matches))
		for _, m := range matches {
			categories[m.Pattern.Category] = true
		}
		if !isCandidate(categories) {
			continue
		}

		claim := Claim{
			Text:    sentence,
			Type:    domain.ClaimGeneral,
			Span:    span,
			Matches: matches,
		}
		for _, t := range typeOrder {
			if categories[t.category] {
				claim.Type = t.claim
				break
			}
		}
		claim.Importance = importance(claim.Type, categories)
		claims = append(claims, claim)
	}
	return claims
}

func isCandidate(categories map[string]bool) bool {
	if categories[patterns.CatClaimIndicator] || categories[patterns.CatAbsolute] {
		return true
	}
	for _, t := range typeOrder {
		if categories[t.category] {
			return true
		}
	}
	return false
}

// importance is high for statistics and absolute statements, medium for
// dated, placed or attributed facts and low otherwise.
func importance(t domain.ClaimType, categories map[string]bool) domain.ClaimImportance {
	switch {
	case t == domain.ClaimStatistic || categories[patterns.CatAbsolute]:
		return domain.ImportanceHigh
	case t == domain.ClaimDate || t == domain.ClaimPerson || t == domain.ClaimOrganization || t == domain.ClaimLocation:
		return domain.ImportanceMedium
	default:
		return domain.ImportanceLow
	}
}

// matchesOf returns the text of every match of category.
func (c Claim) matchesOf(category string) []string {
	var out []string
	for _, m := range c.Matches {
		if m.Pattern.Category == category {
			out = append(out, m.Text)
		}
	}
	return out
}
