package moderation

import (
	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/patterns"
)

// assessLegal flags legal exposure and scores compliance as 100 less the
// severity deductions of every legal match.
func assessLegal(matches []patterns.Match) domain.LegalCompliance {
	var legal domain.LegalCompliance
	score := float64(domain.MaxScore)
	seen := make(map[string]bool)

	for _, m := range matches {
		score -= m.Pattern.Severity.Deduction() * weightOf(m.Pattern)
		switch m.Pattern.Category {
		case patterns.CatDefamation:
			legal.DefamationRisk = true
		case patterns.CatPrivacy:
			legal.PrivacyExposure = true
		case patterns.CatCopyright:
			legal.CopyrightConcern = true
		case patterns.CatRegulated:
			if !seen[m.Text] {
				seen[m.Text] = true
				legal.RegulatedActivities = append(legal.RegulatedActivities, m.Text)
			}
		}
	}

	legal.OverallComplianceScore = domain.RoundScore(score)
	return legal
}

func weightOf(p *patterns.Pattern) float64 {
	if p.Weight <= 0 {
		return 1
	}
	return p.Weight
}
