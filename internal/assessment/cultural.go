package assessment

import (
	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/patterns"
)

// Cultural dimension weights.
const (
	weightReligious = 0.25
	weightSocial    = 0.20
	weightLanguage  = 0.20
	weightLocal     = 0.15
	weightBusiness  = 0.10
	weightAwareness = 0.10
)

const (
	respectBonus         = 5
	localBase            = 60
	localBonus           = 10
	awarenessBase        = 70
	awarenessBonus       = 10
	excellentThreshold   = 90
	goodThreshold        = 80
	acceptableThreshold  = 70
	improvementThreshold = 50
)

// AssessCulture scores text across the six cultural dimensions.
func AssessCulture(text string) domain.CulturalAssessment {
	matches := patterns.Cultural().Scan(text)

	var concerns []patterns.Match
	religious, social, language, business := float64(domain.MaxScore), float64(domain.MaxScore),
		float64(domain.MaxScore), float64(domain.MaxScore)
	local, awareness, respect := float64(localBase), float64(awarenessBase), 0.0

	for _, m := range matches {
		deduction := m.Pattern.Severity.Deduction()
		switch m.Pattern.Category {
		case patterns.CatReligious, patterns.CatCulturalOffense:
			religious -= deduction
		case patterns.CatReligiousRespect:
			respect += respectBonus
		case patterns.CatSocialNorms:
			social -= deduction
		case patterns.CatLanguage:
			language -= deduction
		case patterns.CatLocalRelevance:
			local += localBonus
		case patterns.CatBusinessEtiquette:
			business -= deduction
		case patterns.CatCulturalAwareness:
			awareness += awarenessBonus
		}
		if m.Pattern.Severity != "" {
			concerns = append(concerns, m)
		}
	}

	a := domain.CulturalAssessment{
		ReligiousSensitivity: domain.ClampScore(religious + respect),
		SocialNorms:          domain.ClampScore(social),
		LanguageAppropriate:  domain.ClampScore(language),
		LocalRelevance:       domain.ClampScore(local),
		BusinessEtiquette:    domain.ClampScore(business),
		CulturalAwareness:    domain.ClampScore(awareness),
		Issues:               patterns.Issues(concerns, issueTypeCultural),
	}
	a.OverallScore = domain.RoundScore(weightReligious*a.ReligiousSensitivity +
		weightSocial*a.SocialNorms +
		weightLanguage*a.LanguageAppropriate +
		weightLocal*a.LocalRelevance +
		weightBusiness*a.BusinessEtiquette +
		weightAwareness*a.CulturalAwareness)
	a.ComplianceLevel = complianceLevel(a.OverallScore, a.Issues)
	return a
}

// complianceLevel is inappropriate whenever a critical issue exists and at
// best needs_improvement with a high one.
func complianceLevel(score float64, issues []domain.Issue) domain.ComplianceLevel {
	if domain.HasSeverity(issues, domain.SeverityCritical) {
		return domain.ComplianceInappropriate
	}
	level := domain.ComplianceInappropriate
	switch {
	case score >= excellentThreshold:
		level = domain.ComplianceExcellent
	case score >= goodThreshold:
		level = domain.ComplianceGood
	case score >= acceptableThreshold:
		level = domain.ComplianceAcceptable
	case score >= improvementThreshold:
		level = domain.ComplianceNeedsImprovement
	}
	if domain.HasSeverity(issues, domain.SeverityHigh) && score >= acceptableThreshold {
		level = domain.ComplianceNeedsImprovement
	}
	return level
}
