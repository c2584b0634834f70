package moderation

import (
	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/patterns"
)

const (
	genderPenalty        = 15
	agePenalty           = 20
	nationalityPenalty   = 20
	inclusiveBonus       = 5
	loadedPenalty        = 10
	emotionalWeight      = 20
	emotionalPenalty     = 10
	localAwarenessBase   = 50
	localAwarenessBonus  = 10
	stereotypePenalty    = 25
	stereotypingDiscount = 20
)

// Bias type labels reported in BiasAnalysis.BiasTypes.
const (
	BiasGender      = "gender"
	BiasAge         = "age"
	BiasCultural    = "cultural"
	BiasNationality = "nationality"
)

// analyzeBias scores demographic balance, language bias and cultural bias
// from bias table matches and averages them.
func analyzeBias(matches []patterns.Match) domain.BiasAnalysis {
	counts := make(map[string]int)
	for _, m := range matches {
		counts[m.Pattern.Category]++
	}

	demographic := domain.DemographicBalance{
		GenderBalance:      domain.ClampScore(float64(domain.MaxScore - genderPenalty*counts[patterns.CatBiasGender])),
		AgeInclusivity:     domain.ClampScore(float64(domain.MaxScore - agePenalty*counts[patterns.CatBiasAge])),
		NationalityBalance: domain.ClampScore(float64(domain.MaxScore - nationalityPenalty*counts[patterns.CatBiasNationality])),
	}
	demographic.Score = domain.ClampScore(
		(demographic.GenderBalance+demographic.AgeInclusivity+demographic.NationalityBalance)/3 +
			float64(inclusiveBonus*counts[patterns.CatInclusive]))

	loaded := counts[patterns.CatLoadedLanguage]
	emotional := counts[patterns.CatEmotional]
	language := domain.LanguageBias{
		LoadedLanguageCount:   loaded,
		EmotionalManipulation: domain.ClampScore(float64(emotionalWeight * emotional)),
		Objectivity:           domain.ClampScore(float64(domain.MaxScore - loadedPenalty*loaded - emotionalPenalty*emotional)),
	}
	language.Score = domain.ClampScore((language.Objectivity + (domain.MaxScore - language.EmotionalManipulation)) / 2)

	stereotypes := counts[patterns.CatBiasCultural] + counts[patterns.CatBiasNationality]
	cultural := domain.CulturalBias{
		Stereotyping:             stereotypes > 0,
		LocalContextAwareness:    domain.ClampScore(float64(localAwarenessBase + localAwarenessBonus*counts[patterns.CatLocalContext])),
		RespectfulRepresentation: domain.ClampScore(float64(domain.MaxScore - stereotypePenalty*stereotypes)),
	}
	cultural.Score = (cultural.LocalContextAwareness + cultural.RespectfulRepresentation) / 2
	if cultural.Stereotyping {
		cultural.Score -= stereotypingDiscount
	}
	cultural.Score = domain.ClampScore(cultural.Score)

	var types []string
	for _, bt := range []struct {
		label    string
		category string
	}{
		{BiasGender, patterns.CatBiasGender},
		{BiasAge, patterns.CatBiasAge},
		{BiasCultural, patterns.CatBiasCultural},
		{BiasNationality, patterns.CatBiasNationality},
	} {
		if counts[bt.category] > 0 {
			types = append(types, bt.label)
		}
	}

	return domain.BiasAnalysis{
		Demographic:      demographic,
		Language:         language,
		Cultural:         cultural,
		BiasTypes:        types,
		OverallBiasScore: domain.RoundScore((demographic.Score + language.Score + cultural.Score) / 3),
	}
}
