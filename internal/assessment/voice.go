package assessment

import (
	"strings"

	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/patterns"
)

const (
	brandBase             = 70
	brandKeywordBonus     = 5
	brandKeywordBonusCap  = 15
	toneBalanceAdjustment = 10
	penaltyInappropriate  = 20

	penaltyUnsourcedAbsolute    = 5
	penaltyUnsourcedAbsoluteCap = 30
	penaltyUnattributedClaims   = 10
	penaltyTimeSensitive        = 10

	imageBase            = 80
	lowWordsPerImage     = 50
	mediumWordsPerImage  = 100
	highWordsPerImage    = 300
	manyImages           = 3
	penaltyCrowdedImages = 30
	penaltyBusyImages    = 15
	bonusRichGallery     = 10
	penaltyMissingAlt    = 5
	penaltyMissingAltCap = 15
)

// scoreBrandVoice rewards brand vocabulary and a positive tone.
func scoreBrandVoice(text string) (float64, []domain.Issue, []string) {
	matches := patterns.Brand().Scan(text)

	keywords := make(map[string]bool)
	positive, negative := 0, 0
	var inappropriate []patterns.Match
	for _, m := range matches {
		switch m.Pattern.Category {
		case patterns.CatBrandKeyword:
			keywords[m.Text] = true
		case patterns.CatPositiveTone:
			positive++
		case patterns.CatNegativeTone:
			negative++
		case patterns.CatInappropriate:
			inappropriate = append(inappropriate, m)
		}
	}

	score := float64(brandBase)
	score += min(float64(len(keywords)*brandKeywordBonus), brandKeywordBonusCap)

	var recs []string
	switch {
	case positive > negative:
		score += toneBalanceAdjustment
	case negative > positive:
		score -= toneBalanceAdjustment
		recs = append(recs, "Balance negative wording with a constructive tone")
	}
	if len(inappropriate) > 0 {
		score -= penaltyInappropriate
		recs = append(recs, "Remove inappropriate language")
	}
	if len(keywords) == 0 {
		recs = append(recs, "Reference the local community or destination")
	}
	return domain.ClampScore(score), patterns.Issues(inappropriate, issueTypeBrand), recs
}

// scoreFactualAccuracy penalizes unsourced absolutes, claims without
// attribution and time-sensitive wording.
func scoreFactualAccuracy(text string) (float64, []string) {
	claims := patterns.Claims()
	score := float64(domain.MaxScore)
	var recs []string

	unsourced := 0
	claimCount := 0
	attributions := 0
	for _, s := range patterns.Sentences(text) {
		attributed := claims.Has(s, patterns.CatAttribution)
		if attributed {
			attributions++
		}
		if claims.Has(s, patterns.CatAbsolute) && !attributed {
			unsourced++
		}
		if claims.Has(s, patterns.CatClaimIndicator) || claims.Has(s, patterns.CatStatistic) {
			claimCount++
		}
	}

	if unsourced > 0 {
		score -= min(float64(unsourced*penaltyUnsourcedAbsolute), penaltyUnsourcedAbsoluteCap)
		recs = append(recs, "Qualify or source absolute statements")
	}
	if claimCount > attributions {
		score -= penaltyUnattributedClaims
		recs = append(recs, "Attribute factual claims to a source")
	}
	if claims.Has(text, patterns.CatTimeSensitive) {
		score -= penaltyTimeSensitive
		recs = append(recs, "Replace time-sensitive wording with specific dates")
	}
	return domain.ClampScore(score), recs
}

// scoreImages scores the balance between words and images.
func scoreImages(images []domain.Image, words int) (float64, []string) {
	if len(images) == 0 {
		return imageBase, nil
	}

	score := float64(imageBase)
	var recs []string

	perImage := words / len(images)
	switch {
	case perImage < lowWordsPerImage:
		score -= penaltyCrowdedImages
		recs = append(recs, "Reduce the number of images or add more text")
	case perImage < mediumWordsPerImage:
		score -= penaltyBusyImages
	case perImage > highWordsPerImage && len(images) > manyImages:
		score += bonusRichGallery
	}

	missingAlt := 0
	for _, img := range images {
		if strings.TrimSpace(img.Alt) == "" {
			missingAlt++
		}
	}
	if missingAlt > 0 {
		score -= min(float64(missingAlt*penaltyMissingAlt), penaltyMissingAltCap)
		recs = append(recs, "Add alt text to every image")
	}
	return domain.ClampScore(score), recs
}
