// Package assessment computes the eight content assessment sub-scores and
// their weighted overall score.
package assessment

import (
	"context"
	"fmt"

	infralogger "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/patterns"
)

// Sub-score weights in the overall score.
const (
	weightQuality     = 0.25
	weightGrammar     = 0.15
	weightReadability = 0.15
	weightSEO         = 0.15
	weightBrandVoice  = 0.10
	weightCultural    = 0.10
	weightFactual     = 0.05
	weightImage       = 0.05
)

const (
	issueTypeQuality  = "content_quality"
	issueTypeGrammar  = "grammar"
	issueTypeBrand    = "brand_voice"
	issueTypeCultural = "cultural"
)

// Assessor scores content. It holds no mutable state and is safe for concurrent use.
type Assessor struct {
	logger infralogger.Logger
}

// New creates an Assessor.
func New(logger infralogger.Logger) *Assessor {
	return &Assessor{logger: logger}
}

// Assess computes every sub-score for content and compares the overall score
// with thresholds.
func (a *Assessor) Assess(
	ctx context.Context,
	content *domain.ContentInput,
	thresholds domain.QualityThresholds,
) (*domain.AssessmentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("assess content: %w", err)
	}

	doc := patterns.ReduceBody(content.Body)
	fullText := content.Title + "\n\n" + doc.Text
	words := patterns.WordCount(doc.Text)

	quality, qualityIssues, qualityRecs := scoreQuality(content, doc, words)
	grammar, grammarIssues, grammarRecs := scoreGrammar(doc.Text)
	readability, flesch, readabilityRecs := scoreReadability(doc.Text, content.Type())
	seo, seoRecs := scoreSEO(content, doc)
	brand, brandIssues, brandRecs := scoreBrandVoice(fullText)
	cultural := AssessCulture(fullText)
	factual, factualRecs := scoreFactualAccuracy(doc.Text)
	image, imageRecs := scoreImages(content.Images, words)

	result := &domain.AssessmentResult{
		ContentQuality:      domain.RoundScore(quality),
		Grammar:             domain.RoundScore(grammar),
		Readability:         domain.RoundScore(readability),
		SEO:                 domain.RoundScore(seo),
		BrandVoice:          domain.RoundScore(brand),
		CulturalSensitivity: cultural.OverallScore,
		FactualAccuracy:     domain.RoundScore(factual),
		ImageQuality:        domain.RoundScore(image),
		WordCount:           words,
		FleschScore:         flesch,
		Cultural:            cultural,
	}
	result.OverallScore = domain.RoundScore(weightQuality*result.ContentQuality +
		weightGrammar*result.Grammar +
		weightReadability*result.Readability +
		weightSEO*result.SEO +
		weightBrandVoice*result.BrandVoice +
		weightCultural*result.CulturalSensitivity +
		weightFactual*result.FactualAccuracy +
		weightImage*result.ImageQuality)
	result.AutoApproveEligible = result.OverallScore >= thresholds.AutoApproveThreshold
	result.ManualReviewRequired = result.OverallScore < thresholds.ManualReviewThreshold

	result.Issues = append(result.Issues, qualityIssues...)
	result.Issues = append(result.Issues, grammarIssues...)
	result.Issues = append(result.Issues, brandIssues...)
	result.Issues = append(result.Issues, cultural.Issues...)

	result.Recommendations = dedupe(
		below(result.ContentQuality, thresholds.MinContentQuality, qualityRecs),
		below(result.Grammar, thresholds.MinGrammar, grammarRecs),
		below(result.Readability, thresholds.MinReadability, readabilityRecs),
		below(result.SEO, thresholds.MinSEO, seoRecs),
		below(result.BrandVoice, thresholds.MinBrandVoice, brandRecs),
		below(result.CulturalSensitivity, thresholds.MinCulturalSensitivity, culturalRecs(cultural)),
		below(result.FactualAccuracy, thresholds.MinFactualAccuracy, factualRecs),
		below(result.ImageQuality, thresholds.MinImageQuality, imageRecs),
	)

	a.logger.Debug("Content assessed",
		infralogger.String("content_id", content.ID),
		infralogger.Float64("overall_score", result.OverallScore),
		infralogger.Int("word_count", words),
		infralogger.Int("issues", len(result.Issues)),
	)
	return result, nil
}

// below keeps recommendations only for sub-scores under their minimum.
func below(score, minimum float64, recs []string) []string {
	if score >= minimum {
		return nil
	}
	return recs
}

func culturalRecs(c domain.CulturalAssessment) []string {
	recs := make([]string, 0, len(c.Issues))
	for _, issue := range c.Issues {
		if issue.Suggestion != "" {
			recs = append(recs, issue.Suggestion)
		}
	}
	return recs
}

func dedupe(groups ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, g := range groups {
		for _, s := range g {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}
