package assessment

import (
	"math"
	"strings"

	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/patterns"
)

const (
	fleschBase           = 206.835
	fleschSentenceWeight = 1.015
	fleschSyllableWeight = 84.6

	newsReadabilityFloor        = 60
	newsReadabilityFactor       = 0.8
	governmentReadabilityFloor  = 50
	governmentReadabilityFactor = 0.9

	// SEO scoring constants
	seoTitleMin         = 30
	seoTitleMax         = 60
	seoExcerptMin       = 120
	seoExcerptMax       = 160
	penaltySEOTitle     = 15
	penaltyNoExcerpt    = 20
	penaltyExcerptRange = 10
	penaltyNoHeadings   = 10
	penaltyNoKeywords   = 15
	keywordMinFrequency = 2
	keywordLimit        = 10
)

// fleschReadingEase returns the raw Flesch score, unclamped. Zero words score 0.
func fleschReadingEase(text string) float64 {
	words := patterns.Words(text)
	if len(words) == 0 {
		return 0
	}
	sentences := len(patterns.Sentences(text))
	if sentences == 0 {
		sentences = 1
	}
	syllables := 0
	for _, w := range words {
		syllables += patterns.Syllables(w)
	}
	wordsPerSentence := float64(len(words)) / float64(sentences)
	syllablesPerWord := float64(syllables) / float64(len(words))
	return fleschBase - fleschSentenceWeight*wordsPerSentence - fleschSyllableWeight*syllablesPerWord
}

// scoreReadability clamps the Flesch score and discounts hard-to-read news and
// government copy.
func scoreReadability(text string, ct domain.ContentType) (score, flesch float64, recs []string) {
	flesch = fleschReadingEase(text)
	score = domain.ClampScore(flesch)

	switch {
	case ct == domain.ContentTypeNews && score < newsReadabilityFloor:
		score *= newsReadabilityFactor
	case ct == domain.ContentTypeGovernment && score < governmentReadabilityFloor:
		score *= governmentReadabilityFactor
	}
	if score < newsReadabilityFloor {
		recs = append(recs, "Use shorter sentences and simpler words to improve readability")
	}
	return domain.ClampScore(score), math.Round(flesch*10) / 10, recs
}

// scoreSEO applies fixed penalties for title, excerpt, heading and keyword gaps.
func scoreSEO(c *domain.ContentInput, doc patterns.Body) (float64, []string) {
	score := float64(domain.MaxScore)
	var recs []string

	if n := len([]rune(strings.TrimSpace(c.Title))); n < seoTitleMin || n > seoTitleMax {
		score -= penaltySEOTitle
		recs = append(recs, "Keep the title between 30 and 60 characters")
	}

	excerpt := strings.TrimSpace(c.Excerpt)
	switch n := len([]rune(excerpt)); {
	case n == 0:
		score -= penaltyNoExcerpt
		recs = append(recs, "Add a meta excerpt of 120 to 160 characters")
	case n < seoExcerptMin || n > seoExcerptMax:
		score -= penaltyExcerptRange
		recs = append(recs, "Keep the excerpt between 120 and 160 characters")
	}

	if len(doc.Headings) == 0 {
		score -= penaltyNoHeadings
		recs = append(recs, "Add subheadings to structure the article")
	}
	if len(extractKeywords(c.Title+"\n"+doc.Text)) == 0 {
		score -= penaltyNoKeywords
		recs = append(recs, "Repeat the main topic keywords in the body")
	}
	return domain.ClampScore(score), recs
}

// extractKeywords returns the key phrases that occur at least twice.
func extractKeywords(text string) []string {
	counts := make(map[string]int)
	for _, w := range patterns.Words(patterns.Fold(text)) {
		counts[w]++
	}
	var keywords []string
	for _, phrase := range patterns.KeyPhrases(text, keywordLimit) {
		if counts[phrase] >= keywordMinFrequency {
			keywords = append(keywords, phrase)
		}
	}
	return keywords
}
