package assessment

import (
	"strings"

	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/patterns"
)

const (
	// Content quality scoring constants
	minWordCount          = 100
	thinWordCount         = 50
	maxWordCount          = 2000
	minTitleLength        = 10
	minExcerptLength      = 50
	minParagraphs         = 3
	penaltyShortContent   = 20
	penaltyThinContent    = 15
	penaltyLongContent    = 10
	penaltyTitle          = 15
	penaltyExcerpt        = 10
	penaltyParagraphs     = 10
	penaltyPlaceholder    = 25
	penaltyDuplicateLines = 15

	// Grammar scoring constants
	grammarPointsPerHit    = 2
	grammarCapPerRule      = 10
	maxAvgSentenceLength   = 25
	penaltyLongSentences   = 10
	maxPassiveRatio        = 0.25
	penaltyPassiveVoice    = 15
	grammarIssueConfidence = 0.7
)

// scoreQuality starts at 100 and deducts for structural shortcomings.
func scoreQuality(c *domain.ContentInput, doc patterns.Body, words int) (float64, []domain.Issue, []string) {
	score := float64(domain.MaxScore)
	var recs []string

	switch {
	case words < thinWordCount:
		score -= penaltyShortContent + penaltyThinContent
		recs = append(recs, "Expand the article to at least 100 words")
	case words < minWordCount:
		score -= penaltyShortContent
		recs = append(recs, "Expand the article to at least 100 words")
	case words > maxWordCount:
		score -= penaltyLongContent
		recs = append(recs, "Consider splitting the article; it exceeds 2000 words")
	}

	if len(strings.TrimSpace(c.Title)) < minTitleLength {
		score -= penaltyTitle
		recs = append(recs, "Write a descriptive title of at least 10 characters")
	}
	if len(strings.TrimSpace(c.Excerpt)) < minExcerptLength {
		score -= penaltyExcerpt
		recs = append(recs, "Add an excerpt of at least 50 characters")
	}
	if len(patterns.Paragraphs(doc.Text)) < minParagraphs {
		score -= penaltyParagraphs
		recs = append(recs, "Break the body into at least three paragraphs")
	}

	placeholders := patterns.Quality().Scan(c.Title + "\n" + doc.Text)
	if len(placeholders) > 0 {
		score -= penaltyPlaceholder
		recs = append(recs, "Remove placeholder text")
	}
	if patterns.DuplicateSentences(doc.Text) > 0 {
		score -= penaltyDuplicateLines
		recs = append(recs, "Remove repeated sentences")
	}

	return domain.ClampScore(score), patterns.Issues(placeholders, issueTypeQuality), recs
}

// scoreGrammar deducts per occurrence of each grammar pattern, capped per
// pattern, then applies sentence length and passive voice penalties.
func scoreGrammar(text string) (float64, []domain.Issue, []string) {
	score := float64(domain.MaxScore)
	var recs []string

	matches := patterns.Grammar().ScanCategory(text,
		patterns.CatConfusable, patterns.CatMisspelling, patterns.CatDoubleSpace, patterns.CatCapitalization)

	perRule := make(map[string]float64)
	for _, m := range matches {
		perRule[m.Pattern.Name] += grammarPointsPerHit
	}
	for _, points := range perRule {
		if points > grammarCapPerRule {
			points = grammarCapPerRule
		}
		score -= points
	}

	issues := patterns.Issues(matches, issueTypeGrammar)
	for i := range issues {
		issues[i].Confidence = grammarIssueConfidence
	}

	sentences := patterns.Sentences(text)
	if len(sentences) > 0 {
		words := 0
		passive := 0
		grammar := patterns.Grammar()
		for _, s := range sentences {
			words += patterns.WordCount(s)
			if grammar.Has(s, patterns.CatPassiveVoice) {
				passive++
			}
		}
		if float64(words)/float64(len(sentences)) > maxAvgSentenceLength {
			score -= penaltyLongSentences
			recs = append(recs, "Shorten sentences to an average of 25 words or fewer")
		}
		if float64(passive)/float64(len(sentences)) > maxPassiveRatio {
			score -= penaltyPassiveVoice
			recs = append(recs, "Prefer active voice")
		}
	}

	if len(matches) > 0 {
		recs = append(recs, "Fix spelling and grammar errors")
	}
	return domain.ClampScore(score), issues, recs
}
