package assessment

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infralogger "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
)

const wellFormedBody = `## Winter festival returns

The Dubai winter festival returns to the heritage village this December with food stalls, falconry shows and live music for families.
Organisers said the festival will run for ten days and entry is free for residents and visitors.

## What to expect

Visitors can explore the souk, try Arabic coffee in a traditional majlis and watch dhow builders at work.
The festival also hosts evening concerts by local artists on the main stage near the creek.

## Getting there

The heritage village is a short walk from the metro station and parking is available nearby.
According to the organisers, the festival welcomed thousands of families last year and expects a larger crowd this season.`

func TestAssess_ShortContentScoresLow(t *testing.T) {
	t.Parallel()

	a := New(infralogger.NewNop())
	content := &domain.ContentInput{
		ID:          "short-1",
		Title:       "Market opens in Karama",
		Body:        shortBody(40),
		ContentType: domain.ContentTypeNews,
	}

	result, err := a.Assess(context.Background(), content, domain.DefaultThresholds(domain.ContentTypeNews))
	require.NoError(t, err)

	assert.Equal(t, 40, result.WordCount)
	// thin content, missing excerpt and a single paragraph
	assert.Equal(t, 45.0, result.ContentQuality)
	assert.False(t, result.AutoApproveEligible)
	assertBounded(t, result)
}

func TestAssess_WellFormedArticle(t *testing.T) {
	t.Parallel()

	a := New(infralogger.NewNop())
	content := &domain.ContentInput{
		ID:          "festival-1",
		Title:       "Dubai winter festival returns to the heritage village",
		Excerpt:     "The Dubai winter festival returns to the heritage village with food stalls, falconry shows and live music for families this December.",
		Body:        wellFormedBody,
		ContentType: domain.ContentTypeEvents,
		Images: []domain.Image{
			{URL: "https://example.com/festival.jpg", Alt: "Festival stage"},
		},
	}

	result, err := a.Assess(context.Background(), content, domain.DefaultThresholds(domain.ContentTypeEvents))
	require.NoError(t, err)

	assert.Equal(t, 100.0, result.SEO)
	assert.GreaterOrEqual(t, result.CulturalSensitivity, 90.0)
	assert.Equal(t, domain.ComplianceExcellent, result.Cultural.ComplianceLevel)
	assert.Greater(t, result.OverallScore, 60.0)
	assertBounded(t, result)
}

func TestAssess_HTMLBody(t *testing.T) {
	t.Parallel()

	a := New(infralogger.NewNop())
	content := &domain.ContentInput{
		ID:    "html-1",
		Title: "Lorem ipsum placeholder headline for review",
		Body: `<article><h2>Intro</h2><p>First paragraph about the marina.</p>` +
			`<p>Second paragraph about the marina.</p><script>var x = 1;</script></article>`,
	}

	result, err := a.Assess(context.Background(), content, domain.DefaultThresholds(domain.ContentTypeNews))
	require.NoError(t, err)

	assert.NotEmpty(t, result.Issues, "placeholder text should raise an issue")
	assert.Equal(t, domain.SeverityHigh, result.Issues[0].Severity)
	assertBounded(t, result)
}

func TestAssess_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(infralogger.NewNop()).Assess(ctx, &domain.ContentInput{Title: "t", Body: "b"}, domain.QualityThresholds{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestScoreReadability(t *testing.T) {
	t.Parallel()

	const text = "The government announced a new transportation policy yesterday."

	news, flesch, _ := scoreReadability(text, domain.ContentTypeNews)
	tourism, _, _ := scoreReadability(text, domain.ContentTypeTourism)
	government, _, _ := scoreReadability(text, domain.ContentTypeGovernment)

	assert.InDelta(t, 8.4, flesch, 0.001)
	assert.InDelta(t, 8.365, tourism, 0.001)
	assert.InDelta(t, 8.365*0.8, news, 0.001)
	assert.InDelta(t, 8.365*0.9, government, 0.001)

	easy, _, _ := scoreReadability("The cat sat on the mat.", domain.ContentTypeNews)
	assert.Equal(t, 100.0, easy)
}

func TestScoreImages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		images []domain.Image
		words  int
		want   float64
	}{
		{name: "no images is neutral", words: 500, want: 80},
		{
			name:   "crowded images without alt text",
			images: []domain.Image{{URL: "a"}, {URL: "b"}, {URL: "c"}},
			words:  60,
			want:   35,
		},
		{
			name:   "rich gallery",
			images: []domain.Image{{Alt: "a"}, {Alt: "b"}, {Alt: "c"}, {Alt: "d"}},
			words:  1600,
			want:   90,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, _ := scoreImages(tt.images, tt.words)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScoreBrandVoice(t *testing.T) {
	t.Parallel()

	score, issues, _ := scoreBrandVoice("Discover Dubai: an amazing, vibrant community festival.")
	assert.Equal(t, 95.0, score)
	assert.Empty(t, issues)

	score, issues, _ = scoreBrandVoice("This boring, overpriced show was a nightmare. What a stupid idea.")
	assert.Equal(t, 40.0, score)
	assert.Len(t, issues, 1)
}

func TestScoreGrammar_CapsPerRule(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("We could of gone. ", 8)
	score, issues, _ := scoreGrammar(text)

	assert.Len(t, issues, 8)
	assert.Equal(t, 90.0, score)
}

func TestAssessCulture(t *testing.T) {
	t.Parallel()

	clean := AssessCulture("Families in Dubai celebrate national day at the heritage village")
	assert.Equal(t, 95.0, clean.OverallScore)
	assert.Equal(t, domain.ComplianceExcellent, clean.ComplianceLevel)

	offensive := AssessCulture("Protesters threatened to burn the quran outside the hall")
	assert.Equal(t, domain.ComplianceInappropriate, offensive.ComplianceLevel)
	assert.True(t, domain.HasSeverity(offensive.Issues, domain.SeverityCritical))
}

func shortBody(words int) string {
	vocab := []string{"market", "opens", "near", "park", "friday", "with", "fresh", "fruit", "and", "bread"}
	out := make([]string, words)
	for i := range out {
		out[i] = vocab[i%len(vocab)]
	}
	return strings.Join(out, " ") + "."
}

func assertBounded(t *testing.T, r *domain.AssessmentResult) {
	t.Helper()
	for name, v := range map[string]float64{
		"quality":     r.ContentQuality,
		"grammar":     r.Grammar,
		"readability": r.Readability,
		"seo":         r.SEO,
		"brand":       r.BrandVoice,
		"cultural":    r.CulturalSensitivity,
		"factual":     r.FactualAccuracy,
		"image":       r.ImageQuality,
		"overall":     r.OverallScore,
	} {
		assert.GreaterOrEqual(t, v, 0.0, name)
		assert.LessOrEqual(t, v, 100.0, name)
	}
}
