package rules_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infralogger "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/assessment"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/duplicate"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/factcheck"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/moderation"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/rules"
)

// fakeChecks returns fixed sub-results, optionally after a delay that
// ignores the context.
type fakeChecks struct {
	assessment domain.AssessmentResult
	moderation domain.ModerationResult
	duplicate  domain.DuplicateResult
	factCheck  domain.FactCheckResult
	delay      time.Duration
	factErr    error
}

func highScores() *fakeChecks {
	return &fakeChecks{
		assessment: domain.AssessmentResult{
			OverallScore:        92,
			CulturalSensitivity: 95,
			Readability:         80,
			AutoApproveEligible: true,
			Cultural:            domain.CulturalAssessment{OverallScore: 95, ComplianceLevel: domain.ComplianceExcellent},
		},
		moderation: domain.ModerationResult{
			SafetyScore: 95,
			IssueScore:  100,
			Status:      domain.ModerationSafe,
			AutoAction:  domain.ModerationActionApprove,
		},
		duplicate: domain.DuplicateResult{DuplicateType: domain.DuplicateNone, Score: 100},
		factCheck: domain.FactCheckResult{Confidence: 90},
	}
}

func (f *fakeChecks) Assess(context.Context, *domain.ContentInput, domain.QualityThresholds) (*domain.AssessmentResult, error) {
	time.Sleep(f.delay)
	r := f.assessment
	return &r, nil
}

func (f *fakeChecks) Moderate(context.Context, *domain.ContentInput) (*domain.ModerationResult, error) {
	r := f.moderation
	return &r, nil
}

func (f *fakeChecks) Check(context.Context, *domain.ContentInput) (*domain.DuplicateResult, error) {
	r := f.duplicate
	return &r, nil
}

func (f *fakeChecks) Verify(context.Context, *domain.ContentInput) (*domain.FactCheckResult, error) {
	if f.factErr != nil {
		return nil, f.factErr
	}
	r := f.factCheck
	return &r, nil
}

type recordingSink struct {
	mu        sync.Mutex
	decisions []*domain.QualityDecision
}

func (s *recordingSink) SubmitDecision(d *domain.QualityDecision) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions = append(s.decisions, d)
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.decisions)
}

func newFakeEngine(t *testing.T, checks *fakeChecks, cfg rules.Config, sink rules.DecisionSink) *rules.Engine {
	t.Helper()
	return rules.NewEngine(rules.Deps{
		Assessor:   checks,
		Moderator:  checks,
		Duplicates: checks,
		Facts:      checks,
		Sink:       sink,
	}, cfg, infralogger.NewNop())
}

func installRules(t *testing.T, e *rules.Engine, rs []domain.QualityRule) {
	t.Helper()
	snap, rejected := rules.BuildSnapshot(rs, nil, 1, rules.NewFieldRegistry(), infralogger.NewNop())
	require.Empty(t, rejected)
	e.Swap(snap)
}

func article(id string) *domain.ContentInput {
	return &domain.ContentInput{
		ID:          id,
		Title:       "Dubai Metro extends weekend service hours",
		Body:        "The Roads and Transport Authority announced longer metro hours.",
		Excerpt:     "Metro trains will run later on weekends starting next month.",
		ContentType: domain.ContentTypeNews,
	}
}

func TestEngine_NoSnapshotFailsClosed(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	e := newFakeEngine(t, highScores(), rules.Config{}, sink)

	d, err := e.Evaluate(context.Background(), article("a1"))
	require.NoError(t, err)

	assert.Equal(t, domain.DecisionManualReview, d.Decision)
	require.Len(t, d.Warnings, 1)
	assert.Contains(t, d.Warnings[0], domain.ErrNoSnapshot.Error())
	assert.Equal(t, 1, sink.count())
}

func TestEngine_InvalidContentIsRejectedBeforeChecks(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	e := newFakeEngine(t, highScores(), rules.Config{}, sink)
	installRules(t, e, rules.DefaultRules())

	c := article("a1")
	c.Title = "  "
	_, err := e.Evaluate(context.Background(), c)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingTitle)
	var verr *domain.ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Zero(t, sink.count())
	assert.Zero(t, e.Stats().Total)
}

func TestEngine_HighScoresAutoApprove(t *testing.T) {
	t.Parallel()

	e := newFakeEngine(t, highScores(), rules.Config{}, nil)
	installRules(t, e, rules.DefaultRules())

	d, err := e.Evaluate(context.Background(), article("a1"))
	require.NoError(t, err)

	assert.Equal(t, domain.DecisionAutoApprove, d.Decision)
	assert.GreaterOrEqual(t, d.Confidence, 80.0)
	assert.Equal(t, 94.0, d.OverallScore)
	assert.Empty(t, d.FailedRules())
	assert.Len(t, d.RuleResults, 6, "government readability rule does not apply to news")
	assert.Equal(t, int64(1), d.SnapshotVersion)
}

func TestEngine_CriticalRuleRejects(t *testing.T) {
	t.Parallel()

	e := newFakeEngine(t, highScores(), rules.Config{}, nil)
	blocked := domain.QualityRule{
		ID:       "blocked-phrase",
		Name:     "Blocked phrase",
		Priority: domain.PriorityCritical,
		Active:   true,
		Conditions: domain.Conditions{
			{Field: "content.body", Operator: domain.OpNotContains, Value: "guaranteed returns", Weight: 1},
		},
	}
	installRules(t, e, append(rules.DefaultRules(), blocked))

	c := article("a1")
	c.Body += " Investors are promised Guaranteed Returns."
	d, err := e.Evaluate(context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, domain.DecisionAutoReject, d.Decision)
	assert.GreaterOrEqual(t, d.OverallScore, 85.0)
	failed := d.FailedRules()
	require.Len(t, failed, 1)
	assert.Equal(t, domain.RuleSeverityCritical, failed[0].Severity)
}

func TestEngine_TimeoutFailsClosed(t *testing.T) {
	t.Parallel()

	checks := highScores()
	checks.delay = 500 * time.Millisecond
	e := newFakeEngine(t, checks, rules.Config{EvaluationTimeout: 20 * time.Millisecond}, nil)
	installRules(t, e, rules.DefaultRules())

	start := time.Now()
	d, err := e.Evaluate(context.Background(), article("a1"))
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 400*time.Millisecond)
	assert.Equal(t, domain.DecisionManualReview, d.Decision)
	require.Len(t, d.Warnings, 1)
	assert.Contains(t, d.Warnings[0], "timed out")
}

func TestEngine_CheckFailureFailsClosed(t *testing.T) {
	t.Parallel()

	checks := highScores()
	checks.factErr = errors.New("source registry offline")
	e := newFakeEngine(t, checks, rules.Config{}, nil)
	installRules(t, e, rules.DefaultRules())

	d, err := e.Evaluate(context.Background(), article("a1"))
	require.NoError(t, err)

	assert.Equal(t, domain.DecisionManualReview, d.Decision)
	assert.Contains(t, strings.Join(d.Warnings, " "), "source registry offline")
}

func TestEngine_CancelledContextReturnsError(t *testing.T) {
	t.Parallel()

	checks := highScores()
	checks.delay = 50 * time.Millisecond
	e := newFakeEngine(t, checks, rules.Config{}, nil)
	installRules(t, e, rules.DefaultRules())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Evaluate(ctx, article("a1"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_Deterministic(t *testing.T) {
	t.Parallel()

	e := newFakeEngine(t, highScores(), rules.Config{}, nil)
	installRules(t, e, rules.DefaultRules())

	first, err := e.Evaluate(context.Background(), article("a1"))
	require.NoError(t, err)
	second, err := e.Evaluate(context.Background(), article("a1"))
	require.NoError(t, err)

	for _, d := range []*domain.QualityDecision{first, second} {
		d.EvaluatedAt = time.Time{}
		d.ProcessingTimeMs = 0
	}
	assert.Equal(t, first, second)
}

func TestEngine_StatsAndSink(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	e := newFakeEngine(t, highScores(), rules.Config{}, sink)
	installRules(t, e, rules.DefaultRules())

	for _, id := range []string{"a1", "a2", "a3"} {
		_, err := e.Evaluate(context.Background(), article(id))
		require.NoError(t, err)
	}

	stats := e.Stats()
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(3), stats.ByDecision[domain.DecisionAutoApprove])
	assert.Equal(t, len(rules.DefaultRules()), stats.ActiveRules)
	assert.Equal(t, 3, sink.count())
}

func TestEngine_SwapDuringEvaluation(t *testing.T) {
	t.Parallel()

	e := newFakeEngine(t, highScores(), rules.Config{}, nil)
	installRules(t, e, rules.DefaultRules())
	registry := rules.NewFieldRegistry()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 10 {
				if _, err := e.Evaluate(context.Background(), article("a")); err != nil {
					t.Error(err)
					return
				}
			}
		}()
		snap, _ := rules.BuildSnapshot(rules.DefaultRules(), nil, int64(i+2), registry, infralogger.NewNop())
		e.Swap(snap)
	}
	wg.Wait()
	assert.Equal(t, int64(9), e.Snapshot().Version())
}

func newRealEngine(t *testing.T) *rules.Engine {
	t.Helper()
	log := infralogger.NewNop()
	e := rules.NewEngine(rules.Deps{
		Assessor:   assessment.New(log),
		Moderator:  moderation.New(log),
		Duplicates: duplicate.NewDetector(duplicate.NewMemoryStore(), nil, duplicate.Config{}, log),
		Facts: factcheck.NewVerifier(
			factcheck.NewStaticProvider(factcheck.DefaultSources()),
			factcheck.KeywordLookup{},
			factcheck.Config{},
			log,
		),
	}, rules.Config{}, log)
	installRules(t, e, rules.DefaultRules())
	return e
}

const longArticle = `The Dubai Roads and Transport Authority has opened a new cycling track along the creek.

The track runs for twelve kilometres and links several neighbourhoods with parks and metro stations. Families can rent bicycles at four stations along the route, and shaded rest areas offer water fountains every two kilometres.

Officials said the project supports the city plan to make short trips easier without a car. Work on a second track near the marina is expected to begin next year, and residents can share feedback through the authority website.`

func TestEngine_ExactDuplicateRejected(t *testing.T) {
	t.Parallel()

	e := newRealEngine(t)
	first := &domain.ContentInput{
		ID:          "original",
		Title:       "New cycling track opens along Dubai Creek",
		Body:        longArticle,
		ContentType: domain.ContentTypeNews,
	}
	_, err := e.Evaluate(context.Background(), first)
	require.NoError(t, err)

	copyOf := *first
	copyOf.ID = "copy"
	copyOf.Title = "Creek cycling track now open"
	d, err := e.Evaluate(context.Background(), &copyOf)
	require.NoError(t, err)

	require.NotNil(t, d.Duplicate)
	assert.Equal(t, domain.DuplicateExact, d.Duplicate.DuplicateType)
	assert.Equal(t, 1.0, d.Duplicate.SimilarityScore)
	assert.Equal(t, "original", d.Duplicate.MatchedContentID)
	assert.Equal(t, domain.DecisionAutoReject, d.Decision)
}

const trailArticle = `## A new trail by the creek

Dubai Creek park has a new trail for walks and runs. The path is long and flat. Tall trees give shade on hot days. Benches sit by the water, and there are taps to fill a bottle.

## What to expect

Families can stop at a small cafe near the gate. Kids can play in a sand pit and on the swings. The lights stay on late, so the walk feels safe after dark. Dogs on a lead are welcome on the trail.

## How to get there

The park is a short walk from the metro. Buses stop by the main gate. Parking is free on the north side. Entry costs five dirhams for adults, and kids go in free.

Residents say the trail is a popular spot for a calm walk. It is a family-friendly way to explore the park and meet local people.`

func TestEngine_CleanArticleAutoApproves(t *testing.T) {
	t.Parallel()

	e := newRealEngine(t)
	d, err := e.Evaluate(context.Background(), &domain.ContentInput{
		ID:          "trail",
		Title:       "Dubai Creek park opens a new shaded walking trail",
		Excerpt:     "A new shaded trail runs along Dubai Creek park, with benches, tall trees and water points for local families who like to walk or jog.",
		Body:        trailArticle,
		ContentType: domain.ContentTypeTourism,
	})
	require.NoError(t, err)

	require.NotNil(t, d.FactCheck)
	require.NotEmpty(t, d.FactCheck.Claims, "the located sentence is a claim")
	assert.GreaterOrEqual(t, d.FactCheck.Confidence, 50.0)
	assert.False(t, d.FactCheck.RequiresManualReview)
	assert.Empty(t, d.FailedRules())
	assert.GreaterOrEqual(t, d.OverallScore, 85.0)
	assert.Equal(t, domain.DecisionAutoApprove, d.Decision)
}

func TestEngine_ThinContentNotEligible(t *testing.T) {
	t.Parallel()

	e := newRealEngine(t)
	body := "Visitors enjoyed the quiet park on a sunny morning. Children played near the fountain " +
		"while parents rested in the shade. A small cafe served fresh juice and coffee. " +
		"Gardeners trimmed the hedges along the main path. Birds gathered by the pond."
	d, err := e.Evaluate(context.Background(), &domain.ContentInput{
		ID:          "thin",
		Title:       "Park morning",
		Body:        body,
		ContentType: domain.ContentTypeTourism,
	})
	require.NoError(t, err)

	require.NotNil(t, d.Assessment)
	assert.Equal(t, 45.0, d.Assessment.ContentQuality)
	assert.False(t, d.Assessment.AutoApproveEligible)
	assert.Contains(t, d.Recommendations, "Expand the article to at least 100 words")
	assert.Equal(t, domain.ModerationSafe, d.Moderation.Status)
	assert.Equal(t, domain.DuplicateNone, d.Duplicate.DuplicateType)
	assert.Equal(t, domain.SectionThingsToDo, d.Section)
}

func TestEngine_ProhibitedContentRejected(t *testing.T) {
	t.Parallel()

	e := newRealEngine(t)
	d, err := e.Evaluate(context.Background(), &domain.ContentInput{
		ID:    "bad",
		Title: "Nightlife guide",
		Body:  longArticle + "\n\nMessage us to buy cocaine delivered tonight.",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.DecisionAutoReject, d.Decision)
	var critical bool
	for _, r := range d.FailedRules() {
		if r.RuleID == "default-legal-prohibited" && r.Severity == domain.RuleSeverityCritical {
			critical = true
		}
	}
	assert.True(t, critical, "prohibited legal rule should fail")
	assert.Empty(t, d.AssignedReviewers)
}
