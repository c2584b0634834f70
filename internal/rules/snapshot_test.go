package rules

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infralogger "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
)

func testRule(id string, priority domain.Priority, conds ...domain.RuleCondition) domain.QualityRule {
	return domain.QualityRule{
		ID:         id,
		Name:       id,
		Priority:   priority,
		Active:     true,
		Conditions: conds,
	}
}

func cond(field string, op domain.Operator, value any, weight float64) domain.RuleCondition {
	return domain.RuleCondition{Field: field, Operator: op, Value: value, Weight: weight}
}

func evalContext() *EvalContext {
	return &EvalContext{
		Content: &domain.ContentInput{ID: "c1", Title: "Title", Body: "Body text", ContentType: domain.ContentTypeNews},
		Assessment: &domain.AssessmentResult{
			OverallScore: 65,
			Readability:  55,
			Cultural:     domain.CulturalAssessment{ComplianceLevel: domain.ComplianceGood},
		},
		Moderation: &domain.ModerationResult{SafetyScore: 90, Status: domain.ModerationSafe},
		Duplicate:  &domain.DuplicateResult{DuplicateType: domain.DuplicateNone, Score: 100},
	}
}

func TestBuildSnapshot_RejectsInvalidRules(t *testing.T) {
	t.Parallel()

	rules := []domain.QualityRule{
		testRule("ok", domain.PriorityLow, cond("assessment.overall_score", domain.OpGreaterOrEqual, 50, 1)),
		testRule("bad-field", domain.PriorityLow, cond("assessment.nope", domain.OpGreaterOrEqual, 50, 1)),
		testRule("bad-op", domain.PriorityLow, cond("assessment.seo", domain.Operator("between"), 50, 1)),
		testRule("bad-regex", domain.PriorityLow, cond("content.title", domain.OpRegex, "(", 1)),
		testRule("bad-in", domain.PriorityLow, cond("content.content_type", domain.OpIn, "news", 1)),
		testRule("no-conditions", domain.PriorityLow),
	}
	inactive := testRule("inactive", domain.PriorityHigh, cond("assessment.seo", domain.OpGreaterThan, 1, 1))
	inactive.Active = false
	rules = append(rules, inactive)

	snap, rejected := BuildSnapshot(rules, nil, 1, NewFieldRegistry(), infralogger.NewNop())

	require.Equal(t, 1, snap.Len())
	assert.Equal(t, "ok", snap.Rules()[0].ID)
	require.Len(t, rejected, 5)
	assert.ErrorIs(t, rejected[0], domain.ErrUnknownField)
	assert.ErrorIs(t, rejected[1], domain.ErrUnknownOperator)
	for _, err := range rejected {
		assert.ErrorIs(t, err, ErrInvalidRule)
	}
}

func TestBuildSnapshot_OrdersByPriority(t *testing.T) {
	t.Parallel()

	c := cond("assessment.seo", domain.OpGreaterThan, 1, 1)
	snap, rejected := BuildSnapshot([]domain.QualityRule{
		testRule("b-low", domain.PriorityLow, c),
		testRule("a-critical", domain.PriorityCritical, c),
		testRule("c-medium", domain.PriorityMedium, c),
		testRule("a-medium", domain.PriorityMedium, c),
	}, nil, 7, NewFieldRegistry(), infralogger.NewNop())

	require.Empty(t, rejected)
	var ids []string
	for _, r := range snap.Rules() {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"a-critical", "a-medium", "c-medium", "b-low"}, ids)
	assert.Equal(t, int64(7), snap.Version())
}

func TestSnapshot_ThresholdsFallBackToDefaults(t *testing.T) {
	t.Parallel()

	custom := domain.DefaultThresholds(domain.ContentTypeNews)
	custom.AutoApproveThreshold = 95
	snap, _ := BuildSnapshot(nil, []domain.QualityThresholds{custom}, 1, NewFieldRegistry(), infralogger.NewNop())

	if got := snap.Thresholds(domain.ContentTypeNews).AutoApproveThreshold; got != 95 {
		t.Errorf("news auto approve = %v, want 95", got)
	}
	if got := snap.Thresholds(domain.ContentTypeGovernment); got != domain.DefaultThresholds(domain.ContentTypeGovernment) {
		t.Errorf("government thresholds = %+v, want defaults", got)
	}
}

func TestSnapshot_Applicable(t *testing.T) {
	t.Parallel()

	c := cond("assessment.seo", domain.OpGreaterThan, 1, 1)
	gov := testRule("gov", domain.PriorityLow, c)
	gov.ContentTypes = []string{"government"}
	dubai := testRule("dubai", domain.PriorityLow, c)
	dubai.GeographicScope = []string{"dubai"}
	everywhere := testRule("all", domain.PriorityLow, c)
	everywhere.ContentTypes = []string{"all"}

	snap, _ := BuildSnapshot([]domain.QualityRule{gov, dubai, everywhere}, nil, 1, NewFieldRegistry(), infralogger.NewNop())

	names := func(rules []*domain.QualityRule) []string {
		var out []string
		for _, r := range rules {
			out = append(out, r.ID)
		}
		return out
	}
	assert.ElementsMatch(t, []string{"all"}, names(snap.Applicable(domain.ContentTypeNews, "abu_dhabi")))
	assert.ElementsMatch(t, []string{"all", "dubai"}, names(snap.Applicable(domain.ContentTypeNews, "dubai")))
	assert.ElementsMatch(t, []string{"all", "gov"}, names(snap.Applicable(domain.ContentTypeGovernment, "all")))
}

func TestEvaluateRule_DeductionFormula(t *testing.T) {
	t.Parallel()

	rule := testRule("r", domain.PriorityMedium,
		cond("assessment.overall_score", domain.OpGreaterOrEqual, 70, 1),
		cond("assessment.readability", domain.OpGreaterOrEqual, 50, 0.5),
		cond("moderation.moderation_status", domain.OpEqual, "safe", 0.5),
	)
	snap, rejected := BuildSnapshot([]domain.QualityRule{rule}, nil, 1, NewFieldRegistry(), infralogger.NewNop())
	require.Empty(t, rejected)

	results := snap.Evaluate(evalContext())
	require.Len(t, results, 1)
	r := results[0]

	assert.False(t, r.Passed)
	assert.InDelta(t, 100.0/3.0, r.ScoreDeduction, 1e-9)
	assert.InDelta(t, 100-100.0/3.0, r.Score, 1e-9)
	assert.Equal(t, domain.RuleSeverityWarning, r.Severity)
	require.Len(t, r.TriggeredConditions, 1)
	assert.Contains(t, r.TriggeredConditions[0], "assessment.overall_score gte 70")
	assert.Empty(t, r.Warnings)
}

func TestEvaluateRule_WeightsDivideByConditionCount(t *testing.T) {
	t.Parallel()

	rule := testRule("r", domain.PriorityLow,
		cond("assessment.overall_score", domain.OpGreaterOrEqual, 90, 3),
		cond("assessment.readability", domain.OpGreaterOrEqual, 90, 1),
	)
	snap, _ := BuildSnapshot([]domain.QualityRule{rule}, nil, 1, NewFieldRegistry(), infralogger.NewNop())

	r := snap.Evaluate(evalContext())[0]
	if r.ScoreDeduction != 200 {
		t.Errorf("deduction = %v, want 200", r.ScoreDeduction)
	}
	if r.Score != 0 {
		t.Errorf("score = %v, want clamped 0", r.Score)
	}
}

func TestEvaluateRule_UnresolvedFieldFailsWithWarning(t *testing.T) {
	t.Parallel()

	rule := testRule("facts", domain.PriorityHigh, cond("fact_check.confidence", domain.OpGreaterOrEqual, 60, 1))
	snap, _ := BuildSnapshot([]domain.QualityRule{rule}, nil, 1, NewFieldRegistry(), infralogger.NewNop())

	ec := evalContext()
	ec.FactCheck = nil
	r := snap.Evaluate(ec)[0]

	assert.False(t, r.Passed)
	assert.Equal(t, domain.RuleSeverityError, r.Severity)
	require.Len(t, r.Warnings, 1)
	assert.Contains(t, r.Warnings[0], "fact_check.confidence")
}

func TestEvaluateRule_PassedRuleEmitsNoActions(t *testing.T) {
	t.Parallel()

	rule := testRule("ok", domain.PriorityHigh, cond("moderation.overall_safety_score", domain.OpGreaterThan, 50, 1))
	rule.Actions = domain.Actions{{ActionType: domain.ActionAssignReviewer, Parameters: map[string]any{"reviewer": "x"}}}
	snap, _ := BuildSnapshot([]domain.QualityRule{rule}, nil, 1, NewFieldRegistry(), infralogger.NewNop())

	r := snap.Evaluate(evalContext())[0]
	assert.True(t, r.Passed)
	assert.Equal(t, 100.0, r.Score)
	assert.Empty(t, r.AppliedActions)
	assert.Empty(t, r.Recommendation)
}

func TestEvaluateRule_RecommendationFromAction(t *testing.T) {
	t.Parallel()

	rule := testRule("rec", domain.PriorityLow, cond("content.has_excerpt", domain.OpEqual, true, 1))
	rule.Description = "fallback"
	rule.Actions = domain.Actions{{
		ActionType: domain.ActionAddRecommendation,
		Parameters: map[string]any{"message": "Add an excerpt"},
	}}
	snap, _ := BuildSnapshot([]domain.QualityRule{rule}, nil, 1, NewFieldRegistry(), infralogger.NewNop())

	r := snap.Evaluate(evalContext())[0]
	assert.Equal(t, "Add an excerpt", r.Recommendation)
	assert.Equal(t, domain.RuleSeverityInfo, r.Severity)
}

func TestValidateRule(t *testing.T) {
	t.Parallel()

	registry := NewFieldRegistry()
	for _, rule := range DefaultRules() {
		if err := ValidateRule(&rule, registry); err != nil {
			t.Errorf("default rule %s invalid: %v", rule.ID, err)
		}
	}

	bad := testRule("bad", domain.Priority("urgent"), cond("assessment.seo", domain.OpGreaterThan, 1, 1))
	if err := ValidateRule(&bad, registry); !errors.Is(err, ErrInvalidRule) {
		t.Errorf("ValidateRule(bad priority) = %v, want ErrInvalidRule", err)
	}

	badAction := testRule("bad-action", domain.PriorityLow, cond("assessment.seo", domain.OpGreaterThan, 1, 1))
	badAction.Actions = domain.Actions{{ActionType: "launch_rocket"}}
	if err := ValidateRule(&badAction, registry); err == nil {
		t.Error("expected error for unknown action type")
	}
}

func TestFieldRegistry_Fields(t *testing.T) {
	t.Parallel()

	registry := NewFieldRegistry()
	for _, f := range []string{
		"assessment.overall_score", "moderation.moderation_status", "duplicate.duplicate_type",
		"fact_check.confidence", "content.word_count", "moderation.issue_categories",
	} {
		if !registry.Has(f) {
			t.Errorf("registry missing %s", f)
		}
	}
	fields := registry.Fields()
	for i := 1; i < len(fields); i++ {
		if fields[i-1] > fields[i] {
			t.Fatalf("Fields() not sorted at %d", i)
		}
	}
}
