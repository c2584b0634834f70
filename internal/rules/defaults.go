package rules

import (
	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/patterns"
)

// Reviewer roles assigned by the default rules.
const (
	ReviewerLegal    = "legal_reviewer"
	ReviewerCultural = "cultural_reviewer"
	ReviewerFacts    = "fact_checker"
	ReviewerEditor   = "senior_editor"
)

// DefaultRules is the built-in rule pack used when the repository holds no
// rules and by the offline CLI.
func DefaultRules() []domain.QualityRule {
	all := []string{domain.ContentTypeAll}

	return []domain.QualityRule{
		{
			ID:              "default-legal-prohibited",
			Name:            "Prohibited legal terms",
			Description:     "Remove prohibited or illegal content before resubmitting",
			RuleType:        domain.RuleTypePattern,
			Category:        "legal",
			ContentTypes:    all,
			GeographicScope: all,
			Priority:        domain.PriorityCritical,
			Active:          true,
			Conditions: domain.Conditions{
				{Field: "moderation.issue_categories", Operator: domain.OpNotContains, Value: patterns.CatProhibited, Weight: 1},
			},
			Actions: domain.Actions{
				{ActionType: domain.ActionAddFlag, Parameters: map[string]any{"flag": "prohibited_content"}},
				{ActionType: domain.ActionSendNotification, Parameters: map[string]any{"recipient": ReviewerLegal}},
			},
		},
		{
			ID:              "default-privacy-exposure",
			Name:            "Personal data exposure",
			Description:     "Remove personal identifiers such as phone numbers and ID numbers",
			RuleType:        domain.RuleTypeCondition,
			Category:        "legal",
			ContentTypes:    all,
			GeographicScope: all,
			Priority:        domain.PriorityHigh,
			Active:          true,
			Conditions: domain.Conditions{
				{Field: "moderation.legal.privacy_exposure", Operator: domain.OpEqual, Value: false, Weight: 1},
			},
			Actions: domain.Actions{
				{ActionType: domain.ActionAssignReviewer, Parameters: map[string]any{"reviewer": ReviewerLegal}},
			},
		},
		{
			ID:              "default-cultural-minimum",
			Name:            "Cultural sensitivity minimum",
			Description:     "Revise wording that may be culturally insensitive",
			RuleType:        domain.RuleTypeThreshold,
			Category:        "cultural",
			ContentTypes:    all,
			GeographicScope: all,
			Priority:        domain.PriorityHigh,
			Active:          true,
			Conditions: domain.Conditions{
				{Field: "assessment.cultural_sensitivity", Operator: domain.OpGreaterOrEqual, Value: 70, Weight: 1},
				{Field: "assessment.cultural.compliance_level", Operator: domain.OpNotIn,
					Value: []any{string(domain.ComplianceInappropriate)}, Weight: 1},
			},
			Actions: domain.Actions{
				{ActionType: domain.ActionAssignReviewer, Parameters: map[string]any{"reviewer": ReviewerCultural}},
			},
		},
		{
			ID:              "default-fact-confidence",
			Name:            "Fact confidence minimum",
			Description:     "Add sources for the claims that could not be verified",
			RuleType:        domain.RuleTypeThreshold,
			Category:        "fact_check",
			ContentTypes:    all,
			GeographicScope: all,
			Priority:        domain.PriorityHigh,
			Active:          true,
			Conditions: domain.Conditions{
				{Field: "fact_check.confidence", Operator: domain.OpGreaterOrEqual, Value: 50, Weight: 1},
				{Field: "fact_check.disputed_count", Operator: domain.OpLessOrEqual, Value: 0, Weight: 1},
			},
			Actions: domain.Actions{
				{ActionType: domain.ActionAssignReviewer, Parameters: map[string]any{"reviewer": ReviewerFacts}},
			},
		},
		{
			ID:              "default-duplicate-guard",
			Name:            "Duplicate guard",
			Description:     "Rewrite content that closely matches an existing article",
			RuleType:        domain.RuleTypeThreshold,
			Category:        "duplicate",
			ContentTypes:    all,
			GeographicScope: all,
			Priority:        domain.PriorityHigh,
			Active:          true,
			Conditions: domain.Conditions{
				{Field: "duplicate.similarity_score", Operator: domain.OpLessThan, Value: 0.85, Weight: 1},
			},
			Actions: domain.Actions{
				{ActionType: domain.ActionAssignReviewer, Parameters: map[string]any{"reviewer": ReviewerEditor}},
			},
		},
		{
			ID:              "default-government-readability",
			Name:            "Government readability floor",
			Description:     "Simplify sentences so government notices stay readable",
			RuleType:        domain.RuleTypeThreshold,
			Category:        "readability",
			ContentTypes:    []string{string(domain.ContentTypeGovernment)},
			GeographicScope: all,
			Priority:        domain.PriorityMedium,
			Active:          true,
			Conditions: domain.Conditions{
				{Field: "assessment.readability", Operator: domain.OpGreaterOrEqual, Value: 40, Weight: 1},
			},
		},
		{
			ID:              "default-excerpt-present",
			Name:            "Excerpt present",
			RuleType:        domain.RuleTypeCondition,
			Category:        "seo",
			ContentTypes:    all,
			GeographicScope: all,
			Priority:        domain.PriorityLow,
			Active:          true,
			Conditions: domain.Conditions{
				{Field: "content.has_excerpt", Operator: domain.OpEqual, Value: true, Weight: 1},
			},
			Actions: domain.Actions{
				{ActionType: domain.ActionAddRecommendation, Parameters: map[string]any{"message": "Add an excerpt for search and social previews"}},
			},
		},
	}
}
