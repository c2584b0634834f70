package domain

import "time"

// Decision is the publication outcome.
type Decision string

const (
	DecisionAutoApprove        Decision = "auto_approve"
	DecisionManualReview       Decision = "manual_review"
	DecisionAutoReject         Decision = "auto_reject"
	DecisionConditionalApprove Decision = "conditional_approve"
)

// RuleSeverity is the severity of a failed rule.
type RuleSeverity string

const (
	RuleSeverityInfo     RuleSeverity = "info"
	RuleSeverityWarning  RuleSeverity = "warning"
	RuleSeverityError    RuleSeverity = "error"
	RuleSeverityCritical RuleSeverity = "critical"
)

// RuleEvaluationResult is the outcome of one rule against one submission.
type RuleEvaluationResult struct {
	RuleID              string       `json:"rule_id"`
	RuleName            string       `json:"rule_name"`
	Category            string       `json:"category,omitempty"`
	Passed              bool         `json:"passed"`
	Score               float64      `json:"score"`
	ScoreDeduction      float64      `json:"score_deduction"`
	TriggeredConditions []string     `json:"triggered_conditions,omitempty"`
	AppliedActions      []RuleAction `json:"applied_actions,omitempty"`
	Severity            RuleSeverity `json:"severity"`
	Recommendation      string       `json:"recommendation,omitempty"`
	Warnings            []string     `json:"warnings,omitempty"`
}

// QualityDecision is the engine output for one evaluation. It is upserted by ContentID.
type QualityDecision struct {
	ContentID              string                 `json:"content_id"`
	ContentType            ContentType            `json:"content_type"`
	Section                string                 `json:"section"`
	OverallScore           float64                `json:"overall_score"`
	Decision               Decision               `json:"decision"`
	RuleResults            []RuleEvaluationResult `json:"rule_results"`
	Assessment             *AssessmentResult      `json:"assessment,omitempty"`
	Moderation             *ModerationResult      `json:"moderation,omitempty"`
	Duplicate              *DuplicateResult       `json:"duplicate,omitempty"`
	FactCheck              *FactCheckResult       `json:"fact_check,omitempty"`
	Recommendations        []string               `json:"recommendations"`
	Warnings               []string               `json:"warnings"`
	RequiredActions        []string               `json:"required_actions"`
	AssignedReviewers      []string               `json:"assigned_reviewers"`
	EstimatedReviewMinutes int                    `json:"estimated_review_minutes"`
	Confidence             float64                `json:"confidence"`
	SnapshotVersion        int64                  `json:"snapshot_version"`
	ProcessingTimeMs       int64                  `json:"processing_time_ms"`
	EvaluatedAt            time.Time              `json:"evaluated_at"`
}

// FailedRules returns the rule results that did not pass.
func (d *QualityDecision) FailedRules() []RuleEvaluationResult {
	failed := make([]RuleEvaluationResult, 0, len(d.RuleResults))
	for _, r := range d.RuleResults {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// DecisionStats summarizes stored decisions.
type DecisionStats struct {
	Total             int64              `json:"total"`
	ByDecision        map[Decision]int64 `json:"by_decision"`
	AverageScore      float64            `json:"average_score"`
	AverageConfidence float64            `json:"average_confidence"`
}
