package rules

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
)

// Final score blend.
const (
	weightAssessment = 0.35
	weightModeration = 0.25
	weightDuplicate  = 0.15
	weightFactCheck  = 0.15
	weightRules      = 0.10
)

// Final score cut-offs for the last precedence steps. Per content type
// thresholds only drive assessment eligibility.
const (
	autoApproveScore        = 85
	conditionalApproveScore = 70
)

// Review time estimate, in minutes.
const (
	reviewBaseMinutes     = 15
	reviewPerFailedRule   = 5
	reviewLongBody        = 10
	reviewVeryLongBody    = 20
	reviewCriticalFailure = 30
	reviewCulturalFailure = 20
	reviewFactFailure     = 25
	longBodyChars         = 2000
	veryLongBodyChars     = 5000
	culturalRuleMarker    = "cultural"
	factRuleMarker        = "fact"
)

// Action parameter keys.
const (
	reviewerParam            = "reviewer"
	reviewerRoleParam        = "role"
	scoreAdjustmentParam     = "points"
	statusParam              = "status"
	flagParam                = "flag"
	notificationParam        = "recipient"
	notificationChannelParam = "channel"
)

// Confidence estimate.
const (
	baseConfidence           = 90
	confidencePerFailure     = 10
	confidencePerCritical    = 20
	notApprovablePenalty     = 10
	duplicatePenalty         = 15
	needsReviewPenalty       = 10
	incompleteResultsPenalty = 30
)

// DecisionInput is everything the decision function needs. Nil sub-results
// mean the check did not complete.
type DecisionInput struct {
	Content     *domain.ContentInput
	Assessment  *domain.AssessmentResult
	Moderation  *domain.ModerationResult
	Duplicate   *domain.DuplicateResult
	FactCheck   *domain.FactCheckResult
	RuleResults []domain.RuleEvaluationResult
}

func (in *DecisionInput) complete() bool {
	return in.Assessment != nil && in.Moderation != nil && in.Duplicate != nil && in.FactCheck != nil
}

// Decide combines sub-results and rule results into a decision. It is a pure
// function of its input; timing fields are left for the caller.
func Decide(in DecisionInput) *domain.QualityDecision {
	failed := failedRules(in.RuleResults)

	d := &domain.QualityDecision{
		ContentID:   in.Content.ID,
		ContentType: in.Content.Type(),
		Section:     in.Content.Type().Section(),
		RuleResults: in.RuleResults,
		Assessment:  in.Assessment,
		Moderation:  in.Moderation,
		Duplicate:   in.Duplicate,
		FactCheck:   in.FactCheck,
	}
	if d.RuleResults == nil {
		d.RuleResults = []domain.RuleEvaluationResult{}
	}

	d.OverallScore = overallScore(&in, failed)
	decision, reason := decide(&in, failed, d.OverallScore)
	d.Decision = decision

	d.Recommendations = recommendations(&in, failed)
	d.Warnings = warnings(&in, failed)
	d.RequiredActions = requiredActions(reason, failed)
	d.AssignedReviewers = []string{}
	if decision == domain.DecisionManualReview || decision == domain.DecisionConditionalApprove {
		d.AssignedReviewers = reviewers(failed)
	}
	d.EstimatedReviewMinutes = EstimateReviewMinutes(in.Content, failed)
	d.Confidence = confidence(&in, failed)
	return d
}

// decide applies the precedence list; the first matching step wins.
func decide(in *DecisionInput, failed []domain.RuleEvaluationResult, score float64) (domain.Decision, string) {
	if r, ok := firstWithSeverity(failed, domain.RuleSeverityCritical); ok {
		return domain.DecisionAutoReject, fmt.Sprintf("Reject: critical rule %q failed", r.RuleName)
	}
	if m := in.Moderation; m != nil && (m.Status == domain.ModerationBlocked || m.Status == domain.ModerationUnsafe) {
		return domain.DecisionAutoReject, fmt.Sprintf("Reject: moderation status %s", m.Status)
	}
	if dup := in.Duplicate; dup != nil && dup.DuplicateType == domain.DuplicateExact {
		return domain.DecisionAutoReject, fmt.Sprintf("Reject: exact duplicate of %s", dup.MatchedContentID)
	}

	_, hasError := firstWithSeverity(failed, domain.RuleSeverityError)
	if !in.complete() || needsReview(in) || hasError {
		return domain.DecisionManualReview, "Route to manual review"
	}

	switch {
	case score >= autoApproveScore:
		return domain.DecisionAutoApprove, ""
	case score >= conditionalApproveScore:
		return domain.DecisionConditionalApprove, "Resolve recommendations before publishing"
	default:
		return domain.DecisionManualReview, "Route to manual review"
	}
}

func needsReview(in *DecisionInput) bool {
	return (in.Assessment != nil && in.Assessment.ManualReviewRequired) ||
		(in.Moderation != nil && in.Moderation.RequiresHumanReview) ||
		(in.FactCheck != nil && in.FactCheck.RequiresManualReview)
}

// overallScore blends the sub-scores with the mean rule score, then applies
// modify_score actions of failed rules.
func overallScore(in *DecisionInput, failed []domain.RuleEvaluationResult) float64 {
	var assessment, safety, fact float64
	duplicate := domain.MaxScore
	if in.Assessment != nil {
		assessment = in.Assessment.OverallScore
	}
	if in.Moderation != nil {
		safety = in.Moderation.SafetyScore
	}
	if in.Duplicate != nil && in.Duplicate.IsDuplicate {
		duplicate = domain.MinScore
	}
	if in.FactCheck != nil {
		fact = in.FactCheck.Confidence
	}

	score := weightAssessment*assessment +
		weightModeration*safety +
		weightDuplicate*float64(duplicate) +
		weightFactCheck*fact +
		weightRules*meanRuleScore(in.RuleResults)

	for _, r := range failed {
		for _, a := range r.AppliedActions {
			if a.ActionType != domain.ActionModifyScore {
				continue
			}
			if delta, ok := toFloat(a.Parameters[scoreAdjustmentParam]); ok {
				score += delta
			}
		}
	}
	return domain.RoundScore(score)
}

func meanRuleScore(results []domain.RuleEvaluationResult) float64 {
	if len(results) == 0 {
		return domain.MaxScore
	}
	var sum float64
	for _, r := range results {
		sum += r.Score
	}
	return sum / float64(len(results))
}

func failedRules(results []domain.RuleEvaluationResult) []domain.RuleEvaluationResult {
	var failed []domain.RuleEvaluationResult
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

func firstWithSeverity(results []domain.RuleEvaluationResult, sev domain.RuleSeverity) (domain.RuleEvaluationResult, bool) {
	for _, r := range results {
		if r.Severity == sev {
			return r, true
		}
	}
	return domain.RuleEvaluationResult{}, false
}

func recommendations(in *DecisionInput, failed []domain.RuleEvaluationResult) []string {
	var recs []string
	if in.Assessment != nil {
		recs = append(recs, in.Assessment.Recommendations...)
	}
	for _, r := range failed {
		if r.Recommendation != "" {
			recs = append(recs, r.Recommendation)
		}
	}
	if in.Moderation != nil {
		for _, is := range in.Moderation.Issues {
			if is.Suggestion != "" && is.Severity.Rank() >= domain.SeverityHigh.Rank() {
				recs = append(recs, is.Suggestion)
			}
		}
	}
	if in.FactCheck != nil && in.FactCheck.DisputedCount > 0 {
		recs = append(recs, "Verify disputed claims against trusted sources")
	}
	return uniqueStrings(recs)
}

func warnings(in *DecisionInput, failed []domain.RuleEvaluationResult) []string {
	var out []string
	if !in.complete() {
		out = append(out, "One or more checks did not complete")
	}
	if m := in.Moderation; m != nil && m.Status != domain.ModerationSafe {
		out = append(out, fmt.Sprintf("Moderation status: %s", m.Status))
	}
	if dup := in.Duplicate; dup != nil {
		if dup.IsDuplicate {
			out = append(out, fmt.Sprintf("Possible %s duplicate of %s (similarity %.2f)",
				dup.DuplicateType, dup.MatchedContentID, dup.SimilarityScore))
		}
		out = append(out, dup.Warnings...)
	}
	if in.FactCheck != nil {
		out = append(out, in.FactCheck.Warnings...)
	}
	for _, r := range in.RuleResults {
		out = append(out, r.Warnings...)
	}
	for _, r := range failed {
		if r.Severity == domain.RuleSeverityWarning {
			out = append(out, fmt.Sprintf("Rule %q failed", r.RuleName))
		}
	}
	return uniqueStrings(out)
}

func requiredActions(reason string, failed []domain.RuleEvaluationResult) []string {
	var out []string
	if reason != "" {
		out = append(out, reason)
	}
	for _, r := range failed {
		for _, a := range r.AppliedActions {
			switch a.ActionType {
			case domain.ActionSetStatus:
				out = append(out, "Set status: "+a.StringParam(statusParam))
			case domain.ActionAddFlag:
				out = append(out, "Flag: "+a.StringParam(flagParam))
			case domain.ActionSendNotification:
				to := a.StringParam(notificationParam)
				if to == "" {
					to = a.StringParam(notificationChannelParam)
				}
				out = append(out, "Notify: "+to)
			}
		}
	}
	return uniqueStrings(out)
}

func reviewers(failed []domain.RuleEvaluationResult) []string {
	var out []string
	for _, r := range failed {
		for _, a := range r.AppliedActions {
			if a.ActionType != domain.ActionAssignReviewer {
				continue
			}
			name := a.StringParam(reviewerParam)
			if name == "" {
				name = a.StringParam(reviewerRoleParam)
			}
			if name != "" {
				out = append(out, name)
			}
		}
	}
	return uniqueStrings(out)
}

// EstimateReviewMinutes is 15 minutes plus 5 per failed rule, with bonuses for
// long bodies, critical failures and cultural or fact rule failures.
func EstimateReviewMinutes(content *domain.ContentInput, failed []domain.RuleEvaluationResult) int {
	minutes := reviewBaseMinutes + reviewPerFailedRule*len(failed)

	switch n := utf8.RuneCountInString(content.Body); {
	case n > veryLongBodyChars:
		minutes += reviewVeryLongBody
	case n > longBodyChars:
		minutes += reviewLongBody
	}

	var critical, cultural, fact bool
	for _, r := range failed {
		label := strings.ToLower(r.RuleName + " " + r.Category)
		critical = critical || r.Severity == domain.RuleSeverityCritical
		cultural = cultural || strings.Contains(label, culturalRuleMarker)
		fact = fact || strings.Contains(label, factRuleMarker)
	}
	if critical {
		minutes += reviewCriticalFailure
	}
	if cultural {
		minutes += reviewCulturalFailure
	}
	if fact {
		minutes += reviewFactFailure
	}
	return minutes
}

func confidence(in *DecisionInput, failed []domain.RuleEvaluationResult) float64 {
	c := float64(baseConfidence - confidencePerFailure*len(failed))
	for _, r := range failed {
		if r.Severity == domain.RuleSeverityCritical {
			c -= confidencePerCritical
		}
	}
	if in.Assessment != nil && !in.Assessment.AutoApproveEligible {
		c -= notApprovablePenalty
	}
	if in.Duplicate != nil && in.Duplicate.IsDuplicate {
		c -= duplicatePenalty
	}
	if needsReview(in) {
		c -= needsReviewPenalty
	}
	if !in.complete() {
		c -= incompleteResultsPenalty
	}
	return domain.ClampScore(c)
}

func uniqueStrings(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
