package rules

import (
	"fmt"

	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
)

const (
	fullRuleScore          = 100.0
	defaultConditionWeight = 1.0
)

// evaluateRule compares every condition of rule. Each failed condition
// deducts 100 × weight / len(conditions) from the rule score.
func (s *Snapshot) evaluateRule(rule *domain.QualityRule, ec *EvalContext) domain.RuleEvaluationResult {
	result := domain.RuleEvaluationResult{
		RuleID:   rule.ID,
		RuleName: rule.Name,
		Category: rule.Category,
		Passed:   true,
		Severity: rule.Severity(),
	}

	count := float64(len(rule.Conditions))
	for _, c := range rule.Conditions {
		weight := c.Weight
		if weight == 0 {
			weight = defaultConditionWeight
		}

		ok, desc, warning := s.evaluateCondition(c, ec)
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}
		if ok {
			continue
		}
		result.Passed = false
		result.ScoreDeduction += fullRuleScore * weight / count
		result.TriggeredConditions = append(result.TriggeredConditions, desc)
	}

	result.Score = domain.ClampScore(fullRuleScore - result.ScoreDeduction)
	if !result.Passed {
		result.AppliedActions = rule.Actions
		result.Recommendation = recommendation(rule)
	}
	return result
}

// evaluateCondition returns whether c holds, a description of the comparison
// and a warning when the field or comparison could not be evaluated.
func (s *Snapshot) evaluateCondition(c domain.RuleCondition, ec *EvalContext) (bool, string, string) {
	actual, err := s.registry.Resolve(c.Field, ec)
	if err != nil {
		desc := fmt.Sprintf("%s %s %v (unresolved)", c.Field, c.Operator, c.Value)
		return false, desc, err.Error()
	}

	desc := fmt.Sprintf("%s %s %v (actual %v)", c.Field, c.Operator, c.Value, actual)
	ok, err := compare(c.Operator, actual, c.Value, s.regexes[regexKey(c)])
	if err != nil {
		return false, desc, fmt.Sprintf("condition %s could not be evaluated: %v", c.Field, err)
	}
	return ok, desc, ""
}

func regexKey(c domain.RuleCondition) string {
	if c.Operator != domain.OpRegex {
		return ""
	}
	expr, _ := c.Value.(string)
	return expr
}

func recommendation(rule *domain.QualityRule) string {
	for _, a := range rule.Actions {
		if a.ActionType == domain.ActionAddRecommendation {
			if msg := a.StringParam("message"); msg != "" {
				return msg
			}
		}
	}
	if rule.Description != "" {
		return rule.Description
	}
	return fmt.Sprintf("Address the issues flagged by rule %q", rule.Name)
}
