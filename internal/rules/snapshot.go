package rules

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"time"

	infralogger "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
)

// ErrInvalidRule wraps every rule validation failure.
var ErrInvalidRule = errors.New("invalid rule")

// Snapshot is an immutable view of the active rules and thresholds.
// Evaluations read it without locking; refreshes build a new one.
type Snapshot struct {
	rules      []domain.QualityRule
	thresholds map[domain.ContentType]domain.QualityThresholds
	regexes    map[string]*regexp.Regexp
	registry   *FieldRegistry
	version    int64
	loadedAt   time.Time
}

// BuildSnapshot validates rules against registry and keeps the active, valid
// ones ordered by priority. Rejected rules are logged and returned as errors.
func BuildSnapshot(
	rules []domain.QualityRule,
	thresholds []domain.QualityThresholds,
	version int64,
	registry *FieldRegistry,
	logger infralogger.Logger,
) (*Snapshot, []error) {
	s := &Snapshot{
		rules:      make([]domain.QualityRule, 0, len(rules)),
		thresholds: make(map[domain.ContentType]domain.QualityThresholds, len(thresholds)),
		regexes:    make(map[string]*regexp.Regexp),
		registry:   registry,
		version:    version,
		loadedAt:   time.Now(),
	}

	var rejected []error
	for i := range rules {
		rule := rules[i]
		if !rule.Active {
			continue
		}
		if err := validateRule(&rule, registry, s.regexes); err != nil {
			logger.Warn("Dropping invalid rule",
				infralogger.String("rule_id", rule.ID),
				infralogger.String("rule_name", rule.Name),
				infralogger.Error(err),
			)
			rejected = append(rejected, err)
			continue
		}
		rule.Conditions = slices.Clone(rule.Conditions)
		rule.Actions = slices.Clone(rule.Actions)
		s.rules = append(s.rules, rule)
	}

	sort.SliceStable(s.rules, func(i, j int) bool {
		ri, rj := priorityRank(s.rules[i].Priority), priorityRank(s.rules[j].Priority)
		if ri != rj {
			return ri > rj
		}
		return s.rules[i].ID < s.rules[j].ID
	})

	for _, t := range thresholds {
		s.thresholds[t.ContentType] = t
	}
	return s, rejected
}

// ValidateRule checks a rule the way BuildSnapshot does, without building a snapshot.
func ValidateRule(rule *domain.QualityRule, registry *FieldRegistry) error {
	return validateRule(rule, registry, make(map[string]*regexp.Regexp))
}

func validateRule(rule *domain.QualityRule, registry *FieldRegistry, regexes map[string]*regexp.Regexp) error {
	label := rule.Name
	if label == "" {
		label = rule.ID
	}
	if rule.Name == "" {
		return fmt.Errorf("%w %q: name is required", ErrInvalidRule, label)
	}
	if !rule.Priority.Valid() {
		return fmt.Errorf("%w %q: unknown priority %q", ErrInvalidRule, label, rule.Priority)
	}
	if len(rule.Conditions) == 0 {
		return fmt.Errorf("%w %q: at least one condition is required", ErrInvalidRule, label)
	}

	for i, c := range rule.Conditions {
		if !registry.Has(c.Field) {
			return fmt.Errorf("%w %q: condition %d: %w: %s", ErrInvalidRule, label, i, domain.ErrUnknownField, c.Field)
		}
		if !c.Operator.Valid() {
			return fmt.Errorf("%w %q: condition %d: %w: %s", ErrInvalidRule, label, i, domain.ErrUnknownOperator, c.Operator)
		}
		if err := validateValue(c, regexes); err != nil {
			return fmt.Errorf("%w %q: condition %d: %w", ErrInvalidRule, label, i, err)
		}
	}

	for i, a := range rule.Actions {
		if !validAction(a.ActionType) {
			return fmt.Errorf("%w %q: action %d: unknown action type %q", ErrInvalidRule, label, i, a.ActionType)
		}
	}
	return nil
}

func validateValue(c domain.RuleCondition, regexes map[string]*regexp.Regexp) error {
	switch c.Operator {
	case domain.OpGreaterThan, domain.OpGreaterOrEqual, domain.OpLessThan, domain.OpLessOrEqual:
		if _, ok := toFloat(c.Value); !ok {
			return fmt.Errorf("%s needs a numeric value, got %v", c.Operator, c.Value)
		}
	case domain.OpIn, domain.OpNotIn:
		if _, ok := toList(c.Value); !ok {
			return fmt.Errorf("%s needs a list value, got %v", c.Operator, c.Value)
		}
	case domain.OpRegex:
		expr, ok := c.Value.(string)
		if !ok {
			return fmt.Errorf("regex needs a string value, got %v", c.Value)
		}
		if _, seen := regexes[expr]; seen {
			return nil
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return fmt.Errorf("compile regex: %w", err)
		}
		regexes[expr] = re
	}
	if c.Weight < 0 {
		return fmt.Errorf("weight must not be negative, got %v", c.Weight)
	}
	return nil
}

func validAction(t domain.ActionType) bool {
	switch t {
	case domain.ActionSetStatus, domain.ActionAddFlag, domain.ActionAssignReviewer,
		domain.ActionSendNotification, domain.ActionModifyScore, domain.ActionAddRecommendation:
		return true
	default:
		return false
	}
}

func priorityRank(p domain.Priority) int {
	switch p {
	case domain.PriorityCritical:
		return 4
	case domain.PriorityHigh:
		return 3
	case domain.PriorityMedium:
		return 2
	default:
		return 1
	}
}

// Version identifies the snapshot; it increases with every refresh.
func (s *Snapshot) Version() int64 { return s.version }

// LoadedAt is when the snapshot was built.
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

// Rules returns a copy of the snapshot's rules.
func (s *Snapshot) Rules() []domain.QualityRule { return slices.Clone(s.rules) }

// Len is the number of active rules.
func (s *Snapshot) Len() int { return len(s.rules) }

// Applicable returns the rules whose filters admit contentType and geoScope.
func (s *Snapshot) Applicable(contentType domain.ContentType, geoScope string) []*domain.QualityRule {
	out := make([]*domain.QualityRule, 0, len(s.rules))
	for i := range s.rules {
		if s.rules[i].AppliesTo(contentType, geoScope) {
			out = append(out, &s.rules[i])
		}
	}
	return out
}

// Thresholds returns the configured thresholds for ct, or the built-in defaults.
func (s *Snapshot) Thresholds(ct domain.ContentType) domain.QualityThresholds {
	if t, ok := s.thresholds[ct]; ok {
		return t
	}
	return domain.DefaultThresholds(ct)
}

// Evaluate runs every applicable rule against ec, in snapshot order.
func (s *Snapshot) Evaluate(ec *EvalContext) []domain.RuleEvaluationResult {
	applicable := s.Applicable(ec.Content.Type(), ec.Content.Scope())
	results := make([]domain.RuleEvaluationResult, 0, len(applicable))
	for _, rule := range applicable {
		results = append(results, s.evaluateRule(rule, ec))
	}
	return results
}
