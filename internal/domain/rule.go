package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRuleNotFound is returned when a rule ID does not exist.
	ErrRuleNotFound = errors.New("rule not found")
	// ErrUnknownField is returned for a condition field outside the field registry.
	ErrUnknownField = errors.New("unknown rule field")
	// ErrUnknownOperator is returned for an unsupported condition operator.
	ErrUnknownOperator = errors.New("unknown rule operator")
	// ErrNoSnapshot is returned when no rule snapshot has been loaded.
	ErrNoSnapshot = errors.New("rule snapshot unavailable")
)

// RuleType describes how a rule was authored.
type RuleType string

const (
	RuleTypeThreshold RuleType = "threshold"
	RuleTypeCondition RuleType = "condition"
	RuleTypePattern   RuleType = "pattern"
	RuleTypeComposite RuleType = "composite"
)

// Priority of a rule; determines the severity of its failure.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Severity maps critical→critical, high→error, medium→warning, low→info.
func (p Priority) Severity() RuleSeverity {
	switch p {
	case PriorityCritical:
		return RuleSeverityCritical
	case PriorityHigh:
		return RuleSeverityError
	case PriorityMedium:
		return RuleSeverityWarning
	default:
		return RuleSeverityInfo
	}
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}

// Operator compares a resolved field value with a condition value.
type Operator string

const (
	OpGreaterThan    Operator = "gt"
	OpGreaterOrEqual Operator = "gte"
	OpLessThan       Operator = "lt"
	OpLessOrEqual    Operator = "lte"
	OpEqual          Operator = "eq"
	OpNotEqual       Operator = "neq"
	OpContains       Operator = "contains"
	OpNotContains    Operator = "not_contains"
	OpRegex          Operator = "regex"
	OpIn             Operator = "in"
	OpNotIn          Operator = "not_in"
)

// Operators lists every supported operator.
func Operators() []Operator {
	return []Operator{
		OpGreaterThan, OpGreaterOrEqual, OpLessThan, OpLessOrEqual, OpEqual, OpNotEqual,
		OpContains, OpNotContains, OpRegex, OpIn, OpNotIn,
	}
}

// Valid reports whether o is a supported operator.
func (o Operator) Valid() bool {
	for _, known := range Operators() {
		if o == known {
			return true
		}
	}
	return false
}

// ActionType is what a failed rule does.
type ActionType string

const (
	ActionSetStatus         ActionType = "set_status"
	ActionAddFlag           ActionType = "add_flag"
	ActionAssignReviewer    ActionType = "assign_reviewer"
	ActionSendNotification  ActionType = "send_notification"
	ActionModifyScore       ActionType = "modify_score"
	ActionAddRecommendation ActionType = "add_recommendation"
)

// RuleCondition is one comparison inside a rule.
type RuleCondition struct {
	Field    string   `json:"field"    yaml:"field"`
	Operator Operator `json:"operator" yaml:"operator"`
	Value    any      `json:"value"    yaml:"value"`
	Weight   float64  `json:"weight"   yaml:"weight"`
}

// RuleAction is emitted when its rule fails.
type RuleAction struct {
	ActionType ActionType     `json:"action_type"          yaml:"action_type"`
	Parameters map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// StringParam returns Parameters[key] when it is a string.
func (a RuleAction) StringParam(key string) string {
	if v, ok := a.Parameters[key].(string); ok {
		return v
	}
	return ""
}

// Conditions is stored as a JSONB column.
type Conditions []RuleCondition

// Actions is stored as a JSONB column.
type Actions []RuleAction

func (c Conditions) Value() (driver.Value, error) { return marshalJSONB(c) }
func (c *Conditions) Scan(src any) error          { return unmarshalJSONB(src, c) }
func (a Actions) Value() (driver.Value, error)    { return marshalJSONB(a) }
func (a *Actions) Scan(src any) error             { return unmarshalJSONB(src, a) }

func marshalJSONB(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal jsonb: %w", err)
	}
	return b, nil
}

func unmarshalJSONB(src, dst any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported jsonb source %T", src)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unmarshal jsonb: %w", err)
	}
	return nil
}

// QualityRule is an administrator-authored rule evaluated against every applicable submission.
type QualityRule struct {
	ID              string     `db:"id"               json:"id"                         yaml:"id"`
	Name            string     `db:"name"             json:"name"                       yaml:"name"`
	Description     string     `db:"description"      json:"description,omitempty"      yaml:"description,omitempty"`
	RuleType        RuleType   `db:"rule_type"        json:"rule_type"                  yaml:"rule_type"`
	Category        string     `db:"category"         json:"category"                   yaml:"category"`
	ContentTypes    []string   `db:"content_types"    json:"content_types"              yaml:"content_types"`
	GeographicScope []string   `db:"geographic_scope" json:"geographic_scope"           yaml:"geographic_scope"`
	Priority        Priority   `db:"priority"         json:"priority"                   yaml:"priority"`
	Active          bool       `db:"active"           json:"active"                     yaml:"active"`
	AutoAction      string     `db:"auto_action"      json:"auto_action,omitempty"      yaml:"auto_action,omitempty"`
	Conditions      Conditions `db:"conditions"       json:"conditions"                 yaml:"conditions"`
	Actions         Actions    `db:"actions"          json:"actions"                    yaml:"actions"`
	CreatedAt       time.Time  `db:"created_at"       json:"created_at"                 yaml:"-"`
	UpdatedAt       time.Time  `db:"updated_at"       json:"updated_at"                 yaml:"-"`
}

// AppliesTo reports whether the rule filters admit contentType and geoScope.
// Empty filter lists behave like "all".
func (r *QualityRule) AppliesTo(contentType ContentType, geoScope string) bool {
	return matchesFilter(r.ContentTypes, string(contentType)) && matchesFilter(r.GeographicScope, geoScope)
}

func matchesFilter(filter []string, value string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, f := range filter {
		if f == ContentTypeAll || f == value {
			return true
		}
	}
	return false
}

// Severity is the severity a failure of this rule carries.
func (r *QualityRule) Severity() RuleSeverity {
	return r.Priority.Severity()
}
