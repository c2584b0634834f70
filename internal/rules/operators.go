package rules

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
)

// compare applies op to a resolved field value and the condition value.
// re is the precompiled pattern for OpRegex and ignored otherwise.
func compare(op domain.Operator, actual, expected any, re *regexp.Regexp) (bool, error) {
	switch op {
	case domain.OpGreaterThan, domain.OpGreaterOrEqual, domain.OpLessThan, domain.OpLessOrEqual:
		return compareOrdered(op, actual, expected)
	case domain.OpEqual:
		return equal(actual, expected), nil
	case domain.OpNotEqual:
		return !equal(actual, expected), nil
	case domain.OpContains:
		return contains(actual, expected), nil
	case domain.OpNotContains:
		return !contains(actual, expected), nil
	case domain.OpRegex:
		if re == nil {
			return false, fmt.Errorf("regex operator without compiled pattern")
		}
		s, ok := actual.(string)
		if !ok {
			return false, fmt.Errorf("regex needs a string field, got %T", actual)
		}
		return re.MatchString(s), nil
	case domain.OpIn, domain.OpNotIn:
		list, ok := toList(expected)
		if !ok {
			return false, fmt.Errorf("%s needs a list value, got %T", op, expected)
		}
		found := inList(actual, list)
		if op == domain.OpNotIn {
			return !found, nil
		}
		return found, nil
	default:
		return false, fmt.Errorf("%w: %s", domain.ErrUnknownOperator, op)
	}
}

func compareOrdered(op domain.Operator, actual, expected any) (bool, error) {
	a, ok := toFloat(actual)
	if !ok {
		return false, fmt.Errorf("%s needs a numeric field, got %T", op, actual)
	}
	e, ok := toFloat(expected)
	if !ok {
		return false, fmt.Errorf("%s needs a numeric value, got %T", op, expected)
	}
	switch op {
	case domain.OpGreaterThan:
		return a > e, nil
	case domain.OpGreaterOrEqual:
		return a >= e, nil
	case domain.OpLessThan:
		return a < e, nil
	default:
		return a <= e, nil
	}
}

func equal(actual, expected any) bool {
	if a, ok := toFloat(actual); ok {
		if e, ok := toFloat(expected); ok {
			return a == e
		}
	}
	if a, ok := actual.(bool); ok {
		e, ok := toBool(expected)
		return ok && a == e
	}
	return fmt.Sprint(actual) == fmt.Sprint(expected)
}

// contains is a case-insensitive substring test for strings and an element
// test for lists.
func contains(actual, expected any) bool {
	if list, ok := toList(actual); ok {
		return inList(expected, list)
	}
	s, ok := actual.(string)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(fmt.Sprint(expected)))
}

// inList reports whether value, or any element of value when it is a list,
// equals an element of list.
func inList(value any, list []any) bool {
	if values, ok := toList(value); ok {
		for _, v := range values {
			if inList(v, list) {
				return true
			}
		}
		return false
	}
	for _, item := range list {
		if equal(value, item) {
			return true
		}
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(b)
		return parsed, err == nil
	default:
		return false, false
	}
}

func toList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	case []float64:
		out := make([]any, len(l))
		for i, f := range l {
			out[i] = f
		}
		return out, true
	case []int:
		out := make([]any, len(l))
		for i, n := range l {
			out[i] = n
		}
		return out, true
	default:
		return nil, false
	}
}
