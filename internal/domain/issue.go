package domain

import "math"

// Severity of an Issue.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Deduction is the safety-score penalty per issue of this severity.
func (s Severity) Deduction() float64 {
	switch s {
	case SeverityCritical:
		return 30
	case SeverityHigh:
		return 20
	case SeverityMedium:
		return 10
	case SeverityLow:
		return 5
	default:
		return 0
	}
}

// Rank orders severities, low=1 .. critical=4.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Span locates an issue in the scanned text by byte offsets.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Issue is one finding produced by a sub-check.
type Issue struct {
	Type        string   `json:"type"`
	Category    string   `json:"category,omitempty"`
	Severity    Severity `json:"severity"`
	Confidence  float64  `json:"confidence"`
	Description string   `json:"description"`
	Location    *Span    `json:"location,omitempty"`
	Suggestion  string   `json:"suggestion,omitempty"`
}

// HasSeverity reports whether any issue has exactly severity s.
func HasSeverity(issues []Issue, s Severity) bool {
	for i := range issues {
		if issues[i].Severity == s {
			return true
		}
	}
	return false
}

// CountSeverity counts issues with severity s.
func CountSeverity(issues []Issue, s Severity) int {
	n := 0
	for i := range issues {
		if issues[i].Severity == s {
			n++
		}
	}
	return n
}

const (
	MinScore = 0
	MaxScore = 100
)

// ClampScore bounds v to [0,100]. NaN maps to 0.
func ClampScore(v float64) float64 {
	if math.IsNaN(v) {
		return MinScore
	}
	return math.Max(MinScore, math.Min(MaxScore, v))
}

// RoundScore clamps and rounds to the nearest integer.
func RoundScore(v float64) float64 {
	return math.Round(ClampScore(v))
}
