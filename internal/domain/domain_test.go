package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
)

func TestContentInput_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   domain.ContentInput
		wantErr error
	}{
		{"valid", domain.ContentInput{Title: "Dubai Metro", Body: "text"}, nil},
		{"missing title", domain.ContentInput{Body: "text"}, domain.ErrMissingTitle},
		{"blank body", domain.ContentInput{Title: "t", Body: "   "}, domain.ErrMissingBody},
		{"unknown type", domain.ContentInput{Title: "t", Body: "b", ContentType: "blog"}, domain.ErrInvalidContentType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.input.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			var vErr *domain.ValidationError
			if !errors.As(err, &vErr) {
				t.Errorf("error is %T, want *ValidationError", err)
			}
		})
	}
}

func TestContentInput_Defaults(t *testing.T) {
	t.Parallel()

	c := domain.ContentInput{Title: "t", Body: "b"}
	if c.Type() != domain.ContentTypeNews {
		t.Errorf("Type() = %s, want news", c.Type())
	}
	if c.Scope() != domain.ContentTypeAll {
		t.Errorf("Scope() = %s, want all", c.Scope())
	}
	if domain.ContentTypeEvents.Section() != domain.SectionThingsToDo {
		t.Errorf("events section = %s", domain.ContentTypeEvents.Section())
	}
}

func TestPriority_Severity(t *testing.T) {
	t.Parallel()

	want := map[domain.Priority]domain.RuleSeverity{
		domain.PriorityCritical: domain.RuleSeverityCritical,
		domain.PriorityHigh:     domain.RuleSeverityError,
		domain.PriorityMedium:   domain.RuleSeverityWarning,
		domain.PriorityLow:      domain.RuleSeverityInfo,
	}
	for p, sev := range want {
		if got := p.Severity(); got != sev {
			t.Errorf("%s.Severity() = %s, want %s", p, got, sev)
		}
	}
}

func TestQualityRule_AppliesTo(t *testing.T) {
	t.Parallel()

	rule := domain.QualityRule{ContentTypes: []string{"news", "government"}, GeographicScope: []string{"all"}}
	if !rule.AppliesTo(domain.ContentTypeNews, "dubai") {
		t.Error("news rule should apply to news in dubai")
	}
	if rule.AppliesTo(domain.ContentTypeTourism, "dubai") {
		t.Error("news rule should not apply to tourism")
	}

	scoped := domain.QualityRule{ContentTypes: []string{"all"}, GeographicScope: []string{"abu_dhabi"}}
	if scoped.AppliesTo(domain.ContentTypeEvents, "dubai") {
		t.Error("abu_dhabi rule should not apply to dubai")
	}
}

func TestConditions_ScanRoundTrip(t *testing.T) {
	t.Parallel()

	in := domain.Conditions{{Field: "assessment.overall_score", Operator: domain.OpGreaterOrEqual, Value: 70.0, Weight: 1}}
	raw, err := in.Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}

	var out domain.Conditions
	if err := out.Scan(raw); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(out) != 1 || out[0].Field != "assessment.overall_score" || out[0].Value != 70.0 {
		t.Errorf("Scan() = %+v", out)
	}
	if err := out.Scan(42); err == nil {
		t.Error("Scan(int) should fail")
	}
}

func TestDeadLetterEntry_Backoff(t *testing.T) {
	t.Parallel()

	entry, err := domain.NewDeadLetterEntry("c-1", domain.TargetDecisionStore, []byte(`{}`), errors.New("timeout"))
	if err != nil {
		t.Fatalf("NewDeadLetterEntry() error = %v", err)
	}

	want := []time.Duration{30 * time.Second, time.Minute, 2 * time.Minute, 4 * time.Minute, 8 * time.Minute}
	for i, d := range want {
		if got := entry.NextRetryDelay(); got != d {
			t.Errorf("attempt %d delay = %v, want %v", i, got, d)
		}
		entry.IncrementRetry(errors.New("still down"))
	}
	if entry.ShouldRetry() {
		t.Error("ShouldRetry() = true after max retries")
	}

	entry.RetryCount = 20
	if got := entry.NextRetryDelay(); got != 30*time.Minute {
		t.Errorf("capped delay = %v, want 30m", got)
	}
}

func TestNewDeadLetterEntry_Validation(t *testing.T) {
	t.Parallel()

	if _, err := domain.NewDeadLetterEntry("", domain.TargetDecisionStore, []byte("x"), nil); !errors.Is(err, domain.ErrInvalidDeadLetterEntry) {
		t.Errorf("error = %v, want ErrInvalidDeadLetterEntry", err)
	}
	if _, err := domain.NewDeadLetterEntry("c", domain.TargetDecisionStore, nil, nil); !errors.Is(err, domain.ErrInvalidDeadLetterEntry) {
		t.Errorf("error = %v, want ErrInvalidDeadLetterEntry", err)
	}
}

func TestClampScore(t *testing.T) {
	t.Parallel()

	for in, want := range map[float64]float64{-5: 0, 42.4: 42.4, 180: 100} {
		if got := domain.ClampScore(in); got != want {
			t.Errorf("ClampScore(%v) = %v, want %v", in, got, want)
		}
	}
	if got := domain.RoundScore(84.5); got != 85 {
		t.Errorf("RoundScore(84.5) = %v, want 85", got)
	}
}
