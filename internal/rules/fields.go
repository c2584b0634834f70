package rules

import (
	"fmt"
	"slices"
	"sort"
	"unicode/utf8"

	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/patterns"
)

// EvalContext is everything a rule condition can look at.
// Sub-results may be nil when their check did not run.
type EvalContext struct {
	Content    *domain.ContentInput
	Assessment *domain.AssessmentResult
	Moderation *domain.ModerationResult
	Duplicate  *domain.DuplicateResult
	FactCheck  *domain.FactCheckResult
}

// Getter resolves one field. ok is false when the source sub-result is missing.
type Getter func(ec *EvalContext) (value any, ok bool)

// FieldRegistry maps dot-path field names to getters.
type FieldRegistry struct {
	getters map[string]Getter
}

// Resolve returns the value of field for ec.
func (r *FieldRegistry) Resolve(field string, ec *EvalContext) (any, error) {
	get, ok := r.getters[field]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownField, field)
	}
	v, ok := get(ec)
	if !ok {
		return nil, fmt.Errorf("field %s could not be resolved", field)
	}
	return v, nil
}

// Has reports whether field is registered.
func (r *FieldRegistry) Has(field string) bool {
	_, ok := r.getters[field]
	return ok
}

// Fields lists the registered field names in sorted order.
func (r *FieldRegistry) Fields() []string {
	out := make([]string, 0, len(r.getters))
	for name := range r.getters {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Register adds or replaces a getter.
func (r *FieldRegistry) Register(field string, get Getter) {
	r.getters[field] = get
}

func fromContent(f func(c *domain.ContentInput) any) Getter {
	return func(ec *EvalContext) (any, bool) {
		if ec.Content == nil {
			return nil, false
		}
		return f(ec.Content), true
	}
}

func fromAssessment(f func(a *domain.AssessmentResult) any) Getter {
	return func(ec *EvalContext) (any, bool) {
		if ec.Assessment == nil {
			return nil, false
		}
		return f(ec.Assessment), true
	}
}

func fromModeration(f func(m *domain.ModerationResult) any) Getter {
	return func(ec *EvalContext) (any, bool) {
		if ec.Moderation == nil {
			return nil, false
		}
		return f(ec.Moderation), true
	}
}

func fromDuplicate(f func(d *domain.DuplicateResult) any) Getter {
	return func(ec *EvalContext) (any, bool) {
		if ec.Duplicate == nil {
			return nil, false
		}
		return f(ec.Duplicate), true
	}
}

func fromFactCheck(f func(fc *domain.FactCheckResult) any) Getter {
	return func(ec *EvalContext) (any, bool) {
		if ec.FactCheck == nil {
			return nil, false
		}
		return f(ec.FactCheck), true
	}
}

// NewFieldRegistry returns the registry of every field rules may reference.
func NewFieldRegistry() *FieldRegistry {
	r := &FieldRegistry{getters: make(map[string]Getter)}

	r.Register("content.content_type", fromContent(func(c *domain.ContentInput) any { return string(c.Type()) }))
	r.Register("content.geographic_scope", fromContent(func(c *domain.ContentInput) any { return c.Scope() }))
	r.Register("content.author", fromContent(func(c *domain.ContentInput) any { return c.Author }))
	r.Register("content.target_audience", fromContent(func(c *domain.ContentInput) any { return c.TargetAudience }))
	r.Register("content.title", fromContent(func(c *domain.ContentInput) any { return c.Title }))
	r.Register("content.body", fromContent(func(c *domain.ContentInput) any { return c.Body }))
	r.Register("content.title_length", fromContent(func(c *domain.ContentInput) any {
		return float64(utf8.RuneCountInString(c.Title))
	}))
	r.Register("content.body_length", fromContent(func(c *domain.ContentInput) any {
		return float64(utf8.RuneCountInString(c.Body))
	}))
	r.Register("content.word_count", fromContent(func(c *domain.ContentInput) any {
		return float64(patterns.WordCount(c.Body))
	}))
	r.Register("content.image_count", fromContent(func(c *domain.ContentInput) any { return float64(len(c.Images)) }))
	r.Register("content.has_excerpt", fromContent(func(c *domain.ContentInput) any { return c.Excerpt != "" }))

	registerAssessment(r)
	registerModeration(r)

	r.Register("duplicate.is_duplicate", fromDuplicate(func(d *domain.DuplicateResult) any { return d.IsDuplicate }))
	r.Register("duplicate.duplicate_type", fromDuplicate(func(d *domain.DuplicateResult) any { return string(d.DuplicateType) }))
	r.Register("duplicate.similarity_score", fromDuplicate(func(d *domain.DuplicateResult) any { return d.SimilarityScore }))
	r.Register("duplicate.score", fromDuplicate(func(d *domain.DuplicateResult) any { return d.Score }))

	r.Register("fact_check.confidence", fromFactCheck(func(fc *domain.FactCheckResult) any { return fc.Confidence }))
	r.Register("fact_check.claim_count", fromFactCheck(func(fc *domain.FactCheckResult) any { return float64(len(fc.Claims)) }))
	r.Register("fact_check.verified_count", fromFactCheck(func(fc *domain.FactCheckResult) any { return float64(fc.VerifiedCount) }))
	r.Register("fact_check.disputed_count", fromFactCheck(func(fc *domain.FactCheckResult) any { return float64(fc.DisputedCount) }))
	r.Register("fact_check.unverified_count", fromFactCheck(func(fc *domain.FactCheckResult) any {
		return float64(fc.UnverifiedCount)
	}))
	r.Register("fact_check.requires_manual_review", fromFactCheck(func(fc *domain.FactCheckResult) any {
		return fc.RequiresManualReview
	}))

	return r
}

func registerAssessment(r *FieldRegistry) {
	r.Register("assessment.overall_score", fromAssessment(func(a *domain.AssessmentResult) any { return a.OverallScore }))
	r.Register("assessment.content_quality", fromAssessment(func(a *domain.AssessmentResult) any { return a.ContentQuality }))
	r.Register("assessment.grammar", fromAssessment(func(a *domain.AssessmentResult) any { return a.Grammar }))
	r.Register("assessment.readability", fromAssessment(func(a *domain.AssessmentResult) any { return a.Readability }))
	r.Register("assessment.seo", fromAssessment(func(a *domain.AssessmentResult) any { return a.SEO }))
	r.Register("assessment.brand_voice", fromAssessment(func(a *domain.AssessmentResult) any { return a.BrandVoice }))
	r.Register("assessment.cultural_sensitivity", fromAssessment(func(a *domain.AssessmentResult) any {
		return a.CulturalSensitivity
	}))
	r.Register("assessment.factual_accuracy", fromAssessment(func(a *domain.AssessmentResult) any { return a.FactualAccuracy }))
	r.Register("assessment.image_quality", fromAssessment(func(a *domain.AssessmentResult) any { return a.ImageQuality }))
	r.Register("assessment.flesch_score", fromAssessment(func(a *domain.AssessmentResult) any { return a.FleschScore }))
	r.Register("assessment.word_count", fromAssessment(func(a *domain.AssessmentResult) any { return float64(a.WordCount) }))
	r.Register("assessment.auto_approve_eligible", fromAssessment(func(a *domain.AssessmentResult) any {
		return a.AutoApproveEligible
	}))
	r.Register("assessment.manual_review_required", fromAssessment(func(a *domain.AssessmentResult) any {
		return a.ManualReviewRequired
	}))
	r.Register("assessment.issue_count", fromAssessment(func(a *domain.AssessmentResult) any { return float64(len(a.Issues)) }))
	r.Register("assessment.cultural.overall_score", fromAssessment(func(a *domain.AssessmentResult) any {
		return a.Cultural.OverallScore
	}))
	r.Register("assessment.cultural.compliance_level", fromAssessment(func(a *domain.AssessmentResult) any {
		return string(a.Cultural.ComplianceLevel)
	}))
	r.Register("assessment.cultural.religious_sensitivity", fromAssessment(func(a *domain.AssessmentResult) any {
		return a.Cultural.ReligiousSensitivity
	}))
}

func registerModeration(r *FieldRegistry) {
	r.Register("moderation.overall_safety_score", fromModeration(func(m *domain.ModerationResult) any { return m.SafetyScore }))
	r.Register("moderation.issue_score", fromModeration(func(m *domain.ModerationResult) any { return m.IssueScore }))
	r.Register("moderation.moderation_status", fromModeration(func(m *domain.ModerationResult) any { return string(m.Status) }))
	r.Register("moderation.auto_action", fromModeration(func(m *domain.ModerationResult) any { return string(m.AutoAction) }))
	r.Register("moderation.requires_human_review", fromModeration(func(m *domain.ModerationResult) any {
		return m.RequiresHumanReview
	}))
	r.Register("moderation.issue_categories", fromModeration(func(m *domain.ModerationResult) any {
		return issueCategories(m.Issues)
	}))
	r.Register("moderation.critical_issue_count", fromModeration(func(m *domain.ModerationResult) any {
		return float64(domain.CountSeverity(m.Issues, domain.SeverityCritical))
	}))
	r.Register("moderation.high_issue_count", fromModeration(func(m *domain.ModerationResult) any {
		return float64(domain.CountSeverity(m.Issues, domain.SeverityHigh))
	}))
	r.Register("moderation.bias.overall_bias_score", fromModeration(func(m *domain.ModerationResult) any {
		return m.Bias.OverallBiasScore
	}))
	r.Register("moderation.bias.bias_types", fromModeration(func(m *domain.ModerationResult) any {
		return slices.Clone(m.Bias.BiasTypes)
	}))
	r.Register("moderation.legal.overall_compliance_score", fromModeration(func(m *domain.ModerationResult) any {
		return m.Legal.OverallComplianceScore
	}))
	r.Register("moderation.legal.defamation_risk", fromModeration(func(m *domain.ModerationResult) any {
		return m.Legal.DefamationRisk
	}))
	r.Register("moderation.legal.privacy_exposure", fromModeration(func(m *domain.ModerationResult) any {
		return m.Legal.PrivacyExposure
	}))
	r.Register("moderation.legal.copyright_concern", fromModeration(func(m *domain.ModerationResult) any {
		return m.Legal.CopyrightConcern
	}))
	r.Register("moderation.legal.regulated_activities", fromModeration(func(m *domain.ModerationResult) any {
		return slices.Clone(m.Legal.RegulatedActivities)
	}))
}

func issueCategories(issues []domain.Issue) []string {
	seen := make(map[string]struct{}, len(issues))
	out := make([]string, 0, len(issues))
	for _, is := range issues {
		if _, ok := seen[is.Category]; ok || is.Category == "" {
			continue
		}
		seen[is.Category] = struct{}{}
		out = append(out, is.Category)
	}
	sort.Strings(out)
	return out
}
