package domain

// ComplianceLevel grades cultural sensitivity.
type ComplianceLevel string

const (
	ComplianceExcellent        ComplianceLevel = "excellent"
	ComplianceGood             ComplianceLevel = "good"
	ComplianceAcceptable       ComplianceLevel = "acceptable"
	ComplianceNeedsImprovement ComplianceLevel = "needs_improvement"
	ComplianceInappropriate    ComplianceLevel = "inappropriate"
)

// CulturalAssessment breaks the cultural sensitivity score into its dimensions.
type CulturalAssessment struct {
	ReligiousSensitivity float64         `json:"religious_sensitivity"`
	SocialNorms          float64         `json:"social_norms"`
	LanguageAppropriate  float64         `json:"language_appropriateness"`
	LocalRelevance       float64         `json:"local_relevance"`
	BusinessEtiquette    float64         `json:"business_etiquette"`
	CulturalAwareness    float64         `json:"cultural_awareness"`
	OverallScore         float64         `json:"overall_score"`
	ComplianceLevel      ComplianceLevel `json:"compliance_level"`
	Issues               []Issue         `json:"issues,omitempty"`
}

// AssessmentResult holds the eight content assessment sub-scores.
type AssessmentResult struct {
	ContentQuality       float64            `json:"content_quality"`
	Grammar              float64            `json:"grammar"`
	Readability          float64            `json:"readability"`
	SEO                  float64            `json:"seo"`
	BrandVoice           float64            `json:"brand_voice"`
	CulturalSensitivity  float64            `json:"cultural_sensitivity"`
	FactualAccuracy      float64            `json:"factual_accuracy"`
	ImageQuality         float64            `json:"image_quality"`
	OverallScore         float64            `json:"overall_score"`
	AutoApproveEligible  bool               `json:"auto_approve_eligible"`
	ManualReviewRequired bool               `json:"manual_review_required"`
	WordCount            int                `json:"word_count"`
	FleschScore          float64            `json:"flesch_score"`
	Cultural             CulturalAssessment `json:"cultural"`
	Issues               []Issue            `json:"issues,omitempty"`
	Recommendations      []string           `json:"recommendations,omitempty"`
}

// ModerationStatus is the safety classification of content.
type ModerationStatus string

const (
	ModerationSafe        ModerationStatus = "safe"
	ModerationNeedsReview ModerationStatus = "needs_review"
	ModerationUnsafe      ModerationStatus = "unsafe"
	ModerationBlocked     ModerationStatus = "blocked"
)

// ModerationAction is the automatic action implied by a moderation status.
type ModerationAction string

const (
	ModerationActionApprove ModerationAction = "approve"
	ModerationActionReview  ModerationAction = "review"
	ModerationActionReject  ModerationAction = "reject"
	ModerationActionBlock   ModerationAction = "block"
)

// DemographicBalance scores how evenly groups are represented.
type DemographicBalance struct {
	GenderBalance      float64 `json:"gender_balance"`
	AgeInclusivity     float64 `json:"age_inclusivity"`
	NationalityBalance float64 `json:"nationality_balance"`
	Score              float64 `json:"score"`
}

// LanguageBias scores loaded and manipulative language.
type LanguageBias struct {
	LoadedLanguageCount   int     `json:"loaded_language_count"`
	EmotionalManipulation float64 `json:"emotional_manipulation"`
	Objectivity           float64 `json:"objectivity"`
	Score                 float64 `json:"score"`
}

// CulturalBias scores stereotyping and local awareness.
type CulturalBias struct {
	Stereotyping             bool    `json:"stereotyping"`
	LocalContextAwareness    float64 `json:"local_context_awareness"`
	RespectfulRepresentation float64 `json:"respectful_representation"`
	Score                    float64 `json:"score"`
}

// BiasAnalysis is the separate bias assessment averaged into OverallBiasScore.
type BiasAnalysis struct {
	Demographic      DemographicBalance `json:"demographic"`
	Language         LanguageBias       `json:"language"`
	Cultural         CulturalBias       `json:"cultural"`
	BiasTypes        []string           `json:"bias_types,omitempty"`
	OverallBiasScore float64            `json:"overall_bias_score"`
}

// LegalCompliance flags legal exposure.
type LegalCompliance struct {
	DefamationRisk         bool     `json:"defamation_risk"`
	PrivacyExposure        bool     `json:"privacy_exposure"`
	CopyrightConcern       bool     `json:"copyright_concern"`
	RegulatedActivities    []string `json:"regulated_activities,omitempty"`
	OverallComplianceScore float64  `json:"overall_compliance_score"`
}

// ModerationResult is the content moderation sub-result.
type ModerationResult struct {
	SafetyScore         float64          `json:"overall_safety_score"`
	IssueScore          float64          `json:"issue_score"`
	Bias                BiasAnalysis     `json:"bias"`
	Legal               LegalCompliance  `json:"legal"`
	Status              ModerationStatus `json:"moderation_status"`
	AutoAction          ModerationAction `json:"auto_action"`
	RequiresHumanReview bool             `json:"requires_human_review"`
	Issues              []Issue          `json:"issues,omitempty"`
}

// DuplicateType is the tier of a duplicate match.
type DuplicateType string

const (
	DuplicateNone    DuplicateType = "none"
	DuplicateExact   DuplicateType = "exact"
	DuplicateNear    DuplicateType = "near"
	DuplicateSimilar DuplicateType = "similar"
)

// DuplicateResult is the duplicate detection sub-result.
type DuplicateResult struct {
	IsDuplicate      bool          `json:"is_duplicate"`
	DuplicateType    DuplicateType `json:"duplicate_type"`
	SimilarityScore  float64       `json:"similarity_score"`
	MatchedContentID string        `json:"matched_content_id,omitempty"`
	Score            float64       `json:"score"`
	Fingerprint      *Fingerprint  `json:"fingerprint,omitempty"`
	Warnings         []string      `json:"warnings,omitempty"`
}

// ClaimType classifies an extracted claim.
type ClaimType string

const (
	ClaimStatistic    ClaimType = "statistic"
	ClaimDate         ClaimType = "date"
	ClaimLocation     ClaimType = "location"
	ClaimPerson       ClaimType = "person"
	ClaimOrganization ClaimType = "organization"
	ClaimEvent        ClaimType = "event"
	ClaimGeneral      ClaimType = "general"
)

// ClaimImportance weights claims in the overall confidence.
type ClaimImportance string

const (
	ImportanceHigh   ClaimImportance = "high"
	ImportanceMedium ClaimImportance = "medium"
	ImportanceLow    ClaimImportance = "low"
)

// Weight is 3, 2 or 1.
func (i ClaimImportance) Weight() float64 {
	switch i {
	case ImportanceHigh:
		return 3
	case ImportanceMedium:
		return 2
	default:
		return 1
	}
}

// VerificationStatus of a single claim.
type VerificationStatus string

const (
	ClaimVerified   VerificationStatus = "verified"
	ClaimDisputed   VerificationStatus = "disputed"
	ClaimUnverified VerificationStatus = "unverified"
)

// ClaimVerification is the verdict for one extracted claim.
type ClaimVerification struct {
	Claim                string             `json:"claim"`
	Type                 ClaimType          `json:"type"`
	Importance           ClaimImportance    `json:"importance"`
	Status               VerificationStatus `json:"status"`
	Confidence           float64            `json:"confidence"`
	SupportingSources    []string           `json:"supporting_sources,omitempty"`
	ContradictingSources []string           `json:"contradicting_sources,omitempty"`
	Notes                []string           `json:"notes,omitempty"`
	Location             *Span              `json:"location,omitempty"`
}

// FactCheckResult is the fact verification sub-result.
type FactCheckResult struct {
	Claims               []ClaimVerification `json:"claims,omitempty"`
	Confidence           float64             `json:"confidence"`
	VerifiedCount        int                 `json:"verified_count"`
	DisputedCount        int                 `json:"disputed_count"`
	UnverifiedCount      int                 `json:"unverified_count"`
	RequiresManualReview bool                `json:"requires_manual_review"`
	Warnings             []string            `json:"warnings,omitempty"`
}
