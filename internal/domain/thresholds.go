package domain

// QualityThresholds are the per content type minimums and decision cut-offs.
type QualityThresholds struct {
	ContentType            ContentType `db:"content_type"             json:"content_type"`
	MinContentQuality      float64     `db:"min_content_quality"      json:"min_content_quality"`
	MinGrammar             float64     `db:"min_grammar"              json:"min_grammar"`
	MinReadability         float64     `db:"min_readability"          json:"min_readability"`
	MinSEO                 float64     `db:"min_seo"                  json:"min_seo"`
	MinBrandVoice          float64     `db:"min_brand_voice"          json:"min_brand_voice"`
	MinCulturalSensitivity float64     `db:"min_cultural_sensitivity" json:"min_cultural_sensitivity"`
	MinFactualAccuracy     float64     `db:"min_factual_accuracy"     json:"min_factual_accuracy"`
	MinImageQuality        float64     `db:"min_image_quality"        json:"min_image_quality"`
	AutoApproveThreshold   float64     `db:"auto_approve_threshold"   json:"auto_approve_threshold"`
	ManualReviewThreshold  float64     `db:"manual_review_threshold"  json:"manual_review_threshold"`
	AutoRejectThreshold    float64     `db:"auto_reject_threshold"    json:"auto_reject_threshold"`
}

// DefaultThresholds returns the built-in thresholds for ct.
// Government content is held to the strictest bar; tourism and events the loosest.
func DefaultThresholds(ct ContentType) QualityThresholds {
	t := QualityThresholds{
		ContentType:            ct,
		MinContentQuality:      70,
		MinGrammar:             75,
		MinReadability:         60,
		MinSEO:                 60,
		MinBrandVoice:          60,
		MinCulturalSensitivity: 85,
		MinFactualAccuracy:     80,
		MinImageQuality:        60,
		AutoApproveThreshold:   85,
		ManualReviewThreshold:  70,
		AutoRejectThreshold:    40,
	}

	switch ct {
	case ContentTypeGovernment:
		t.MinGrammar = 85
		t.MinReadability = 50
		t.MinCulturalSensitivity = 95
		t.MinFactualAccuracy = 90
		t.AutoApproveThreshold = 90
		t.ManualReviewThreshold = 75
		t.AutoRejectThreshold = 50
	case ContentTypeTourism, ContentTypeEvents:
		t.MinSEO = 70
		t.MinImageQuality = 70
		t.AutoApproveThreshold = 80
		t.ManualReviewThreshold = 65
	case ContentTypePractical:
		t.MinReadability = 65
		t.AutoApproveThreshold = 82
		t.ManualReviewThreshold = 68
	case ContentTypeNews:
		t.MinFactualAccuracy = 85
	}
	return t
}
