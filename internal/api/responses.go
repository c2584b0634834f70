package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/rules"
)

// EvaluateRequest is the body of POST /api/v1/evaluate.
type EvaluateRequest struct {
	Content *domain.ContentInput `binding:"required" json:"content"`
}

// EvaluateResponse wraps a single decision.
type EvaluateResponse struct {
	Decision *domain.QualityDecision `json:"decision"`
}

// BatchEvaluateRequest is the body of POST /api/v1/evaluate/batch.
type BatchEvaluateRequest struct {
	Contents []*domain.ContentInput `binding:"required,min=1" json:"contents"`
}

// BatchItemResponse is one batch outcome, in request order.
type BatchItemResponse struct {
	ContentID string                  `json:"content_id"`
	Decision  *domain.QualityDecision `json:"decision,omitempty"`
	Error     string                  `json:"error,omitempty"`
}

// BatchEvaluateResponse summarizes a batch.
type BatchEvaluateResponse struct {
	Results []BatchItemResponse `json:"results"`
	Total   int                 `json:"total"`
	Success int                 `json:"success"`
	Failed  int                 `json:"failed"`
}

// DecisionListResponse is a page of search hits.
type DecisionListResponse struct {
	Decisions []domain.QualityDecision `json:"decisions"`
	Total     int                      `json:"total"`
}

// RuleListResponse lists rules.
type RuleListResponse struct {
	Rules []domain.QualityRule `json:"rules"`
	Total int                  `json:"total"`
}

// ReloadResponse describes the installed snapshot.
type ReloadResponse struct {
	Version  int64     `json:"version"`
	Rules    int       `json:"rules"`
	LoadedAt time.Time `json:"loaded_at"`
}

// ThresholdsResponse carries thresholds and whether they were stored or built in.
type ThresholdsResponse struct {
	Thresholds domain.QualityThresholds `json:"thresholds"`
	Source     string                   `json:"source"`
}

// SourceListResponse lists trusted sources.
type SourceListResponse struct {
	Sources []domain.TrustedSource `json:"sources"`
	Total   int                    `json:"total"`
}

// ClusterListResponse lists the clusters formed by one clustering run.
type ClusterListResponse struct {
	ContentType domain.ContentType        `json:"content_type"`
	Clusters    []domain.DuplicateCluster `json:"clusters"`
	Total       int                       `json:"total"`
}

// StatsResponse combines in-process counters with stored aggregates.
type StatsResponse struct {
	Engine      rules.Stats           `json:"engine"`
	Stored      *domain.DecisionStats `json:"stored,omitempty"`
	DeadLetters *domain.DLQStats      `json:"dead_letters,omitempty"`
}

func validateThresholds(t domain.QualityThresholds) error {
	scores := map[string]float64{
		"min_content_quality":      t.MinContentQuality,
		"min_grammar":              t.MinGrammar,
		"min_readability":          t.MinReadability,
		"min_seo":                  t.MinSEO,
		"min_brand_voice":          t.MinBrandVoice,
		"min_cultural_sensitivity": t.MinCulturalSensitivity,
		"min_factual_accuracy":     t.MinFactualAccuracy,
		"min_image_quality":        t.MinImageQuality,
		"auto_approve_threshold":   t.AutoApproveThreshold,
		"manual_review_threshold":  t.ManualReviewThreshold,
		"auto_reject_threshold":    t.AutoRejectThreshold,
	}
	for name, v := range scores {
		if v < 0 || v > 100 {
			return fmt.Errorf("%s must be between 0 and 100", name)
		}
	}
	if t.AutoRejectThreshold > t.ManualReviewThreshold || t.ManualReviewThreshold > t.AutoApproveThreshold {
		return errors.New("thresholds must satisfy auto_reject <= manual_review <= auto_approve")
	}
	return nil
}
