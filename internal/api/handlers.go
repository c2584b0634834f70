// Package api exposes the quality engine over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	infralogger "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/processor"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/rules"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/storage"
)

const defaultMaxBatchSize = 100

// Evaluator evaluates single submissions.
type Evaluator interface {
	Evaluate(ctx context.Context, content *domain.ContentInput) (*domain.QualityDecision, error)
	Stats() rules.Stats
}

// BatchProcessor evaluates submissions concurrently.
type BatchProcessor interface {
	Process(ctx context.Context, items []*domain.ContentInput) []processor.BatchResult
}

// Reloader rebuilds the rule snapshot.
type Reloader interface {
	Reload(ctx context.Context) (*rules.Snapshot, error)
}

// ThresholdStore reads and writes per content type thresholds.
type ThresholdStore interface {
	GetThresholds(ctx context.Context, contentType domain.ContentType) (*domain.QualityThresholds, error)
	UpsertThresholds(ctx context.Context, t *domain.QualityThresholds) error
}

// DecisionReader reads persisted decisions.
type DecisionReader interface {
	GetDecision(ctx context.Context, contentID string) (*domain.QualityDecision, error)
	GetStats(ctx context.Context) (*domain.DecisionStats, error)
}

// DecisionSearcher queries the decision search index.
type DecisionSearcher interface {
	Search(ctx context.Context, q storage.DecisionQuery) ([]domain.QualityDecision, error)
}

// SourceLister lists trusted sources.
type SourceLister interface {
	ListTrustedSources(ctx context.Context, types []domain.SourceType) ([]domain.TrustedSource, error)
}

// Clusterer groups stored fingerprints into duplicate clusters.
type Clusterer interface {
	ClusterStored(ctx context.Context, contentType domain.ContentType) ([]domain.DuplicateCluster, error)
}

// DeadLetterStats reports dead-letter queue depth.
type DeadLetterStats interface {
	GetStats(ctx context.Context) (*domain.DLQStats, error)
}

// Deps are the handler collaborators. Evaluator, Rules and Registry are
// required; endpoints whose collaborator is nil answer 503.
type Deps struct {
	Evaluator    Evaluator
	Batch        BatchProcessor
	Rules        rules.RuleRepository
	Registry     *rules.FieldRegistry
	Reloader     Reloader
	Thresholds   ThresholdStore
	Decisions    DecisionReader
	Search       DecisionSearcher
	Sources      SourceLister
	Clusters     Clusterer
	DeadLetters  DeadLetterStats
	MaxBatchSize int
}

// Handler handles HTTP requests for the quality engine API.
type Handler struct {
	deps   Deps
	logger infralogger.Logger
}

// NewHandler creates a new API handler.
func NewHandler(deps Deps, logger infralogger.Logger) *Handler {
	if deps.MaxBatchSize <= 0 {
		deps.MaxBatchSize = defaultMaxBatchSize
	}
	if deps.Registry == nil {
		deps.Registry = rules.NewFieldRegistry()
	}
	return &Handler{deps: deps, logger: logger}
}

// requestLogger returns the request-scoped logger set by the request ID middleware.
func (h *Handler) requestLogger(c *gin.Context) infralogger.Logger {
	return infralogger.FromContext(c.Request.Context(), h.logger)
}

// Evaluate handles POST /api/v1/evaluate
func (h *Handler) Evaluate(c *gin.Context) {
	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	decision, err := h.deps.Evaluator.Evaluate(c.Request.Context(), req.Content)
	if err != nil {
		h.handleEvaluateError(c, req.Content, err)
		return
	}

	c.JSON(http.StatusOK, EvaluateResponse{Decision: decision})
}

func (h *Handler) handleEvaluateError(c *gin.Context, content *domain.ContentInput, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	h.requestLogger(c).Error("Evaluation failed",
		infralogger.String("content_id", content.ID),
		infralogger.Error(err),
	)
	respondError(c, http.StatusInternalServerError, "evaluation failed")
}

// EvaluateBatch handles POST /api/v1/evaluate/batch
func (h *Handler) EvaluateBatch(c *gin.Context) {
	if h.deps.Batch == nil {
		respondUnavailable(c, "batch evaluation")
		return
	}

	var req BatchEvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Contents) > h.deps.MaxBatchSize {
		respondError(c, http.StatusBadRequest, "batch exceeds "+strconv.Itoa(h.deps.MaxBatchSize)+" items")
		return
	}

	results := h.deps.Batch.Process(c.Request.Context(), req.Contents)

	resp := BatchEvaluateResponse{
		Results: make([]BatchItemResponse, len(results)),
		Total:   len(results),
	}
	for i, r := range results {
		item := BatchItemResponse{ContentID: r.ContentID, Decision: r.Decision}
		if r.Err != nil {
			item.Error = r.Err.Error()
			resp.Failed++
		} else {
			resp.Success++
		}
		resp.Results[i] = item
	}

	h.requestLogger(c).Info("Batch evaluation completed",
		infralogger.Int("total", resp.Total),
		infralogger.Int("success", resp.Success),
		infralogger.Int("failed", resp.Failed),
	)
	c.JSON(http.StatusOK, resp)
}

// GetDecision handles GET /api/v1/decisions/:content_id
func (h *Handler) GetDecision(c *gin.Context) {
	if h.deps.Decisions == nil {
		respondUnavailable(c, "decision store")
		return
	}

	contentID := c.Param("content_id")
	decision, err := h.deps.Decisions.GetDecision(c.Request.Context(), contentID)
	if errors.Is(err, domain.ErrNotFound) {
		respondError(c, http.StatusNotFound, "decision not found")
		return
	}
	if err != nil {
		h.requestLogger(c).Error("Failed to load decision",
			infralogger.String("content_id", contentID),
			infralogger.Error(err),
		)
		respondError(c, http.StatusInternalServerError, "failed to load decision")
		return
	}

	c.JSON(http.StatusOK, EvaluateResponse{Decision: decision})
}

// SearchDecisions handles GET /api/v1/decisions/search
func (h *Handler) SearchDecisions(c *gin.Context) {
	if h.deps.Search == nil {
		respondUnavailable(c, "decision search")
		return
	}

	q := storage.DecisionQuery{
		Decision:    domain.Decision(c.Query("decision")),
		ContentType: domain.ContentType(c.Query("content_type")),
		Reviewer:    c.Query("reviewer"),
	}
	if raw := c.Query("min_score"); raw != "" {
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(c, http.StatusBadRequest, "min_score must be a number")
			return
		}
		q.MinScore = &score
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "limit must be an integer")
			return
		}
		q.Limit = limit
	}

	decisions, err := h.deps.Search.Search(c.Request.Context(), q)
	if err != nil {
		h.requestLogger(c).Error("Decision search failed", infralogger.Error(err))
		respondError(c, http.StatusBadGateway, "decision search failed")
		return
	}

	c.JSON(http.StatusOK, DecisionListResponse{Decisions: decisions, Total: len(decisions)})
}

// GetThresholds handles GET /api/v1/thresholds/:content_type
func (h *Handler) GetThresholds(c *gin.Context) {
	ct, ok := contentTypeParam(c)
	if !ok {
		return
	}

	thresholds := domain.DefaultThresholds(ct)
	source := "default"
	if h.deps.Thresholds != nil {
		stored, err := h.deps.Thresholds.GetThresholds(c.Request.Context(), ct)
		switch {
		case err == nil:
			thresholds = *stored
			source = "stored"
		case !errors.Is(err, domain.ErrNotFound):
			h.requestLogger(c).Error("Failed to load thresholds",
				infralogger.String("content_type", string(ct)),
				infralogger.Error(err),
			)
			respondError(c, http.StatusInternalServerError, "failed to load thresholds")
			return
		}
	}

	c.JSON(http.StatusOK, ThresholdsResponse{Thresholds: thresholds, Source: source})
}

// UpdateThresholds handles PUT /api/v1/thresholds/:content_type
func (h *Handler) UpdateThresholds(c *gin.Context) {
	if h.deps.Thresholds == nil {
		respondUnavailable(c, "threshold store")
		return
	}
	ct, ok := contentTypeParam(c)
	if !ok {
		return
	}

	var thresholds domain.QualityThresholds
	if err := c.ShouldBindJSON(&thresholds); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	thresholds.ContentType = ct
	if err := validateThresholds(thresholds); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.deps.Thresholds.UpsertThresholds(c.Request.Context(), &thresholds); err != nil {
		h.requestLogger(c).Error("Failed to store thresholds",
			infralogger.String("content_type", string(ct)),
			infralogger.Error(err),
		)
		respondError(c, http.StatusInternalServerError, "failed to store thresholds")
		return
	}
	h.reload(c.Request.Context())

	c.JSON(http.StatusOK, ThresholdsResponse{Thresholds: thresholds, Source: "stored"})
}

// ListSources handles GET /api/v1/sources
func (h *Handler) ListSources(c *gin.Context) {
	if h.deps.Sources == nil {
		respondUnavailable(c, "trusted sources")
		return
	}

	var types []domain.SourceType
	if raw := c.Query("type"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				types = append(types, domain.SourceType(t))
			}
		}
	}

	sources, err := h.deps.Sources.ListTrustedSources(c.Request.Context(), types)
	if err != nil {
		h.requestLogger(c).Error("Failed to list trusted sources", infralogger.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to list trusted sources")
		return
	}

	c.JSON(http.StatusOK, SourceListResponse{Sources: sources, Total: len(sources)})
}

// ListClusters handles GET /api/v1/duplicates/clusters
func (h *Handler) ListClusters(c *gin.Context) {
	if h.deps.Clusters == nil {
		respondUnavailable(c, "fingerprint store")
		return
	}

	ct := domain.ContentType(c.DefaultQuery("content_type", string(domain.ContentTypeNews)))
	if !ct.Valid() {
		respondError(c, http.StatusBadRequest, "unknown content type")
		return
	}

	clusters, err := h.deps.Clusters.ClusterStored(c.Request.Context(), ct)
	if err != nil {
		h.requestLogger(c).Error("Duplicate clustering failed",
			infralogger.String("content_type", string(ct)),
			infralogger.Error(err),
		)
		respondError(c, http.StatusInternalServerError, "duplicate clustering failed")
		return
	}

	c.JSON(http.StatusOK, ClusterListResponse{
		ContentType: ct,
		Clusters:    clusters,
		Total:       len(clusters),
	})
}

// GetStats handles GET /api/v1/stats
func (h *Handler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()
	resp := StatsResponse{Engine: h.deps.Evaluator.Stats()}

	if h.deps.Decisions != nil {
		stored, err := h.deps.Decisions.GetStats(ctx)
		if err != nil {
			h.requestLogger(c).Warn("Stored decision stats unavailable", infralogger.Error(err))
		} else {
			resp.Stored = stored
		}
	}
	if h.deps.DeadLetters != nil {
		dlq, err := h.deps.DeadLetters.GetStats(ctx)
		if err != nil {
			h.requestLogger(c).Warn("Dead letter stats unavailable", infralogger.Error(err))
		} else {
			resp.DeadLetters = dlq
		}
	}

	c.JSON(http.StatusOK, resp)
}

func contentTypeParam(c *gin.Context) (domain.ContentType, bool) {
	ct := domain.ContentType(c.Param("content_type"))
	if !ct.Valid() {
		respondError(c, http.StatusBadRequest, "unknown content type")
		return "", false
	}
	return ct, true
}

func respondError(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

func respondUnavailable(c *gin.Context, what string) {
	respondError(c, http.StatusServiceUnavailable, what+" is not configured")
}
