package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
)

// DecisionRepository persists quality decisions, one row per content ID.
type DecisionRepository struct {
	db *sqlx.DB
}

// NewDecisionRepository creates a new decision repository.
func NewDecisionRepository(db *sqlx.DB) *DecisionRepository {
	return &DecisionRepository{db: db}
}

// UpsertDecision inserts the decision or replaces the previous one for the same content.
func (r *DecisionRepository) UpsertDecision(ctx context.Context, d *domain.QualityDecision) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal decision: %w", err)
	}
	return r.UpsertPayload(ctx, d, payload)
}

// UpsertPayload writes an already marshaled decision document.
func (r *DecisionRepository) UpsertPayload(ctx context.Context, d *domain.QualityDecision, payload []byte) error {
	query := `
		INSERT INTO quality_decisions (
			content_id, content_type, section, decision, overall_score, confidence,
			snapshot_version, processing_time_ms, payload, evaluated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (content_id) DO UPDATE SET
			content_type = EXCLUDED.content_type,
			section = EXCLUDED.section,
			decision = EXCLUDED.decision,
			overall_score = EXCLUDED.overall_score,
			confidence = EXCLUDED.confidence,
			snapshot_version = EXCLUDED.snapshot_version,
			processing_time_ms = EXCLUDED.processing_time_ms,
			payload = EXCLUDED.payload,
			evaluated_at = EXCLUDED.evaluated_at,
			updated_at = NOW()
	`

	_, err := r.db.ExecContext(ctx, query,
		d.ContentID,
		d.ContentType,
		d.Section,
		d.Decision,
		d.OverallScore,
		d.Confidence,
		d.SnapshotVersion,
		d.ProcessingTimeMs,
		payload,
		d.EvaluatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert decision %s: %w", d.ContentID, err)
	}

	return nil
}

// GetDecision returns the stored decision for contentID, or domain.ErrNotFound.
func (r *DecisionRepository) GetDecision(ctx context.Context, contentID string) (*domain.QualityDecision, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM quality_decisions WHERE content_id = $1`, contentID,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("decision %s: %w", contentID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get decision: %w", err)
	}

	var d domain.QualityDecision
	if err = json.Unmarshal(payload, &d); err != nil {
		return nil, fmt.Errorf("failed to decode decision %s: %w", contentID, err)
	}

	return &d, nil
}

// GetStats aggregates stored decisions.
func (r *DecisionRepository) GetStats(ctx context.Context) (*domain.DecisionStats, error) {
	query := `
		SELECT decision, COUNT(*), COALESCE(AVG(overall_score), 0), COALESCE(AVG(confidence), 0)
		FROM quality_decisions
		GROUP BY decision
		ORDER BY decision
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get decision stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	stats := &domain.DecisionStats{ByDecision: make(map[domain.Decision]int64)}
	var scoreSum, confidenceSum float64
	for rows.Next() {
		var (
			decision      domain.Decision
			count         int64
			avgScore      float64
			avgConfidence float64
		)
		if scanErr := rows.Scan(&decision, &count, &avgScore, &avgConfidence); scanErr != nil {
			return nil, fmt.Errorf("failed to scan decision stats: %w", scanErr)
		}
		stats.ByDecision[decision] = count
		stats.Total += count
		scoreSum += avgScore * float64(count)
		confidenceSum += avgConfidence * float64(count)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating decision stats: %w", err)
	}

	if stats.Total > 0 {
		stats.AverageScore = scoreSum / float64(stats.Total)
		stats.AverageConfidence = confidenceSum / float64(stats.Total)
	}

	return stats, nil
}
