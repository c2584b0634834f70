package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
)

// SourceRepository reads the trusted sources used by fact verification.
type SourceRepository struct {
	db *sqlx.DB
}

// NewSourceRepository creates a new trusted source repository.
func NewSourceRepository(db *sqlx.DB) *SourceRepository {
	return &SourceRepository{db: db}
}

// ListTrustedSources returns active sources, most reliable first.
// A nil or empty types slice returns every type.
func (r *SourceRepository) ListTrustedSources(
	ctx context.Context,
	types []domain.SourceType,
) ([]domain.TrustedSource, error) {
	query := `
		SELECT id, name, source_type, url, reliability_score, keywords, active, created_at, updated_at
		FROM trusted_sources
		WHERE active = true
	`
	var args []any
	if len(types) > 0 {
		names := make([]string, len(types))
		for i, t := range types {
			names[i] = string(t)
		}
		query += ` AND source_type = ANY($1)`
		args = append(args, pq.Array(names))
	}
	query += ` ORDER BY reliability_score DESC, name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list trusted sources: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sources []domain.TrustedSource
	for rows.Next() {
		var s domain.TrustedSource
		scanErr := rows.Scan(
			&s.ID,
			&s.Name,
			&s.SourceType,
			&s.URL,
			&s.ReliabilityScore,
			pq.Array(&s.Keywords),
			&s.Active,
			&s.CreatedAt,
			&s.UpdatedAt,
		)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan trusted source: %w", scanErr)
		}
		sources = append(sources, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trusted sources: %w", err)
	}

	return sources, nil
}

// CreateSource inserts a trusted source.
func (r *SourceRepository) CreateSource(ctx context.Context, s *domain.TrustedSource) error {
	query := `
		INSERT INTO trusted_sources (name, source_type, url, reliability_score, keywords, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		s.Name,
		s.SourceType,
		s.URL,
		s.ReliabilityScore,
		pq.Array(s.Keywords),
		s.Active,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create trusted source: %w", err)
	}

	return nil
}
