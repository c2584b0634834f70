package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
)

const fingerprintColumns = `content_id, content_type, content_hash, title_hash, semantic_hash,
		image_hashes, url_hash, key_phrases, cluster_id, created_at`

// hashColumns maps a lookup kind to its indexed column.
var hashColumns = map[domain.HashKind]string{
	domain.HashContent:  "content_hash",
	domain.HashTitle:    "title_hash",
	domain.HashSemantic: "semantic_hash",
	domain.HashURL:      "url_hash",
}

// FingerprintRepository is the Postgres fingerprint store.
type FingerprintRepository struct {
	db *sqlx.DB
}

// NewFingerprintRepository creates a new fingerprint repository.
func NewFingerprintRepository(db *sqlx.DB) *FingerprintRepository {
	return &FingerprintRepository{db: db}
}

// FindByHash returns fingerprints whose hash of the given kind equals hash.
func (r *FingerprintRepository) FindByHash(
	ctx context.Context,
	kind domain.HashKind,
	hash string,
) ([]domain.Fingerprint, error) {
	column, ok := hashColumns[kind]
	if !ok {
		return nil, fmt.Errorf("unknown hash kind %q", kind)
	}
	if hash == "" {
		return nil, nil
	}

	//nolint:gosec // column comes from hashColumns, not from input
	query := `SELECT ` + fingerprintColumns + ` FROM content_fingerprints WHERE ` + column + ` = $1 ORDER BY created_at ASC`
	return r.query(ctx, query, hash)
}

// ListByContentType returns up to limit of the most recent fingerprints of contentType.
func (r *FingerprintRepository) ListByContentType(
	ctx context.Context,
	contentType domain.ContentType,
	limit int,
) ([]domain.Fingerprint, error) {
	query := `SELECT ` + fingerprintColumns + `
		FROM content_fingerprints
		WHERE content_type = $1
		ORDER BY created_at DESC
		LIMIT $2`
	return r.query(ctx, query, contentType, limit)
}

// StoreFingerprint inserts fp or replaces the fingerprint stored for its content ID.
// An existing cluster assignment is kept.
func (r *FingerprintRepository) StoreFingerprint(ctx context.Context, fp *domain.Fingerprint) error {
	if fp.CreatedAt.IsZero() {
		fp.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO content_fingerprints (` + fingerprintColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (content_id) DO UPDATE SET
			content_type = EXCLUDED.content_type,
			content_hash = EXCLUDED.content_hash,
			title_hash = EXCLUDED.title_hash,
			semantic_hash = EXCLUDED.semantic_hash,
			image_hashes = EXCLUDED.image_hashes,
			url_hash = EXCLUDED.url_hash,
			key_phrases = EXCLUDED.key_phrases`

	_, err := r.db.ExecContext(ctx, query,
		fp.ContentID,
		fp.ContentType,
		fp.ContentHash,
		fp.TitleHash,
		fp.SemanticHash,
		pq.Array(fp.ImageHashes),
		fp.URLHash,
		pq.Array(fp.KeyPhrases),
		fp.ClusterID,
		fp.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store fingerprint %s: %w", fp.ContentID, err)
	}
	return nil
}

// AssignCluster sets the cluster ID of every listed fingerprint.
func (r *FingerprintRepository) AssignCluster(ctx context.Context, contentIDs []string, clusterID string) error {
	if len(contentIDs) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE content_fingerprints SET cluster_id = $1 WHERE content_id = ANY($2)`,
		clusterID, pq.Array(contentIDs),
	)
	if err != nil {
		return fmt.Errorf("failed to assign cluster %s: %w", clusterID, err)
	}
	return nil
}

func (r *FingerprintRepository) query(ctx context.Context, query string, args ...any) ([]domain.Fingerprint, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fingerprints: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var fps []domain.Fingerprint
	for rows.Next() {
		var fp domain.Fingerprint
		scanErr := rows.Scan(
			&fp.ContentID,
			&fp.ContentType,
			&fp.ContentHash,
			&fp.TitleHash,
			&fp.SemanticHash,
			pq.Array(&fp.ImageHashes),
			&fp.URLHash,
			pq.Array(&fp.KeyPhrases),
			&fp.ClusterID,
			&fp.CreatedAt,
		)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan fingerprint: %w", scanErr)
		}
		fps = append(fps, fp)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fingerprints: %w", err)
	}
	return fps, nil
}
