package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
)

// DeadLetterRepository manages failed persistence writes in PostgreSQL.
type DeadLetterRepository struct {
	db *sqlx.DB
}

// NewDeadLetterRepository creates a new repository.
func NewDeadLetterRepository(db *sqlx.DB) *DeadLetterRepository {
	return &DeadLetterRepository{db: db}
}

// Enqueue adds a failed write. A second failure for the same content and
// target replaces the payload and counts as a retry.
func (r *DeadLetterRepository) Enqueue(ctx context.Context, entry *domain.DeadLetterEntry) error {
	query := `
		INSERT INTO dead_letter_queue
			(content_id, target, payload, error_message, max_retries, next_retry_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (content_id, target) DO UPDATE SET
			payload = EXCLUDED.payload,
			retry_count = dead_letter_queue.retry_count + 1,
			error_message = EXCLUDED.error_message,
			last_attempt_at = NOW(),
			next_retry_at = EXCLUDED.next_retry_at
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		entry.ContentID,
		entry.Target,
		entry.Payload,
		entry.ErrorMessage,
		entry.MaxRetries,
		entry.NextRetryAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("enqueue DLQ: %w", err)
	}
	return nil
}

// FetchRetryable returns entries whose next retry is due, oldest first.
func (r *DeadLetterRepository) FetchRetryable(ctx context.Context, limit int) ([]domain.DeadLetterEntry, error) {
	query := `
		SELECT id, content_id, target, payload, error_message,
		       retry_count, max_retries, next_retry_at, created_at, last_attempt_at
		FROM dead_letter_queue
		WHERE next_retry_at <= NOW()
		  AND retry_count < max_retries
		ORDER BY next_retry_at ASC
		LIMIT $1`

	entries := make([]domain.DeadLetterEntry, 0, limit)
	if err := r.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("fetch retryable: %w", err)
	}
	return entries, nil
}

// Remove deletes a successfully replayed entry.
func (r *DeadLetterRepository) Remove(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM dead_letter_queue WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("remove from DLQ: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("DLQ entry %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// UpdateRetry persists the retry count and schedule computed by entry.IncrementRetry.
func (r *DeadLetterRepository) UpdateRetry(ctx context.Context, entry *domain.DeadLetterEntry) error {
	query := `
		UPDATE dead_letter_queue
		SET retry_count = $2,
		    error_message = $3,
		    last_attempt_at = $4,
		    next_retry_at = $5
		WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.RetryCount,
		entry.ErrorMessage,
		entry.LastAttemptAt,
		entry.NextRetryAt,
	)
	if err != nil {
		return fmt.Errorf("update retry count: %w", err)
	}
	return nil
}

// GetStats returns DLQ statistics for monitoring.
func (r *DeadLetterRepository) GetStats(ctx context.Context) (*domain.DLQStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE retry_count < max_retries) AS pending,
			COUNT(*) FILTER (WHERE retry_count >= max_retries) AS exhausted,
			COUNT(*) FILTER (WHERE next_retry_at <= NOW() AND retry_count < max_retries) AS ready
		FROM dead_letter_queue`

	var stats domain.DLQStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("get DLQ stats: %w", err)
	}
	return &stats, nil
}
