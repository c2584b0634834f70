package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
)

const ruleColumns = `id, name, description, rule_type, category, content_types, geographic_scope,
	priority, active, auto_action, conditions, actions, created_at, updated_at`

// RulesRepository stores quality rules and per content type thresholds.
type RulesRepository struct {
	db *sqlx.DB
}

// NewRulesRepository creates a new rules repository.
func NewRulesRepository(db *sqlx.DB) *RulesRepository {
	return &RulesRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*domain.QualityRule, error) {
	var (
		rule        domain.QualityRule
		description sql.NullString
		autoAction  sql.NullString
	)
	err := row.Scan(
		&rule.ID,
		&rule.Name,
		&description,
		&rule.RuleType,
		&rule.Category,
		pq.Array(&rule.ContentTypes),
		pq.Array(&rule.GeographicScope),
		&rule.Priority,
		&rule.Active,
		&autoAction,
		&rule.Conditions,
		&rule.Actions,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rule.Description = description.String
	rule.AutoAction = autoAction.String
	return &rule, nil
}

// CreateRule inserts a rule; the database assigns the ID and timestamps.
func (r *RulesRepository) CreateRule(ctx context.Context, rule *domain.QualityRule) error {
	query := `
		INSERT INTO quality_rules (
			name, description, rule_type, category, content_types, geographic_scope,
			priority, active, auto_action, conditions, actions
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		rule.Name,
		rule.Description,
		rule.RuleType,
		rule.Category,
		pq.Array(rule.ContentTypes),
		pq.Array(rule.GeographicScope),
		rule.Priority,
		rule.Active,
		rule.AutoAction,
		rule.Conditions,
		rule.Actions,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}

	return nil
}

// GetRule retrieves a rule by ID.
func (r *RulesRepository) GetRule(ctx context.Context, id string) (*domain.QualityRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM quality_rules WHERE id = $1`

	rule, err := scanRule(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrRuleNotFound, id)
		}
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}

	return rule, nil
}

// ListRules returns every rule, active or not, ordered by name.
func (r *RulesRepository) ListRules(ctx context.Context) ([]domain.QualityRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM quality_rules ORDER BY name ASC, id ASC`
	return r.queryRules(ctx, query)
}

// ListActiveRules returns active rules admitted by the given filters.
// An empty contentType or geoScope disables that filter.
func (r *RulesRepository) ListActiveRules(
	ctx context.Context,
	contentType, geoScope string,
) ([]domain.QualityRule, error) {
	var (
		where    = []string{"active = true"}
		args     []any
		argIndex = 1
	)

	if contentType != "" {
		where = append(where, fmt.Sprintf(
			"(cardinality(content_types) = 0 OR 'all' = ANY(content_types) OR $%d = ANY(content_types))", argIndex))
		args = append(args, contentType)
		argIndex++
	}
	if geoScope != "" {
		where = append(where, fmt.Sprintf(
			"(cardinality(geographic_scope) = 0 OR 'all' = ANY(geographic_scope) OR $%d = ANY(geographic_scope))", argIndex))
		args = append(args, geoScope)
	}

	query := `SELECT ` + ruleColumns + ` FROM quality_rules WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY id ASC`

	return r.queryRules(ctx, query, args...)
}

func (r *RulesRepository) queryRules(ctx context.Context, query string, args ...any) ([]domain.QualityRule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []domain.QualityRule
	for rows.Next() {
		rule, scanErr := scanRule(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", scanErr)
		}
		rules = append(rules, *rule)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}

	return rules, nil
}

// UpdateRule replaces a rule's mutable fields.
func (r *RulesRepository) UpdateRule(ctx context.Context, rule *domain.QualityRule) error {
	query := `
		UPDATE quality_rules
		SET name = $2, description = $3, rule_type = $4, category = $5,
		    content_types = $6, geographic_scope = $7, priority = $8, active = $9,
		    auto_action = $10, conditions = $11, actions = $12, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		rule.ID,
		rule.Name,
		rule.Description,
		rule.RuleType,
		rule.Category,
		pq.Array(rule.ContentTypes),
		pq.Array(rule.GeographicScope),
		rule.Priority,
		rule.Active,
		rule.AutoAction,
		rule.Conditions,
		rule.Actions,
	).Scan(&rule.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", domain.ErrRuleNotFound, rule.ID)
		}
		return fmt.Errorf("failed to update rule: %w", err)
	}

	return nil
}

// DeleteRule removes a rule by ID.
func (r *RulesRepository) DeleteRule(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM quality_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrRuleNotFound, id)
	}

	return nil
}

// GetThresholds returns the stored thresholds for contentType, or domain.ErrNotFound.
func (r *RulesRepository) GetThresholds(
	ctx context.Context,
	contentType domain.ContentType,
) (*domain.QualityThresholds, error) {
	query := `
		SELECT content_type, min_content_quality, min_grammar, min_readability, min_seo,
		       min_brand_voice, min_cultural_sensitivity, min_factual_accuracy, min_image_quality,
		       auto_approve_threshold, manual_review_threshold, auto_reject_threshold
		FROM quality_thresholds
		WHERE content_type = $1
	`

	var t domain.QualityThresholds
	if err := r.db.GetContext(ctx, &t, query, contentType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("thresholds for %s: %w", contentType, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get thresholds: %w", err)
	}

	return &t, nil
}

// UpsertThresholds writes thresholds keyed by content type.
func (r *RulesRepository) UpsertThresholds(ctx context.Context, t *domain.QualityThresholds) error {
	query := `
		INSERT INTO quality_thresholds (
			content_type, min_content_quality, min_grammar, min_readability, min_seo,
			min_brand_voice, min_cultural_sensitivity, min_factual_accuracy, min_image_quality,
			auto_approve_threshold, manual_review_threshold, auto_reject_threshold
		)
		VALUES (
			:content_type, :min_content_quality, :min_grammar, :min_readability, :min_seo,
			:min_brand_voice, :min_cultural_sensitivity, :min_factual_accuracy, :min_image_quality,
			:auto_approve_threshold, :manual_review_threshold, :auto_reject_threshold
		)
		ON CONFLICT (content_type) DO UPDATE SET
			min_content_quality = EXCLUDED.min_content_quality,
			min_grammar = EXCLUDED.min_grammar,
			min_readability = EXCLUDED.min_readability,
			min_seo = EXCLUDED.min_seo,
			min_brand_voice = EXCLUDED.min_brand_voice,
			min_cultural_sensitivity = EXCLUDED.min_cultural_sensitivity,
			min_factual_accuracy = EXCLUDED.min_factual_accuracy,
			min_image_quality = EXCLUDED.min_image_quality,
			auto_approve_threshold = EXCLUDED.auto_approve_threshold,
			manual_review_threshold = EXCLUDED.manual_review_threshold,
			auto_reject_threshold = EXCLUDED.auto_reject_threshold,
			updated_at = NOW()
	`

	if _, err := r.db.NamedExecContext(ctx, query, t); err != nil {
		return fmt.Errorf("failed to upsert thresholds: %w", err)
	}

	return nil
}
