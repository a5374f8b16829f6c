package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// discountRepository implements DiscountRepository using PostgreSQL.
type discountRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewDiscountRepository creates a new PostgreSQL-backed discount rule repository.
func NewDiscountRepository(pool *pgxpool.Pool, logger zerolog.Logger) DiscountRepository {
	return &discountRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "discount").Logger(),
	}
}

const discountColumns = `id, name, description, terms, target_kind, target_ref, target_refs,
	percentage, priority, start_date, end_date, is_active, created_at, updated_at`

func scanDiscount(row pgx.Row) (model.DiscountRule, error) {
	var (
		d    model.DiscountRule
		kind string
		ref  *string
		refs []string
	)

	err := row.Scan(
		&d.ID, &d.Name, &d.Description, &d.Terms, &kind, &ref, &refs,
		&d.Percentage, &d.Priority, &d.StartDate, &d.EndDate, &d.IsActive,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return d, err
	}

	var single string
	if ref != nil {
		single = *ref
	}

	target, err := model.NewDiscountTarget(model.DiscountKind(kind), single, refs)
	if err != nil {
		return d, fmt.Errorf("discount %s has a corrupt target: %w", d.ID, err)
	}
	d.Target = target

	return d, nil
}

// targetColumns splits a target into its persisted columns.
func targetColumns(t model.DiscountTarget) (string, *string, []string) {
	refs := t.Refs()
	if refs == nil {
		refs = []string{}
	}

	var ref *string
	if r := t.Ref(); r != "" {
		ref = &r
	}

	return string(t.Kind()), ref, refs
}

// Create inserts a new discount rule.
func (r *discountRepository) Create(ctx context.Context, rule *model.DiscountRule) error {
	query := `
		INSERT INTO discount_rules (
			id, name, description, terms, target_kind, target_ref, target_refs,
			percentage, priority, start_date, end_date, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	kind, ref, refs := targetColumns(rule.Target)

	_, err := r.pool.Exec(ctx, query,
		rule.ID, rule.Name, rule.Description, rule.Terms, kind, ref, refs,
		rule.Percentage, rule.Priority, rule.StartDate, rule.EndDate, rule.IsActive,
		rule.CreatedAt, rule.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("discount_id", rule.ID.String()).Msg("failed to create discount rule")
		return fmt.Errorf("failed to create discount rule: %w", err)
	}

	r.logger.Debug().
		Str("discount_id", rule.ID.String()).
		Str("kind", kind).
		Msg("discount rule created successfully")

	return nil
}

// Update overwrites every editable field of a discount rule.
func (r *discountRepository) Update(ctx context.Context, rule *model.DiscountRule) error {
	query := `
		UPDATE discount_rules
		SET name = $2, description = $3, terms = $4, target_kind = $5, target_ref = $6,
			target_refs = $7, percentage = $8, priority = $9, start_date = $10,
			end_date = $11, is_active = $12, updated_at = $13
		WHERE id = $1
	`

	kind, ref, refs := targetColumns(rule.Target)

	tag, err := r.pool.Exec(ctx, query,
		rule.ID, rule.Name, rule.Description, rule.Terms, kind, ref, refs,
		rule.Percentage, rule.Priority, rule.StartDate, rule.EndDate, rule.IsActive,
		rule.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("discount_id", rule.ID.String()).Msg("failed to update discount rule")
		return fmt.Errorf("failed to update discount rule: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrDiscountNotFound
	}

	return nil
}

// Delete removes a discount rule.
func (r *discountRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM discount_rules WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("discount_id", id.String()).Msg("failed to delete discount rule")
		return false, fmt.Errorf("failed to delete discount rule: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// GetByID retrieves a discount rule by its ID.
func (r *discountRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.DiscountRule, error) {
	query := `SELECT ` + discountColumns + ` FROM discount_rules WHERE id = $1`

	d, err := scanDiscount(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("discount_id", id.String()).Msg("discount rule not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("discount_id", id.String()).Msg("failed to query discount rule")
		return nil, fmt.Errorf("failed to query discount rule: %w", err)
	}

	return &d, nil
}

// List retrieves discount rules, newest first.
func (r *discountRepository) List(ctx context.Context, limit, offset int) ([]model.DiscountRule, error) {
	query := `
		SELECT ` + discountColumns + `
		FROM discount_rules
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query discount rules")
		return nil, fmt.Errorf("failed to query discount rules: %w", err)
	}

	return r.collect(rows)
}

// FindApplicable retrieves every rule active at now that targets product.
// Rows are ordered by priority, then newest first.
func (r *discountRepository) FindApplicable(ctx context.Context, product *model.Product, now time.Time) ([]model.DiscountRule, error) {
	query := `
		SELECT ` + discountColumns + `
		FROM discount_rules
		WHERE is_active
			AND start_date <= $1
			AND (end_date IS NULL OR end_date >= $1)
			AND (
				(target_kind = 'PRODUCT' AND target_ref = $2)
				OR (target_kind = 'BRAND' AND $3 <> '' AND target_ref = $3)
				OR (target_kind = 'CATEGORY' AND $4 <> '' AND target_ref = $4)
				OR (target_kind = 'PRODUCT_LIST' AND $2 = ANY(target_refs))
				OR target_kind = 'GLOBAL'
			)
		ORDER BY priority ASC, created_at DESC, id DESC
	`

	rows, err := r.pool.Query(ctx, query, now, product.ID, product.BrandID, product.CategoryID)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", product.ID).Msg("failed to query applicable discounts")
		return nil, fmt.Errorf("failed to query applicable discounts: %w", err)
	}

	return r.collect(rows)
}

func (r *discountRepository) collect(rows pgx.Rows) ([]model.DiscountRule, error) {
	defer rows.Close()

	rules := []model.DiscountRule{}
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan discount rule row")
			return nil, fmt.Errorf("failed to scan discount rule: %w", err)
		}
		rules = append(rules, d)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating discount rule rows")
		return nil, fmt.Errorf("error iterating discount rules: %w", err)
	}

	return rules, nil
}
