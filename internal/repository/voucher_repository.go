package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const uniqueViolation = "23505"

// voucherRepository implements VoucherRepository using PostgreSQL.
type voucherRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewVoucherRepository creates a new PostgreSQL-backed voucher repository.
func NewVoucherRepository(pool *pgxpool.Pool, logger zerolog.Logger) VoucherRepository {
	return &voucherRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "voucher").Logger(),
	}
}

const voucherColumns = `id, code, description, discount_type, discount_value, max_discount,
	min_order_value, start_date, expiry_date, usage_limit, used_count, is_active,
	applicable_products, applicable_categories, created_at, updated_at`

func scanVoucher(row pgx.Row) (model.Voucher, error) {
	var v model.Voucher
	var discountType string
	err := row.Scan(
		&v.ID, &v.Code, &v.Description, &discountType, &v.DiscountValue, &v.MaxDiscount,
		&v.MinOrderValue, &v.StartDate, &v.ExpiryDate, &v.UsageLimit, &v.UsedCount, &v.IsActive,
		&v.ApplicableProducts, &v.ApplicableCategories, &v.CreatedAt, &v.UpdatedAt,
	)
	v.DiscountType = model.VoucherType(discountType)
	return v, err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Create inserts a new voucher.
func (r *voucherRepository) Create(ctx context.Context, v *model.Voucher) error {
	query := `
		INSERT INTO vouchers (
			id, code, description, discount_type, discount_value, max_discount,
			min_order_value, start_date, expiry_date, usage_limit, used_count, is_active,
			applicable_products, applicable_categories, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.pool.Exec(ctx, query,
		v.ID, v.Code, v.Description, string(v.DiscountType), v.DiscountValue, v.MaxDiscount,
		v.MinOrderValue, v.StartDate, v.ExpiryDate, v.UsageLimit, v.UsedCount, v.IsActive,
		nonNil(v.ApplicableProducts), nonNil(v.ApplicableCategories), v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			r.logger.Debug().Str("code", v.Code).Msg("voucher code already exists")
			return model.ErrVoucherExists
		}
		r.logger.Error().Err(err).Str("code", v.Code).Msg("failed to create voucher")
		return fmt.Errorf("failed to create voucher: %w", err)
	}

	r.logger.Debug().Str("voucher_id", v.ID.String()).Str("code", v.Code).Msg("voucher created successfully")

	return nil
}

// Update overwrites the editable fields of a voucher.
func (r *voucherRepository) Update(ctx context.Context, v *model.Voucher) error {
	query := `
		UPDATE vouchers
		SET code = $2, description = $3, discount_type = $4, discount_value = $5,
			max_discount = $6, min_order_value = $7, start_date = $8, expiry_date = $9,
			usage_limit = $10, is_active = $11, applicable_products = $12,
			applicable_categories = $13, updated_at = $14
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		v.ID, v.Code, v.Description, string(v.DiscountType), v.DiscountValue,
		v.MaxDiscount, v.MinOrderValue, v.StartDate, v.ExpiryDate,
		v.UsageLimit, v.IsActive, nonNil(v.ApplicableProducts),
		nonNil(v.ApplicableCategories), v.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrVoucherExists
		}
		r.logger.Error().Err(err).Str("voucher_id", v.ID.String()).Msg("failed to update voucher")
		return fmt.Errorf("failed to update voucher: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrVoucherNotFound
	}

	return nil
}

// Delete removes a voucher.
func (r *voucherRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM vouchers WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("voucher_id", id.String()).Msg("failed to delete voucher")
		return false, fmt.Errorf("failed to delete voucher: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// GetByID retrieves a voucher with its usage log.
func (r *voucherRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Voucher, error) {
	return r.getOne(ctx, `SELECT `+voucherColumns+` FROM vouchers WHERE id = $1`, id)
}

// GetByCode retrieves a voucher by code with its usage log.
func (r *voucherRepository) GetByCode(ctx context.Context, code string) (*model.Voucher, error) {
	return r.getOne(ctx, `SELECT `+voucherColumns+` FROM vouchers WHERE code = $1`, code)
}

func (r *voucherRepository) getOne(ctx context.Context, query string, arg any) (*model.Voucher, error) {
	v, err := scanVoucher(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Interface("key", arg).Msg("voucher not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Interface("key", arg).Msg("failed to query voucher")
		return nil, fmt.Errorf("failed to query voucher: %w", err)
	}

	usages, err := r.usages(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	v.UsedBy = usages

	return &v, nil
}

// List retrieves vouchers, newest first. Usage logs are not loaded.
func (r *voucherRepository) List(ctx context.Context, limit, offset int) ([]model.Voucher, error) {
	query := `
		SELECT ` + voucherColumns + `
		FROM vouchers
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query vouchers")
		return nil, fmt.Errorf("failed to query vouchers: %w", err)
	}
	defer rows.Close()

	vouchers := []model.Voucher{}
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan voucher row")
			return nil, fmt.Errorf("failed to scan voucher: %w", err)
		}
		vouchers = append(vouchers, v)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating voucher rows")
		return nil, fmt.Errorf("error iterating vouchers: %w", err)
	}

	return vouchers, nil
}

// IncrementUsage consumes one use of the voucher if the limit allows it and
// logs the usage, both inside tx.
func (r *voucherRepository) IncrementUsage(ctx context.Context, tx pgx.Tx, voucherID uuid.UUID, usage model.VoucherUsage) (bool, error) {
	query := `
		UPDATE vouchers
		SET used_count = used_count + 1, updated_at = $2
		WHERE id = $1 AND (usage_limit IS NULL OR used_count < usage_limit)
	`

	tag, err := tx.Exec(ctx, query, voucherID, usage.UsedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("voucher_id", voucherID.String()).Msg("failed to increment voucher usage")
		return false, fmt.Errorf("failed to increment voucher usage: %w", err)
	}

	if tag.RowsAffected() == 0 {
		r.logger.Debug().Str("voucher_id", voucherID.String()).Msg("voucher usage limit reached")
		return false, nil
	}

	insert := `
		INSERT INTO voucher_usages (voucher_id, order_id, user_id, order_value, used_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	if _, err := tx.Exec(ctx, insert, voucherID, usage.OrderID, usage.UserID, usage.OrderValue, usage.UsedAt); err != nil {
		r.logger.Error().
			Err(err).
			Str("voucher_id", voucherID.String()).
			Str("order_id", usage.OrderID.String()).
			Msg("failed to record voucher usage")
		return false, fmt.Errorf("failed to record voucher usage: %w", err)
	}

	return true, nil
}

// ReleaseUsage removes the usage recorded for an order and gives the use back.
func (r *voucherRepository) ReleaseUsage(ctx context.Context, tx pgx.Tx, voucherID, orderID uuid.UUID) error {
	query := `
		WITH released AS (
			DELETE FROM voucher_usages
			WHERE voucher_id = $1 AND order_id = $2
			RETURNING voucher_id
		)
		UPDATE vouchers
		SET used_count = GREATEST(used_count - 1, 0)
		WHERE id = (SELECT voucher_id FROM released)
	`

	if _, err := tx.Exec(ctx, query, voucherID, orderID); err != nil {
		r.logger.Error().
			Err(err).
			Str("voucher_id", voucherID.String()).
			Str("order_id", orderID.String()).
			Msg("failed to release voucher usage")
		return fmt.Errorf("failed to release voucher usage: %w", err)
	}

	return nil
}

func (r *voucherRepository) usages(ctx context.Context, voucherID uuid.UUID) ([]model.VoucherUsage, error) {
	query := `
		SELECT user_id, order_id, used_at, order_value
		FROM voucher_usages
		WHERE voucher_id = $1
		ORDER BY used_at
	`

	rows, err := r.pool.Query(ctx, query, voucherID)
	if err != nil {
		r.logger.Error().Err(err).Str("voucher_id", voucherID.String()).Msg("failed to query voucher usages")
		return nil, fmt.Errorf("failed to query voucher usages: %w", err)
	}
	defer rows.Close()

	usages := []model.VoucherUsage{}
	for rows.Next() {
		var u model.VoucherUsage
		if err := rows.Scan(&u.UserID, &u.OrderID, &u.UsedAt, &u.OrderValue); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan voucher usage row")
			return nil, fmt.Errorf("failed to scan voucher usage: %w", err)
		}
		usages = append(usages, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating voucher usages: %w", err)
	}

	return usages, nil
}
