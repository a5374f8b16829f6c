package voucher

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/model"
	"storefront/internal/pricing"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// Validator checks voucher codes against candidate orders and records their use.
type Validator struct {
	repo   repository.VoucherRepository
	logger zerolog.Logger
	now    func() time.Time
}

// NewValidator creates a new voucher validator.
func NewValidator(repo repository.VoucherRepository, logger zerolog.Logger) *Validator {
	return &Validator{
		repo:   repo,
		logger: logger.With().Str("component", "voucher-validator").Logger(),
		now:    time.Now,
	}
}

// Validate looks code up and checks it against snapshot. It never mutates the voucher.
func (v *Validator) Validate(ctx context.Context, code string, snapshot model.OrderSnapshot) (*model.VoucherQuote, error) {
	code = model.NormalizeVoucherCode(code)
	if code == "" {
		return nil, model.ErrVoucherNotFound
	}

	voucher, err := v.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to load voucher: %w", err)
	}

	quote, err := Check(voucher, snapshot, v.now())
	if err != nil {
		v.logger.Debug().
			Str("code", code).
			Int64("total_amount", snapshot.TotalAmount).
			Str("reason", err.Error()).
			Msg("voucher rejected")
		return nil, err
	}

	v.logger.Debug().
		Str("code", code).
		Int64("discount", quote.Discount).
		Int64("final_amount", quote.FinalAmount).
		Msg("voucher validated successfully")

	return quote, nil
}

// Redeem consumes one use of the quoted voucher inside tx. Losing a race for
// the last use is reported as exhaustion.
func (v *Validator) Redeem(ctx context.Context, tx pgx.Tx, quote *model.VoucherQuote, usage model.VoucherUsage) error {
	ok, err := v.repo.IncrementUsage(ctx, tx, quote.Voucher.ID, usage)
	if err != nil {
		return fmt.Errorf("failed to redeem voucher: %w", err)
	}

	if !ok {
		v.logger.Info().
			Str("code", quote.Voucher.Code).
			Str("order_id", usage.OrderID.String()).
			Msg("voucher exhausted at redemption")
		return model.ErrVoucherExhausted
	}

	return nil
}

// Release gives back the use an order made of a voucher.
func (v *Validator) Release(ctx context.Context, tx pgx.Tx, voucherID, orderID uuid.UUID) error {
	if err := v.repo.ReleaseUsage(ctx, tx, voucherID, orderID); err != nil {
		return fmt.Errorf("failed to release voucher: %w", err)
	}

	v.logger.Debug().
		Str("voucher_id", voucherID.String()).
		Str("order_id", orderID.String()).
		Msg("voucher usage released")

	return nil
}

// Check runs the voucher rules against snapshot at now, in order, and prices
// the discount when every rule passes. A nil voucher is reported as not found.
func Check(voucher *model.Voucher, snapshot model.OrderSnapshot, now time.Time) (*model.VoucherQuote, error) {
	if voucher == nil || !voucher.IsActive {
		return nil, model.ErrVoucherNotFound
	}

	if now.Before(voucher.StartDate) {
		return nil, model.ErrVoucherNotStarted
	}
	if now.After(voucher.ExpiryDate) {
		return nil, model.ErrVoucherExpired
	}

	if voucher.UsageLimit != nil && voucher.UsedCount >= *voucher.UsageLimit {
		return nil, model.ErrVoucherExhausted
	}

	if snapshot.TotalAmount < voucher.MinOrderValue {
		return nil, model.NewBelowMinOrderValueError(voucher.MinOrderValue)
	}

	if len(voucher.ApplicableProducts) > 0 {
		ids := make([]string, len(snapshot.Products))
		for i, p := range snapshot.Products {
			ids[i] = p.ID
		}
		if !containsAny(NewIDSet(voucher.ApplicableProducts), ids) {
			return nil, model.ErrVoucherNotApplicable
		}
	}

	if len(voucher.ApplicableCategories) > 0 {
		categories := make([]string, 0, len(snapshot.Products))
		for _, p := range snapshot.Products {
			if p.CategoryID != "" {
				categories = append(categories, p.CategoryID)
			}
		}
		if !containsAny(NewIDSet(voucher.ApplicableCategories), categories) {
			return nil, model.ErrCategoryNotEligible
		}
	}

	discount := pricing.VoucherDiscount(voucher, snapshot.TotalAmount)

	return &model.VoucherQuote{
		Voucher:     voucher,
		Discount:    discount,
		FinalAmount: snapshot.TotalAmount - discount,
	}, nil
}
