package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// voucherService implements VoucherService.
type voucherService struct {
	repo      repository.VoucherRepository
	validator VoucherValidator
	logger    zerolog.Logger
	now       func() time.Time
}

// NewVoucherService creates a new voucher service.
func NewVoucherService(repo repository.VoucherRepository, validator VoucherValidator, logger zerolog.Logger) VoucherService {
	return &voucherService{
		repo:      repo,
		validator: validator,
		logger:    logger.With().Str("service", "voucher").Logger(),
		now:       time.Now,
	}
}

func (s *voucherService) Create(ctx context.Context, req *model.VoucherRequest) (*model.Voucher, error) {
	now := s.now()
	voucher := &model.Voucher{
		ID:        uuid.New(),
		CreatedAt: now,
	}

	if err := applyVoucherRequest(voucher, req, now); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, voucher); err != nil {
		if errors.Is(err, model.ErrVoucherExists) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("code", voucher.Code).Msg("failed to create voucher")
		return nil, fmt.Errorf("failed to create voucher: %w", err)
	}

	s.logger.Info().
		Str("voucher_id", voucher.ID.String()).
		Str("code", voucher.Code).
		Str("type", string(voucher.DiscountType)).
		Int64("value", voucher.DiscountValue).
		Msg("voucher created")

	return voucher, nil
}

func (s *voucherService) Update(ctx context.Context, id uuid.UUID, req *model.VoucherRequest) (*model.Voucher, error) {
	voucher, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := applyVoucherRequest(voucher, req, s.now()); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, voucher); err != nil {
		if _, ok := model.AsDomainError(err); ok {
			return nil, err
		}
		s.logger.Error().Err(err).Str("voucher_id", id.String()).Msg("failed to update voucher")
		return nil, fmt.Errorf("failed to update voucher: %w", err)
	}

	s.logger.Info().Str("voucher_id", id.String()).Str("code", voucher.Code).Msg("voucher updated")
	return voucher, nil
}

func (s *voucherService) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("voucher_id", id.String()).Msg("failed to delete voucher")
		return fmt.Errorf("failed to delete voucher: %w", err)
	}
	if !deleted {
		return model.ErrVoucherNotFound
	}

	s.logger.Info().Str("voucher_id", id.String()).Msg("voucher deleted")
	return nil
}

func (s *voucherService) GetByID(ctx context.Context, id uuid.UUID) (*model.Voucher, error) {
	voucher, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("voucher_id", id.String()).Msg("failed to get voucher")
		return nil, fmt.Errorf("failed to get voucher: %w", err)
	}
	if voucher == nil {
		return nil, model.ErrVoucherNotFound
	}
	return voucher, nil
}

func (s *voucherService) List(ctx context.Context, limit, offset int) ([]model.Voucher, error) {
	limit, offset = clampPage(limit, offset)

	vouchers, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list vouchers")
		return nil, fmt.Errorf("failed to list vouchers: %w", err)
	}
	return vouchers, nil
}

func (s *voucherService) Validate(ctx context.Context, req *model.VoucherValidationRequest) (*model.VoucherQuote, error) {
	if req == nil {
		return nil, model.NewValidationError("request body is required")
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	return s.validator.Validate(ctx, req.Code, req.OrderSnapshot)
}

// applyVoucherRequest validates req and copies it onto voucher. Usage
// counters are left alone.
func applyVoucherRequest(voucher *model.Voucher, req *model.VoucherRequest, now time.Time) error {
	if req == nil {
		return model.NewValidationError("request body is required")
	}
	if err := validateStruct(req); err != nil {
		return err
	}

	code := model.NormalizeVoucherCode(req.Code)
	if code == "" {
		return model.NewValidationError("code is required")
	}
	if req.DiscountType == model.VoucherPercentage && req.DiscountValue > 100 {
		return model.NewValidationError("a percentage voucher cannot exceed 100")
	}
	if !req.ExpiryDate.After(req.StartDate) {
		return model.NewValidationError("expiryDate must be after startDate")
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	voucher.Code = code
	voucher.Description = req.Description
	voucher.DiscountType = req.DiscountType
	voucher.DiscountValue = req.DiscountValue
	voucher.MaxDiscount = req.MaxDiscount
	voucher.MinOrderValue = req.MinOrderValue
	voucher.StartDate = req.StartDate
	voucher.ExpiryDate = req.ExpiryDate
	voucher.UsageLimit = req.UsageLimit
	voucher.IsActive = active
	voucher.ApplicableProducts = compact(req.ApplicableProducts)
	voucher.ApplicableCategories = compact(req.ApplicableCategories)
	voucher.UpdatedAt = now

	return nil
}

// compact drops blank and repeated ids.
func compact(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
