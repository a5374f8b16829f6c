package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// discountService implements DiscountService.
type discountService struct {
	repo   repository.DiscountRepository
	logger zerolog.Logger
	now    func() time.Time
}

// NewDiscountService creates a new discount service.
func NewDiscountService(repo repository.DiscountRepository, logger zerolog.Logger) DiscountService {
	return &discountService{
		repo:   repo,
		logger: logger.With().Str("service", "discount").Logger(),
		now:    time.Now,
	}
}

func (s *discountService) Create(ctx context.Context, req *model.DiscountRequest) (*model.DiscountRule, error) {
	now := s.now()
	rule := &model.DiscountRule{
		ID:        uuid.New(),
		CreatedAt: now,
	}

	if err := applyDiscountRequest(rule, req, now); err != nil {
		s.logger.Debug().Err(err).Msg("discount rejected")
		return nil, err
	}

	if err := s.repo.Create(ctx, rule); err != nil {
		s.logger.Error().Err(err).Str("name", rule.Name).Msg("failed to create discount")
		return nil, fmt.Errorf("failed to create discount: %w", err)
	}

	s.logger.Info().
		Str("discount_id", rule.ID.String()).
		Str("kind", string(rule.Target.Kind())).
		Float64("percentage", rule.Percentage).
		Int("priority", rule.Priority).
		Msg("discount created")

	return rule, nil
}

func (s *discountService) Update(ctx context.Context, id uuid.UUID, req *model.DiscountRequest) (*model.DiscountRule, error) {
	rule, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := applyDiscountRequest(rule, req, s.now()); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, rule); err != nil {
		if _, ok := model.AsDomainError(err); ok {
			return nil, err
		}
		s.logger.Error().Err(err).Str("discount_id", id.String()).Msg("failed to update discount")
		return nil, fmt.Errorf("failed to update discount: %w", err)
	}

	s.logger.Info().Str("discount_id", id.String()).Msg("discount updated")
	return rule, nil
}

func (s *discountService) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("discount_id", id.String()).Msg("failed to delete discount")
		return fmt.Errorf("failed to delete discount: %w", err)
	}
	if !deleted {
		return model.ErrDiscountNotFound
	}

	s.logger.Info().Str("discount_id", id.String()).Msg("discount deleted")
	return nil
}

func (s *discountService) GetByID(ctx context.Context, id uuid.UUID) (*model.DiscountRule, error) {
	rule, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("discount_id", id.String()).Msg("failed to get discount")
		return nil, fmt.Errorf("failed to get discount: %w", err)
	}
	if rule == nil {
		return nil, model.ErrDiscountNotFound
	}
	return rule, nil
}

func (s *discountService) List(ctx context.Context, limit, offset int) ([]model.DiscountRule, error) {
	limit, offset = clampPage(limit, offset)

	rules, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list discounts")
		return nil, fmt.Errorf("failed to list discounts: %w", err)
	}
	return rules, nil
}

// applyDiscountRequest validates req and copies it onto rule.
func applyDiscountRequest(rule *model.DiscountRule, req *model.DiscountRequest, now time.Time) error {
	if req == nil {
		return model.NewValidationError("request body is required")
	}
	if err := validateStruct(req); err != nil {
		return err
	}

	if math.IsNaN(req.Percentage) || req.Percentage < 0 || req.Percentage > 100 {
		return model.NewValidationError("percentage must be between 0 and 100")
	}
	if pct := decimal.NewFromFloat(req.Percentage); !pct.Equal(pct.Round(2)) {
		return model.NewValidationError("percentage allows at most two decimal places")
	}
	if req.EndDate != nil && !req.EndDate.After(req.StartDate) {
		return model.NewValidationError("endDate must be after startDate")
	}

	target, err := model.NewDiscountTarget(req.DiscountType, req.TargetRef(), req.Products)
	if err != nil {
		return err
	}

	priority := target.Kind().DefaultPriority()
	if req.Priority != nil {
		priority = *req.Priority
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	rule.Name = req.Name
	rule.Description = req.Description
	rule.Terms = req.Terms
	rule.Target = target
	rule.Percentage = req.Percentage
	rule.Priority = priority
	rule.StartDate = req.StartDate
	rule.EndDate = req.EndDate
	rule.IsActive = active
	rule.UpdatedAt = now

	return nil
}
