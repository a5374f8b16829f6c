// Package discount picks the catalogue discount that applies to a product.
package discount

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront/internal/model"
	"storefront/internal/pricing"
	"storefront/internal/repository"

	"github.com/rs/zerolog"
)

// Resolver finds the winning discount rule for a product.
type Resolver struct {
	repo   repository.DiscountRepository
	logger zerolog.Logger
	now    func() time.Time
}

// NewResolver creates a new discount resolver.
func NewResolver(repo repository.DiscountRepository, logger zerolog.Logger) *Resolver {
	return &Resolver{
		repo:   repo,
		logger: logger.With().Str("component", "discount-resolver").Logger(),
		now:    time.Now,
	}
}

// Resolve returns the rule that applies to product now, or nil if none does.
func (r *Resolver) Resolve(ctx context.Context, product *model.Product) (*model.DiscountRule, error) {
	now := r.now()

	rules, err := r.repo.FindApplicable(ctx, product, now)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve discount for product %s: %w", product.ID, err)
	}

	rule := Select(rules, product, now)
	if rule != nil {
		r.logger.Debug().
			Str("product_id", product.ID).
			Str("discount_id", rule.ID.String()).
			Str("kind", string(rule.Target.Kind())).
			Int("priority", rule.Priority).
			Msg("discount resolved")
	}

	return rule, nil
}

// Price returns the client view of product with its resolved discount and sale price.
func (r *Resolver) Price(ctx context.Context, product *model.Product) (model.ProductView, error) {
	view := model.ProductView{Product: *product, SalePrice: product.Price}

	rule, err := r.Resolve(ctx, product)
	if err != nil {
		return view, err
	}

	if rule != nil {
		view.Discount = rule.Summary()
		view.SalePrice = pricing.SalePrice(product.Price, rule.Percentage)
	}

	return view, nil
}

// Select picks the winning rule among candidates for product at now. Rules that
// are inactive, out of window or not targeting product are ignored. The lowest
// priority wins; ties go to the most recently created rule, then the larger id.
func Select(rules []model.DiscountRule, product *model.Product, now time.Time) *model.DiscountRule {
	var best *model.DiscountRule
	for i := range rules {
		rule := &rules[i]
		if !rule.ActiveAt(now) || !rule.Target.Matches(product) {
			continue
		}
		if best == nil || precedes(rule, best) {
			best = rule
		}
	}
	return best
}

func precedes(a, b *model.DiscountRule) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return strings.Compare(a.ID.String(), b.ID.String()) > 0
}
