package service

import (
	"context"
	"fmt"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	resolver    DiscountResolver
	concurrency int
	logger      zerolog.Logger
}

// NewProductService creates a new product service. concurrency bounds the
// number of discount lookups in flight for one listing.
func NewProductService(
	productRepo repository.ProductRepository,
	resolver DiscountResolver,
	concurrency int,
	logger zerolog.Logger,
) ProductService {
	return &productService{
		productRepo: productRepo,
		resolver:    resolver,
		concurrency: concurrency,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// GetAll retrieves all products with pagination.
func (s *productService) GetAll(ctx context.Context, limit, offset int) ([]model.ProductView, error) {
	limit, offset = clampPage(limit, offset)

	products, err := s.productRepo.GetAll(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to get all products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	views, err := priceAll(ctx, s.resolver, products, s.concurrency)
	if err != nil {
		s.logger.Error().Err(err).Int("count", len(products)).Msg("failed to price products")
		return nil, err
	}

	s.logger.Debug().
		Int("count", len(views)).
		Int("limit", limit).
		Int("offset", offset).
		Msg("retrieved products")

	return views, nil
}

// GetByID retrieves a single product by ID.
func (s *productService) GetByID(ctx context.Context, id string) (*model.ProductView, error) {
	if id == "" {
		s.logger.Warn().Msg("product ID is empty")
		return nil, model.ErrProductNotFound
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil {
		s.logger.Debug().Str("product_id", id).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	view, err := s.resolver.Price(ctx, product)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to price product")
		return nil, err
	}

	return &view, nil
}

// priceAll resolves the discount of every product with at most limit lookups
// in flight. The result keeps the order of products.
func priceAll(ctx context.Context, resolver DiscountResolver, products []model.Product, limit int) ([]model.ProductView, error) {
	views := make([]model.ProductView, len(products))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i := range products {
		g.Go(func() error {
			view, err := resolver.Price(gctx, &products[i])
			if err != nil {
				return err
			}
			views[i] = view
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}
