package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

const productColumns = `id, name, price, brand_id, category_id, sell_count, created_at`

func scanProduct(row pgx.Row) (model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.BrandID, &p.CategoryID, &p.SellCount, &p.CreatedAt)
	return p, err
}

// GetAll retrieves products with their sizes, with pagination support.
func (r *productRepository) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY name
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	products, err := r.collectProducts(rows)
	if err != nil {
		return nil, err
	}

	return products, r.attachSizes(ctx, products)
}

// GetByID retrieves a single product with its sizes.
func (r *productRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1
	`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("product_id", id).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	products := []model.Product{p}
	if err := r.attachSizes(ctx, products); err != nil {
		return nil, err
	}

	return &products[0], nil
}

// GetByIDs retrieves multiple products with their sizes.
func (r *productRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = ANY($1)
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query products by IDs")
		return nil, fmt.Errorf("failed to query products by IDs: %w", err)
	}

	products, err := r.collectProducts(rows)
	if err != nil {
		return nil, err
	}

	return products, r.attachSizes(ctx, products)
}

// ReserveStock decrements stock for a size and bumps the sell count in one
// conditional statement, so concurrent orders cannot oversell.
func (r *productRepository) ReserveStock(ctx context.Context, tx pgx.Tx, productID, size string, quantity int) (bool, error) {
	query := `
		WITH reserved AS (
			UPDATE product_sizes
			SET quantity = quantity - $3
			WHERE product_id = $1 AND size = $2 AND quantity >= $3
			RETURNING product_id
		)
		UPDATE products
		SET sell_count = sell_count + $3
		WHERE id = (SELECT product_id FROM reserved)
	`

	tag, err := tx.Exec(ctx, query, productID, size, quantity)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("product_id", productID).
			Str("size", size).
			Int("quantity", quantity).
			Msg("failed to reserve stock")
		return false, fmt.Errorf("failed to reserve stock: %w", err)
	}

	reserved := tag.RowsAffected() == 1
	if !reserved {
		r.logger.Debug().
			Str("product_id", productID).
			Str("size", size).
			Int("quantity", quantity).
			Msg("stock reservation rejected")
	}

	return reserved, nil
}

// RestoreStock returns stock for a size and lowers the sell count, never below zero.
func (r *productRepository) RestoreStock(ctx context.Context, tx pgx.Tx, productID, size string, quantity int) (bool, error) {
	query := `
		WITH restored AS (
			UPDATE product_sizes
			SET quantity = quantity + $3
			WHERE product_id = $1 AND size = $2
			RETURNING product_id
		)
		UPDATE products
		SET sell_count = GREATEST(sell_count - $3, 0)
		WHERE id = (SELECT product_id FROM restored)
	`

	tag, err := tx.Exec(ctx, query, productID, size, quantity)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("product_id", productID).
			Str("size", size).
			Msg("failed to restore stock")
		return false, fmt.Errorf("failed to restore stock: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *productRepository) collectProducts(rows pgx.Rows) ([]model.Product, error) {
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// attachSizes loads the size records for products in a single query.
func (r *productRepository) attachSizes(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]string, len(products))
	index := make(map[string]int, len(products))
	for i, p := range products {
		ids[i] = p.ID
		index[p.ID] = i
		products[i].Sizes = []model.ProductSize{}
	}

	query := `
		SELECT product_id, size, quantity
		FROM product_sizes
		WHERE product_id = ANY($1)
		ORDER BY product_id, size
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query product sizes")
		return fmt.Errorf("failed to query product sizes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var productID string
		var s model.ProductSize
		if err := rows.Scan(&productID, &s.Size, &s.Quantity); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product size row")
			return fmt.Errorf("failed to scan product size: %w", err)
		}
		if i, ok := index[productID]; ok {
			products[i].Sizes = append(products[i].Sizes, s)
		}
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product size rows")
		return fmt.Errorf("error iterating product sizes: %w", err)
	}

	return nil
}
