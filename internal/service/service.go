package service

import (
	"context"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductService defines operations for the priced catalogue.
type ProductService interface {
	// GetAll retrieves products with pagination, each with its resolved discount.
	GetAll(ctx context.Context, limit, offset int) ([]model.ProductView, error)

	// GetByID retrieves a single priced product.
	GetByID(ctx context.Context, id string) (*model.ProductView, error)
}

// DiscountService defines admin operations on discount rules.
type DiscountService interface {
	Create(ctx context.Context, req *model.DiscountRequest) (*model.DiscountRule, error)
	Update(ctx context.Context, id uuid.UUID, req *model.DiscountRequest) (*model.DiscountRule, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.DiscountRule, error)
	List(ctx context.Context, limit, offset int) ([]model.DiscountRule, error)
}

// VoucherService defines admin operations on vouchers and the customer voucher check.
type VoucherService interface {
	Create(ctx context.Context, req *model.VoucherRequest) (*model.Voucher, error)
	Update(ctx context.Context, id uuid.UUID, req *model.VoucherRequest) (*model.Voucher, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Voucher, error)
	List(ctx context.Context, limit, offset int) ([]model.Voucher, error)

	// Validate checks a voucher code against a candidate order without using it.
	Validate(ctx context.Context, req *model.VoucherValidationRequest) (*model.VoucherQuote, error)
}

// OrderService defines operations for order management.
type OrderService interface {
	// PlaceOrder prices the cart, applies the voucher if any and reserves stock.
	// Nothing is persisted unless every line can be fulfilled.
	PlaceOrder(ctx context.Context, principal model.Principal, req *model.OrderRequest) (*model.Order, error)

	// GetByID retrieves an order visible to principal.
	GetByID(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Order, error)

	// ListMine retrieves the caller's orders, newest first.
	ListMine(ctx context.Context, principal model.Principal, limit, offset int) ([]model.Order, error)

	// List retrieves all orders for administration.
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)

	// UpdateStatus applies an admin status transition.
	UpdateStatus(ctx context.Context, id uuid.UUID, req *model.StatusUpdateRequest) (*model.Order, error)

	// Cancel cancels an order on behalf of principal.
	Cancel(ctx context.Context, principal model.Principal, id uuid.UUID, note string) (*model.Order, error)
}

// DiscountResolver prices a product with the discount that applies to it.
type DiscountResolver interface {
	Price(ctx context.Context, product *model.Product) (model.ProductView, error)
}

// VoucherValidator checks and redeems vouchers.
type VoucherValidator interface {
	Validate(ctx context.Context, code string, snapshot model.OrderSnapshot) (*model.VoucherQuote, error)
	Redeem(ctx context.Context, tx pgx.Tx, quote *model.VoucherQuote, usage model.VoucherUsage) error
	Release(ctx context.Context, tx pgx.Tx, voucherID, orderID uuid.UUID) error
}
