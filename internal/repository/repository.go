package repository

import (
	"context"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// GetAll retrieves products with their sizes, with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product with its sizes. Returns nil if absent.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetByIDs retrieves multiple products with their sizes.
	GetByIDs(ctx context.Context, ids []string) ([]model.Product, error)

	// ReserveStock takes quantity units of size out of stock and adds them to
	// the product's sell count, only if enough stock remains. It reports
	// whether the reservation was made.
	ReserveStock(ctx context.Context, tx pgx.Tx, productID, size string, quantity int) (bool, error)

	// RestoreStock puts quantity units of size back into stock and removes
	// them from the product's sell count. It reports false when the size no
	// longer exists, in which case nothing is changed.
	RestoreStock(ctx context.Context, tx pgx.Tx, productID, size string, quantity int) (bool, error)
}

// DiscountRepository defines the interface for discount rule persistence.
type DiscountRepository interface {
	Create(ctx context.Context, rule *model.DiscountRule) error
	Update(ctx context.Context, rule *model.DiscountRule) error

	// Delete removes a rule and reports whether it existed.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// GetByID returns nil if the rule does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.DiscountRule, error)

	List(ctx context.Context, limit, offset int) ([]model.DiscountRule, error)

	// FindApplicable returns every rule that is active at now and targets
	// product, ordered by precedence.
	FindApplicable(ctx context.Context, product *model.Product, now time.Time) ([]model.DiscountRule, error)
}

// VoucherRepository defines the interface for voucher persistence.
type VoucherRepository interface {
	// Create inserts a voucher. Returns model.ErrVoucherExists on a duplicate code.
	Create(ctx context.Context, voucher *model.Voucher) error

	// Update overwrites the editable fields of a voucher, leaving usage untouched.
	Update(ctx context.Context, voucher *model.Voucher) error

	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// GetByID returns nil if the voucher does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Voucher, error)

	// GetByCode looks a voucher up by its normalised code. Returns nil if absent.
	GetByCode(ctx context.Context, code string) (*model.Voucher, error)

	List(ctx context.Context, limit, offset int) ([]model.Voucher, error)

	// IncrementUsage bumps used_count only while it is below usage_limit and
	// records the usage. It reports whether the increment happened.
	IncrementUsage(ctx context.Context, tx pgx.Tx, voucherID uuid.UUID, usage model.VoucherUsage) (bool, error)

	// ReleaseUsage undoes the usage recorded for orderID, if any.
	ReleaseUsage(ctx context.Context, tx pgx.Tx, voucherID, orderID uuid.UUID) error
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// AppendStatus adds an entry to the order's status history.
	AppendStatus(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, entry model.StatusEntry) error

	// UpdateStatus moves the order from one status to another only if it is
	// still in from. It reports whether the row changed.
	UpdateStatus(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, from, to model.OrderStatus, at time.Time) (bool, error)

	// GetByID retrieves an order with its items and history. Returns nil if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// ListByUser retrieves a user's orders, newest first.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Order, error)

	// List retrieves orders for administration, newest first.
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)
}
