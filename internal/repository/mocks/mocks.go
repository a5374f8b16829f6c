// Package mocks provides testify mocks of the repository interfaces and pgx.Tx.
package mocks

import (
	"context"
	"time"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

var (
	_ repository.ProductRepository  = (*ProductRepository)(nil)
	_ repository.DiscountRepository = (*DiscountRepository)(nil)
	_ repository.VoucherRepository  = (*VoucherRepository)(nil)
	_ repository.OrderRepository    = (*OrderRepository)(nil)
	_ pgx.Tx                        = (*Tx)(nil)
)

// ProductRepository is a mock implementation of repository.ProductRepository.
type ProductRepository struct {
	mock.Mock
}

func (m *ProductRepository) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *ProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *ProductRepository) ReserveStock(ctx context.Context, tx pgx.Tx, productID, size string, quantity int) (bool, error) {
	args := m.Called(ctx, tx, productID, size, quantity)
	return args.Bool(0), args.Error(1)
}

func (m *ProductRepository) RestoreStock(ctx context.Context, tx pgx.Tx, productID, size string, quantity int) (bool, error) {
	args := m.Called(ctx, tx, productID, size, quantity)
	return args.Bool(0), args.Error(1)
}

// DiscountRepository is a mock implementation of repository.DiscountRepository.
type DiscountRepository struct {
	mock.Mock
}

func (m *DiscountRepository) Create(ctx context.Context, rule *model.DiscountRule) error {
	return m.Called(ctx, rule).Error(0)
}

func (m *DiscountRepository) Update(ctx context.Context, rule *model.DiscountRule) error {
	return m.Called(ctx, rule).Error(0)
}

func (m *DiscountRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *DiscountRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.DiscountRule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DiscountRule), args.Error(1)
}

func (m *DiscountRepository) List(ctx context.Context, limit, offset int) ([]model.DiscountRule, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DiscountRule), args.Error(1)
}

func (m *DiscountRepository) FindApplicable(ctx context.Context, product *model.Product, now time.Time) ([]model.DiscountRule, error) {
	args := m.Called(ctx, product, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DiscountRule), args.Error(1)
}

// VoucherRepository is a mock implementation of repository.VoucherRepository.
type VoucherRepository struct {
	mock.Mock
}

func (m *VoucherRepository) Create(ctx context.Context, voucher *model.Voucher) error {
	return m.Called(ctx, voucher).Error(0)
}

func (m *VoucherRepository) Update(ctx context.Context, voucher *model.Voucher) error {
	return m.Called(ctx, voucher).Error(0)
}

func (m *VoucherRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *VoucherRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Voucher, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Voucher), args.Error(1)
}

func (m *VoucherRepository) GetByCode(ctx context.Context, code string) (*model.Voucher, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Voucher), args.Error(1)
}

func (m *VoucherRepository) List(ctx context.Context, limit, offset int) ([]model.Voucher, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Voucher), args.Error(1)
}

func (m *VoucherRepository) IncrementUsage(ctx context.Context, tx pgx.Tx, voucherID uuid.UUID, usage model.VoucherUsage) (bool, error) {
	args := m.Called(ctx, tx, voucherID, usage)
	return args.Bool(0), args.Error(1)
}

func (m *VoucherRepository) ReleaseUsage(ctx context.Context, tx pgx.Tx, voucherID, orderID uuid.UUID) error {
	return m.Called(ctx, tx, voucherID, orderID).Error(0)
}

// OrderRepository is a mock implementation of repository.OrderRepository.
type OrderRepository struct {
	mock.Mock
}

func (m *OrderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	// Return a Tx interface value, not a pointer
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *OrderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	return m.Called(ctx, tx, order).Error(0)
}

func (m *OrderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	return m.Called(ctx, tx, items).Error(0)
}

func (m *OrderRepository) AppendStatus(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, entry model.StatusEntry) error {
	return m.Called(ctx, tx, orderID, entry).Error(0)
}

func (m *OrderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, from, to model.OrderStatus, at time.Time) (bool, error) {
	args := m.Called(ctx, tx, orderID, from, to, at)
	return args.Bool(0), args.Error(1)
}

func (m *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *OrderRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Order, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *OrderRepository) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

// Tx is a minimal mock implementation of pgx.Tx. Only Commit and Rollback
// are recorded; everything else is inert.
type Tx struct {
	mock.Mock
	Committed  bool
	RolledBack bool
}

func (m *Tx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	m.Committed = true
	return args.Error(0)
}

func (m *Tx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	m.RolledBack = true
	return args.Error(0)
}

func (m *Tx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *Tx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *Tx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *Tx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *Tx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *Tx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *Tx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *Tx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *Tx) Conn() *pgx.Conn                                               { return nil }
