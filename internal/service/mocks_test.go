package service

import (
	"context"
	"sync/atomic"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

// MockResolver is a mock implementation of DiscountResolver.
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Price(ctx context.Context, product *model.Product) (model.ProductView, error) {
	args := m.Called(ctx, product)
	if fn, ok := args.Get(0).(func(context.Context, *model.Product) model.ProductView); ok {
		return fn(ctx, product), args.Error(1)
	}
	return args.Get(0).(model.ProductView), args.Error(1)
}

// MockVoucherValidator is a mock implementation of VoucherValidator.
type MockVoucherValidator struct {
	mock.Mock
}

func (m *MockVoucherValidator) Validate(ctx context.Context, code string, snapshot model.OrderSnapshot) (*model.VoucherQuote, error) {
	args := m.Called(ctx, code, snapshot)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VoucherQuote), args.Error(1)
}

func (m *MockVoucherValidator) Redeem(ctx context.Context, tx pgx.Tx, quote *model.VoucherQuote, usage model.VoucherUsage) error {
	return m.Called(ctx, tx, quote, usage).Error(0)
}

func (m *MockVoucherValidator) Release(ctx context.Context, tx pgx.Tx, voucherID, orderID uuid.UUID) error {
	return m.Called(ctx, tx, voucherID, orderID).Error(0)
}

// MockNotifier is a mock implementation of notify.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, event model.OrderEvent) error {
	return m.Called(ctx, event).Error(0)
}

// sequence is an idgen.Generator counting up from a fixed start.
type sequence struct {
	next atomic.Int64
}

func newSequence(start int64) *sequence {
	s := &sequence{}
	s.next.Store(start)
	return s
}

func (s *sequence) Next() int64 {
	return s.next.Add(1) - 1
}

// plainPrice returns a view with no discount.
func plainPrice(p model.Product) model.ProductView {
	return model.ProductView{Product: p, SalePrice: p.Price}
}
