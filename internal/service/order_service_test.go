package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/repository/mocks"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var orderNow = time.Date(2024, 7, 1, 9, 30, 0, 0, time.UTC)

var (
	customer = model.Principal{UserID: "u1", Email: "u1@example.com", Role: model.RoleCustomer}
	stranger = model.Principal{UserID: "u2", Email: "u2@example.com", Role: model.RoleCustomer}
	admin    = model.Principal{UserID: "admin", Role: model.RoleAdmin}
)

func catalogue() []model.Product {
	return []model.Product{
		{
			ID:         "P1",
			Name:       "Runner",
			Price:      200000,
			BrandID:    "B1",
			CategoryID: "Shoes",
			Sizes:      []model.ProductSize{{Size: "42", Quantity: 2}, {Size: "43", Quantity: 5}},
		},
		{
			ID:         "P2",
			Name:       "Tee",
			Price:      100000,
			CategoryID: "Shirts",
			Sizes:      []model.ProductSize{{Size: "M", Quantity: 10}},
		},
	}
}

// shoeSale prices shoes at 10% off and everything else at list price.
func shoeSale(_ context.Context, p *model.Product) model.ProductView {
	view := plainPrice(*p)
	if p.CategoryID == "Shoes" {
		view.SalePrice = p.Price * 9 / 10
		view.Discount = &model.AppliedDiscount{Name: "Shoe week", Percentage: 10}
	}
	return view
}

type orderFixture struct {
	orderRepo   *mocks.OrderRepository
	productRepo *mocks.ProductRepository
	resolver    *MockResolver
	vouchers    *MockVoucherValidator
	notifier    *MockNotifier
	tx          *mocks.Tx
	metrics     *metrics.Metrics
	service     *orderService
}

func newOrderFixture(cfg config.OrdersConfig) *orderFixture {
	f := &orderFixture{
		orderRepo:   new(mocks.OrderRepository),
		productRepo: new(mocks.ProductRepository),
		resolver:    new(MockResolver),
		vouchers:    new(MockVoucherValidator),
		notifier:    new(MockNotifier),
		tx:          new(mocks.Tx),
		metrics:     metrics.New(prometheus.NewRegistry()),
	}

	svc := NewOrderService(
		f.orderRepo,
		f.productRepo,
		f.resolver,
		f.vouchers,
		f.notifier,
		newSequence(1000),
		f.metrics,
		cfg,
		zerolog.Nop(),
	).(*orderService)
	svc.now = func() time.Time { return orderNow }
	f.service = svc

	return f
}

// expectCart stubs product loading and pricing for the default catalogue.
func (f *orderFixture) expectCart(ctx context.Context, ids ...string) {
	f.productRepo.On("GetByIDs", ctx, ids).Return(catalogue(), nil)
	f.resolver.On("Price", mock.Anything, mock.AnythingOfType("*model.Product")).Return(shoeSale, nil)
}

func (f *orderFixture) assertAll(t *testing.T) {
	f.orderRepo.AssertExpectations(t)
	f.productRepo.AssertExpectations(t)
	f.vouchers.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
	f.tx.AssertExpectations(t)
}

func orderRequest(items ...model.OrderItemRequest) *model.OrderRequest {
	return &model.OrderRequest{
		Items:         items,
		Address:       "1 Main Street",
		Phone:         "0900000000",
		RecipientName: "Buyer",
		PaymentMethod: model.PaymentCOD,
	}
}

func TestOrderService_PlaceOrder_WithVoucher(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(config.OrdersConfig{DeliveryDays: 3})

	code := "summer10"
	req := orderRequest(
		model.OrderItemRequest{ProductID: "P1", Size: "42", Quantity: 2},
		model.OrderItemRequest{ProductID: "P2", Size: "M", Quantity: 4},
	)
	req.VoucherCode = &code

	voucherID := uuid.New()
	quote := &model.VoucherQuote{
		Voucher:     &model.Voucher{ID: voucherID, Code: "SUMMER10"},
		Discount:    50000,
		FinalAmount: 710000,
	}
	snapshot := model.OrderSnapshot{
		TotalAmount: 760000,
		Products: []model.SnapshotProduct{
			{ID: "P1", CategoryID: "Shoes"},
			{ID: "P2", CategoryID: "Shirts"},
		},
	}

	f.expectCart(ctx, "P1", "P2")
	f.vouchers.On("Validate", ctx, code, snapshot).Return(quote, nil)
	f.orderRepo.On("BeginTx", ctx).Return(f.tx, nil)
	f.orderRepo.On("CreateOrder", ctx, f.tx, mock.AnythingOfType("*model.Order")).Return(nil)
	f.orderRepo.On("CreateOrderItems", ctx, f.tx, mock.AnythingOfType("[]model.OrderItem")).Return(nil)
	f.orderRepo.On("AppendStatus", ctx, f.tx, mock.Anything, mock.MatchedBy(func(e model.StatusEntry) bool {
		return e.Status == model.StatusPending && e.Note == "Order placed"
	})).Return(nil)
	f.productRepo.On("ReserveStock", ctx, f.tx, "P1", "42", 2).Return(true, nil)
	f.productRepo.On("ReserveStock", ctx, f.tx, "P2", "M", 4).Return(true, nil)
	f.vouchers.On("Redeem", ctx, f.tx, quote, mock.MatchedBy(func(u model.VoucherUsage) bool {
		return u.UserID == "u1" && u.OrderValue == 760000 && u.UsedAt.Equal(orderNow)
	})).Return(nil)
	f.tx.On("Commit", ctx).Return(nil)
	f.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(e model.OrderEvent) bool {
		return e.Type == model.EventOrderPlaced && e.Email == "u1@example.com" && e.Discount == 50000 && len(e.Items) == 2
	})).Return(nil)

	order, err := f.service.PlaceOrder(ctx, customer, req)

	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, int64(1000), order.Number)
	assert.Equal(t, "u1", order.UserID)
	assert.Equal(t, model.StatusPending, order.Status)
	assert.Equal(t, int64(760000), order.TotalAmount)
	assert.Equal(t, int64(710000), order.FinalAmount)
	require.NotNil(t, order.Voucher)
	assert.Equal(t, voucherID, order.Voucher.VoucherID)
	assert.Equal(t, "SUMMER10", order.Voucher.Code)
	assert.Equal(t, int64(50000), order.Voucher.Discount)
	assert.Equal(t, orderNow.AddDate(0, 0, 3), order.EstimatedDelivery)

	require.Len(t, order.Items, 2)
	assert.Equal(t, int64(180000), order.Items[0].UnitPrice)
	assert.Equal(t, "Runner", order.Items[0].Name)
	assert.Equal(t, order.ID, order.Items[0].OrderID)
	assert.Equal(t, int64(100000), order.Items[1].UnitPrice)

	require.Len(t, order.StatusHistory, 1)
	assert.Equal(t, model.StatusPending, order.StatusHistory[0].Status)

	assert.True(t, f.tx.Committed)
	assert.False(t, f.tx.RolledBack)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.OrdersPlaced.WithLabelValues("cod")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.VouchersRedeemed))
	f.assertAll(t)
}

func TestOrderService_PlaceOrder_WithoutVoucher(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(config.OrdersConfig{DeliveryDays: 5})

	submitted := int64(1)
	req := orderRequest(model.OrderItemRequest{ProductID: "P2", Size: "M", Quantity: 1})
	req.TotalAmount = &submitted
	req.PaymentMethod = model.PaymentVNPay

	f.expectCart(ctx, "P2")
	f.orderRepo.On("BeginTx", ctx).Return(f.tx, nil)
	f.orderRepo.On("CreateOrder", ctx, f.tx, mock.Anything).Return(nil)
	f.orderRepo.On("CreateOrderItems", ctx, f.tx, mock.Anything).Return(nil)
	f.orderRepo.On("AppendStatus", ctx, f.tx, mock.Anything, mock.Anything).Return(nil)
	f.productRepo.On("ReserveStock", ctx, f.tx, "P2", "M", 1).Return(true, nil)
	f.tx.On("Commit", ctx).Return(nil)
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)

	order, err := f.service.PlaceOrder(ctx, customer, req)

	require.NoError(t, err)
	assert.Equal(t, int64(100000), order.TotalAmount, "submitted total is ignored")
	assert.Equal(t, order.TotalAmount, order.FinalAmount)
	assert.Nil(t, order.Voucher)
	assert.Equal(t, orderNow.AddDate(0, 0, 5), order.EstimatedDelivery)
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.VouchersRedeemed))
	f.vouchers.AssertNotCalled(t, "Validate", mock.Anything, mock.Anything, mock.Anything)
	f.vouchers.AssertNotCalled(t, "Redeem", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.assertAll(t)
}

func TestOrderService_PlaceOrder_RejectedBeforeWriting(t *testing.T) {
	ctx := context.Background()
	code := "SUMMER10"

	tests := []struct {
		name      string
		req       *model.OrderRequest
		setup     func(*orderFixture)
		expected  error
		errSubstr string
	}{
		{
			name: "More than in stock",
			req:  orderRequest(model.OrderItemRequest{ProductID: "P1", Size: "42", Quantity: 3}),
			setup: func(f *orderFixture) {
				f.expectCart(ctx, "P1")
			},
			expected:  model.ErrInsufficientStock,
			errSubstr: "Only 2 left in stock for Runner (size 42)",
		},
		{
			name: "Later line short after an earlier line fits",
			req: orderRequest(
				model.OrderItemRequest{ProductID: "P2", Size: "M", Quantity: 1},
				model.OrderItemRequest{ProductID: "P1", Size: "42", Quantity: 3},
			),
			setup: func(f *orderFixture) {
				f.expectCart(ctx, "P2", "P1")
			},
			expected: model.ErrInsufficientStock,
		},
		{
			name: "Repeated lines counted together",
			req: orderRequest(
				model.OrderItemRequest{ProductID: "P1", Size: "42", Quantity: 1},
				model.OrderItemRequest{ProductID: "P1", Size: "42", Quantity: 2},
			),
			setup: func(f *orderFixture) {
				f.expectCart(ctx, "P1", "P1")
			},
			expected: model.ErrInsufficientStock,
		},
		{
			name: "Unknown product",
			req:  orderRequest(model.OrderItemRequest{ProductID: "P9", Size: "M", Quantity: 1}),
			setup: func(f *orderFixture) {
				f.productRepo.On("GetByIDs", ctx, []string{"P9"}).Return([]model.Product{}, nil)
			},
			expected: model.ErrProductNotFound,
		},
		{
			name: "Unknown size",
			req:  orderRequest(model.OrderItemRequest{ProductID: "P2", Size: "XXL", Quantity: 1}),
			setup: func(f *orderFixture) {
				f.expectCart(ctx, "P2")
			},
			expected: model.ErrSizeNotFound,
		},
		{
			name: "Voucher rejected",
			req: func() *model.OrderRequest {
				r := orderRequest(model.OrderItemRequest{ProductID: "P2", Size: "M", Quantity: 1})
				r.VoucherCode = &code
				return r
			}(),
			setup: func(f *orderFixture) {
				f.expectCart(ctx, "P2")
				f.vouchers.On("Validate", ctx, code, mock.Anything).
					Return(nil, model.NewBelowMinOrderValueError(500000))
			},
			expected:  model.ErrBelowMinOrderValue,
			errSubstr: "500000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(config.OrdersConfig{DeliveryDays: 3})
			tt.setup(f)

			order, err := f.service.PlaceOrder(ctx, customer, tt.req)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.expected)
			if tt.errSubstr != "" {
				assert.Contains(t, err.Error(), tt.errSubstr)
			}
			assert.Nil(t, order)
			f.orderRepo.AssertNotCalled(t, "BeginTx", mock.Anything)
			f.productRepo.AssertNotCalled(t, "ReserveStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
		})
	}
}

func TestOrderService_PlaceOrder_Validation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		req  *model.OrderRequest
	}{
		{name: "Nil request", req: nil},
		{name: "Empty cart", req: orderRequest()},
		{
			name: "Zero quantity",
			req:  orderRequest(model.OrderItemRequest{ProductID: "P1", Size: "42", Quantity: 0}),
		},
		{
			name: "Missing size",
			req:  orderRequest(model.OrderItemRequest{ProductID: "P1", Quantity: 1}),
		},
		{
			name: "Quantity above line limit",
			req:  orderRequest(model.OrderItemRequest{ProductID: "P1", Size: "42", Quantity: 100001}),
		},
		{
			name: "Unknown payment method",
			req: func() *model.OrderRequest {
				r := orderRequest(model.OrderItemRequest{ProductID: "P1", Size: "42", Quantity: 1})
				r.PaymentMethod = "barter"
				return r
			}(),
		},
		{
			name: "Missing address",
			req: func() *model.OrderRequest {
				r := orderRequest(model.OrderItemRequest{ProductID: "P1", Size: "42", Quantity: 1})
				r.Address = ""
				return r
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(config.OrdersConfig{})

			_, err := f.service.PlaceOrder(ctx, customer, tt.req)

			de, ok := model.AsDomainError(err)
			require.True(t, ok, "expected a domain error, got %v", err)
			assert.Equal(t, model.KindValidation, de.Kind)
			f.productRepo.AssertNotCalled(t, "GetByIDs", mock.Anything, mock.Anything)
		})
	}
}

func TestCheckStock(t *testing.T) {
	views := map[string]model.ProductView{
		"P1": plainPrice(catalogue()[0]),
	}

	tests := []struct {
		name    string
		items   []model.OrderItemRequest
		wantErr bool
	}{
		{
			name:  "Exactly the stock",
			items: []model.OrderItemRequest{{ProductID: "P1", Size: "42", Quantity: 2}},
		},
		{
			name: "Other size counted separately",
			items: []model.OrderItemRequest{
				{ProductID: "P1", Size: "42", Quantity: 2},
				{ProductID: "P1", Size: "43", Quantity: 5},
			},
		},
		{
			name: "Repeated lines over stock",
			items: []model.OrderItemRequest{
				{ProductID: "P1", Size: "42", Quantity: 1},
				{ProductID: "P1", Size: "42", Quantity: 2},
			},
			wantErr: true,
		},
		{
			name: "Huge repeated line does not wrap",
			items: []model.OrderItemRequest{
				{ProductID: "P1", Size: "42", Quantity: 1},
				{ProductID: "P1", Size: "42", Quantity: math.MaxInt},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkStock(tt.items, views)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, model.ErrInsufficientStock)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestOrderService_PlaceOrder_RollsBack(t *testing.T) {
	ctx := context.Background()
	code := "LAST"

	tests := []struct {
		name     string
		setup    func(*orderFixture, *model.VoucherQuote)
		expected error
		contains string
	}{
		{
			name: "Stock taken by a concurrent order",
			setup: func(f *orderFixture, _ *model.VoucherQuote) {
				f.productRepo.On("ReserveStock", ctx, f.tx, "P1", "42", 2).Return(false, nil)
			},
			expected: model.ErrInsufficientStock,
		},
		{
			name: "Last voucher use taken by a concurrent order",
			setup: func(f *orderFixture, quote *model.VoucherQuote) {
				f.productRepo.On("ReserveStock", ctx, f.tx, "P1", "42", 2).Return(true, nil)
				f.vouchers.On("Redeem", ctx, f.tx, quote, mock.Anything).Return(model.ErrVoucherExhausted)
			},
			expected: model.ErrVoucherExhausted,
		},
		{
			name: "Stock update fails",
			setup: func(f *orderFixture, _ *model.VoucherQuote) {
				f.productRepo.On("ReserveStock", ctx, f.tx, "P1", "42", 2).Return(false, errors.New("deadlock detected"))
			},
			contains: "failed to reserve stock",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(config.OrdersConfig{DeliveryDays: 3})
			quote := &model.VoucherQuote{Voucher: &model.Voucher{ID: uuid.New(), Code: code}, Discount: 1000, FinalAmount: 359000}

			req := orderRequest(model.OrderItemRequest{ProductID: "P1", Size: "42", Quantity: 2})
			req.VoucherCode = &code

			f.expectCart(ctx, "P1")
			f.vouchers.On("Validate", ctx, code, mock.Anything).Return(quote, nil)
			f.orderRepo.On("BeginTx", ctx).Return(f.tx, nil)
			f.orderRepo.On("CreateOrder", ctx, f.tx, mock.Anything).Return(nil)
			f.orderRepo.On("CreateOrderItems", ctx, f.tx, mock.Anything).Return(nil)
			f.orderRepo.On("AppendStatus", ctx, f.tx, mock.Anything, mock.Anything).Return(nil)
			f.tx.On("Rollback", ctx).Return(nil)
			tt.setup(f, quote)

			order, err := f.service.PlaceOrder(ctx, customer, req)

			require.Error(t, err)
			if tt.expected != nil {
				assert.ErrorIs(t, err, tt.expected)
			}
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
			assert.Nil(t, order)
			assert.True(t, f.tx.RolledBack)
			assert.False(t, f.tx.Committed)
			f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
			assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.OrdersPlaced.WithLabelValues("cod")))
		})
	}
}

func TestOrderService_PlaceOrder_NotificationFailureIsIgnored(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(config.OrdersConfig{DeliveryDays: 3})

	f.expectCart(ctx, "P2")
	f.orderRepo.On("BeginTx", ctx).Return(f.tx, nil)
	f.orderRepo.On("CreateOrder", ctx, f.tx, mock.Anything).Return(nil)
	f.orderRepo.On("CreateOrderItems", ctx, f.tx, mock.Anything).Return(nil)
	f.orderRepo.On("AppendStatus", ctx, f.tx, mock.Anything, mock.Anything).Return(nil)
	f.productRepo.On("ReserveStock", ctx, f.tx, "P2", "M", 1).Return(true, nil)
	f.tx.On("Commit", ctx).Return(nil)
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	order, err := f.service.PlaceOrder(ctx, customer, orderRequest(model.OrderItemRequest{ProductID: "P2", Size: "M", Quantity: 1}))

	require.NoError(t, err)
	assert.NotNil(t, order)
}

func TestOrderService_PlaceOrder_BeginTxError(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(config.OrdersConfig{})

	f.expectCart(ctx, "P2")
	f.orderRepo.On("BeginTx", ctx).Return(nil, errors.New("pool closed"))

	_, err := f.service.PlaceOrder(ctx, customer, orderRequest(model.OrderItemRequest{ProductID: "P2", Size: "M", Quantity: 1}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create order")
}

func pendingOrder(owner string) *model.Order {
	return &model.Order{
		ID:     uuid.New(),
		Number: 42,
		UserID: owner,
		Email:  owner + "@example.com",
		Status: model.StatusPending,
		Items: []model.OrderItem{
			{ProductID: "P1", Name: "Runner", Size: "42", Quantity: 2, UnitPrice: 180000},
			{ProductID: "P2", Name: "Tee", Size: "M", Quantity: 1, UnitPrice: 100000},
		},
		StatusHistory: []model.StatusEntry{{Status: model.StatusPending, Note: "Order placed"}},
	}
}

func TestOrderService_GetByID(t *testing.T) {
	ctx := context.Background()
	order := pendingOrder("u1")

	tests := []struct {
		name      string
		principal model.Principal
		expected  error
	}{
		{name: "Owner", principal: customer},
		{name: "Admin", principal: admin},
		{name: "Someone else", principal: stranger, expected: model.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(config.OrdersConfig{})
			f.orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)

			got, err := f.service.GetByID(ctx, tt.principal, order.ID)

			if tt.expected != nil {
				assert.ErrorIs(t, err, tt.expected)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, order.ID, got.ID)
		})
	}

	t.Run("Missing order", func(t *testing.T) {
		f := newOrderFixture(config.OrdersConfig{})
		id := uuid.New()
		f.orderRepo.On("GetByID", ctx, id).Return(nil, nil)

		_, err := f.service.GetByID(ctx, customer, id)

		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})
}

func TestOrderService_Listing(t *testing.T) {
	ctx := context.Background()

	t.Run("ListMine uses the caller", func(t *testing.T) {
		f := newOrderFixture(config.OrdersConfig{})
		f.orderRepo.On("ListByUser", ctx, "u1", 10, 0).Return([]model.Order{*pendingOrder("u1")}, nil)

		orders, err := f.service.ListMine(ctx, customer, 0, 0)

		require.NoError(t, err)
		assert.Len(t, orders, 1)
		f.orderRepo.AssertExpectations(t)
	})

	t.Run("List with status filter", func(t *testing.T) {
		f := newOrderFixture(config.OrdersConfig{})
		filter := model.OrderFilter{Status: model.StatusCancel, Limit: 20}
		f.orderRepo.On("List", ctx, filter).Return([]model.Order{}, nil)

		orders, err := f.service.List(ctx, filter)

		require.NoError(t, err)
		assert.Empty(t, orders)
		f.orderRepo.AssertExpectations(t)
	})

	t.Run("List with unknown status", func(t *testing.T) {
		f := newOrderFixture(config.OrdersConfig{})

		_, err := f.service.List(ctx, model.OrderFilter{Status: "lost"})

		de, ok := model.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, model.KindValidation, de.Kind)
	})
}

// expectTransition stubs a successful conditional status change.
func (f *orderFixture) expectTransition(ctx context.Context, order *model.Order, from, to model.OrderStatus, note string) {
	f.orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)
	f.orderRepo.On("BeginTx", ctx).Return(f.tx, nil)
	f.orderRepo.On("UpdateStatus", ctx, f.tx, order.ID, from, to, orderNow).Return(true, nil)
	f.orderRepo.On("AppendStatus", ctx, f.tx, order.ID, model.StatusEntry{Status: to, Note: note, Timestamp: orderNow}).Return(nil)
	f.tx.On("Commit", ctx).Return(nil)
}

func TestOrderService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("Pending to processing", func(t *testing.T) {
		f := newOrderFixture(config.OrdersConfig{})
		order := pendingOrder("u1")
		f.expectTransition(ctx, order, model.StatusPending, model.StatusProcessing, "Order is being processed")
		f.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(e model.OrderEvent) bool {
			return e.Type == model.EventOrderProcessing && e.Status == model.StatusProcessing
		})).Return(nil)

		got, err := f.service.UpdateStatus(ctx, order.ID, &model.StatusUpdateRequest{Status: model.StatusProcessing})

		require.NoError(t, err)
		assert.Equal(t, model.StatusProcessing, got.Status)
		require.Len(t, got.StatusHistory, 2)
		assert.Equal(t, "Order is being processed", got.StatusHistory[1].Note)
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.StatusTransitions.WithLabelValues("pending", "processing")))
		f.productRepo.AssertNotCalled(t, "RestoreStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.assertAll(t)
	})

	t.Run("Custom note", func(t *testing.T) {
		f := newOrderFixture(config.OrdersConfig{})
		order := pendingOrder("u1")
		order.Status = model.StatusProcessing
		f.expectTransition(ctx, order, model.StatusProcessing, model.StatusDelivered, "left at the door")
		f.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(e model.OrderEvent) bool {
			return e.Type == model.EventOrderDelivered && e.Note == "left at the door"
		})).Return(nil)

		got, err := f.service.UpdateStatus(ctx, order.ID, &model.StatusUpdateRequest{Status: model.StatusDelivered, Note: "left at the door"})

		require.NoError(t, err)
		assert.Equal(t, model.StatusDelivered, got.Status)
		f.assertAll(t)
	})

	t.Run("Admin cancel restores stock", func(t *testing.T) {
		f := newOrderFixture(config.OrdersConfig{})
		order := pendingOrder("u1")
		order.Voucher = &model.OrderVoucher{VoucherID: uuid.New(), Code: "SAVE", Discount: 1000}
		f.expectTransition(ctx, order, model.StatusPending, model.StatusCancel, "Order cancelled")
		f.productRepo.On("RestoreStock", ctx, f.tx, "P1", "42", 2).Return(true, nil)
		f.productRepo.On("RestoreStock", ctx, f.tx, "P2", "M", 1).Return(true, nil)
		f.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)

		got, err := f.service.UpdateStatus(ctx, order.ID, &model.StatusUpdateRequest{Status: model.StatusCancel})

		require.NoError(t, err)
		assert.Equal(t, model.StatusCancel, got.Status)
		f.vouchers.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.assertAll(t)
	})

	t.Run("Illegal transition", func(t *testing.T) {
		f := newOrderFixture(config.OrdersConfig{})
		order := pendingOrder("u1")
		order.Status = model.StatusDelivered
		f.orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)

		_, err := f.service.UpdateStatus(ctx, order.ID, &model.StatusUpdateRequest{Status: model.StatusPending})

		assert.ErrorIs(t, err, model.ErrIllegalTransition)
		f.orderRepo.AssertNotCalled(t, "BeginTx", mock.Anything)
	})

	t.Run("Order moved by another request", func(t *testing.T) {
		f := newOrderFixture(config.OrdersConfig{})
		order := pendingOrder("u1")
		f.orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)
		f.orderRepo.On("BeginTx", ctx).Return(f.tx, nil)
		f.orderRepo.On("UpdateStatus", ctx, f.tx, order.ID, model.StatusPending, model.StatusCancel, orderNow).Return(false, nil)
		f.tx.On("Rollback", ctx).Return(nil)

		_, err := f.service.UpdateStatus(ctx, order.ID, &model.StatusUpdateRequest{Status: model.StatusCancel})

		assert.ErrorIs(t, err, model.ErrIllegalTransition)
		assert.True(t, f.tx.RolledBack)
		f.productRepo.AssertNotCalled(t, "RestoreStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	})

	t.Run("Missing order", func(t *testing.T) {
		f := newOrderFixture(config.OrdersConfig{})
		id := uuid.New()
		f.orderRepo.On("GetByID", ctx, id).Return(nil, nil)

		_, err := f.service.UpdateStatus(ctx, id, &model.StatusUpdateRequest{Status: model.StatusProcessing})

		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})

	t.Run("Missing status", func(t *testing.T) {
		f := newOrderFixture(config.OrdersConfig{})

		_, err := f.service.UpdateStatus(ctx, uuid.New(), &model.StatusUpdateRequest{})

		de, ok := model.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, model.KindValidation, de.Kind)
	})
}

func TestOrderService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("Owner cancels a pending order", func(t *testing.T) {
		f := newOrderFixture(config.OrdersConfig{})
		order := pendingOrder("u1")
		f.expectTransition(ctx, order, model.StatusPending, model.StatusCancel, "changed my mind")
		f.productRepo.On("RestoreStock", ctx, f.tx, "P1", "42", 2).Return(true, nil)
		f.productRepo.On("RestoreStock", ctx, f.tx, "P2", "M", 1).Return(true, nil)
		f.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(e model.OrderEvent) bool {
			return e.Type == model.EventOrderCancelled
		})).Return(nil)

		got, err := f.service.Cancel(ctx, customer, order.ID, "changed my mind")

		require.NoError(t, err)
		assert.Equal(t, model.StatusCancel, got.Status)
		f.assertAll(t)
	})

	t.Run("Voucher released when configured", func(t *testing.T) {
		f := newOrderFixture(config.OrdersConfig{VoucherReleaseOnCancel: true})
		order := pendingOrder("u1")
		order.Voucher = &model.OrderVoucher{VoucherID: uuid.New(), Code: "SAVE", Discount: 1000}
		f.expectTransition(ctx, order, model.StatusPending, model.StatusCancel, "Order cancelled")
		f.productRepo.On("RestoreStock", ctx, f.tx, mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
		f.vouchers.On("Release", ctx, f.tx, order.Voucher.VoucherID, order.ID).Return(nil)
		f.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)

		_, err := f.service.Cancel(ctx, customer, order.ID, "")

		require.NoError(t, err)
		f.assertAll(t)
	})

	t.Run("Cancel completes when a size was removed", func(t *testing.T) {
		f := newOrderFixture(config.OrdersConfig{})
		order := pendingOrder("u1")
		f.expectTransition(ctx, order, model.StatusPending, model.StatusCancel, "Order cancelled")
		f.productRepo.On("RestoreStock", ctx, f.tx, "P1", "42", 2).Return(false, nil)
		f.productRepo.On("RestoreStock", ctx, f.tx, "P2", "M", 1).Return(true, nil)
		f.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)

		got, err := f.service.Cancel(ctx, customer, order.ID, "")

		require.NoError(t, err)
		assert.Equal(t, model.StatusCancel, got.Status)
		f.assertAll(t)
	})

	t.Run("Admin cancels a processing order when enabled", func(t *testing.T) {
		f := newOrderFixture(config.OrdersConfig{AdminCancelProcessing: true})
		order := pendingOrder("u1")
		order.Status = model.StatusProcessing
		f.expectTransition(ctx, order, model.StatusProcessing, model.StatusCancel, "Order cancelled")
		f.productRepo.On("RestoreStock", ctx, f.tx, "P1", "42", 2).Return(true, nil)
		f.productRepo.On("RestoreStock", ctx, f.tx, "P2", "M", 1).Return(true, nil)
		f.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)

		got, err := f.service.Cancel(ctx, admin, order.ID, "")

		require.NoError(t, err)
		assert.Equal(t, model.StatusCancel, got.Status)
		f.assertAll(t)
	})

	t.Run("Restore failure rolls back", func(t *testing.T) {
		f := newOrderFixture(config.OrdersConfig{})
		order := pendingOrder("u1")
		f.orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)
		f.orderRepo.On("BeginTx", ctx).Return(f.tx, nil)
		f.orderRepo.On("UpdateStatus", ctx, f.tx, order.ID, model.StatusPending, model.StatusCancel, orderNow).Return(true, nil)
		f.orderRepo.On("AppendStatus", ctx, f.tx, order.ID, mock.Anything).Return(nil)
		f.productRepo.On("RestoreStock", ctx, f.tx, "P1", "42", 2).Return(false, errors.New("connection lost"))
		f.tx.On("Rollback", ctx).Return(nil)

		_, err := f.service.Cancel(ctx, customer, order.ID, "")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to restore stock")
		assert.True(t, f.tx.RolledBack)
		assert.Equal(t, model.StatusPending, order.Status)
	})

	tests := []struct {
		name      string
		principal model.Principal
		status    model.OrderStatus
		expected  error
	}{
		{name: "Owner cannot cancel a processing order", principal: customer, status: model.StatusProcessing, expected: model.ErrForbidden},
		{name: "Owner cannot cancel a delivered order", principal: customer, status: model.StatusDelivered, expected: model.ErrForbidden},
		{name: "Owner cannot cancel twice", principal: customer, status: model.StatusCancel, expected: model.ErrForbidden},
		{name: "Another customer", principal: stranger, status: model.StatusPending, expected: model.ErrForbidden},
		{name: "Admin cannot cancel a processing order", principal: admin, status: model.StatusProcessing, expected: model.ErrIllegalTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(config.OrdersConfig{})
			order := pendingOrder("u1")
			order.Status = tt.status
			f.orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)

			_, err := f.service.Cancel(ctx, tt.principal, order.ID, "")

			assert.ErrorIs(t, err, tt.expected)
			f.orderRepo.AssertNotCalled(t, "BeginTx", mock.Anything)
		})
	}
}
