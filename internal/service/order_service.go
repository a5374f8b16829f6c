package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/config"
	"storefront/internal/idgen"
	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/notify"
	"storefront/internal/orderflow"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	resolver    DiscountResolver
	vouchers    VoucherValidator
	notifier    notify.Notifier
	ids         idgen.Generator
	metrics     *metrics.Metrics
	cfg         config.OrdersConfig
	flow        orderflow.Rules
	logger      zerolog.Logger
	now         func() time.Time
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	resolver DiscountResolver,
	vouchers VoucherValidator,
	notifier notify.Notifier,
	ids idgen.Generator,
	m *metrics.Metrics,
	cfg config.OrdersConfig,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		resolver:    resolver,
		vouchers:    vouchers,
		notifier:    notifier,
		ids:         ids,
		metrics:     m,
		cfg:         cfg,
		flow:        orderflow.Rules{AdminCancelProcessing: cfg.AdminCancelProcessing},
		logger:      logger.With().Str("service", "order").Logger(),
		now:         time.Now,
	}
}

type stockKey struct {
	productID string
	size      string
}

// PlaceOrder prices the cart, applies the voucher if any and reserves stock.
func (s *orderService) PlaceOrder(ctx context.Context, principal model.Principal, req *model.OrderRequest) (*model.Order, error) {
	if req == nil {
		return nil, model.NewValidationError("request body is required")
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	views, err := s.priceCart(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	now := s.now()
	order := &model.Order{
		ID:                uuid.New(),
		Number:            s.ids.Next(),
		UserID:            principal.UserID,
		Email:             principal.Email,
		RecipientName:     req.RecipientName,
		Phone:             req.Phone,
		Address:           req.Address,
		PaymentMethod:     req.PaymentMethod,
		Status:            model.StatusPending,
		EstimatedDelivery: now.AddDate(0, 0, s.cfg.DeliveryDays),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	snapshot := model.OrderSnapshot{}
	seen := make(map[string]bool, len(views))
	for _, item := range req.Items {
		view := views[item.ProductID]
		order.Items = append(order.Items, model.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Name:      view.Name,
			Size:      item.Size,
			Quantity:  item.Quantity,
			UnitPrice: view.SalePrice,
		})
		order.TotalAmount += view.SalePrice * int64(item.Quantity)

		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			snapshot.Products = append(snapshot.Products, model.SnapshotProduct{ID: view.ID, CategoryID: view.CategoryID})
		}
	}
	snapshot.TotalAmount = order.TotalAmount

	if req.TotalAmount != nil && *req.TotalAmount != order.TotalAmount {
		s.logger.Warn().
			Str("user_id", principal.UserID).
			Int64("submitted_total", *req.TotalAmount).
			Int64("computed_total", order.TotalAmount).
			Msg("submitted total differs from computed total, using computed total")
	}

	var quote *model.VoucherQuote
	if req.VoucherCode != nil && *req.VoucherCode != "" {
		quote, err = s.vouchers.Validate(ctx, *req.VoucherCode, snapshot)
		if err != nil {
			s.logger.Warn().
				Str("voucher_code", *req.VoucherCode).
				Err(err).
				Msg("invalid voucher code")
			return nil, err
		}
		order.Voucher = &model.OrderVoucher{
			VoucherID: quote.Voucher.ID,
			Code:      quote.Voucher.Code,
			Discount:  quote.Discount,
		}
	}

	order.FinalAmount = order.TotalAmount
	if quote != nil {
		order.FinalAmount = quote.FinalAmount
	}

	if err := checkStock(req.Items, views); err != nil {
		s.logger.Info().Err(err).Str("user_id", principal.UserID).Msg("order rejected for stock")
		return nil, err
	}

	order.StatusHistory = []model.StatusEntry{{
		Status:    model.StatusPending,
		Note:      orderflow.DefaultNote(model.StatusPending),
		Timestamp: now,
	}}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err := s.persistOrder(ctx, tx, order, views, quote); err != nil {
		s.rollback(ctx, tx, order.ID)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.metrics.OrdersPlaced.WithLabelValues(string(order.PaymentMethod)).Inc()
	if quote != nil {
		s.metrics.VouchersRedeemed.Inc()
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Int64("order_number", order.Number).
		Int("item_count", len(order.Items)).
		Int64("total_amount", order.TotalAmount).
		Int64("final_amount", order.FinalAmount).
		Msg("order created successfully")

	s.notify(ctx, model.NewOrderEvent(model.EventOrderPlaced, order, "", now))

	return order, nil
}

// priceCart loads and prices every product in the cart, keyed by id.
func (s *orderService) priceCart(ctx context.Context, items []model.OrderItemRequest) (map[string]model.ProductView, error) {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error().Err(err).Int("product_count", len(ids)).Msg("failed to load cart products")
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	priced, err := priceAll(ctx, s.resolver, products, 0)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to price cart")
		return nil, err
	}

	views := make(map[string]model.ProductView, len(priced))
	for _, view := range priced {
		views[view.ID] = view
	}

	for _, item := range items {
		view, ok := views[item.ProductID]
		if !ok {
			s.logger.Warn().Str("product_id", item.ProductID).Msg("cart product not found")
			return nil, model.ErrProductNotFound
		}
		if _, ok := view.Size(item.Size); !ok {
			s.logger.Warn().
				Str("product_id", item.ProductID).
				Str("size", item.Size).
				Msg("cart size not found")
			return nil, model.ErrSizeNotFound
		}
	}

	return views, nil
}

// checkStock confirms every line can be fulfilled before anything is written.
// Lines for the same product and size are counted together.
func checkStock(items []model.OrderItemRequest, views map[string]model.ProductView) error {
	demand := make(map[stockKey]int, len(items))
	for _, item := range items {
		key := stockKey{item.ProductID, item.Size}
		view := views[item.ProductID]
		size, _ := view.Size(item.Size)
		if item.Quantity > size.Quantity-demand[key] {
			return model.NewInsufficientStockError(view.Name, item.Size, size.Quantity)
		}
		demand[key] += item.Quantity
	}
	return nil
}

// persistOrder writes the order and takes stock and voucher usage inside tx.
func (s *orderService) persistOrder(
	ctx context.Context,
	tx pgx.Tx,
	order *model.Order,
	views map[string]model.ProductView,
	quote *model.VoucherQuote,
) error {
	if err := s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	if err := s.orderRepo.CreateOrderItems(ctx, tx, order.Items); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Int("item_count", len(order.Items)).
			Msg("failed to create order items")
		return fmt.Errorf("failed to create order items: %w", err)
	}

	if err := s.orderRepo.AppendStatus(ctx, tx, order.ID, order.StatusHistory[0]); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to record order status")
		return fmt.Errorf("failed to record order status: %w", err)
	}

	for _, item := range order.Items {
		ok, err := s.productRepo.ReserveStock(ctx, tx, item.ProductID, item.Size, item.Quantity)
		if err != nil {
			s.logger.Error().Err(err).Str("product_id", item.ProductID).Msg("failed to reserve stock")
			return fmt.Errorf("failed to reserve stock: %w", err)
		}
		if !ok {
			s.logger.Info().
				Str("product_id", item.ProductID).
				Str("size", item.Size).
				Msg("stock taken by a concurrent order")
			return model.NewInsufficientStockError(views[item.ProductID].Name, item.Size, 0)
		}
	}

	if quote != nil {
		usage := model.VoucherUsage{
			UserID:     order.UserID,
			OrderID:    order.ID,
			UsedAt:     order.CreatedAt,
			OrderValue: order.TotalAmount,
		}
		if err := s.vouchers.Redeem(ctx, tx, quote, usage); err != nil {
			return err
		}
	}

	return nil
}

// GetByID retrieves an order visible to principal.
func (s *orderService) GetByID(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if !principal.IsAdmin() && order.UserID != principal.UserID {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("user_id", principal.UserID).
			Msg("order access denied")
		return nil, model.ErrForbidden
	}

	return order, nil
}

func (s *orderService) ListMine(ctx context.Context, principal model.Principal, limit, offset int) ([]model.Order, error) {
	limit, offset = clampPage(limit, offset)

	orders, err := s.orderRepo.ListByUser(ctx, principal.UserID, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", principal.UserID).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *orderService) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, model.NewValidationError("invalid order status %q", filter.Status)
	}
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset)

	orders, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Str("status", string(filter.Status)).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus applies an admin status transition.
func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, req *model.StatusUpdateRequest) (*model.Order, error) {
	if req == nil {
		return nil, model.NewValidationError("request body is required")
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	transition, err := s.flow.Lookup(order.Status, req.Status)
	if err != nil {
		s.logger.Info().
			Str("order_id", id.String()).
			Str("from", string(order.Status)).
			Str("to", string(req.Status)).
			Msg("status transition rejected")
		return nil, err
	}

	return s.apply(ctx, order, transition, req.Note)
}

// Cancel cancels an order. Admins follow the admin table, customers may only
// cancel their own pending orders.
func (s *orderService) Cancel(ctx context.Context, principal model.Principal, id uuid.UUID, note string) (*model.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	var transition orderflow.Transition
	if principal.IsAdmin() {
		transition, err = s.flow.Lookup(order.Status, model.StatusCancel)
	} else if order.UserID != principal.UserID {
		err = model.ErrForbidden
	} else {
		transition, err = s.flow.LookupSelfService(order.Status, model.StatusCancel)
	}
	if err != nil {
		s.logger.Info().
			Str("order_id", id.String()).
			Str("user_id", principal.UserID).
			Str("status", string(order.Status)).
			Err(err).
			Msg("cancellation rejected")
		return nil, err
	}

	return s.apply(ctx, order, transition, note)
}

// apply runs transition against order in one transaction. The status only
// changes if nobody moved the order in the meantime.
func (s *orderService) apply(ctx context.Context, order *model.Order, transition orderflow.Transition, note string) (*model.Order, error) {
	if note == "" {
		note = transition.Note
	}
	now := s.now()
	entry := model.StatusEntry{Status: transition.To, Note: note, Timestamp: now}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	if err := s.applyInTx(ctx, tx, order, transition, entry); err != nil {
		s.rollback(ctx, tx, order.ID)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	order.Status = transition.To
	order.UpdatedAt = now
	order.StatusHistory = append(order.StatusHistory, entry)

	s.metrics.StatusTransitions.WithLabelValues(string(transition.From), string(transition.To)).Inc()

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("from", string(transition.From)).
		Str("to", string(transition.To)).
		Msg("order status updated")

	s.notify(ctx, model.NewOrderEvent(transition.Event, order, note, now))

	return order, nil
}

func (s *orderService) applyInTx(ctx context.Context, tx pgx.Tx, order *model.Order, transition orderflow.Transition, entry model.StatusEntry) error {
	ok, err := s.orderRepo.UpdateStatus(ctx, tx, order.ID, transition.From, transition.To, entry.Timestamp)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to update order status")
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if !ok {
		s.logger.Info().
			Str("order_id", order.ID.String()).
			Str("from", string(transition.From)).
			Msg("order status changed concurrently")
		return model.NewIllegalTransitionError(transition.From, transition.To)
	}

	if err := s.orderRepo.AppendStatus(ctx, tx, order.ID, entry); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to record order status")
		return fmt.Errorf("failed to record order status: %w", err)
	}

	if transition.RestoresStock {
		for _, item := range order.Items {
			restored, err := s.productRepo.RestoreStock(ctx, tx, item.ProductID, item.Size, item.Quantity)
			if err != nil {
				s.logger.Error().Err(err).Str("product_id", item.ProductID).Msg("failed to restore stock")
				return fmt.Errorf("failed to restore stock: %w", err)
			}
			if !restored {
				s.logger.Warn().
					Str("order_id", order.ID.String()).
					Str("product_id", item.ProductID).
					Str("size", item.Size).
					Int("quantity", item.Quantity).
					Msg("size no longer exists, stock not restored")
			}
		}
	}

	if transition.To == model.StatusCancel && s.cfg.VoucherReleaseOnCancel && order.Voucher != nil {
		if err := s.vouchers.Release(ctx, tx, order.Voucher.VoucherID, order.ID); err != nil {
			return err
		}
	}

	return nil
}

func (s *orderService) load(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		s.logger.Debug().Str("order_id", id.String()).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) rollback(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to rollback transaction")
	}
}

// notify dispatches event after commit. A failed notification never fails the order.
func (s *orderService) notify(ctx context.Context, event model.OrderEvent) {
	if err := s.notifier.Notify(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Warn().
			Err(err).
			Str("event", string(event.Type)).
			Str("order_id", event.OrderID.String()).
			Msg("failed to send order notification")
	}
}
