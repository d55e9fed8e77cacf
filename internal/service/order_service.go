package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront/internal/cart"
	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/telemetry"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OrderOptions tunes the order service.
type OrderOptions struct {
	// MaxLineQuantity is the largest quantity a single line may order.
	MaxLineQuantity int
	// PaymentTimeout is how long a new order waits for payment.
	PaymentTimeout time.Duration
	// EventTopic is the outbox topic for order events.
	EventTopic string
	// Now overrides the clock in tests.
	Now func() time.Time
}

// DefaultOrderOptions returns the stock limits and payment window used in production.
func DefaultOrderOptions() OrderOptions {
	return OrderOptions{
		MaxLineQuantity: 100,
		PaymentTimeout:  model.PaymentTimeout,
		EventTopic:      "orders",
		Now:             time.Now,
	}
}

// orderService implements OrderService.
type orderService struct {
	orderRepo     repository.OrderRepository
	inventoryRepo repository.InventoryRepository
	productRepo   repository.ProductRepository
	outboxRepo    repository.OutboxRepository
	carts         cart.Store
	metrics       *metrics.Metrics
	validate      *validator.Validate
	opts          OrderOptions
	logger        zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	inventoryRepo repository.InventoryRepository,
	productRepo repository.ProductRepository,
	outboxRepo repository.OutboxRepository,
	carts cart.Store,
	m *metrics.Metrics,
	opts OrderOptions,
	logger zerolog.Logger,
) OrderService {
	defaults := DefaultOrderOptions()
	if opts.MaxLineQuantity <= 0 {
		opts.MaxLineQuantity = defaults.MaxLineQuantity
	}
	if opts.PaymentTimeout <= 0 {
		opts.PaymentTimeout = defaults.PaymentTimeout
	}
	if opts.EventTopic == "" {
		opts.EventTopic = defaults.EventTopic
	}
	if opts.Now == nil {
		opts.Now = defaults.Now
	}

	return &orderService{
		orderRepo:     orderRepo,
		inventoryRepo: inventoryRepo,
		productRepo:   productRepo,
		outboxRepo:    outboxRepo,
		carts:         carts,
		metrics:       m,
		validate:      validator.New(),
		opts:          opts,
		logger:        logger.With().Str("service", "order").Logger(),
	}
}

// PlaceOrder locks every variant in the cart, re-validates each line under
// the locks, decrements stock and writes the order with its items in one
// transaction. Any failing line aborts the whole checkout.
func (s *orderService) PlaceOrder(ctx context.Context, sessionID string, customer model.CustomerDetails) (orderID uuid.UUID, err error) {
	start := time.Now()
	ctx, span := telemetry.Tracer().Start(ctx, "order.place")
	defer func() {
		s.metrics.ObserveCheckout(start, failureCode(err))
		endSpan(span, err)
	}()

	c, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to load cart")
		return uuid.Nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if c.IsEmpty() {
		return uuid.Nil, model.ErrEmptyCart
	}

	if err = s.validate.Struct(customer); err != nil {
		s.logger.Debug().Err(err).Str("session_id", sessionID).Msg("invalid customer details")
		return uuid.Nil, fmt.Errorf("%w: %v", model.ErrInvalidCustomer, err)
	}

	// Start transaction
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return uuid.Nil, fmt.Errorf("failed to place order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	variantIDs := c.VariantIDs()
	span.SetAttributes(attribute.Int("cart.lines", c.Len()), attribute.Int("cart.variants", len(variantIDs)))

	locked, err := s.inventoryRepo.LockVariants(ctx, tx, variantIDs)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to place order: %w", err)
	}

	plain, err := s.plainProducts(ctx, tx, c)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to place order: %w", err)
	}

	now := s.opts.Now()
	order := &model.Order{
		ID:        uuid.New(),
		Status:    model.StatusNew,
		Customer:  customer,
		CreatedAt: now,
		UpdatedAt: now,
	}

	items, err := s.buildItems(order.ID, c, locked, plain)
	if err != nil {
		s.logger.Info().Err(err).Str("session_id", sessionID).Msg("checkout rejected")
		return uuid.Nil, err
	}

	for _, item := range items {
		order.TotalPrice += item.Subtotal()
		if item.VariantID == nil {
			continue
		}
		if err = s.inventoryRepo.Decrement(ctx, tx, *item.VariantID, item.Quantity); err != nil {
			s.logger.Warn().Err(err).Int64("variant_id", *item.VariantID).Msg("stock decrement rejected")
			return uuid.Nil, fmt.Errorf("failed to reserve stock: %w", err)
		}
	}

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return uuid.Nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Int("item_count", len(items)).
			Msg("failed to create order items")
		return uuid.Nil, fmt.Errorf("failed to create order items: %w", err)
	}

	if err = s.recordEvent(ctx, tx, model.EventOrderPlaced, order); err != nil {
		return uuid.Nil, err
	}

	// Commit transaction
	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return uuid.Nil, fmt.Errorf("failed to place order: %w", err)
	}

	// The cart lives outside the database; a failed clear leaves a stale
	// cart but never a second order.
	if clearErr := s.carts.Clear(ctx, sessionID); clearErr != nil {
		s.logger.Warn().Err(clearErr).Str("session_id", sessionID).Msg("failed to clear cart after checkout")
	}

	span.SetAttributes(attribute.String("order.id", order.ID.String()), attribute.Int64("order.total", order.TotalPrice))
	s.logger.Info().
		Str("order_id", order.ID.String()).
		Int("item_count", len(items)).
		Int64("total_price", order.TotalPrice).
		Msg("order placed successfully")

	return order.ID, nil
}

// plainProducts locks the active products referenced by variant-less lines.
func (s *orderService) plainProducts(ctx context.Context, tx pgx.Tx, c *model.Cart) (map[int64]model.Product, error) {
	var ids []int64
	for _, line := range c.Lines {
		if line.VariantID == nil {
			ids = append(ids, line.ProductID)
		}
	}
	if len(ids) == 0 {
		return map[int64]model.Product{}, nil
	}
	return s.productRepo.LockActiveProducts(ctx, tx, ids)
}

// buildItems validates every cart line against the locked stock and
// snapshots names and prices. It tracks stock still available per variant
// so the same variant can never be oversold within one order.
func (s *orderService) buildItems(
	orderID uuid.UUID,
	c *model.Cart,
	locked map[int64]model.LockedVariant,
	plain map[int64]model.Product,
) ([]model.OrderItem, error) {
	remaining := make(map[int64]int, len(locked))
	for id, v := range locked {
		remaining[id] = v.Stock
	}

	items := make([]model.OrderItem, 0, c.Len())
	for _, line := range c.Lines {
		if line.Quantity < 1 || line.Quantity > s.opts.MaxLineQuantity {
			return nil, fmt.Errorf("%w: %s has quantity %d", model.ErrInvalidQuantity, line.Key, line.Quantity)
		}

		item := model.OrderItem{
			ID:       uuid.New(),
			OrderID:  orderID,
			Quantity: line.Quantity,
		}

		if line.VariantID != nil {
			v, ok := locked[*line.VariantID]
			if !ok || v.ProductID != line.ProductID || !v.Product.IsActive {
				return nil, fmt.Errorf("%w: %s", model.ErrProductUnavailable, line.Key)
			}
			if remaining[v.ID] < line.Quantity {
				return nil, model.NewInsufficientStockError(v.Product.Name, v.ID, remaining[v.ID], line.Quantity)
			}
			remaining[v.ID] -= line.Quantity

			productID, variantID := v.Product.ID, v.ID
			item.ProductID = &productID
			item.VariantID = &variantID
			item.ProductName = v.Product.Name
			item.VariantDescription = v.Description()
			item.Price = v.Product.Price
		} else {
			product, ok := plain[line.ProductID]
			if !ok {
				return nil, fmt.Errorf("%w: %s", model.ErrProductUnavailable, line.Key)
			}
			productID := product.ID
			item.ProductID = &productID
			item.ProductName = product.Name
			item.Price = product.Price
		}

		items = append(items, item)
	}

	return items, nil
}

// GetByID retrieves an order by its ID with all items.
func (s *orderService) GetByID(ctx context.Context, id uuid.UUID) (*model.OrderResponse, error) {
	order, items, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Debug().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	now := s.opts.Now()
	resp := model.NewOrderResponse(order, items, now)
	resp.Expired = order.ExpiredAfter(now, s.opts.PaymentTimeout)
	return resp, nil
}

// UpdateOrder is the generic save path. It compares the incoming order with
// the locked row and only ever writes the contact fields.
func (s *orderService) UpdateOrder(ctx context.Context, order *model.Order) (err error) {
	if order == nil {
		return fmt.Errorf("order is nil")
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to update order: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	stored, err := s.orderRepo.LockByID(ctx, tx, order.ID)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}

	return s.saveLocked(ctx, tx, stored, order)
}

// PatchOrder overlays req on the locked row and saves it like UpdateOrder.
func (s *orderService) PatchOrder(ctx context.Context, id uuid.UUID, req model.UpdateOrderRequest) (err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to update order: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	stored, err := s.orderRepo.LockByID(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}

	merged := req.Apply(*stored)
	return s.saveLocked(ctx, tx, stored, &merged)
}

// saveLocked writes the contact fields of order over the locked stored row
// and commits tx. The caller rolls back on error.
func (s *orderService) saveLocked(ctx context.Context, tx pgx.Tx, stored, order *model.Order) error {
	if order.Status != stored.Status || order.TotalPrice != stored.TotalPrice {
		s.logger.Warn().
			Str("order_id", stored.ID.String()).
			Str("stored_status", stored.Status.String()).
			Str("requested_status", order.Status.String()).
			Msg("rejected direct status or total change")
		return model.ErrIllegalMutation
	}

	if err := s.validate.Struct(order.Customer); err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidCustomer, err)
	}

	if err := s.orderRepo.UpdateCustomer(ctx, tx, stored.ID, order.Customer); err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", stored.ID.String()).Msg("failed to commit transaction")
		return fmt.Errorf("failed to update order: %w", err)
	}

	s.logger.Info().Str("order_id", stored.ID.String()).Msg("order contact details updated")
	return nil
}

// recordEvent writes the order's current state to the outbox inside tx.
func (s *orderService) recordEvent(ctx context.Context, tx pgx.Tx, eventType string, order *model.Order) error {
	event := model.NewOrderEvent(eventType, order, s.opts.Now())
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", eventType, err)
	}

	record := &model.OutboxRecord{
		EventID: event.EventID,
		Topic:   s.opts.EventTopic,
		Key:     order.ID.String(),
		Payload: payload,
	}
	if err := s.outboxRepo.Insert(ctx, tx, record); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Str("event", eventType).Msg("failed to record event")
		return fmt.Errorf("failed to record %s event: %w", eventType, err)
	}
	return nil
}

// failureCode is empty for a nil error and the domain code otherwise.
func failureCode(err error) string {
	if err == nil {
		return ""
	}
	return model.ErrorCode(err)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
