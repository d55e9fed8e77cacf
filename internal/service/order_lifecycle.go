package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"storefront/internal/model"
	"storefront/internal/telemetry"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MarkPaid moves a new order to paid.
func (s *orderService) MarkPaid(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, model.StatusPaid)
}

// MarkShipped moves a paid order to shipped.
func (s *orderService) MarkShipped(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, model.StatusShipped)
}

func (s *orderService) transition(ctx context.Context, id uuid.UUID, target model.OrderStatus) (err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "order.transition", trace.WithAttributes(
		attribute.String("order.id", id.String()),
		attribute.String("order.target_status", target.String()),
	))
	defer func() { endSpan(span, err) }()

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to change order status: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	order, err := s.orderRepo.LockByID(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("failed to change order status: %w", err)
	}

	from := order.Status
	if err = s.applyTransition(ctx, tx, order, target); err != nil {
		s.logger.Info().
			Err(err).
			Str("order_id", id.String()).
			Str("from", from.String()).
			Str("to", target.String()).
			Msg("status transition rejected")
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to commit transaction")
		return fmt.Errorf("failed to change order status: %w", err)
	}

	s.metrics.ObserveTransition(from.String(), target.String())
	s.logger.Info().
		Str("order_id", id.String()).
		Str("from", from.String()).
		Str("to", target.String()).
		Msg("order status changed")
	return nil
}

// Cancel returns every unit the order reserved to stock and moves it to
// cancelled in one transaction. The order row lock serializes concurrent
// cancels, so stock is restored at most once.
func (s *orderService) Cancel(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "order.cancel", trace.WithAttributes(
		attribute.String("order.id", id.String()),
	))
	defer func() { endSpan(span, err) }()

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to cancel order: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	order, err := s.orderRepo.LockByID(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}

	from := order.Status
	restored, err := s.cancelLocked(ctx, tx, order)
	if err != nil {
		s.logger.Info().Err(err).Str("order_id", id.String()).Str("status", from.String()).Msg("cancel rejected")
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to commit transaction")
		return fmt.Errorf("failed to cancel order: %w", err)
	}

	s.metrics.ObserveTransition(from.String(), model.StatusCancelled.String())
	s.metrics.ObserveRestored(restored)
	span.SetAttributes(attribute.Int("stock.restored", restored))
	s.logger.Info().
		Str("order_id", id.String()).
		Str("from", from.String()).
		Int("units_restored", restored).
		Msg("order cancelled")
	return nil
}

// AutoCancelIfExpired cancels the order only if it is still new and its
// payment window has passed; the check runs under the order row lock.
func (s *orderService) AutoCancelIfExpired(ctx context.Context, id uuid.UUID, now time.Time) (cancelled bool, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "order.auto_cancel", trace.WithAttributes(
		attribute.String("order.id", id.String()),
	))
	defer func() { endSpan(span, err) }()

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return false, fmt.Errorf("failed to expire order: %w", err)
	}

	defer func() {
		if err != nil || !cancelled {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	order, err := s.orderRepo.LockByID(ctx, tx, id)
	if err != nil {
		return false, fmt.Errorf("failed to expire order: %w", err)
	}

	if !order.ExpiredAfter(now, s.opts.PaymentTimeout) {
		return false, nil
	}

	restored, err := s.cancelLocked(ctx, tx, order)
	if err != nil {
		return false, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to commit transaction")
		return false, fmt.Errorf("failed to expire order: %w", err)
	}

	s.metrics.ObserveTransition(model.StatusNew.String(), model.StatusCancelled.String())
	s.metrics.ObserveRestored(restored)
	s.metrics.ObserveExpired()
	s.logger.Info().
		Str("order_id", id.String()).
		Time("created_at", order.CreatedAt).
		Int("units_restored", restored).
		Msg("unpaid order expired")
	return true, nil
}

// cancelLocked restores stock and applies the cancelled transition on an
// order already locked in tx. It returns the number of units restored.
func (s *orderService) cancelLocked(ctx context.Context, tx pgx.Tx, order *model.Order) (int, error) {
	switch order.Status {
	case model.StatusShipped:
		return 0, model.ErrTerminalStateViolation
	case model.StatusCancelled:
		return 0, model.ErrAlreadyTerminal
	}

	items, err := s.orderRepo.GetItems(ctx, tx, order.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel order: %w", err)
	}

	quantities := make(map[int64]int)
	for _, item := range items {
		if item.VariantID != nil {
			quantities[*item.VariantID] += item.Quantity
		}
	}

	variantIDs := make([]int64, 0, len(quantities))
	for id := range quantities {
		variantIDs = append(variantIDs, id)
	}
	sort.Slice(variantIDs, func(i, j int) bool { return variantIDs[i] < variantIDs[j] })

	restored := 0
	for _, variantID := range variantIDs {
		ok, err := s.inventoryRepo.Restore(ctx, tx, variantID, quantities[variantID])
		if err != nil {
			return 0, fmt.Errorf("failed to restore stock: %w", err)
		}
		if !ok {
			s.logger.Warn().
				Str("order_id", order.ID.String()).
				Int64("variant_id", variantID).
				Msg("variant gone, stock not restored")
			continue
		}
		restored += quantities[variantID]
	}

	if err := s.applyTransition(ctx, tx, order, model.StatusCancelled); err != nil {
		return 0, err
	}
	return restored, nil
}

// applyTransition validates from -> target, writes it through the
// repository's only status statement and records the lifecycle event.
func (s *orderService) applyTransition(ctx context.Context, tx pgx.Tx, order *model.Order, target model.OrderStatus) error {
	transition, err := model.NewStatusTransition(order.Status, target)
	if err != nil {
		return err
	}

	if err := s.orderRepo.ApplyTransition(ctx, tx, order.ID, transition); err != nil {
		return fmt.Errorf("failed to apply status transition: %w", err)
	}

	order.Status = target
	order.UpdatedAt = s.opts.Now()
	return s.recordEvent(ctx, tx, model.EventForStatus(target), order)
}
