package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/repository"

	"github.com/rs/zerolog"
)

const sweepBatchSize = 100

// ExpirySweeper periodically cancels new orders that were never paid.
type ExpirySweeper struct {
	orderRepo repository.OrderRepository
	orders    OrderService
	interval  time.Duration
	timeout   time.Duration
	now       func() time.Time
	logger    zerolog.Logger
}

// NewExpirySweeper creates a sweeper. An interval of zero disables Run.
func NewExpirySweeper(
	orderRepo repository.OrderRepository,
	orders OrderService,
	interval, timeout time.Duration,
	logger zerolog.Logger,
) *ExpirySweeper {
	return &ExpirySweeper{
		orderRepo: orderRepo,
		orders:    orders,
		interval:  interval,
		timeout:   timeout,
		now:       time.Now,
		logger:    logger.With().Str("component", "expiry_sweeper").Logger(),
	}
}

// Run sweeps every interval until ctx is cancelled.
func (s *ExpirySweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info().Msg("expiry sweeper disabled")
		return
	}

	s.logger.Info().Dur("interval", s.interval).Dur("payment_timeout", s.timeout).Msg("expiry sweeper started")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("expiry sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error().Err(err).Msg("expiry sweep failed")
			}
		}
	}
}

// Sweep cancels one batch of expired orders and returns how many it
// cancelled. An order paid or cancelled since it was listed is skipped,
// because AutoCancelIfExpired re-checks under the row lock.
func (s *ExpirySweeper) Sweep(ctx context.Context) (int, error) {
	now := s.now()
	ids, err := s.orderRepo.ListExpired(ctx, now.Add(-s.timeout), sweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired orders: %w", err)
	}

	cancelled := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return cancelled, ctx.Err()
		}

		ok, err := s.orders.AutoCancelIfExpired(ctx, id, now)
		if err != nil {
			s.logger.Warn().Err(err).Str("order_id", id.String()).Msg("failed to expire order")
			continue
		}
		if ok {
			cancelled++
		}
	}

	if cancelled > 0 {
		s.logger.Info().Int("cancelled", cancelled).Int("candidates", len(ids)).Msg("expired orders cancelled")
	}
	return cancelled, nil
}
