package events

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/metrics"
	"storefront/internal/repository"

	"github.com/rs/zerolog"
)

const defaultBatchSize = 100

// Relay moves committed outbox records to a Publisher. Records are marked
// sent only after the publisher accepts them, so delivery is at least once
// and consumers deduplicate on the event ID.
type Relay struct {
	outbox    repository.OutboxRepository
	publisher Publisher
	interval  time.Duration
	batchSize int
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewRelay creates a relay polling every interval.
func NewRelay(outbox repository.OutboxRepository, publisher Publisher, interval time.Duration, m *metrics.Metrics, logger zerolog.Logger) *Relay {
	return &Relay{
		outbox:    outbox,
		publisher: publisher,
		interval:  interval,
		batchSize: defaultBatchSize,
		metrics:   m,
		logger:    logger.With().Str("component", "outbox-relay").Logger(),
	}
}

// Run polls until ctx is cancelled. A full batch is followed immediately by
// another poll so a backlog drains without waiting for the ticker.
func (r *Relay) Run(ctx context.Context) {
	r.logger.Info().Dur("interval", r.interval).Msg("outbox relay started")
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		n, err := r.RelayOnce(ctx)
		if err != nil && ctx.Err() == nil {
			r.logger.Error().Err(err).Msg("outbox relay failed")
		}

		if err == nil && n == r.batchSize {
			continue
		}

		select {
		case <-ctx.Done():
			r.logger.Info().Msg("outbox relay stopped")
			return
		case <-ticker.C:
		}
	}
}

// RelayOnce publishes one batch of pending records and returns how many
// were marked sent.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	records, err := r.outbox.FetchPending(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch pending events: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	if err := r.publisher.Publish(ctx, records); err != nil {
		for range records {
			r.metrics.ObserveOutbox("failed")
		}
		return 0, fmt.Errorf("failed to publish events: %w", err)
	}

	sent := 0
	for _, rec := range records {
		if err := r.outbox.MarkSent(ctx, rec.ID); err != nil {
			// The record will be published again on the next poll.
			return sent, fmt.Errorf("failed to mark event %d sent: %w", rec.ID, err)
		}
		r.metrics.ObserveOutbox("sent")
		sent++
	}

	r.logger.Debug().Int("sent", sent).Msg("outbox batch relayed")
	return sent, nil
}
