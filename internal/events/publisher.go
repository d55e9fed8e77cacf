// Package events delivers order events recorded in the outbox.
package events

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// Publisher delivers a batch of outbox records. A nil error means every
// record in the batch was accepted.
type Publisher interface {
	Publish(ctx context.Context, records []model.OutboxRecord) error
	Close() error
}

// logPublisher writes events to the log. Used when no broker or archive is configured.
type logPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a publisher that only logs events.
func NewLogPublisher(logger zerolog.Logger) Publisher {
	return &logPublisher{
		logger: logger.With().Str("component", "log-publisher").Logger(),
	}
}

func (p *logPublisher) Publish(_ context.Context, records []model.OutboxRecord) error {
	for _, rec := range records {
		p.logger.Info().
			Int64("outbox_id", rec.ID).
			Str("event_id", rec.EventID.String()).
			Str("topic", rec.Topic).
			Str("key", rec.Key).
			RawJSON("payload", rec.Payload).
			Msg("order event")
	}
	return nil
}

func (p *logPublisher) Close() error { return nil }

// fallbackPublisher tries the primary publisher first and falls back to the
// secondary one when it fails.
type fallbackPublisher struct {
	primary   Publisher
	secondary Publisher
	logger    zerolog.Logger
}

// NewFallbackPublisher creates a publisher that tries primary, then secondary.
// If primary is nil, only secondary is used.
func NewFallbackPublisher(primary, secondary Publisher, logger zerolog.Logger) Publisher {
	return &fallbackPublisher{
		primary:   primary,
		secondary: secondary,
		logger:    logger.With().Str("component", "fallback-publisher").Logger(),
	}
}

func (p *fallbackPublisher) Publish(ctx context.Context, records []model.OutboxRecord) error {
	if p.primary != nil {
		err := p.primary.Publish(ctx, records)
		if err == nil {
			return nil
		}
		if p.secondary == nil {
			return err
		}

		p.logger.Warn().
			Err(err).
			Int("records", len(records)).
			Msg("primary publisher failed, falling back")
	}

	if p.secondary == nil {
		return fmt.Errorf("no publisher configured")
	}
	return p.secondary.Publish(ctx, records)
}

func (p *fallbackPublisher) Close() error {
	var errs []error
	if p.primary != nil {
		errs = append(errs, p.primary.Close())
	}
	if p.secondary != nil {
		errs = append(errs, p.secondary.Close())
	}
	return errors.Join(errs...)
}
