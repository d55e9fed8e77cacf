package repository

import (
	"context"
	"fmt"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type outboxRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOutboxRepository creates a new PostgreSQL-backed outbox.
func NewOutboxRepository(pool *pgxpool.Pool, logger zerolog.Logger) OutboxRepository {
	return &outboxRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "outbox").Logger(),
	}
}

func (r *outboxRepository) Insert(ctx context.Context, tx pgx.Tx, record *model.OutboxRecord) error {
	query := `
		INSERT INTO outbox (event_id, topic, key, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := tx.QueryRow(ctx, query, record.EventID, record.Topic, record.Key, record.Payload).
		Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("event_id", record.EventID.String()).Msg("failed to insert outbox record")
		return fmt.Errorf("failed to insert outbox record: %w", mapPgError(err))
	}

	return nil
}

func (r *outboxRepository) FetchPending(ctx context.Context, limit int) ([]model.OutboxRecord, error) {
	query := `
		SELECT id, event_id, topic, key, payload, created_at, sent_at
		FROM outbox
		WHERE sent_at IS NULL
		ORDER BY id
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query pending outbox records")
		return nil, fmt.Errorf("failed to query pending outbox records: %w", err)
	}
	defer rows.Close()

	var records []model.OutboxRecord
	for rows.Next() {
		var rec model.OutboxRecord
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.Topic, &rec.Key, &rec.Payload, &rec.CreatedAt, &rec.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outbox records: %w", err)
	}

	return records, nil
}

func (r *outboxRepository) MarkSent(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE outbox SET sent_at = NOW() WHERE id = $1 AND sent_at IS NULL`, id)
	if err != nil {
		r.logger.Error().Err(err).Int64("outbox_id", id).Msg("failed to mark outbox record sent")
		return fmt.Errorf("failed to mark outbox record sent: %w", err)
	}
	return nil
}
