package repository

import (
	"context"
	"fmt"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// inventoryRepository implements InventoryRepository using conditional
// updates, so stock can never be observed below zero.
type inventoryRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewInventoryRepository creates a new PostgreSQL-backed stock ledger.
func NewInventoryRepository(pool *pgxpool.Pool, logger zerolog.Logger) InventoryRepository {
	return &inventoryRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "inventory").Logger(),
	}
}

// LockVariants locks every requested variant in a single statement. The
// ORDER BY fixes the acquisition order so concurrent checkouts cannot deadlock.
func (r *inventoryRepository) LockVariants(ctx context.Context, tx pgx.Tx, ids []int64) (map[int64]model.LockedVariant, error) {
	locked := make(map[int64]model.LockedVariant, len(ids))
	if len(ids) == 0 {
		return locked, nil
	}

	query := `
		SELECT v.id, v.product_id, v.size, v.color, v.stock,
		       p.id, p.name, p.price, p.is_active, p.created_at
		FROM variants v
		JOIN products p ON p.id = v.product_id
		WHERE v.id = ANY($1)
		ORDER BY v.id
		FOR UPDATE OF v
	`

	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to lock variants")
		return nil, fmt.Errorf("failed to lock variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var lv model.LockedVariant
		err := rows.Scan(
			&lv.ID, &lv.ProductID, &lv.Size, &lv.Color, &lv.Stock,
			&lv.Product.ID, &lv.Product.Name, &lv.Product.Price, &lv.Product.IsActive, &lv.Product.CreatedAt,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan locked variant")
			return nil, fmt.Errorf("failed to scan locked variant: %w", err)
		}
		locked[lv.ID] = lv
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating locked variants")
		return nil, fmt.Errorf("error iterating locked variants: %w", err)
	}

	return locked, nil
}

// Decrement subtracts qty from the variant stock.
func (r *inventoryRepository) Decrement(ctx context.Context, tx pgx.Tx, variantID int64, qty int) error {
	if qty <= 0 {
		return model.ErrInvalidQuantity
	}

	query := `
		UPDATE variants
		SET stock = stock - $2
		WHERE id = $1 AND stock >= $2
	`

	tag, err := tx.Exec(ctx, query, variantID, qty)
	if err != nil {
		r.logger.Error().Err(err).Int64("variant_id", variantID).Int("quantity", qty).Msg("failed to decrement stock")
		return fmt.Errorf("failed to decrement stock: %w", mapPgError(err))
	}

	if tag.RowsAffected() == 0 {
		r.logger.Warn().Int64("variant_id", variantID).Int("quantity", qty).Msg("insufficient stock for decrement")
		return model.ErrInsufficientStock
	}

	return nil
}

// Restore adds qty back to the variant stock.
func (r *inventoryRepository) Restore(ctx context.Context, tx pgx.Tx, variantID int64, qty int) (bool, error) {
	if qty <= 0 {
		return false, model.ErrInvalidQuantity
	}

	tag, err := tx.Exec(ctx, `UPDATE variants SET stock = stock + $2 WHERE id = $1`, variantID, qty)
	if err != nil {
		r.logger.Error().Err(err).Int64("variant_id", variantID).Int("quantity", qty).Msg("failed to restore stock")
		return false, fmt.Errorf("failed to restore stock: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// GetStock returns the current stock of a variant.
func (r *inventoryRepository) GetStock(ctx context.Context, variantID int64) (int, error) {
	var stock int
	err := r.pool.QueryRow(ctx, `SELECT stock FROM variants WHERE id = $1`, variantID).Scan(&stock)
	if err != nil {
		if isNoRows(err) {
			return 0, model.ErrProductUnavailable
		}
		return 0, fmt.Errorf("failed to query stock: %w", err)
	}
	return stock, nil
}
