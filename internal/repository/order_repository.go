package repository

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const orderColumns = `id, status, total_price, name, phone, email, address, comment, created_at, updated_at`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID,
		&o.Status,
		&o.TotalPrice,
		&o.Customer.Name,
		&o.Customer.Phone,
		&o.Customer.Email,
		&o.Customer.Address,
		&o.Customer.Comment,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (id, status, total_price, name, phone, email, address, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := tx.Exec(ctx, query,
		order.ID,
		order.Status,
		order.TotalPrice,
		order.Customer.Name,
		order.Customer.Phone,
		order.Customer.Email,
		order.Customer.Address,
		order.Customer.Comment,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", mapPgError(err))
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Int64("total_price", order.TotalPrice).
		Msg("order created successfully")

	return nil
}

// CreateOrderItems inserts multiple order items within the provided transaction.
// Items keep the order they are given in.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, product_id, variant_id, product_name, variant_description, quantity, price, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	batch := &pgx.Batch{}
	for i, item := range items {
		batch.Queue(query,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.VariantID,
			item.ProductName,
			item.VariantDescription,
			item.Quantity,
			item.Price,
			i,
		)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		_, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID.String()).
				Str("product_name", items[i].ProductName).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", mapPgError(err))
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created successfully")

	return nil
}

// GetByID retrieves an order by its ID along with its items. It returns
// model.ErrOrderNotFound when no such order exists.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil, model.ErrOrderNotFound
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, nil, fmt.Errorf("failed to query order: %w", err)
	}

	rows, err := r.pool.Query(ctx, orderItemsQuery, id)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", id.String()).
			Msg("failed to query order items")
		return nil, nil, fmt.Errorf("failed to query order items: %w", err)
	}

	items, err := collectOrderItems(rows)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to read order items")
		return nil, nil, err
	}

	return order, items, nil
}

// LockByID reads the order under an exclusive row lock.
func (r *orderRepository) LockByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	order, err := scanOrder(tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, model.ErrOrderNotFound
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to lock order")
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	return order, nil
}

const orderItemsQuery = `
	SELECT id, order_id, product_id, variant_id, product_name, variant_description, quantity, price
	FROM order_items
	WHERE order_id = $1
	ORDER BY position
`

// GetItems returns the items of an order within the provided transaction.
func (r *orderRepository) GetItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) ([]model.OrderItem, error) {
	rows, err := tx.Query(ctx, orderItemsQuery, orderID)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	return collectOrderItems(rows)
}

func collectOrderItems(rows pgx.Rows) ([]model.OrderItem, error) {
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.VariantID,
			&item.ProductName,
			&item.VariantDescription,
			&item.Quantity,
			&item.Price,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

// ApplyTransition moves the order from transition.From() to transition.To().
// The WHERE clause re-checks the current status, so a concurrent change
// surfaces as model.ErrInvalidTransition instead of being overwritten.
func (r *orderRepository) ApplyTransition(ctx context.Context, tx pgx.Tx, id uuid.UUID, transition model.StatusTransition) error {
	if transition.IsZero() {
		return model.ErrInvalidTransition
	}

	query := `
		UPDATE orders
		SET status = $3
		WHERE id = $1 AND status = $2
	`

	tag, err := tx.Exec(ctx, query, id, transition.From(), transition.To())
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", id.String()).
			Str("from", transition.From().String()).
			Str("to", transition.To().String()).
			Msg("failed to apply status transition")
		return fmt.Errorf("failed to apply status transition: %w", mapPgError(err))
	}

	if tag.RowsAffected() == 0 {
		r.logger.Warn().
			Str("order_id", id.String()).
			Str("from", transition.From().String()).
			Msg("order not in expected status")
		return model.ErrInvalidTransition
	}

	r.logger.Debug().
		Str("order_id", id.String()).
		Str("from", transition.From().String()).
		Str("to", transition.To().String()).
		Msg("order status changed")

	return nil
}

// UpdateCustomer rewrites the contact fields of an order. Status and total
// are not part of the statement.
func (r *orderRepository) UpdateCustomer(ctx context.Context, tx pgx.Tx, id uuid.UUID, customer model.CustomerDetails) error {
	query := `
		UPDATE orders
		SET name = $2, phone = $3, email = $4, address = $5, comment = $6
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, id, customer.Name, customer.Phone, customer.Email, customer.Address, customer.Comment)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to update order customer")
		return fmt.Errorf("failed to update order customer: %w", mapPgError(err))
	}

	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	return nil
}

// ListExpired returns IDs of new orders created before cutoff, oldest first.
func (r *orderRepository) ListExpired(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	query := `
		SELECT id
		FROM orders
		WHERE status = 'new' AND created_at < $1
		ORDER BY created_at
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, cutoff, limit)
	if err != nil {
		r.logger.Error().Err(err).Time("cutoff", cutoff).Msg("failed to query expired orders")
		return nil, fmt.Errorf("failed to query expired orders: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan expired order id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expired orders: %w", err)
	}

	return ids, nil
}
