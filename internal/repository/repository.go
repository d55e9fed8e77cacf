package repository

import (
	"context"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepository defines catalog lookups used by the cart and checkout.
type ProductRepository interface {
	// Create inserts a product and fills in its ID.
	Create(ctx context.Context, product *model.Product) error

	// CreateVariant inserts a variant and fills in its ID.
	CreateVariant(ctx context.Context, variant *model.Variant) error

	// FindActiveProduct returns the product if it exists and is active, or nil.
	FindActiveProduct(ctx context.Context, id int64) (*model.Product, error)

	// FindActiveProducts returns the active products among ids keyed by ID.
	FindActiveProducts(ctx context.Context, ids []int64) (map[int64]model.Product, error)

	// LockActiveProducts returns the active products among ids, share
	// locking their rows for the rest of tx.
	LockActiveProducts(ctx context.Context, tx pgx.Tx, ids []int64) (map[int64]model.Product, error)

	// FindVariant returns the variant by ID, or nil.
	FindVariant(ctx context.Context, id int64) (*model.Variant, error)

	// FindVariants returns the existing variants among ids keyed by ID.
	FindVariants(ctx context.Context, ids []int64) (map[int64]model.Variant, error)

	// CountVariants returns how many variants a product has.
	CountVariants(ctx context.Context, productID int64) (int, error)
}

// InventoryRepository is the stock ledger. Every stock change goes through it.
type InventoryRepository interface {
	// LockVariants takes exclusive row locks on the variants in ascending ID
	// order and returns them with their products. Missing IDs are absent
	// from the result.
	LockVariants(ctx context.Context, tx pgx.Tx, ids []int64) (map[int64]model.LockedVariant, error)

	// Decrement subtracts qty from the variant stock. It fails with
	// model.ErrInsufficientStock rather than let stock go negative.
	Decrement(ctx context.Context, tx pgx.Tx, variantID int64, qty int) error

	// Restore adds qty back to the variant stock. It reports false when the
	// variant no longer exists.
	Restore(ctx context.Context, tx pgx.Tx, variantID int64, qty int) (bool, error)

	// GetStock returns the current stock of a variant.
	GetStock(ctx context.Context, variantID int64) (int, error)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order by its ID along with its items.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error)

	// LockByID reads the order under an exclusive row lock.
	LockByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error)

	// GetItems returns the items of an order within the provided transaction.
	GetItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) ([]model.OrderItem, error)

	// ApplyTransition is the only write path for order status.
	ApplyTransition(ctx context.Context, tx pgx.Tx, id uuid.UUID, transition model.StatusTransition) error

	// UpdateCustomer rewrites the contact fields of an order.
	UpdateCustomer(ctx context.Context, tx pgx.Tx, id uuid.UUID, customer model.CustomerDetails) error

	// ListExpired returns IDs of new orders created before cutoff, oldest first.
	ListExpired(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
}

// OutboxRepository stores order events until the relay publishes them.
type OutboxRepository interface {
	// Insert records an event within the transaction that caused it.
	Insert(ctx context.Context, tx pgx.Tx, record *model.OutboxRecord) error

	// FetchPending returns unsent records in insertion order.
	FetchPending(ctx context.Context, limit int) ([]model.OutboxRecord, error)

	// MarkSent flags a record as published.
	MarkSent(ctx context.Context, id int64) error
}
