package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"storefront/internal/database"
	"storefront/internal/model"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL testcontainer with the application schema
// and returns a connection pool.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, database.Schema())
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

// seedVariant inserts a product with one variant and returns both.
func seedVariant(t *testing.T, pool *pgxpool.Pool, name string, price int64, size, color string, stock int) (model.Product, model.Variant) {
	ctx := context.Background()

	product := model.Product{Name: name, Price: price, IsActive: true}
	err := pool.QueryRow(ctx,
		`INSERT INTO products (name, price, is_active) VALUES ($1, $2, $3) RETURNING id, created_at`,
		product.Name, product.Price, product.IsActive,
	).Scan(&product.ID, &product.CreatedAt)
	require.NoError(t, err)

	variant := model.Variant{ProductID: product.ID, Size: strPtr(size), Color: strPtr(color), Stock: stock}
	err = pool.QueryRow(ctx,
		`INSERT INTO variants (product_id, size, color, stock) VALUES ($1, $2, $3, $4) RETURNING id`,
		variant.ProductID, variant.Size, variant.Color, variant.Stock,
	).Scan(&variant.ID)
	require.NoError(t, err)

	return product, variant
}

func TestSchema_IsIdempotent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := pool.Exec(context.Background(), database.Schema())
	assert.NoError(t, err)
}

func TestSchema_StockCannotGoNegative(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	_, variant := seedVariant(t, pool, "Shirt", 1000, "M", "Red", 1)

	_, err := pool.Exec(context.Background(), `UPDATE variants SET stock = -1 WHERE id = $1`, variant.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(mapPgError(err), model.ErrInsufficientStock))
}

func TestSchema_VariantUniquePerProductColourSize(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	product, _ := seedVariant(t, pool, "Shirt", 1000, "M", "Red", 1)

	_, err := pool.Exec(context.Background(),
		`INSERT INTO variants (product_id, size, color, stock) VALUES ($1, 'M', 'Red', 5)`, product.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(mapPgError(err), ErrDuplicate))
}

func TestMapPgError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
	}{
		{
			name:   "immutable guard",
			err:    &pgconn.PgError{Code: sqlStateImmutable, Message: "order total_price is immutable"},
			target: model.ErrIllegalMutation,
		},
		{
			name:   "transition guard",
			err:    &pgconn.PgError{Code: sqlStateInvalidTransition},
			target: model.ErrInvalidTransition,
		},
		{
			name:   "stock check",
			err:    &pgconn.PgError{Code: sqlStateCheckViolation, ConstraintName: "variants_stock_check"},
			target: model.ErrInsufficientStock,
		},
		{
			name:   "unique violation",
			err:    &pgconn.PgError{Code: sqlStateUniqueViolation, ConstraintName: "outbox_event_id_key"},
			target: ErrDuplicate,
		},
		{
			name:   "wrapped pg error",
			err:    fmt.Errorf("exec: %w", &pgconn.PgError{Code: sqlStateImmutable}),
			target: model.ErrIllegalMutation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(mapPgError(tt.err), tt.target))
		})
	}
}

func TestMapPgError_PassesThroughOtherErrors(t *testing.T) {
	plain := errors.New("connection reset")
	assert.Equal(t, plain, mapPgError(plain))

	other := &pgconn.PgError{Code: "40001"}
	assert.Equal(t, error(other), mapPgError(other))
}
