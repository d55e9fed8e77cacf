package integration

import (
	"context"
	"testing"
	"time"

	"storefront/internal/cart"
	"storefront/internal/database"
	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container with the application schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	// Get connection string
	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("failed to parse connection string: %v", err)
	}
	// Enough connections for the concurrent checkout tests to contend on row locks.
	poolConfig.MaxConns = 30

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	if err := database.Migrate(ctx, pool, zerolog.Nop()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// SetupRedisStore starts a Redis container and returns a cart store on it.
func SetupRedisStore(t *testing.T) cart.Store {
	t.Helper()

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get redis connection string: %v", err)
	}
	opts, err := redis.ParseURL(uri)
	if err != nil {
		t.Fatalf("failed to parse redis url: %v", err)
	}
	client := redis.NewClient(opts)

	t.Cleanup(func() {
		client.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return cart.NewRedisStore(client, time.Hour)
}

// CleanupDB empties every table. TRUNCATE skips the row-level guard that
// forbids deleting orders.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		"TRUNCATE order_items, orders, outbox, variants, products RESTART IDENTITY CASCADE")
	if err != nil {
		t.Fatalf("failed to clean tables: %v", err)
	}
}

// SeedVariant inserts an active product with a single variant.
func SeedVariant(t *testing.T, pool *pgxpool.Pool, name string, price int64, size, color string, stock int) (model.Product, model.Variant) {
	t.Helper()

	ctx := context.Background()
	products := repository.NewProductRepository(pool, zerolog.Nop())

	product := model.Product{Name: name, Price: price, IsActive: true}
	if err := products.Create(ctx, &product); err != nil {
		t.Fatalf("failed to seed product %s: %v", name, err)
	}

	variant := model.Variant{ProductID: product.ID, Size: &size, Color: &color, Stock: stock}
	if err := products.CreateVariant(ctx, &variant); err != nil {
		t.Fatalf("failed to seed variant of %s: %v", name, err)
	}
	return product, variant
}

// Stack is the service layer wired against the test database.
type Stack struct {
	Products  repository.ProductRepository
	Inventory repository.InventoryRepository
	Orders    repository.OrderRepository
	Outbox    repository.OutboxRepository
	Carts     cart.Store
	Metrics   *metrics.Metrics

	OrderService service.OrderService
	CartService  service.CartService
}

// NewStack wires repositories and services over pool and carts.
func NewStack(pool *pgxpool.Pool, carts cart.Store) *Stack {
	logger := zerolog.Nop()

	s := &Stack{
		Products:  repository.NewProductRepository(pool, logger),
		Inventory: repository.NewInventoryRepository(pool, logger),
		Orders:    repository.NewOrderRepository(pool, logger),
		Outbox:    repository.NewOutboxRepository(pool, logger),
		Carts:     carts,
		Metrics:   metrics.New(prometheus.NewRegistry()),
	}
	s.OrderService = service.NewOrderService(
		s.Orders, s.Inventory, s.Products, s.Outbox, carts, s.Metrics,
		service.DefaultOrderOptions(), logger,
	)
	s.CartService = service.NewCartService(carts, s.Products, service.DefaultOrderOptions().MaxLineQuantity, logger)
	return s
}

// TestCustomer returns valid checkout contact details.
func TestCustomer() model.CustomerDetails {
	return model.CustomerDetails{
		Name:    "Grace Hopper",
		Phone:   "+1 202 555 0100",
		Email:   "grace@example.com",
		Address: "1 Navy Yard, Washington DC",
	}
}
