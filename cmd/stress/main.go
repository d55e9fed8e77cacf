package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"storefront/internal/cart"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type result struct {
	placed       atomic.Int64
	insufficient atomic.Int64
	failed       atomic.Int64
}

func run() error {
	buyers := flag.Int("n", 50, "number of concurrent checkouts")
	stock := flag.Int("stock", 10, "stock of the contested variant")
	quantity := flag.Int("qty", 1, "units each checkout orders")
	flag.Parse()

	if *buyers < 1 || *stock < 0 || *quantity < 1 {
		return fmt.Errorf("n and qty must be positive and stock non-negative")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := config.NewLogger(cfg.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return err
	}

	productRepo := repository.NewProductRepository(pool, logger)
	inventoryRepo := repository.NewInventoryRepository(pool, logger)

	product := &model.Product{Name: fmt.Sprintf("Stress item %d", time.Now().Unix()), Price: 1000, IsActive: true}
	if err := productRepo.Create(ctx, product); err != nil {
		return err
	}
	variant := &model.Variant{ProductID: product.ID, Stock: *stock}
	if err := productRepo.CreateVariant(ctx, variant); err != nil {
		return err
	}

	// Every buyer gets its own session holding the contested variant.
	carts := cart.NewMemoryStore()
	for i := 0; i < *buyers; i++ {
		c := &model.Cart{}
		c.Put(model.CartLine{
			Key:       model.LineKey(product.ID, &variant.ID),
			ProductID: product.ID,
			VariantID: &variant.ID,
			Quantity:  *quantity,
		})
		if err := carts.Save(ctx, sessionName(i), c); err != nil {
			return err
		}
	}

	orders := service.NewOrderService(
		repository.NewOrderRepository(pool, logger),
		inventoryRepo,
		productRepo,
		repository.NewOutboxRepository(pool, logger),
		carts,
		metrics.New(prometheus.NewRegistry()),
		service.OrderOptions{MaxLineQuantity: max(*quantity, cfg.Order.MaxLineQuantity)},
		zerolog.Nop(),
	)

	customer := model.CustomerDetails{
		Name:    "Load Test",
		Phone:   "+10000000000",
		Email:   "load@example.com",
		Address: "1 Benchmark Way",
	}

	logger.Info().
		Int64("variant_id", variant.ID).
		Int("buyers", *buyers).
		Int("stock", *stock).
		Int("qty", *quantity).
		Msg("starting concurrent checkouts")

	var (
		res   result
		wg    sync.WaitGroup
		start = make(chan struct{})
	)
	for i := 0; i < *buyers; i++ {
		wg.Add(1)
		go func(session string) {
			defer wg.Done()
			<-start
			_, err := orders.PlaceOrder(ctx, session, customer)
			switch {
			case err == nil:
				res.placed.Add(1)
			case errors.Is(err, model.ErrInsufficientStock):
				res.insufficient.Add(1)
			default:
				res.failed.Add(1)
				logger.Error().Err(err).Str("session", session).Msg("checkout failed")
			}
		}(sessionName(i))
	}

	began := time.Now()
	close(start)
	wg.Wait()
	elapsed := time.Since(began)

	finalStock, err := inventoryRepo.GetStock(ctx, variant.ID)
	if err != nil {
		return err
	}

	placed := int(res.placed.Load())
	expectedPlaced := min(*buyers, *stock / *quantity)
	logger.Info().
		Int("placed", placed).
		Int64("insufficient_stock", res.insufficient.Load()).
		Int64("failed", res.failed.Load()).
		Int("final_stock", finalStock).
		Dur("elapsed", elapsed).
		Msg("stress run finished")

	wantStock := *stock - placed*(*quantity)
	if placed != expectedPlaced || finalStock != wantStock {
		return fmt.Errorf("inconsistent result: placed %d (want %d), final stock %d (want %d)",
			placed, expectedPlaced, finalStock, wantStock)
	}
	return nil
}

func sessionName(i int) string {
	return fmt.Sprintf("stress-%04d", i)
}
