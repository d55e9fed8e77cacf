package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	path := flag.String("file", "data/catalog.yaml", "catalog fixture to load")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := config.NewLogger(cfg.Logger)

	fixture, err := catalog.LoadFile(*path)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return err
	}

	summary, err := catalog.Apply(ctx, fixture, repository.NewProductRepository(pool, logger), logger)
	if err != nil {
		return err
	}

	logger.Info().
		Str("file", *path).
		Int("products", summary.Products).
		Int("variants", summary.Variants).
		Int("units", summary.Units).
		Msg("catalog seeded")
	return nil
}
