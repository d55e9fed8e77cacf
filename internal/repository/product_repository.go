package repository

import (
	"context"
	"fmt"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

// Create inserts a product and fills in its ID.
func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	query := `
		INSERT INTO products (name, price, is_active)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query, product.Name, product.Price, product.IsActive).
		Scan(&product.ID, &product.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("name", product.Name).Msg("failed to create product")
		return fmt.Errorf("failed to create product: %w", mapPgError(err))
	}

	return nil
}

// CreateVariant inserts a variant and fills in its ID.
func (r *productRepository) CreateVariant(ctx context.Context, variant *model.Variant) error {
	query := `
		INSERT INTO variants (product_id, size, color, stock)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query, variant.ProductID, variant.Size, variant.Color, variant.Stock).
		Scan(&variant.ID)
	if err != nil {
		r.logger.Error().Err(err).Int64("product_id", variant.ProductID).Msg("failed to create variant")
		return fmt.Errorf("failed to create variant: %w", mapPgError(err))
	}

	return nil
}

// FindActiveProduct returns the product if it exists and is active, or nil.
func (r *productRepository) FindActiveProduct(ctx context.Context, id int64) (*model.Product, error) {
	query := `
		SELECT id, name, price, is_active, created_at
		FROM products
		WHERE id = $1 AND is_active
	`

	var p model.Product
	err := r.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Price, &p.IsActive, &p.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			r.logger.Debug().Int64("product_id", id).Msg("active product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &p, nil
}

// FindActiveProducts returns the active products among ids keyed by ID.
func (r *productRepository) FindActiveProducts(ctx context.Context, ids []int64) (map[int64]model.Product, error) {
	if len(ids) == 0 {
		return map[int64]model.Product{}, nil
	}

	query := `
		SELECT id, name, price, is_active, created_at
		FROM products
		WHERE id = ANY($1) AND is_active
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query products by IDs")
		return nil, fmt.Errorf("failed to query products by IDs: %w", err)
	}
	return r.collectProducts(rows, len(ids))
}

// LockActiveProducts is FindActiveProducts inside tx. The rows are share
// locked so a product cannot be deactivated before tx commits.
func (r *productRepository) LockActiveProducts(ctx context.Context, tx pgx.Tx, ids []int64) (map[int64]model.Product, error) {
	if len(ids) == 0 {
		return map[int64]model.Product{}, nil
	}

	query := `
		SELECT id, name, price, is_active, created_at
		FROM products
		WHERE id = ANY($1) AND is_active
		ORDER BY id
		FOR SHARE
	`

	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to lock products")
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}
	return r.collectProducts(rows, len(ids))
}

func (r *productRepository) collectProducts(rows pgx.Rows, size int) (map[int64]model.Product, error) {
	defer rows.Close()

	products := make(map[int64]model.Product, size)
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.IsActive, &p.CreatedAt); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products[p.ID] = p
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// FindVariant returns the variant by ID, or nil.
func (r *productRepository) FindVariant(ctx context.Context, id int64) (*model.Variant, error) {
	query := `
		SELECT id, product_id, size, color, stock
		FROM variants
		WHERE id = $1
	`

	var v model.Variant
	err := r.pool.QueryRow(ctx, query, id).Scan(&v.ID, &v.ProductID, &v.Size, &v.Color, &v.Stock)
	if err != nil {
		if isNoRows(err) {
			r.logger.Debug().Int64("variant_id", id).Msg("variant not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("variant_id", id).Msg("failed to query variant")
		return nil, fmt.Errorf("failed to query variant: %w", err)
	}

	return &v, nil
}

// FindVariants returns the existing variants among ids keyed by ID.
func (r *productRepository) FindVariants(ctx context.Context, ids []int64) (map[int64]model.Variant, error) {
	variants := make(map[int64]model.Variant, len(ids))
	if len(ids) == 0 {
		return variants, nil
	}

	query := `
		SELECT id, product_id, size, color, stock
		FROM variants
		WHERE id = ANY($1)
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query variants by IDs")
		return nil, fmt.Errorf("failed to query variants by IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v model.Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Size, &v.Color, &v.Stock); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan variant row")
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}
		variants[v.ID] = v
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating variant rows")
		return nil, fmt.Errorf("error iterating variants: %w", err)
	}

	return variants, nil
}

// CountVariants returns how many variants a product has.
func (r *productRepository) CountVariants(ctx context.Context, productID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM variants WHERE product_id = $1`, productID).Scan(&count)
	if err != nil {
		r.logger.Error().Err(err).Int64("product_id", productID).Msg("failed to count variants")
		return 0, fmt.Errorf("failed to count variants: %w", err)
	}
	return count, nil
}
