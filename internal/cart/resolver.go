package cart

import (
	"context"
	"fmt"

	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// Catalog is the read-only product lookup the resolver needs.
type Catalog interface {
	FindActiveProducts(ctx context.Context, ids []int64) (map[int64]model.Product, error)
	FindVariants(ctx context.Context, ids []int64) (map[int64]model.Variant, error)
}

// Resolver reconciles a stored cart with the current catalog.
type Resolver struct {
	store   Store
	catalog Catalog
	logger  zerolog.Logger
}

// NewResolver creates a cart resolver.
func NewResolver(store Store, catalog Catalog, logger zerolog.Logger) *Resolver {
	return &Resolver{
		store:   store,
		catalog: catalog,
		logger:  logger.With().Str("component", "cart_resolver").Logger(),
	}
}

// Resolve loads the session cart and drops lines whose product is gone or
// inactive, whose variant is gone or out of stock, and clamps quantities to
// the variant stock. The cleaned cart is saved back only when something
// changed, so resolving twice is a no-op the second time. Lines without a
// variant are not stock-limited.
func (r *Resolver) Resolve(ctx context.Context, sessionID string) (*model.CartSnapshot, error) {
	cart, err := r.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	snapshot := &model.CartSnapshot{Items: []model.CartItemView{}}
	if cart.IsEmpty() {
		return snapshot, nil
	}

	products, err := r.catalog.FindActiveProducts(ctx, cart.ProductIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to load cart products: %w", err)
	}

	variants, err := r.catalog.FindVariants(ctx, cart.VariantIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to load cart variants: %w", err)
	}

	for _, line := range cart.Lines {
		product, ok := products[line.ProductID]
		if !ok {
			r.logger.Debug().Str("session_id", sessionID).Str("key", line.Key).Msg("dropping line for unavailable product")
			snapshot.Changed = true
			continue
		}

		if line.Quantity < 1 {
			snapshot.Changed = true
			continue
		}

		item := model.CartItemView{
			Key:         line.Key,
			DisplayName: product.Name,
			Price:       product.Price,
		}

		if line.VariantID != nil {
			variant, ok := variants[*line.VariantID]
			if !ok || variant.ProductID != line.ProductID || variant.Stock <= 0 {
				r.logger.Debug().Str("session_id", sessionID).Str("key", line.Key).Msg("dropping line for unavailable variant")
				snapshot.Changed = true
				continue
			}

			if line.Quantity > variant.Stock {
				line.Quantity = variant.Stock
				snapshot.Changed = true
			}

			stock := variant.Stock
			item.Stock = &stock
			item.DisplayName = DisplayName(product.Name, &variant)
		}

		item.Quantity = line.Quantity
		item.Subtotal = item.Price * int64(item.Quantity)

		snapshot.Total += item.Subtotal
		snapshot.Items = append(snapshot.Items, item)
		snapshot.Cart.Put(line)
	}

	if snapshot.Changed {
		if err := r.store.Save(ctx, sessionID, &snapshot.Cart); err != nil {
			return nil, fmt.Errorf("failed to save cleaned cart: %w", err)
		}
		r.logger.Info().
			Str("session_id", sessionID).
			Int("lines_before", cart.Len()).
			Int("lines_after", snapshot.Cart.Len()).
			Msg("cart reconciled with catalog")
	}

	return snapshot, nil
}

// DisplayName renders "Name (M / Red)" for a variant line, or just the name.
func DisplayName(productName string, variant *model.Variant) string {
	if variant == nil {
		return productName
	}
	description := variant.Description()
	if description == "" {
		return productName
	}
	return fmt.Sprintf("%s (%s)", productName, description)
}
