package service

import (
	"context"
	"fmt"

	"storefront/internal/cart"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/rs/zerolog"
)

// cartService implements CartService.
type cartService struct {
	store       cart.Store
	resolver    *cart.Resolver
	productRepo repository.ProductRepository
	maxQuantity int
	logger      zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(store cart.Store, productRepo repository.ProductRepository, maxQuantity int, logger zerolog.Logger) CartService {
	if maxQuantity <= 0 {
		maxQuantity = DefaultOrderOptions().MaxLineQuantity
	}
	return &cartService{
		store:       store,
		resolver:    cart.NewResolver(store, productRepo, logger),
		productRepo: productRepo,
		maxQuantity: maxQuantity,
		logger:      logger.With().Str("service", "cart").Logger(),
	}
}

// View returns the cart reconciled with the live catalog.
func (s *cartService) View(ctx context.Context, sessionID string) (*model.CartSnapshot, error) {
	snapshot, err := s.resolver.Resolve(ctx, sessionID)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to resolve cart")
		return nil, fmt.Errorf("failed to view cart: %w", err)
	}
	return snapshot, nil
}

// Add puts a product or one of its variants into the cart. A product that
// has variants can only be added through one of them, and the merged line
// quantity may not exceed the variant's stock.
func (s *cartService) Add(ctx context.Context, sessionID string, req model.AddToCartRequest) (*model.CartSnapshot, error) {
	if req.Quantity < 1 || req.Quantity > s.maxQuantity {
		return nil, model.ErrInvalidQuantity
	}

	product, err := s.productRepo.FindActiveProduct(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to add to cart: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductUnavailable
	}

	var variant *model.Variant
	if req.VariantID == nil {
		count, err := s.productRepo.CountVariants(ctx, product.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to add to cart: %w", err)
		}
		if count > 0 {
			return nil, model.ErrVariantRequired
		}
	} else {
		variant, err = s.productRepo.FindVariant(ctx, *req.VariantID)
		if err != nil {
			return nil, fmt.Errorf("failed to add to cart: %w", err)
		}
		if variant == nil || variant.ProductID != product.ID {
			return nil, model.ErrProductUnavailable
		}
	}

	c, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	line := model.CartLine{
		Key:       model.LineKey(product.ID, req.VariantID),
		ProductID: product.ID,
		Quantity:  req.Quantity,
	}
	if variant != nil {
		variantID := variant.ID
		line.VariantID = &variantID
	}
	if existing, ok := c.Get(line.Key); ok {
		line.Quantity += existing.Quantity
	}

	if variant != nil && line.Quantity > variant.Stock {
		return nil, model.NewInsufficientStockError(product.Name, variant.ID, variant.Stock, line.Quantity)
	}
	if line.Quantity > s.maxQuantity {
		return nil, model.ErrInvalidQuantity
	}

	c.Put(line)
	if err := s.store.Save(ctx, sessionID, c); err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to save cart")
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	s.logger.Debug().
		Str("session_id", sessionID).
		Str("key", line.Key).
		Int("quantity", line.Quantity).
		Msg("cart line added")

	return s.View(ctx, sessionID)
}

// Update sets a line's quantity. Lines whose product or variant is gone are
// removed, and quantities above the variant's stock are clamped.
func (s *cartService) Update(ctx context.Context, sessionID, key string, quantity int) (*model.CartSnapshot, error) {
	c, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	line, ok := c.Get(key)
	if !ok {
		return nil, model.ErrCartLineNotFound
	}

	keep, err := s.lineQuantity(ctx, line, quantity)
	if err != nil {
		return nil, err
	}

	if keep < 1 {
		c.Remove(key)
	} else {
		line.Quantity = keep
		c.Put(line)
	}

	if err := s.store.Save(ctx, sessionID, c); err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to save cart")
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	return s.View(ctx, sessionID)
}

// lineQuantity returns the quantity a line may hold, or zero if it should go.
func (s *cartService) lineQuantity(ctx context.Context, line model.CartLine, quantity int) (int, error) {
	if quantity < 1 {
		return 0, nil
	}
	if quantity > s.maxQuantity {
		quantity = s.maxQuantity
	}

	product, err := s.productRepo.FindActiveProduct(ctx, line.ProductID)
	if err != nil {
		return 0, fmt.Errorf("failed to update cart: %w", err)
	}
	if product == nil {
		return 0, nil
	}

	if line.VariantID == nil {
		return quantity, nil
	}

	variant, err := s.productRepo.FindVariant(ctx, *line.VariantID)
	if err != nil {
		return 0, fmt.Errorf("failed to update cart: %w", err)
	}
	if variant == nil || variant.ProductID != product.ID || variant.Stock <= 0 {
		return 0, nil
	}
	if quantity > variant.Stock {
		quantity = variant.Stock
	}
	return quantity, nil
}

// Remove deletes a line from the cart. Removing a missing line is a no-op.
func (s *cartService) Remove(ctx context.Context, sessionID, key string) (*model.CartSnapshot, error) {
	c, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	if c.Remove(key) {
		if err := s.store.Save(ctx, sessionID, c); err != nil {
			s.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to save cart")
			return nil, fmt.Errorf("failed to save cart: %w", err)
		}
	}

	return s.View(ctx, sessionID)
}

// Clear empties the cart.
func (s *cartService) Clear(ctx context.Context, sessionID string) error {
	if err := s.store.Clear(ctx, sessionID); err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to clear cart")
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
