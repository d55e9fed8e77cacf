package service

import (
	"context"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
)

// OrderService defines the checkout and order lifecycle operations.
type OrderService interface {
	// PlaceOrder turns the session cart into an order atomically and returns its ID.
	PlaceOrder(ctx context.Context, sessionID string, customer model.CustomerDetails) (uuid.UUID, error)

	// GetByID retrieves an order by its ID with all items.
	GetByID(ctx context.Context, id uuid.UUID) (*model.OrderResponse, error)

	// UpdateOrder saves the contact fields of an order. Changing status or
	// total price through it fails with model.ErrIllegalMutation.
	UpdateOrder(ctx context.Context, order *model.Order) error

	// PatchOrder is UpdateOrder for a partial body: fields the request
	// omits keep their stored values.
	PatchOrder(ctx context.Context, id uuid.UUID, req model.UpdateOrderRequest) error

	// MarkPaid moves a new order to paid.
	MarkPaid(ctx context.Context, id uuid.UUID) error

	// MarkShipped moves a paid order to shipped.
	MarkShipped(ctx context.Context, id uuid.UUID) error

	// Cancel restores the order's stock and moves it to cancelled.
	Cancel(ctx context.Context, id uuid.UUID) error

	// AutoCancelIfExpired cancels a new order whose payment window has
	// passed at now. It reports whether the order was cancelled.
	AutoCancelIfExpired(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
}

// CartService defines operations on the session cart.
type CartService interface {
	// View returns the cart reconciled with the live catalog.
	View(ctx context.Context, sessionID string) (*model.CartSnapshot, error)

	// Add puts a product or variant into the cart, merging with an existing line.
	Add(ctx context.Context, sessionID string, req model.AddToCartRequest) (*model.CartSnapshot, error)

	// Update sets the quantity of a line. A quantity below one removes it.
	Update(ctx context.Context, sessionID, key string, quantity int) (*model.CartSnapshot, error)

	// Remove deletes a line from the cart.
	Remove(ctx context.Context, sessionID, key string) (*model.CartSnapshot, error)

	// Clear empties the cart.
	Clear(ctx context.Context, sessionID string) error
}
