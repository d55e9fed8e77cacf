package model

import (
	"time"

	"github.com/google/uuid"
)

// PaymentTimeout is how long a new order may wait for payment before it expires.
const PaymentTimeout = 15 * time.Minute

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusNew       OrderStatus = "new"
	StatusPaid      OrderStatus = "paid"
	StatusShipped   OrderStatus = "shipped"
	StatusCancelled OrderStatus = "cancelled"
)

var allowedTransitions = map[OrderStatus][]OrderStatus{
	StatusNew:       {StatusPaid, StatusCancelled},
	StatusPaid:      {StatusShipped, StatusCancelled},
	StatusShipped:   {},
	StatusCancelled: {},
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// CanTransitionTo reports whether target is an allowed successor of s.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, next := range allowedTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s has no outgoing transitions.
func (s OrderStatus) IsTerminal() bool {
	return s.Valid() && len(allowedTransitions[s]) == 0
}

func (s OrderStatus) String() string {
	return string(s)
}

// StatusTransition is a validated status change. The zero value is not
// usable; the only way to obtain one is NewStatusTransition, which makes it
// the sole capability accepted by the status-writing repository call.
type StatusTransition struct {
	from OrderStatus
	to   OrderStatus
}

// NewStatusTransition validates from -> to against the transition table.
func NewStatusTransition(from, to OrderStatus) (StatusTransition, error) {
	if !from.CanTransitionTo(to) {
		return StatusTransition{}, ErrInvalidTransition
	}
	return StatusTransition{from: from, to: to}, nil
}

// From returns the status the order must currently hold.
func (t StatusTransition) From() OrderStatus { return t.from }

// To returns the target status.
func (t StatusTransition) To() OrderStatus { return t.to }

// IsZero reports whether t was not produced by NewStatusTransition.
func (t StatusTransition) IsZero() bool { return t.from == "" || t.to == "" }

// CustomerDetails holds the contact fields captured at checkout.
type CustomerDetails struct {
	Name    string `json:"name" validate:"required,max=200"`
	Phone   string `json:"phone" validate:"required,max=50"`
	Email   string `json:"email" validate:"required,email"`
	Address string `json:"address" validate:"required"`
	Comment string `json:"comment,omitempty"`
}

// Order represents a placed customer order.
type Order struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	Status     OrderStatus     `json:"status" db:"status"`
	TotalPrice int64           `json:"totalPrice" db:"total_price"`
	Customer   CustomerDetails `json:"customer"`
	CreatedAt  time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time       `json:"updatedAt" db:"updated_at"`
}

// IsExpired reports whether a new order has waited longer than PaymentTimeout.
func (o *Order) IsExpired(now time.Time) bool {
	return o.ExpiredAfter(now, PaymentTimeout)
}

// ExpiredAfter is IsExpired with a configurable timeout.
func (o *Order) ExpiredAfter(now time.Time, timeout time.Duration) bool {
	if o.Status != StatusNew {
		return false
	}
	return now.After(o.CreatedAt.Add(timeout))
}

// OrderItem is one immutable line of a placed order. Product and variant
// references may be cleared by the catalog; the name, description and price
// snapshots never change.
type OrderItem struct {
	ID                 uuid.UUID `json:"-" db:"id"`
	OrderID            uuid.UUID `json:"-" db:"order_id"`
	ProductID          *int64    `json:"productId,omitempty" db:"product_id"`
	VariantID          *int64    `json:"variantId,omitempty" db:"variant_id"`
	ProductName        string    `json:"productName" db:"product_name"`
	VariantDescription string    `json:"variantDescription,omitempty" db:"variant_description"`
	Quantity           int       `json:"quantity" db:"quantity"`
	Price              int64     `json:"price" db:"price"`
}

// Subtotal returns price * quantity.
func (i OrderItem) Subtotal() int64 {
	return i.Price * int64(i.Quantity)
}

// CheckoutRequest represents the request payload for placing an order.
type CheckoutRequest struct {
	Customer CustomerDetails `json:"customer"`
}

// UpdateOrderRequest is the body of PATCH /api/orders/{id}. Omitted fields
// keep their stored values.
type UpdateOrderRequest struct {
	Status     *OrderStatus     `json:"status,omitempty"`
	TotalPrice *int64           `json:"totalPrice,omitempty"`
	Customer   *CustomerDetails `json:"customer,omitempty"`
}

// Apply returns stored with the fields present in the request overlaid.
func (r UpdateOrderRequest) Apply(stored Order) Order {
	if r.Status != nil {
		stored.Status = *r.Status
	}
	if r.TotalPrice != nil {
		stored.TotalPrice = *r.TotalPrice
	}
	if r.Customer != nil {
		stored.Customer = *r.Customer
	}
	return stored
}

// CheckoutResponse is returned after a successful checkout.
type CheckoutResponse struct {
	ID uuid.UUID `json:"id"`
}

// OrderItemView is the display form of an order line.
type OrderItemView struct {
	ProductName        string `json:"productName"`
	VariantDescription string `json:"variantDescription,omitempty"`
	Quantity           int    `json:"quantity"`
	Price              int64  `json:"price"`
	Subtotal           int64  `json:"subtotal"`
}

// OrderResponse represents the response payload for an order.
type OrderResponse struct {
	ID         uuid.UUID       `json:"id"`
	Status     OrderStatus     `json:"status"`
	TotalPrice int64           `json:"totalPrice"`
	Customer   CustomerDetails `json:"customer"`
	CreatedAt  time.Time       `json:"createdAt"`
	Expired    bool            `json:"expired"`
	Items      []OrderItemView `json:"items"`
}

// NewOrderResponse builds the display form of an order and its items.
func NewOrderResponse(order *Order, items []OrderItem, now time.Time) *OrderResponse {
	views := make([]OrderItemView, len(items))
	for i, item := range items {
		views[i] = OrderItemView{
			ProductName:        item.ProductName,
			VariantDescription: item.VariantDescription,
			Quantity:           item.Quantity,
			Price:              item.Price,
			Subtotal:           item.Subtotal(),
		}
	}

	return &OrderResponse{
		ID:         order.ID,
		Status:     order.Status,
		TotalPrice: order.TotalPrice,
		Customer:   order.Customer,
		CreatedAt:  order.CreatedAt,
		Expired:    order.IsExpired(now),
		Items:      views,
	}
}
