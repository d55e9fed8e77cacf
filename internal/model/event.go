package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Order lifecycle event types.
const (
	EventOrderPlaced    = "order.placed"
	EventOrderPaid      = "order.paid"
	EventOrderShipped   = "order.shipped"
	EventOrderCancelled = "order.cancelled"
)

// EventForStatus returns the event type emitted when an order enters status.
func EventForStatus(status OrderStatus) string {
	switch status {
	case StatusPaid:
		return EventOrderPaid
	case StatusShipped:
		return EventOrderShipped
	case StatusCancelled:
		return EventOrderCancelled
	default:
		return EventOrderPlaced
	}
}

// OrderEvent is the payload written to the outbox for every order state change.
type OrderEvent struct {
	EventID    uuid.UUID   `json:"eventId"`
	Type       string      `json:"type"`
	OrderID    uuid.UUID   `json:"orderId"`
	Status     OrderStatus `json:"status"`
	TotalPrice int64       `json:"totalPrice"`
	OccurredAt time.Time   `json:"occurredAt"`
}

// NewOrderEvent creates an event describing the order's current state.
func NewOrderEvent(eventType string, order *Order, now time.Time) OrderEvent {
	return OrderEvent{
		EventID:    uuid.New(),
		Type:       eventType,
		OrderID:    order.ID,
		Status:     order.Status,
		TotalPrice: order.TotalPrice,
		OccurredAt: now.UTC(),
	}
}

// OutboxRecord is a persisted event awaiting publication.
type OutboxRecord struct {
	ID        int64           `json:"id" db:"id"`
	EventID   uuid.UUID       `json:"eventId" db:"event_id"`
	Topic     string          `json:"topic" db:"topic"`
	Key       string          `json:"key" db:"key"`
	Payload   json.RawMessage `json:"payload" db:"payload"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
	SentAt    *time.Time      `json:"sentAt,omitempty" db:"sent_at"`
}
