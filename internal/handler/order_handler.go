package handler

import (
	"context"
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OrderHandler handles checkout and order lifecycle HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Checkout handles POST /api/checkout requests.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionID(w, r, h.logger)
	if !ok {
		return
	}

	var req model.CheckoutRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	id, err := h.service.PlaceOrder(r.Context(), session, req.Customer)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, model.CheckoutResponse{ID: id})
}

// GetByID handles GET /api/orders/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r, h.logger)
	if !ok {
		return
	}
	h.respondWithOrder(w, r, id, http.StatusOK)
}

// Update handles PATCH /api/orders/{id} requests. Only the customer details
// may change; a status or total that differs from the stored order is
// rejected, and omitted fields are left as stored.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r, h.logger)
	if !ok {
		return
	}

	var req model.UpdateOrderRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	if err := h.service.PatchOrder(r.Context(), id, req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	h.respondWithOrder(w, r, id, http.StatusOK)
}

// Pay handles POST /api/orders/{id}/pay requests.
func (h *OrderHandler) Pay(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, service.OrderService.MarkPaid)
}

// Ship handles POST /api/orders/{id}/ship requests.
func (h *OrderHandler) Ship(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, service.OrderService.MarkShipped)
}

// Cancel handles POST /api/orders/{id}/cancel requests.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, service.OrderService.Cancel)
}

type transitionFunc func(service.OrderService, context.Context, uuid.UUID) error

func (h *OrderHandler) transition(w http.ResponseWriter, r *http.Request, apply transitionFunc) {
	id, ok := orderID(w, r, h.logger)
	if !ok {
		return
	}

	if err := apply(h.service, r.Context(), id); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	h.respondWithOrder(w, r, id, http.StatusOK)
}

func (h *OrderHandler) respondWithOrder(w http.ResponseWriter, r *http.Request, id uuid.UUID, status int) {
	order, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, status, order)
}
