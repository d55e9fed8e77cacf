package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// CartHandler handles session cart HTTP requests.
type CartHandler struct {
	service service.CartService
	logger  zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service service.CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger.With().Str("handler", "cart").Logger(),
	}
}

// View handles GET /api/cart requests.
func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionID(w, r, h.logger)
	if !ok {
		return
	}

	snapshot, err := h.service.View(r.Context(), session)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// Add handles POST /api/cart/items requests.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionID(w, r, h.logger)
	if !ok {
		return
	}

	var req model.AddToCartRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	snapshot, err := h.service.Add(r.Context(), session, req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// Update handles PUT /api/cart/items/{key} requests.
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionID(w, r, h.logger)
	if !ok {
		return
	}

	var req model.UpdateCartRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	snapshot, err := h.service.Update(r.Context(), session, r.PathValue("key"), req.Quantity)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// Remove handles DELETE /api/cart/items/{key} requests.
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionID(w, r, h.logger)
	if !ok {
		return
	}

	snapshot, err := h.service.Remove(r.Context(), session, r.PathValue("key"))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// Clear handles DELETE /api/cart requests.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.service.Clear(r.Context(), session); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
