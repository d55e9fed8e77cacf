package router

import (
	"net/http"

	"storefront/internal/handler"
	"storefront/internal/metrics"
	"storefront/internal/middleware"

	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	cartHandler *handler.CartHandler,
	orderHandler *handler.OrderHandler,
	m *metrics.Metrics,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})
	mux.Handle("GET /metrics", m.Handler())

	// Cart routes, scoped by the X-Session-ID header
	mux.HandleFunc("GET /api/cart", cartHandler.View)
	mux.HandleFunc("DELETE /api/cart", cartHandler.Clear)
	mux.HandleFunc("POST /api/cart/items", cartHandler.Add)
	mux.HandleFunc("PUT /api/cart/items/{key}", cartHandler.Update)
	mux.HandleFunc("DELETE /api/cart/items/{key}", cartHandler.Remove)

	// Checkout and order lifecycle routes
	mux.HandleFunc("POST /api/checkout", orderHandler.Checkout)
	mux.HandleFunc("GET /api/orders/{id}", orderHandler.GetByID)
	mux.HandleFunc("PATCH /api/orders/{id}", orderHandler.Update)
	mux.HandleFunc("POST /api/orders/{id}/pay", orderHandler.Pay)
	mux.HandleFunc("POST /api/orders/{id}/ship", orderHandler.Ship)
	mux.HandleFunc("POST /api/orders/{id}/cancel", orderHandler.Cancel)

	// Apply middleware in order: RequestID -> Recovery -> Logging -> Metrics -> CORS -> APIKeyAuth
	var handler http.Handler = mux
	handler = middleware.APIKeyAuth(apiKey, logger)(handler)
	handler = middleware.CORS(handler)
	handler = middleware.Metrics(m)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)
	handler = middleware.RequestID(logger)(handler)

	return handler
}
