package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SessionHeader carries the shopper's session ID.
const SessionHeader = "X-Session-ID"

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code, code and message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Str("code", code).Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeServiceError maps a service error onto an HTTP status.
func writeServiceError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	code := model.ErrorCode(err)
	status := statusForCode(code)

	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Msg("request failed")
		message = "internal server error"
	}

	var stockErr *model.InsufficientStockError
	if errors.As(err, &stockErr) {
		logger.Warn().
			Str("product", stockErr.ProductName).
			Int("available", stockErr.Available).
			Int("requested", stockErr.Requested).
			Msg("insufficient stock")
		writeJSON(w, status, StockErrorResponse{
			ErrorResponse: model.ErrorResponse{Error: code, Message: message},
			ProductName:   stockErr.ProductName,
			Available:     stockErr.Available,
			Requested:     stockErr.Requested,
		})
		return
	}

	writeError(w, status, code, message, logger)
}

// StockErrorResponse adds the shortfall details to an INSUFFICIENT_STOCK error.
type StockErrorResponse struct {
	model.ErrorResponse
	ProductName string `json:"productName"`
	Available   int    `json:"available"`
	Requested   int    `json:"requested"`
}

func statusForCode(code string) int {
	switch code {
	case model.ErrCodeInvalidQuantity,
		model.ErrCodeInvalidCustomer,
		model.ErrCodeVariantRequired,
		model.ErrCodeEmptyCart:
		return http.StatusBadRequest
	case model.ErrCodeOrderNotFound,
		model.ErrCodeCartLineNotFound:
		return http.StatusNotFound
	case model.ErrCodeInsufficientStock,
		model.ErrCodeProductUnavailable,
		model.ErrCodeInvalidTransition,
		model.ErrCodeIllegalMutation,
		model.ErrCodeTerminalStateViolation,
		model.ErrCodeAlreadyTerminal:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// sessionID returns the request's session, writing a 400 when it is missing.
func sessionID(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (string, bool) {
	id := r.Header.Get(SessionHeader)
	if id == "" {
		writeError(w, http.StatusBadRequest, model.ErrCodeMissingSession, "X-Session-ID header is required", logger)
		return "", false
	}
	return id, true
}

// orderID parses the {id} path value, writing a 400 when it is malformed.
func orderID(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (uuid.UUID, bool) {
	raw := r.PathValue("id")
	if raw == "" {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidOrderID, "order ID is required", logger)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidOrderID, "invalid order ID format", logger)
		return uuid.Nil, false
	}
	return id, true
}

// decodeJSON reads the request body into dst, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, logger zerolog.Logger) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", logger)
		return false
	}
	return true
}
