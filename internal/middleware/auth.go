package middleware

import (
	"crypto/subtle"
	"net/http"

	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// APIKeyHeader carries the shared API key.
const APIKeyHeader = "X-API-Key"

// publicPaths are served without an API key.
var publicPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// APIKeyAuth rejects requests outside publicPaths whose X-API-Key does not
// match apiKey.
func APIKeyAuth(apiKey string, logger zerolog.Logger) func(http.Handler) http.Handler {
	expected := []byte(apiKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			provided := r.Header.Get(APIKeyHeader)
			switch {
			case provided == "":
				requestLogger(r, logger).Warn().Str("path", r.URL.Path).Msg("missing API key")
				writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, "missing API key")
				return
			case subtle.ConstantTimeCompare([]byte(provided), expected) != 1:
				requestLogger(r, logger).Warn().
					Str("path", r.URL.Path).
					Int("key_length", len(provided)).
					Msg("invalid API key")
				writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, "invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
