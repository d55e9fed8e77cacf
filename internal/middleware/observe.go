package middleware

import (
	"net/http"
	"time"

	"storefront/internal/metrics"

	"github.com/rs/zerolog"
)

// Logging writes one line per request. Server errors log at error level,
// client errors at warn.
func Logging(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := record(w)

			next.ServeHTTP(rec, r)

			l := requestLogger(r, logger)
			var event *zerolog.Event
			switch {
			case rec.status >= http.StatusInternalServerError:
				event = l.Error()
			case rec.status >= http.StatusBadRequest:
				event = l.Warn()
			default:
				event = l.Info()
			}

			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rec.status).
				Int("bytes", rec.written).
				Dur("duration", time.Since(start)).
				Str("remote_addr", r.RemoteAddr).
				Str("session_id", r.Header.Get("X-Session-ID")).
				Msg("http request")
		})
	}
}

// Metrics records request counts and latency by method and status.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := record(w)

			next.ServeHTTP(rec, r)

			m.ObserveRequest(r.Method, rec.status, time.Since(start))
		})
	}
}
