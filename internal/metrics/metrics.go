package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// Metrics holds the application collectors. A nil *Metrics is valid and
// records nothing, which keeps unit tests free of registry setup.
type Metrics struct {
	registry prometheus.Gatherer

	OrdersPlaced      prometheus.Counter
	CheckoutFailures  *prometheus.CounterVec
	CheckoutDuration  prometheus.Histogram
	StatusTransitions *prometheus.CounterVec
	UnitsRestored     prometheus.Counter
	OrdersExpired     prometheus.Counter
	OutboxPublished   *prometheus.CounterVec
	Requests          *prometheus.CounterVec
	LatencyMS         *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		OrdersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Orders committed by checkout.",
		}),
		CheckoutFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_failures_total",
			Help:      "Checkouts rejected or failed, by error code.",
		}, []string{"code"}),
		CheckoutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_duration_ms",
			Help:      "Checkout latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}),
		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_transitions_total",
			Help:      "Committed order status transitions.",
		}, []string{"from", "to"}),
		UnitsRestored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_units_restored_total",
			Help:      "Stock units returned to variants by cancellations.",
		}),
		OrdersExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_expired_total",
			Help:      "Unpaid orders cancelled after the payment timeout.",
		}),
		OutboxPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_total",
			Help:      "Outbox events handled by the relay, by result.",
		}, []string{"result"}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"method"}),
	}

	reg.MustRegister(
		m.OrdersPlaced,
		m.CheckoutFailures,
		m.CheckoutDuration,
		m.StatusTransitions,
		m.UnitsRestored,
		m.OrdersExpired,
		m.OutboxPublished,
		m.Requests,
		m.LatencyMS,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveCheckout records the outcome of one checkout. code is empty on success.
func (m *Metrics) ObserveCheckout(start time.Time, code string) {
	if m == nil {
		return
	}
	m.CheckoutDuration.Observe(float64(time.Since(start).Milliseconds()))
	if code == "" {
		m.OrdersPlaced.Inc()
		return
	}
	m.CheckoutFailures.WithLabelValues(code).Inc()
}

// ObserveTransition records a committed status change.
func (m *Metrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(from, to).Inc()
}

// ObserveRestored records units returned to stock.
func (m *Metrics) ObserveRestored(units int) {
	if m == nil || units <= 0 {
		return
	}
	m.UnitsRestored.Add(float64(units))
}

// ObserveExpired records an order cancelled for non-payment.
func (m *Metrics) ObserveExpired() {
	if m == nil {
		return
	}
	m.OrdersExpired.Inc()
}

// ObserveOutbox records a relay result: "sent" or "failed".
func (m *Metrics) ObserveOutbox(result string) {
	if m == nil {
		return
	}
	m.OutboxPublished.WithLabelValues(result).Inc()
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.LatencyMS.WithLabelValues(method).Observe(float64(elapsed.Milliseconds()))
}
