package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// CartMetrics holds Prometheus metrics for the storefront: cart mutations,
// backend fallbacks, merges and the outbound API.
type CartMetrics struct {
	// Cart
	CartMutations *prometheus.CounterVec
	CartFallbacks prometheus.Counter
	CartMerges    *prometheus.CounterVec
	MergedLines   prometheus.Counter
	CartValue     prometheus.Gauge
	CartQuantity  prometheus.Gauge

	// Auth & checkout
	Logins    *prometheus.CounterVec
	Checkouts *prometheus.CounterVec

	// External API performance
	APIRequests *prometheus.CounterVec
	APILatency  *prometheus.HistogramVec
}

// NewCartMetrics creates the metrics and registers them with reg.
func NewCartMetrics(namespace string, reg prometheus.Registerer) *CartMetrics {
	if namespace == "" {
		namespace = "folio"
	}

	m := &CartMetrics{
		// =======================================================================
		// Cart
		// =======================================================================
		CartMutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cart",
				Name:      "mutations_total",
				Help:      "Total cart mutations by operation, backend and result",
			},
			[]string{"op", "backend", "result"}, // backend: local, remote
		),
		CartFallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cart",
				Name:      "fetch_fallbacks_total",
				Help:      "Remote cart fetches answered from the local store",
			},
		),
		CartMerges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cart",
				Name:      "merges_total",
				Help:      "Local-to-remote cart merges by result",
			},
			[]string{"result"},
		),
		MergedLines: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cart",
				Name:      "merged_lines_total",
				Help:      "Cart lines replayed onto the server during merges",
			},
		),
		CartValue: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "cart",
				Name:      "total_price",
				Help:      "Current cart total price",
			},
		),
		CartQuantity: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "cart",
				Name:      "total_quantity",
				Help:      "Current cart total quantity",
			},
		),

		// =======================================================================
		// Auth & checkout
		// =======================================================================
		Logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "logins_total",
				Help:      "Login attempts by result",
			},
			[]string{"result"},
		),
		Checkouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "checkout",
				Name:      "completed_total",
				Help:      "Checkout attempts by result",
			},
			[]string{"result"},
		),

		// =======================================================================
		// External API
		// =======================================================================
		APIRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "api",
				Name:      "requests_total",
				Help:      "Outbound bookstore API requests by endpoint and status",
			},
			[]string{"endpoint", "status"}, // status "0" when no response
		),
		APILatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "api",
				Name:      "request_duration_seconds",
				Help:      "Outbound bookstore API latency in seconds",
				Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint"},
		),
	}

	reg.MustRegister(
		m.CartMutations,
		m.CartFallbacks,
		m.CartMerges,
		m.MergedLines,
		m.CartValue,
		m.CartQuantity,
		m.Logins,
		m.Checkouts,
		m.APIRequests,
		m.APILatency,
	)

	return m
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

// RecordMutation counts one cart mutation.
func (m *CartMetrics) RecordMutation(op, backend string, err error) {
	m.CartMutations.WithLabelValues(op, backend, result(err)).Inc()
}

// RecordFallback counts a remote fetch served from the local store.
func (m *CartMetrics) RecordFallback() {
	m.CartFallbacks.Inc()
}

// RecordMerge counts a merge run and the lines it replayed.
func (m *CartMetrics) RecordMerge(lines int, err error) {
	m.CartMerges.WithLabelValues(result(err)).Inc()
	m.MergedLines.Add(float64(lines))
}

// SetCartTotals mirrors the current aggregate.
func (m *CartMetrics) SetCartTotals(quantity int, price float64) {
	m.CartQuantity.Set(float64(quantity))
	m.CartValue.Set(price)
}

// RecordLogin counts a login attempt.
func (m *CartMetrics) RecordLogin(err error) {
	m.Logins.WithLabelValues(result(err)).Inc()
}

// RecordCheckout counts a checkout attempt.
func (m *CartMetrics) RecordCheckout(err error) {
	m.Checkouts.WithLabelValues(result(err)).Inc()
}

// ObserveAPIRequest records one outbound API call.
func (m *CartMetrics) ObserveAPIRequest(endpoint string, status int, elapsed time.Duration) {
	m.APIRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	m.APILatency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}
