// Package metrics exposes the Prometheus metrics shared by both services,
// generalized from src/metrics/prometheus.go HTTP metrics and
// internal/api/middleware/prometheus.go middleware, re-scoped from
// account-only banking operations to movement/account/customer operations.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "endpoint", "status_code"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "endpoint", "status_code"},
	)

	HTTPRequestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		},
		[]string{"service"},
	)

	BankingOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "banking_operations_total",
			Help: "Total number of banking operations",
		},
		[]string{"operation", "status"}, // operation: movement.credit/debit/reversal, account.create, customer.create ...
	)

	MovementAmountHistogram = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "movement_amount_cents",
			Help:    "Distribution of movement amounts in minor units",
			Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000, 1000000},
		},
	)

	AccountBalanceHistogram = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "account_balance_cents",
			Help:    "Distribution of account balances in minor units",
			Buckets: []float64{-1000000, 0, 1000, 5000, 10000, 50000, 100000, 500000, 1000000, 5000000},
		},
	)

	EventsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_dropped_total",
			Help: "Total number of events dropped due to publish queue overflow",
		},
		[]string{"service"},
	)

	PeerBreakerStateGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "peer_circuit_breaker_state",
			Help: "Current state of the customer-validation circuit breaker (0=closed,1=half-open,2=open)",
		},
	)
)

// Middleware records per-request duration and counts, labeled by service
// name so both processes can share one Prometheus registry in development.
func Middleware(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		HTTPRequestsInFlight.WithLabelValues(service).Inc()
		defer HTTPRequestsInFlight.WithLabelValues(service).Dec()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		duration := time.Since(start).Seconds()

		HTTPDuration.WithLabelValues(service, c.Request.Method, endpoint, status).Observe(duration)
		HTTPRequestsTotal.WithLabelValues(service, c.Request.Method, endpoint, status).Inc()
	}
}

func RecordBankingOperation(operation, status string) {
	BankingOperationsTotal.WithLabelValues(operation, status).Inc()
}
