// Package metrics exposes the Prometheus collectors that back the
// engine's /metrics endpoint. Grounded on the gin+promauto shape used
// elsewhere in the retrieved corpus: package-level collectors registered
// once via promauto, plain functions to record them so callers never touch
// a *prometheus.CounterVec directly.
package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SagaStepsTotal counts every step execution by name and outcome
	// (succeeded, retryable, terminal, skipped).
	SagaStepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payorch_saga_steps_total",
			Help: "Total saga step executions by step name and outcome",
		},
		[]string{"step", "outcome"},
	)

	// SagaStepDuration tracks how long a single step execution takes,
	// independent of the saga's overall backoff/retry schedule.
	SagaStepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payorch_saga_step_duration_seconds",
			Help:    "Saga step execution duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"step"},
	)

	// ClearingAdapterCircuitState mirrors circuitbreaker.go's three-state
	// machine as a gauge: 0 closed, 1 half-open, 2 open.
	ClearingAdapterCircuitState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "payorch_clearing_adapter_circuit_state",
			Help: "Clearing adapter circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"adapter"},
	)

	// OutboxBacklog is the number of unpublished outbox records the last
	// publisher tick observed, a proxy for event-delivery lag.
	OutboxBacklog = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "payorch_outbox_backlog",
			Help: "Unpublished outbox records observed on the last publisher tick",
		},
	)

	// TenantPaymentsTotal is per-tenant throughput: every payment Accept
	// call that reaches persistence, labelled by tenant and outcome.
	TenantPaymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payorch_tenant_payments_total",
			Help: "Total payments accepted per tenant",
		},
		[]string{"tenant", "status"},
	)

	// HTTPRequestsTotal and HTTPRequestDuration back the gin middleware
	// registered alongside the API routes.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payorch_http_requests_total",
			Help: "Total HTTP requests by route and status class",
		},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payorch_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// circuitStateValue maps the three breaker states the engine package names
// to the gauge's numeric encoding, kept here rather than in internal/clearing
// so that package has no reason to import prometheus directly.
func circuitStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}

// RecordSagaStep records one step execution's outcome and duration.
func RecordSagaStep(step, outcome string, duration time.Duration) {
	SagaStepsTotal.WithLabelValues(step, outcome).Inc()
	SagaStepDuration.WithLabelValues(step).Observe(duration.Seconds())
}

// SetAdapterCircuitState records a clearing adapter's breaker state
// transition.
func SetAdapterCircuitState(adapterID, state string) {
	ClearingAdapterCircuitState.WithLabelValues(adapterID).Set(circuitStateValue(state))
}

// SetOutboxBacklog records the unpublished record count from the most
// recent publisher tick.
func SetOutboxBacklog(count int) {
	OutboxBacklog.Set(float64(count))
}

// RecordTenantPayment increments a tenant's payment throughput counter.
func RecordTenantPayment(tenantID, status string) {
	TenantPaymentsTotal.WithLabelValues(tenantID, status).Inc()
}

// GinMiddleware records HTTP request count/duration for every route it is
// attached to. FullPath() collapses path parameters (e.g. /payments/:id)
// so the label cardinality stays bounded.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := statusClass(c.Writer.Status())
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func statusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}

// Handler adapts promhttp's Prometheus handler to gin for mounting at
// GET /metrics.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
