package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/Domenick1991/airadmin/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airadmin_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "airadmin_http_request_duration_seconds",
			Help:    "Latency of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// Operations counts service calls by entity, operation and outcome.
	Operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airadmin_operations_total",
			Help: "Record operations by outcome",
		},
		[]string{"entity", "operation", "outcome"},
	)

	AuditEventsStored = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "airadmin_audit_events_stored_total",
			Help: "Audit events persisted by the worker",
		},
	)

	registerOnce sync.Once
)

var Handler = promhttp.Handler

// Init registers every collector with the default registry. Safe to call
// more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestsTotal, RequestLatency, Operations, AuditEventsStored)
	})
}

// ObserveOperation records one service call. It returns err unchanged so it
// can wrap a return statement.
func ObserveOperation(entity, operation string, err error) error {
	Operations.WithLabelValues(entity, operation, domain.OutcomeOf(err).String()).Inc()
	return err
}

func GinMiddleware() gin.HandlerFunc {
	Init()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		RequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		RequestLatency.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
