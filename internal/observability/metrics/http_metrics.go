package metrics

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	StoreErrorDeadlineExceeded     = "deadline_exceeded"
	StoreErrorUniqueViolation      = "unique_violation"
	StoreErrorForeignKeyViolation  = "foreign_key_violation"
	StoreErrorSerializationFailure = "serialization_failure"
	StoreErrorLockTimeout          = "lock_timeout"
	StoreErrorNotFound             = "not_found"
	StoreErrorUnknown              = "unknown"
)

// HTTPMetrics exports request counters and latency histograms to Prometheus.
type HTTPMetrics struct {
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	storeErrors *prometheus.CounterVec
}

// NewHTTPMetrics registers collectors on the default Prometheus registry.
func NewHTTPMetrics() *HTTPMetrics {
	return NewHTTPMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewHTTPMetricsWithRegisterer registers collectors on reg, reusing collectors
// that are already registered.
func NewHTTPMetricsWithRegisterer(reg prometheus.Registerer) *HTTPMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "taskflow_http_requests_total",
		Help: "HTTP requests by route, method and status class.",
	}, []string{"route", "method", "status_code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "taskflow_http_request_duration_seconds",
		Help:    "HTTP request latency by route and method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})
	storeErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "taskflow_store_errors_total",
		Help: "Failed requests caused by the entity store, by reason.",
	}, []string{"route", "reason"})

	return &HTTPMetrics{
		requests:    registerOrExisting(reg, requests),
		duration:    registerOrExisting(reg, duration),
		storeErrors: registerOrExisting(reg, storeErrors),
	}
}

func registerOrExisting[T prometheus.Collector](reg prometheus.Registerer, collector T) T {
	if reg == nil {
		return collector
	}
	if err := reg.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return collector
}

// GinMiddleware records request metrics for every route.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		status := c.Writer.Status()
		m.requests.WithLabelValues(route, c.Request.Method, statusClass(status)).Inc()
		m.duration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())

		if status >= 500 {
			if lastErr := c.Errors.Last(); lastErr != nil {
				m.storeErrors.WithLabelValues(route, ClassifyStoreError(lastErr.Err)).Inc()
			}
		}
	}
}

// ClassifyStoreError maps driver and ORM errors to a bounded reason label.
func ClassifyStoreError(err error) string {
	if err == nil {
		return StoreErrorUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return StoreErrorDeadlineExceeded
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return StoreErrorNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return StoreErrorUniqueViolation
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return StoreErrorForeignKeyViolation
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return StoreErrorUniqueViolation
		case "23503":
			return StoreErrorForeignKeyViolation
		case "40001":
			return StoreErrorSerializationFailure
		case "55P03":
			return StoreErrorLockTimeout
		case "57014":
			return StoreErrorDeadlineExceeded
		}
	}
	return StoreErrorUnknown
}

func statusClass(status int) string {
	if status < 100 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}
