package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BookingsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_created_total",
			Help: "Bookings committed to the ledger",
		},
		[]string{"resource_type", "status"},
	)
	BookingConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_conflicts_total",
			Help: "Booking attempts rejected because the inventory was taken or locked",
		},
		[]string{"resource_type"},
	)
	BookingsCancelled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_cancelled_total",
			Help: "Bookings cancelled, by refund tier",
		},
		[]string{"resource_type", "tier"},
	)
	RefundedAmount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_refund_minor_units_total",
			Help: "Refund amounts granted on cancellation, in minor currency units",
		},
		[]string{"currency"},
	)
	AvailabilityCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "availability_cache_lookups_total",
			Help: "Availability cache lookups by result",
		},
		[]string{"result"},
	)
)

// NormalizePath keeps the first two path segments so ids do not explode
// label cardinality ("/v1/bookings/abc/cancel" -> "v1/bookings").
func NormalizePath(p string) string {
	p = strings.TrimPrefix(p, "/")
	parts := strings.SplitN(p, "/", 3)
	if len(parts) > 2 {
		parts = parts[:2]
	}
	p = strings.Join(parts, "/")
	if p == "" {
		return "root"
	}
	return p
}

// Middleware records request count and latency.
func Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().URL.Path == "/metrics" {
			return next(c)
		}
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		duration := time.Since(start).Seconds()
		path := NormalizePath(c.Request().URL.Path)
		status := strconv.Itoa(c.Response().Status)
		RequestTotal.WithLabelValues(c.Request().Method, path, status).Inc()
		RequestDuration.WithLabelValues(c.Request().Method, path).Observe(duration)
		return nil
	}
}
