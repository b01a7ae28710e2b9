package telemetry

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "city_explorer_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "city_explorer_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "city_explorer_cache_lookups_total",
			Help: "Store lookups by resource and result (hit or miss)",
		},
		[]string{"resource", "result"},
	)

	providerCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "city_explorer_provider_calls_total",
			Help: "Outbound provider calls by resource and outcome",
		},
		[]string{"resource", "outcome"},
	)

	providerCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "city_explorer_provider_call_duration_seconds",
			Help:    "Outbound provider call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"resource"},
	)

	persistenceFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "city_explorer_persistence_failures_total",
			Help: "Store writes that failed after a successful provider fetch",
		},
		[]string{"resource"},
	)
)

// RecordCacheLookup counts one store lookup.
func RecordCacheLookup(resource string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookupsTotal.WithLabelValues(resource, result).Inc()
}

// RecordProviderCall counts one provider call and its latency.
func RecordProviderCall(resource string, started time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	providerCallsTotal.WithLabelValues(resource, outcome).Inc()
	providerCallDuration.WithLabelValues(resource).Observe(time.Since(started).Seconds())
}

// RecordPersistenceFailure counts one swallowed insert failure.
func RecordPersistenceFailure(resource string) {
	persistenceFailuresTotal.WithLabelValues(resource).Inc()
}

// Middleware records request count and latency per route.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if strings.HasPrefix(path, "/metrics") {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()

		// The fallback handler is mounted with Use, so its route is "/".
		routePath := c.Route().Path
		if routePath == "" || routePath == "/" {
			routePath = "unmatched"
		}
		status := c.Response().StatusCode()
		if err != nil {
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		httpRequestsTotal.WithLabelValues(c.Method(), routePath, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(c.Method(), routePath).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the Prometheus exposition format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
