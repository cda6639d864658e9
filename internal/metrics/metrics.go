package metrics

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"code", "method", "path"},
	)
	httpRequestsDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current Number of HTTP requests being processed.",
		},
	)

	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cache_lookups_total",
			Help: "Cache lookups by tier, entity and result (hit, miss, malformed).",
		},
		[]string{"tier", "entity", "result"},
	)

	tierWriteFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cache_write_failures_total",
			Help: "Failed write-through attempts by tier.",
		},
		[]string{"tier", "entity"},
	)

	lostUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cache_lost_updates_total",
			Help: "Durable writes that overwrote a concurrent writer.",
		},
		[]string{"partition"},
	)

	catalogRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_catalog_request_duration_seconds",
			Help:    "Duration of catalog API requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "outcome"},
	)
)

const (
	ResultHit       = "hit"
	ResultMiss      = "miss"
	ResultMalformed = "malformed"
)

func CacheLookup(tier, entity, result string) {
	cacheLookupsTotal.WithLabelValues(tier, entity, result).Inc()
}

func TierWriteFailure(tier, entity string) {
	tierWriteFailuresTotal.WithLabelValues(tier, entity).Inc()
}

func LostUpdate(partition string) {
	lostUpdatesTotal.WithLabelValues(partition).Inc()
}

func ObserveCatalogRequest(endpoint, outcome string, duration time.Duration) {
	catalogRequestDuration.WithLabelValues(endpoint, outcome).Observe(duration.Seconds())
}

func init() {
	if err := prometheus.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		slog.Debug("ProcessCollector registration skipped (likely already registered)",
			slog.String("error", err.Error()))
	}

	if err := prometheus.Register(collectors.NewGoCollector()); err != nil {
		slog.Debug("GoCollector registration skipped (likely already registered)",
			slog.String("error", err.Error()))
	}
}

// wrapper around http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		start := time.Now()
		httpRequestsInFlight.Inc()

		rw := newResponseWriter(w)

		// Routes register this per handler, so the mux pattern is already set.
		pathPattern := r.URL.Path
		if r.Pattern != "" {
			pathPattern = r.Pattern
		}

		defer func() {

			duration := time.Since(start)
			statusCodeStr := strconv.Itoa(rw.statusCode)

			httpRequestsTotal.WithLabelValues(statusCodeStr, r.Method, pathPattern).Inc()
			httpRequestsDuration.WithLabelValues(r.Method, pathPattern).Observe(duration.Seconds())
			httpRequestsInFlight.Dec()

		}()

		next.ServeHTTP(rw, r)

	})
}

// http.Handler for the Prometheus /metrics endpoint
func Handler() http.Handler {

	return promhttp.Handler()
}
