// Package observability wires logging, metrics, and tracing for the service.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTPRequestsTotal counts HTTP requests by route, method, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	// HTTPRequestDuration observes HTTP request latency.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)

	// AIAttemptsTotal counts gateway completion attempts per model and outcome.
	AIAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_attempts_total",
			Help: "Total number of gateway completion attempts by model and outcome",
		},
		[]string{"model", "outcome"},
	)
	// AIAttemptDuration observes gateway round-trip latency per model.
	AIAttemptDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_attempt_duration_seconds",
			Help:    "Gateway completion attempt duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"model"},
	)
	// AIPromptTokens observes prompt sizes handed to the gateway.
	AIPromptTokens = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_prompt_tokens",
			Help:    "Estimated prompt token count per intent",
			Buckets: []float64{16, 32, 64, 128, 256, 512, 1024},
		},
		[]string{"intent"},
	)

	// AssistRequestsTotal counts pipeline runs by intent and result source.
	AssistRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assist_requests_total",
			Help: "Total number of assist pipeline runs by intent and source",
		},
		[]string{"intent", "source"},
	)

	// CacheHitsTotal counts response cache hits by intent.
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "response_cache_hits_total",
			Help: "Total number of response cache hits",
		},
		[]string{"intent"},
	)
	// CacheMissesTotal counts response cache misses by intent.
	CacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "response_cache_misses_total",
			Help: "Total number of response cache misses",
		},
		[]string{"intent"},
	)

	// RosterModelsListed reports whether a roster model is currently listed
	// free in the gateway catalog (1 listed, 0 missing).
	RosterModelsListed = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "roster_models_listed",
			Help: "Whether a roster model is still listed free in the gateway catalog",
		},
		[]string{"model"},
	)
)

// InitMetrics registers all collectors with the default registry.
// Call once per process before serving /metrics.
func InitMetrics() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		AIAttemptsTotal,
		AIAttemptDuration,
		AIPromptTokens,
		AssistRequestsTotal,
		CacheHitsTotal,
		CacheMissesTotal,
		RosterModelsListed,
	)
}

// HTTPMetricsMiddleware records request counts and latency per chi route.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		route := "unknown"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		HTTPRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(ww.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
