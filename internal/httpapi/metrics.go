package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "koboldd",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "koboldd",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			// generate requests run for as long as the runner does
			Buckets: []float64{.005, .05, .25, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"path", "method", "status"},
	)

	httpInflight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "koboldd",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "In-flight HTTP requests",
		},
		[]string{"path"},
	)

	backpressureTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "koboldd",
			Subsystem: "http",
			Name:      "backpressure_total",
			Help:      "Total backpressure rejections (503 busy)",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal, httpRequestDuration, httpInflight, backpressureTotal)
}

// statusRecorder wraps http.ResponseWriter to capture status code
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// unmatchedRoute labels requests that match no registered route.
const unmatchedRoute = "unmatched"

// MetricsMiddleware instruments requests routed by mx for Prometheus. Series
// are labeled with the registered route pattern, trailing slash included.
func MetricsMiddleware(mx *chi.Mux) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			path := routeLabel(mx, r)
			inflight := httpInflight.WithLabelValues(path)
			inflight.Inc()
			next.ServeHTTP(sr, r)
			inflight.Dec()
			status := strconv.Itoa(sr.status)
			httpRequestsTotal.WithLabelValues(path, r.Method, status).Inc()
			httpRequestDuration.WithLabelValues(path, r.Method, status).Observe(time.Since(start).Seconds())
		})
	}
}

// routeLabel looks up the pattern mx would route r to. RoutePattern on the
// request context trims trailing slashes, which are significant here.
func routeLabel(mx *chi.Mux, r *http.Request) string {
	if mx == nil {
		return unmatchedRoute
	}
	if p := mx.Find(chi.NewRouteContext(), r.Method, r.URL.Path); p != "" {
		return p
	}
	return unmatchedRoute
}

// IncrementBackpressure is called when a request is rejected because a
// generation is already in flight.
func IncrementBackpressure(reason string) {
	if reason == "" {
		reason = "unspecified"
	}
	backpressureTotal.WithLabelValues(reason).Inc()
}
