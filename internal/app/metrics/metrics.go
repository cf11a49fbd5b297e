// Package metrics holds the Prometheus collectors for the storefront client.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	apiInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "storefront",
			Subsystem: "api",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight requests to the storefront API.",
		},
	)

	apiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of storefront API requests issued.",
		},
		[]string{"method", "endpoint", "status"},
	)

	apiDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Duration of storefront API requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "endpoint"},
	)

	apiRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "api",
			Name:      "retries_total",
			Help:      "Total number of retried storefront API requests.",
		},
		[]string{"method", "endpoint"},
	)

	breakerState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "storefront",
			Subsystem: "api",
			Name:      "circuit_state",
			Help:      "Circuit breaker state (0 closed, 1 open, 2 half-open).",
		},
	)

	trackingEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "tracking",
			Name:      "events_total",
			Help:      "Tracking beacons by event type and outcome.",
		},
		[]string{"event_type", "outcome"},
	)

	cartMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "cart",
			Name:      "mutations_total",
			Help:      "Cart mutations by operation and result.",
		},
		[]string{"operation", "success"},
	)

	cartDrift = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "cart",
			Name:      "summary_drift_total",
			Help:      "Fetched carts whose server summary disagreed with their line items.",
		},
	)
)

func init() {
	Registry.MustRegister(
		apiInFlight,
		apiRequests,
		apiDuration,
		apiRetries,
		breakerState,
		trackingEvents,
		cartMutations,
		cartDrift,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentTransport wraps an outbound transport with request metrics.
func InstrumentTransport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		start := time.Now()
		apiInFlight.Inc()
		defer apiInFlight.Dec()

		resp, err := next.RoundTrip(req)

		endpoint := CanonicalPath(req.URL.Path)
		method := strings.ToUpper(req.Method)
		status := "error"
		if err == nil && resp != nil {
			status = strconv.Itoa(resp.StatusCode)
		}
		apiRequests.WithLabelValues(method, endpoint, status).Inc()
		apiDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
		return resp, err
	})
}

// RecordRetry counts a retried request.
func RecordRetry(method, path string) {
	apiRetries.WithLabelValues(strings.ToUpper(method), CanonicalPath(path)).Inc()
}

// SetCircuitState publishes the breaker state.
func SetCircuitState(state int) {
	breakerState.Set(float64(state))
}

// RecordTrackingEvent counts a beacon outcome: sent, failed or dropped.
func RecordTrackingEvent(eventType, outcome string) {
	if eventType == "" {
		eventType = "unknown"
	}
	trackingEvents.WithLabelValues(eventType, outcome).Inc()
}

// RecordCartMutation counts a cart add/remove/update.
func RecordCartMutation(operation string, success bool) {
	cartMutations.WithLabelValues(operation, strconv.FormatBool(success)).Inc()
}

// RecordCartDrift counts a cart snapshot whose summary disagreed with its items.
func RecordCartDrift() {
	cartDrift.Inc()
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// CanonicalPath collapses identifiers in API paths so label cardinality
// stays bounded, e.g. /api/cart/u1/items -> /api/cart/:id/items.
func CanonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if parts[0] == "api" {
		parts = parts[1:]
	}
	if len(parts) == 0 {
		return "/api"
	}

	out := []string{"api", parts[0]}
	for i := 1; i < len(parts); i++ {
		switch p := parts[i]; {
		case isFixedSegment(parts[0], p):
			out = append(out, p)
		default:
			out = append(out, ":id")
		}
	}
	return "/" + strings.Join(out, "/")
}

var fixedSegments = map[string]map[string]bool{
	"auth":            {"login": true, "register": true, "verify": true},
	"cart":            {"items": true, "remove": true},
	"recommendations": {"session": true},
	"tracking":        {"event": true},
	"payments":        {"initialize": true, "verify": true, "crypto": true, "supported": true},
}

func isFixedSegment(resource, segment string) bool {
	return fixedSegments[resource][segment]
}
