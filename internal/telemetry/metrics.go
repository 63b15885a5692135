package telemetry

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the collectors exported by the front-end.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	BackendRequestDuration *prometheus.HistogramVec
	HTTPRequestDuration    *prometheus.HistogramVec
	ViewLoads              *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BackendRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "travel_backend_request_duration_seconds",
				Help:    "Latency of requests issued to the projects backend",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "travel_http_request_duration_seconds",
				Help:    "Latency of page requests served by the front-end",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
			},
			[]string{"method", "path", "status"},
		),
		ViewLoads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "travel_view_loads_total",
				Help: "View load outcomes by view and final state",
			},
			[]string{"view", "state"},
		),
	}
}

// ObserveBackend records one backend call. A zero status means the
// transport failed before a response arrived.
func (m *Metrics) ObserveBackend(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.BackendRequestDuration.WithLabelValues(method, RouteOf(path), statusLabel(status)).Observe(d.Seconds())
}

// ObserveHTTP records one served page request.
func (m *Metrics) ObserveHTTP(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(method, path, statusLabel(status)).Observe(d.Seconds())
}

// CountViewLoad records the state a view settled in after a load.
func (m *Metrics) CountViewLoad(view, state string) {
	if m == nil {
		return
	}
	m.ViewLoads.WithLabelValues(view, state).Inc()
}

// RouteOf collapses numeric path segments so ids do not explode label
// cardinality: /projects/12/places/3 -> /projects/:id/places/:id.
func RouteOf(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if seg == "" {
			continue
		}
		if _, err := strconv.ParseInt(seg, 10, 64); err == nil {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}

func statusLabel(status int) string {
	if status <= 0 {
		return "error"
	}
	return strconv.Itoa(status)
}
