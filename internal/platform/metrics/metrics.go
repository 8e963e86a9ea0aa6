package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the client's Prometheus collectors. All methods are nil-safe so
// components can run without metrics wired.
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Refreshes       *prometheus.CounterVec
	RefreshWaiters  prometheus.Counter
	ActivityDropped prometheus.Counter
	ActivityEmitted prometheus.Counter
}

// New creates and registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "forkful_api_requests_total",
			Help: "Outbound API requests by method and status class",
		}, []string{"method", "status"}),

		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "forkful_api_request_duration_seconds",
			Help:    "Latency of outbound API requests including the auth retry",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method"}),

		Refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "forkful_token_refresh_total",
			Help: "Token refresh calls by outcome",
		}, []string{"outcome"}), // outcome: "success", "failure", "no_refresh_token"

		RefreshWaiters: f.NewCounter(prometheus.CounterOpts{
			Name: "forkful_token_refresh_shared_total",
			Help: "Requests that reused an in-flight or completed refresh instead of starting one",
		}),

		ActivityDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "forkful_activity_dropped_total",
			Help: "Activity events dropped because the buffer was full",
		}),

		ActivityEmitted: f.NewCounter(prometheus.CounterOpts{
			Name: "forkful_activity_emitted_total",
			Help: "Activity events handed to the sink",
		}),
	}
}

// ObserveRequest records one dispatch.
func (m *Metrics) ObserveRequest(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(method, statusClass(status)).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

// IncRefresh records a refresh outcome.
func (m *Metrics) IncRefresh(outcome string) {
	if m != nil {
		m.Refreshes.WithLabelValues(outcome).Inc()
	}
}

// IncRefreshWaiter records a request that piggybacked on another refresh.
func (m *Metrics) IncRefreshWaiter() {
	if m != nil {
		m.RefreshWaiters.Inc()
	}
}

// IncActivityDropped records an event evicted from the activity buffer.
func (m *Metrics) IncActivityDropped() {
	if m != nil {
		m.ActivityDropped.Inc()
	}
}

// AddActivityEmitted records events delivered to the sink.
func (m *Metrics) AddActivityEmitted(n int) {
	if m != nil {
		m.ActivityEmitted.Add(float64(n))
	}
}

func statusClass(status int) string {
	if status == 0 {
		return "network_error"
	}
	return strconv.Itoa(status/100) + "xx"
}
