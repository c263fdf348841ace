package transport

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records request counts and latency.
type Metrics struct {
	// requests counts completed exchanges.
	// Labels: method, status (HTTP status code, or "error" when no response)
	requests *prometheus.CounterVec

	// latency measures exchange duration in seconds.
	// Labels: method
	latency *prometheus.HistogramVec
}

// NewMetrics registers the transport metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "odata",
			Subsystem: "transport",
			Name:      "requests_total",
			Help:      "Total requests sent to the data service",
		}, []string{"method", "status"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "odata",
			Subsystem: "transport",
			Name:      "request_duration_seconds",
			Help:      "Request latency in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method"}),
	}
}

var (
	defaultMetricsOnce sync.Once
	defaultMetrics     *Metrics
)

// DefaultMetrics returns the metrics registered with the default
// prometheus registerer.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		defaultMetrics = NewMetrics(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

func (m *Metrics) observe(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(method, label).Inc()
	m.latency.WithLabelValues(method).Observe(d.Seconds())
}
