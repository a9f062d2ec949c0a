package transport

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const MetricsPrefix = "airbend_http_client_"

type RetryReason string

const (
	RetryReasonTransient   RetryReason = "transient"
	RetryReasonRateLimited RetryReason = "rate_limited"
)

type Metrics struct {
	requests *prometheus.CounterVec
	retries  *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inFlight prometheus.Gauge
	waiting  prometheus.Gauge
}

var (
	defaultMetricsOnce sync.Once
	defaultMetrics     *Metrics
)

// DefaultMetrics returns metrics registered with the default prometheus registry. They are created on first use.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		defaultMetrics = NewMetrics(MetricsPrefix, prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

func NewMetrics(prefix string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "requests",
			Help: "Number of completed HTTP requests grouped by method and status code, or \"error\" for failed requests",
		}, []string{"method", "code"}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "retries",
			Help: "Number of HTTP request retries grouped by reason",
		}, []string{"reason"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    prefix + "request_duration_seconds",
			Help:    "Duration of HTTP requests including retries and rate-limit cooldowns",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"method"}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "requests_in_flight",
			Help: "Number of HTTP requests currently holding an admission slot",
		}),
		waiting: factory.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "requests_waiting",
			Help: "Number of HTTP requests waiting for an admission slot",
		}),
	}
}

func (m *Metrics) RecordRequest(method string, statusCode int, duration time.Duration) {
	code := "error"
	if statusCode > 0 {
		code = strconv.Itoa(statusCode)
	}
	m.requests.WithLabelValues(method, code).Inc()
	m.latency.WithLabelValues(method).Observe(duration.Seconds())
}

func (m *Metrics) RecordRetry(reason RetryReason) {
	m.retries.WithLabelValues(string(reason)).Inc()
}
